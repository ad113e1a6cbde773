// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package entropy

import "fmt"

// CryptoAPI returns an Opener for the Windows cryptographic service
// provider. The provider handle is acquired once and released on Close.
func CryptoAPI() Opener {
	return func() (Source, error) {
		src, err := openCryptoAPI()
		if err != nil {
			return nil, fmt.Errorf("error acquiring cryptographic provider: %w", err)
		}
		return src, nil
	}
}
