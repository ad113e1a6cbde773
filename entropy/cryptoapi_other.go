// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package entropy

import (
	"errors"
	"runtime"
)

func openCryptoAPI() (Source, error) {
	return nil, errors.New("cryptographic service providers are not supported on " + runtime.GOOS)
}
