// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package entropy

import "fmt"

// DefaultDevice is the randomness device opened by the POSIX primary backend.
const DefaultDevice = "/dev/urandom"

// Device returns an Opener for the randomness device at path. The device is
// opened once, marked close-on-exec, and kept open until Close.
func Device(path string) Opener {
	return func() (Source, error) {
		p := path
		if p == "" {
			p = DefaultDevice
		}
		src, err := openDevice(p)
		if err != nil {
			return nil, fmt.Errorf("error opening entropy device %s: %w", p, err)
		}
		return src, nil
	}
}
