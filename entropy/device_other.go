// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package entropy

import (
	"errors"
	"runtime"
)

func openDevice(string) (Source, error) {
	return nil, errors.New("randomness devices are not supported on " + runtime.GOOS)
}
