// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build windows

package entropy

// Defaults returns the platform backend chain.
func Defaults() []Opener {
	return []Opener{CryptoAPI()}
}
