// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package entropy

// Defaults returns the platform backend chain: the randomness device, then
// an entropy gathering daemon socket.
func Defaults() []Opener {
	return []Opener{Device(DefaultDevice), EGD()}
}
