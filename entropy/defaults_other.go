// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !unix && !windows

package entropy

// Defaults returns no backends; callers must configure one explicitly.
func Defaults() []Opener {
	return nil
}
