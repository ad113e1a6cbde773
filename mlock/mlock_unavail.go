// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !(dragonfly || freebsd || linux || openbsd || solaris)

package mlock

import "errors"

func init() {
	supported = false
}

func lockMemory() error {
	// XXX: No good way to do this on Windows. There is the VirtualLock
	// method, but it requires a specific address and offset.
	return nil
}

func allocLocked(int) ([]byte, error) {
	return nil, errors.New("memory locking is not supported")
}

func freeLocked([]byte) error {
	return nil
}
