// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build dragonfly || freebsd || linux || openbsd || solaris

package mlock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func init() {
	supported = true
}

func lockMemory() error {
	// Mlockall prevents all current and future pages from being swapped out.
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

// allocLocked maps whole anonymous pages outside the Go heap and pins them.
func allocLocked(size int) ([]byte, error) {
	page := unix.Getpagesize()
	length := (size + page - 1) / page * page
	buf, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("error mapping %d bytes: %w", length, err)
	}
	if err := unix.Mlock(buf); err != nil {
		_ = unix.Munmap(buf)
		return nil, fmt.Errorf("error locking %d bytes: %w", length, err)
	}
	return buf, nil
}

func freeLocked(buf []byte) error {
	// Unmapping drops the lock along with the pages.
	return unix.Munmap(buf)
}
