// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package mlock keeps generator secrets out of swap and scrubs them once
// they are no longer needed.
package mlock

import "runtime"

// This should be set by the OS-specific files to tell whether locking is
// supported or not.
var supported bool

// Supported returns true if LockMemory and Alloc pin memory on this system.
func Supported() bool {
	return supported
}

// LockMemory prevents any memory of the process from being swapped to disk.
func LockMemory() error {
	return lockMemory()
}

// Region is memory owned by a single caller. Where locking is supported it
// is a dedicated run of pages pinned in memory, so freeing it never unpins
// memory belonging to anyone else.
type Region struct {
	buf    []byte
	locked bool
}

// Alloc returns a region of at least size bytes. On systems without memory
// locking the region is ordinary heap memory and Locked reports false.
func Alloc(size int) (*Region, error) {
	if size <= 0 {
		return &Region{}, nil
	}
	if !supported {
		return &Region{buf: make([]byte, size)}, nil
	}
	buf, err := allocLocked(size)
	if err != nil {
		return nil, err
	}
	return &Region{buf: buf[:size], locked: true}, nil
}

// Bytes returns the usable memory of the region. It is nil once freed.
func (r *Region) Bytes() []byte {
	return r.buf
}

// Locked reports whether the region is pinned in memory.
func (r *Region) Locked() bool {
	return r.locked
}

// Free wipes the region and releases it. It is safe to call more than once.
func (r *Region) Free() error {
	if r.buf == nil {
		return nil
	}
	Wipe(r.buf)
	buf, locked := r.buf, r.locked
	r.buf, r.locked = nil, false
	if !locked {
		return nil
	}
	return freeLocked(buf[:cap(buf)])
}

// Wipe overwrites b with zeros. It is meant to be deferred right after a
// secret buffer is declared so that every return path scrubs it.
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
