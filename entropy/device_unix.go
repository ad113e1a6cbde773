// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package entropy

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type deviceSource struct {
	mu   sync.Mutex
	path string
	fd   int
}

func openDevice(path string) (*deviceSource, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &deviceSource{path: path, fd: fd}, nil
}

func (d *deviceSource) Fill(b []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return fmt.Errorf("%w: %s is closed", ErrUnavailable, d.path)
	}

	for done := 0; done < len(b); {
		n, err := unix.Read(d.fd, b[done:])
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return fmt.Errorf("%w: error reading %s: %w", ErrUnavailable, d.path, err)
		case n == 0:
			return fmt.Errorf("%w: error reading %s: end of file", ErrUnavailable, d.path)
		}
		done += n
	}
	return nil
}

func (d *deviceSource) Name() string {
	return "device:" + d.path
}

func (d *deviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
