// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build windows

package entropy

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

type cryptoAPISource struct {
	mu       sync.Mutex
	prov     windows.Handle
	released bool
}

func openCryptoAPI() (*cryptoAPISource, error) {
	var prov windows.Handle
	err := windows.CryptAcquireContext(&prov, nil, nil, windows.PROV_RSA_FULL,
		windows.CRYPT_SILENT|windows.CRYPT_VERIFYCONTEXT)
	if err != nil {
		return nil, err
	}
	return &cryptoAPISource{prov: prov}, nil
}

func (c *cryptoAPISource) Fill(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return fmt.Errorf("%w: cryptographic provider released", ErrUnavailable)
	}

	for len(b) > 0 {
		n := min(len(b), 1<<30)
		if err := windows.CryptGenRandom(c.prov, uint32(n), &b[0]); err != nil {
			return fmt.Errorf("%w: error in CryptGenRandom: %w", ErrUnavailable, err)
		}
		b = b[n:]
	}
	return nil
}

func (c *cryptoAPISource) Name() string {
	return "cryptoapi"
}

func (c *cryptoAPISource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	return windows.CryptReleaseContext(c.prov, 0)
}
