// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package entropy

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
)

const (
	// egdReadBlocking asks the daemon for exactly the requested number of
	// bytes, blocking until it has them.
	egdReadBlocking = 0x02

	// egdMaxRequest is the largest count a single EGD request can carry.
	egdMaxRequest = 255
)

// DefaultEGDSockets returns the socket paths probed when no EGD socket is
// configured: $EGD_SOCKET first, then the usual daemon locations.
func DefaultEGDSockets() []string {
	paths := []string{"/var/run/egd-pool", "/dev/egd-pool", "/etc/egd-pool", "/etc/entropy"}
	if env := os.Getenv("EGD_SOCKET"); env != "" {
		paths = append([]string{env}, paths...)
	}
	return paths
}

// EGD returns an Opener that connects to the first reachable entropy
// gathering daemon socket among paths. The connection is kept until Close.
func EGD(paths ...string) Opener {
	return func() (Source, error) {
		candidates := paths
		if len(candidates) == 0 {
			candidates = DefaultEGDSockets()
		}
		var errs *multierror.Error
		for _, p := range candidates {
			if p == "" {
				continue
			}
			conn, err := net.Dial("unix", p)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			return &egdSource{path: p, conn: conn}, nil
		}
		if errs == nil {
			return nil, fmt.Errorf("no egd socket configured")
		}
		return nil, fmt.Errorf("error connecting to egd socket: %w", errs)
	}
}

type egdSource struct {
	mu   sync.Mutex
	path string
	conn net.Conn
}

func (e *egdSource) Fill(b []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return fmt.Errorf("%w: egd socket %s is closed", ErrUnavailable, e.path)
	}

	for done := 0; done < len(b); {
		n := min(len(b)-done, egdMaxRequest)
		if _, err := e.conn.Write([]byte{egdReadBlocking, byte(n)}); err != nil {
			return fmt.Errorf("%w: error writing to egd socket %s: %w", ErrUnavailable, e.path, err)
		}
		if _, err := io.ReadFull(e.conn, b[done:done+n]); err != nil {
			return fmt.Errorf("%w: error reading egd socket %s: %w", ErrUnavailable, e.path, err)
		}
		done += n
	}
	return nil
}

func (e *egdSource) Name() string {
	return "egd:" + e.path
}

func (e *egdSource) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}
