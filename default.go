// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import "github.com/hashicorp/go-secure-stdlib/functional/lazy"

// defaultGenerator is built on first use with the platform entropy chain
// and lives for the rest of the process.
var defaultGenerator = lazy.FromErrorableProducer(func() (*Generator, error) {
	return New()
})

// Default returns the process-wide generator, building it on first use. A
// failure to build it is permanent for the life of the process. The result
// must not be closed.
func Default() (*Generator, error) {
	return defaultGenerator()
}

// Read fills out from the given level of the process-wide generator.
func Read(level Level, out []byte) error {
	g, err := Default()
	if err != nil {
		clear(out)
		return err
	}
	return g.Read(level, out)
}
