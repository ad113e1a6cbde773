// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package configutil

import (
	"github.com/hashicorp/go-hclog"
)

// getOpts - iterate the inbound Options and return a struct
func getOpts(opt ...Option) (*options, error) {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o != nil {
			if err := o(&opts); err != nil {
				return nil, err
			}
		}
	}
	return &opts, nil
}

// Option - how Options are passed as arguments
type Option func(*options) error

// options = how options are represented
type options struct {
	withMaxEntropyBlocks int
	withLogger           hclog.Logger
}

func getDefaultOptions() options {
	return options{
		withLogger: hclog.NewNullLogger(),
	}
}

// WithMaxEntropyBlocks provides a maximum number of allowed entropy blocks.
// Set negative for unlimited. 0 uses the lib default, which is currently
// unlimited.
func WithMaxEntropyBlocks(blocks int) Option {
	return func(o *options) error {
		o.withMaxEntropyBlocks = blocks
		return nil
	}
}

// WithLogger provides a logger for parse-time diagnostics
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.withLogger = logger
		}
		return nil
	}
}
