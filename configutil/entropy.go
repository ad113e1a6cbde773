// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package configutil

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/ast"
)

const (
	EntropyDevice    = "device"
	EntropyEGD       = "egd"
	EntropyCryptoAPI = "cryptoapi"
)

// Entropy is one backend in the ordered entropy chain.
type Entropy struct {
	Type   string `mapstructure:"-"`
	Path   string `mapstructure:"path"`
	Socket string `mapstructure:"socket"`
}

func (e *Entropy) GoString() string {
	return fmt.Sprintf("*%#v", *e)
}

// Opener returns the entropy backend opener described by e.
func (e *Entropy) Opener() entropy.Opener {
	switch e.Type {
	case EntropyDevice:
		return entropy.Device(e.Path)
	case EntropyEGD:
		if e.Socket == "" {
			return entropy.EGD()
		}
		return entropy.EGD(e.Socket)
	case EntropyCryptoAPI:
		return entropy.CryptoAPI()
	default:
		// Rejected at parse time.
		return nil
	}
}

func parseEntropy(result *[]*Entropy, list *ast.ObjectList, blockName string, opts *options) error {
	switch {
	case opts.withMaxEntropyBlocks > 0:
		if len(list.Items) > opts.withMaxEntropyBlocks {
			return fmt.Errorf("only %d or less %q blocks are permitted", opts.withMaxEntropyBlocks, blockName)
		}
	default:
		// Allow unlimited
	}

	backends := make([]*Entropy, 0, len(list.Items))
	for _, item := range list.Items {
		if len(item.Keys) == 0 {
			return fmt.Errorf("%s: missing backend type", blockName)
		}
		key := strings.ToLower(item.Keys[0].Token.Value().(string))
		prefix := fmt.Sprintf("%s.%s:", blockName, key)

		var m map[string]interface{}
		if err := hcl.DecodeObject(&m, item.Val); err != nil {
			return multierror.Prefix(err, prefix)
		}

		backend := &Entropy{Type: key}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           backend,
		})
		if err != nil {
			return err
		}
		if err := decoder.Decode(m); err != nil {
			return multierror.Prefix(err, prefix)
		}

		switch key {
		case EntropyDevice:
			if backend.Socket != "" {
				return multierror.Prefix(fmt.Errorf("'socket' is not valid for a device"), prefix)
			}
			if backend.Path == "" {
				backend.Path = entropy.DefaultDevice
			}
		case EntropyEGD:
			if backend.Path != "" {
				return multierror.Prefix(fmt.Errorf("'path' is not valid for an egd socket, use 'socket'"), prefix)
			}
		case EntropyCryptoAPI:
			if backend.Path != "" || backend.Socket != "" {
				return multierror.Prefix(fmt.Errorf("cryptoapi takes no parameters"), prefix)
			}
		default:
			return fmt.Errorf("unsupported entropy backend %q", key)
		}

		opts.withLogger.Trace("parsed entropy backend", "type", key)
		backends = append(backends, backend)
	}

	*result = append(*result, backends...)
	return nil
}
