// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package configutil parses the HCL configuration of a random generator and
// turns it into rnd options.
package configutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/errwrap"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/rnd"
	"github.com/hashicorp/go-secure-stdlib/rnd/ctrdrbg"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/ast"
)

// Config is the generator configuration.
type Config struct {
	Entropy []*Entropy `hcl:"-"`

	DisableMlock    bool        `hcl:"-"`
	DisableMlockRaw interface{} `hcl:"disable_mlock"`

	ReseedInterval    uint64      `hcl:"-"`
	ReseedIntervalRaw interface{} `hcl:"reseed_interval"`

	// Personalization may be given literally or as an env:// or file://
	// reference, which is resolved at parse time.
	Personalization string `hcl:"personalization"`

	// LogFormat specifies the log format. Valid values are "standard" and
	// "json". The values are case-insenstive. If no log format is specified,
	// then standard format will be used.
	LogFormat string `hcl:"log_format"`
	LogLevel  string `hcl:"log_level"`

	Telemetry *Telemetry `hcl:"-"`
}

// LoadConfigFile loads the configuration from the given file.
func LoadConfigFile(path string, opt ...Option) (*Config, error) {
	// Read the file
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(string(d), opt...)
}

func ParseConfig(d string, opt ...Option) (*Config, error) {
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, err
	}

	// Parse!
	obj, err := hcl.Parse(d)
	if err != nil {
		return nil, err
	}

	// Start building the result
	var result Config
	if err := hcl.DecodeObject(&result, obj); err != nil {
		return nil, err
	}

	if result.DisableMlockRaw != nil {
		if result.DisableMlock, err = parseutil.ParseBool(result.DisableMlockRaw); err != nil {
			return nil, err
		}
		result.DisableMlockRaw = nil
	}

	if result.ReseedIntervalRaw != nil {
		interval, err := parseutil.ParseInt(result.ReseedIntervalRaw)
		if err != nil {
			return nil, errwrap.Wrapf("error parsing 'reseed_interval': {{err}}", err)
		}
		if interval < 1 || interval > ctrdrbg.MaxGenerations {
			return nil, fmt.Errorf("'reseed_interval' must be between 1 and %d", ctrdrbg.MaxGenerations)
		}
		result.ReseedInterval = uint64(interval)
		result.ReseedIntervalRaw = nil
	}

	if result.Personalization != "" {
		if result.Personalization, err = parseutil.ParsePath(result.Personalization); err != nil {
			return nil, errwrap.Wrapf("error parsing 'personalization': {{err}}", err)
		}
		if len(result.Personalization) > ctrdrbg.SeedSize {
			return nil, fmt.Errorf("'personalization' must be at most %d bytes", ctrdrbg.SeedSize)
		}
	}

	switch strings.ToLower(result.LogFormat) {
	case "", "standard", "json":
	default:
		return nil, fmt.Errorf("unknown 'log_format' %q", result.LogFormat)
	}
	if result.LogLevel != "" && hclog.LevelFromString(result.LogLevel) == hclog.NoLevel {
		return nil, fmt.Errorf("unknown 'log_level' %q", result.LogLevel)
	}

	list, ok := obj.Node.(*ast.ObjectList)
	if !ok {
		return nil, fmt.Errorf("error parsing: file doesn't contain a root object")
	}

	if o := list.Filter("entropy"); len(o.Items) > 0 {
		if err := parseEntropy(&result.Entropy, o, "entropy", opts); err != nil {
			return nil, errwrap.Wrapf("error parsing 'entropy': {{err}}", err)
		}
	}

	if o := list.Filter("telemetry"); len(o.Items) > 0 {
		if err := parseTelemetry(&result, o); err != nil {
			return nil, errwrap.Wrapf("error parsing 'telemetry': {{err}}", err)
		}
	}

	opts.withLogger.Debug("parsed configuration", "entropy_backends", len(result.Entropy), "telemetry", result.Telemetry != nil)
	return &result, nil
}

// Options converts the configuration into generator options.
func (c *Config) Options() []rnd.Option {
	if c == nil {
		return nil
	}
	var opts []rnd.Option
	if len(c.Entropy) > 0 {
		openers := make([]entropy.Opener, 0, len(c.Entropy))
		for _, e := range c.Entropy {
			openers = append(openers, e.Opener())
		}
		opts = append(opts, rnd.WithEntropyOpeners(openers...))
	}
	if c.ReseedInterval > 0 {
		opts = append(opts, rnd.WithReseedInterval(c.ReseedInterval))
	}
	if c.DisableMlock {
		opts = append(opts, rnd.WithMlock(false))
	}
	if c.Personalization != "" {
		opts = append(opts, rnd.WithPersonalization([]byte(c.Personalization)))
	}
	return opts
}

// Logger builds a logger honouring log_level and log_format.
func (c *Config) Logger(name string, w io.Writer) hclog.Logger {
	level := hclog.Info
	json := false
	if c != nil {
		if c.LogLevel != "" {
			level = hclog.LevelFromString(c.LogLevel)
		}
		json = strings.EqualFold(c.LogFormat, "json")
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     w,
		JSONFormat: json,
	})
}

// Sanitized returns a copy of the config with all values that are considered
// sensitive stripped. It also strips all `*Raw` values that are mainly
// used for parsing.
//
// Specifically, the fields that this method strips are:
// - Personalization (only whether it is set is reported)
func (c *Config) Sanitized() map[string]interface{} {
	if c == nil {
		return nil
	}

	result := map[string]interface{}{
		"disable_mlock":   c.DisableMlock,
		"reseed_interval": c.ReseedInterval,
		"personalization": c.Personalization != "",

		"log_level":  c.LogLevel,
		"log_format": c.LogFormat,
	}

	if len(c.Entropy) != 0 {
		var sanitizedEntropy []interface{}
		for _, e := range c.Entropy {
			cleanEntropy := map[string]interface{}{
				"type": e.Type,
			}
			if e.Path != "" {
				cleanEntropy["path"] = e.Path
			}
			if e.Socket != "" {
				cleanEntropy["socket"] = e.Socket
			}
			sanitizedEntropy = append(sanitizedEntropy, cleanEntropy)
		}
		result["entropy"] = sanitizedEntropy
	}

	if c.Telemetry != nil {
		result["telemetry"] = c.Telemetry.sanitized()
	}

	return result
}
