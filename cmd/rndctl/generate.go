// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/rnd"
	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
	"github.com/mitchellh/cli"
)

var _ cli.Command = (*GenerateCommand)(nil)

type GenerateCommand struct {
	*BaseCommand

	flagLevel       string
	flagBytes       int
	flagFormat      string
	flagShowMetrics bool

	// lockMemory pins the whole process before any secret is produced. It
	// is nil where memory locking is not supported.
	lockMemory func() error

	// extra options, used by tests to inject an entropy source
	opts []rnd.Option
}

func (c *GenerateCommand) Synopsis() string {
	return "Generate random bytes"
}

func (c *GenerateCommand) Help() string {
	helpText := `
Usage: rndctl generate [options]

  Generates random bytes from the requested level and prints them.

  Generate a 32 byte key, hex encoded:

     $ rndctl generate -level=key -bytes=32

Options:

  -level=<nonce|random|key>  Generator level. Defaults to random.
  -bytes=<n>                 Number of bytes. Defaults to 32.
  -format=<hex|base64|raw>   Output encoding. Defaults to hex.
  -show-metrics              Log the counters recorded while generating.
  -config=<path>             HCL configuration file.

  Unless disable_mlock is set in the configuration, all process memory is
  locked before the generator is built and the command fails if that is
  not possible.
`
	return strings.TrimSpace(helpText)
}

func (c *GenerateCommand) Run(args []string) int {
	f := c.flagSet("generate")
	f.StringVar(&c.flagLevel, "level", "random", "")
	f.IntVar(&c.flagBytes, "bytes", 32, "")
	f.StringVar(&c.flagFormat, "format", "hex", "")
	f.BoolVar(&c.flagShowMetrics, "show-metrics", false, "")
	if err := f.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	level, err := rnd.ParseLevel(c.flagLevel)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if c.flagBytes < 0 {
		c.UI.Error(fmt.Sprintf("invalid byte count %d", c.flagBytes))
		return 1
	}
	switch c.flagFormat {
	case "hex", "base64", "raw":
	default:
		c.UI.Error(fmt.Sprintf("unknown format %q", c.flagFormat))
		return 1
	}

	conf, err := c.loadConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error loading configuration: %s", err))
		return 1
	}

	if !conf.DisableMlock && c.lockMemory != nil {
		if err := c.lockMemory(); err != nil {
			c.UI.Error(fmt.Sprintf(
				"Error locking memory: %s\n\n"+
					"Set disable_mlock = true in the configuration to run "+
					"without memory locking.", err))
			return 2
		}
	}

	m, inm, err := conf.Telemetry.Metrics(nil)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error initializing telemetry: %s", err))
		return 2
	}

	logger := c.logger(conf)
	opts := append(conf.Options(), rnd.WithLogger(logger), rnd.WithMetrics(m))
	g, err := rnd.New(append(opts, c.opts...)...)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error initializing generator: %s", err))
		return 2
	}
	defer g.Close()

	out, err := g.Generate(level, c.flagBytes)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error generating random bytes: %s", err))
		return 2
	}
	defer mlock.Wipe(out)

	switch c.flagFormat {
	case "hex":
		c.UI.Output(hex.EncodeToString(out))
	case "base64":
		c.UI.Output(base64.StdEncoding.EncodeToString(out))
	case "raw":
		if _, err := c.out.Write(out); err != nil {
			c.UI.Error(fmt.Sprintf("Error writing output: %s", err))
			return 2
		}
	}

	if c.flagShowMetrics {
		for _, interval := range inm.Data() {
			interval.RLock()
			for _, counter := range interval.Counters {
				logger.Info("counter", "name", counter.Name, "labels", counter.DisplayLabels, "sum", counter.Sum)
			}
			interval.RUnlock()
		}
	}
	return 0
}
