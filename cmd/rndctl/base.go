// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"flag"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-secure-stdlib/rnd/configutil"
	"github.com/mitchellh/cli"
)

// BaseCommand carries what every subcommand shares.
type BaseCommand struct {
	UI cli.Ui

	// out receives raw binary output, which cannot go through the UI.
	out io.Writer

	flagConfig string
}

func (c *BaseCommand) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	f.StringVar(&c.flagConfig, "config", "", "Path to an HCL configuration file.")
	return f
}

// loadConfig returns the configuration named by -config, or an empty one.
func (c *BaseCommand) loadConfig() (*configutil.Config, error) {
	if c.flagConfig == "" {
		return &configutil.Config{}, nil
	}
	return configutil.LoadConfigFile(c.flagConfig)
}

// logger writes through the UI's error stream so that diagnostics never mix
// with generated output.
func (c *BaseCommand) logger(conf *configutil.Config) hclog.Logger {
	return conf.Logger("rndctl", &uiErrorWriter{ui: c.UI})
}

type uiErrorWriter struct {
	ui cli.Ui
}

func (w *uiErrorWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	w.ui.Error(string(p))
	return n, nil
}
