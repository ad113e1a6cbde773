// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"strings"

	"github.com/hashicorp/go-secure-stdlib/rnd/selftest"
	"github.com/mitchellh/cli"
)

var _ cli.Command = (*SelftestCommand)(nil)

type SelftestCommand struct {
	*BaseCommand
}

func (c *SelftestCommand) Synopsis() string {
	return "Run the generator known-answer tests"
}

func (c *SelftestCommand) Help() string {
	helpText := `
Usage: rndctl selftest

  Runs the CTR_DRBG known-answer tests that every generator runs before it
  serves output, and reports whether they pass.
`
	return strings.TrimSpace(helpText)
}

func (c *SelftestCommand) Run(args []string) int {
	if len(args) > 0 {
		c.UI.Error("selftest takes no arguments")
		return 1
	}
	if err := selftest.Run(); err != nil {
		c.UI.Error(err.Error())
		return 2
	}
	c.UI.Output("Self-test passed.")
	return 0
}
