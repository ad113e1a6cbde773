// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command rndctl exercises the rnd generator from the command line: it runs
// the known-answer self-test, emits random bytes and validates configuration
// files.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
	"github.com/mitchellh/cli"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}))
}

func run(args []string, ui cli.Ui) int {
	c := cli.NewCLI("rndctl", version)
	c.Args = args
	c.Commands = commands(&BaseCommand{UI: ui, out: os.Stdout})
	c.HelpWriter = os.Stderr

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}
	return exitCode
}

func commands(base *BaseCommand) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"selftest": func() (cli.Command, error) {
			return &SelftestCommand{BaseCommand: base}, nil
		},
		"generate": func() (cli.Command, error) {
			cmd := &GenerateCommand{BaseCommand: base}
			if mlock.Supported() {
				cmd.lockMemory = mlock.LockMemory
			}
			return cmd, nil
		},
		"config": func() (cli.Command, error) {
			return &ConfigCommand{BaseCommand: base}, nil
		},
		"config validate": func() (cli.Command, error) {
			return &ConfigValidateCommand{BaseCommand: base}, nil
		},
	}
}
