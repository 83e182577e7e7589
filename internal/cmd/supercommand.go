// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

// loggingConfigEnv overrides the default logging configuration, using
// loggo's configuration syntax.
const loggingConfigEnv = "INFINISTATE_LOGGING_CONFIG"

// SuperCommandParams configures a new SuperCommand.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string
}

// SuperCommand dispatches to a set of registered subcommands, in the
// manner of "infinistate pool ..." or "infinistate apply ...".
type SuperCommand struct {
	name    string
	purpose string
	doc     string

	subcmds map[string]Command
	action  Command

	debug   bool
	verbose bool
}

// NewSuperCommand returns an initialized SuperCommand.
func NewSuperCommand(params SuperCommandParams) *SuperCommand {
	return &SuperCommand{
		name:    params.Name,
		purpose: params.Purpose,
		doc:     params.Doc,
		subcmds: make(map[string]Command),
	}
}

// Register makes a subcommand available for use. Registering a name
// twice is a programming error.
func (c *SuperCommand) Register(subcmd Command) {
	name := subcmd.Info().Name
	if _, found := c.subcmds[name]; found {
		panic(fmt.Sprintf("command %q is already registered", name))
	}
	c.subcmds[name] = subcmd
}

// Info implements Command.
func (c *SuperCommand) Info() *Info {
	return &Info{
		Name:    c.name,
		Args:    "<command> ...",
		Purpose: c.purpose,
		Doc:     c.doc,
	}
}

// SetFlags implements Command, adding the global flags.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.debug, "debug", false, "Show DEBUG level log messages")
	f.BoolVar(&c.verbose, "verbose", false, "Show INFO level log messages")
}

// AllowInterspersedFlags stops global flag parsing at the subcommand
// name so the subcommand sees its own flags.
func (c *SuperCommand) AllowInterspersedFlags() bool {
	return false
}

// Init implements Command, selecting and initializing the subcommand.
func (c *SuperCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.Errorf("no command specified")
	}
	name, rest := args[0], args[1:]
	if name == "help" {
		return c.initHelp(rest)
	}
	subcmd, found := c.subcmds[name]
	if !found {
		return errors.Errorf("unrecognized command: %s %s", c.name, name)
	}
	f := newFlagSet(name, os.Stderr)
	subcmd.SetFlags(f)
	if err := f.Parse(true, rest); err != nil {
		if err == gnuflag.ErrHelp {
			c.action = &helpCommand{super: c, target: name}
			return nil
		}
		return errors.Trace(err)
	}
	if err := subcmd.Init(f.Args()); err != nil {
		return errors.Annotatef(err, "%s", name)
	}
	c.action = subcmd
	return nil
}

func (c *SuperCommand) initHelp(args []string) error {
	help := &helpCommand{super: c}
	if len(args) > 0 {
		if _, found := c.subcmds[args[0]]; !found {
			return errors.Errorf("unknown command or topic for %s", args[0])
		}
		help.target = args[0]
	}
	c.action = help
	return nil
}

// Run implements Command, configuring logging and running the selected
// subcommand.
func (c *SuperCommand) Run(ctx *Context) error {
	if err := c.configureLogging(); err != nil {
		return errors.Trace(err)
	}
	return c.action.Run(ctx)
}

func (c *SuperCommand) configureLogging() error {
	config := "<root>=WARNING"
	if c.verbose {
		config = "<root>=INFO"
	}
	if c.debug {
		config = "<root>=DEBUG"
	}
	if env := os.Getenv(loggingConfigEnv); env != "" {
		config = env
	}
	return errors.Trace(loggo.ConfigureLoggers(config))
}

// helpCommand prints the command list, or one command's usage.
type helpCommand struct {
	super  *SuperCommand
	target string
}

func (h *helpCommand) Info() *Info {
	return &Info{Name: "help", Purpose: "Show help on a command."}
}

func (h *helpCommand) SetFlags(f *gnuflag.FlagSet) {}

func (h *helpCommand) Init(args []string) error {
	return CheckEmpty(args)
}

func (h *helpCommand) Run(ctx *Context) error {
	if h.target != "" {
		printUsage(h.super.subcmds[h.target], ctx.Stdout)
		return nil
	}
	info := h.super.Info()
	fmt.Fprintf(ctx.Stdout, "Usage: %s\n\nSummary:\n%s\n\nCommands:\n", info.Usage(), info.Purpose)
	names := make([]string, 0, len(h.super.subcmds))
	for name := range h.super.subcmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(ctx.Stdout, "    %-14s %s\n", name, h.super.subcmds[name].Info().Purpose)
	}
	return nil
}
