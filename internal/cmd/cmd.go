// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package cmd holds the small command framework the infinistate CLI is
// built from: a Command interface, a run Context, and a SuperCommand
// dispatching to registered subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
)

// Info describes a command's intent and usage.
type Info struct {
	// Name is the command's name.
	Name string

	// Args describes the command's expected positional arguments.
	Args string

	// Purpose is a one-line explanation of what the command does.
	Purpose string

	// Doc is the long documentation shown by help.
	Doc string
}

// Usage combines Name and Args.
func (i *Info) Usage() string {
	if i.Args == "" {
		return i.Name
	}
	return fmt.Sprintf("%s %s", i.Name, i.Args)
}

// Command is implemented by the CLI's subcommands.
type Command interface {
	// Info returns information about the command.
	Info() *Info

	// SetFlags adds the command's options to f.
	SetFlags(f *gnuflag.FlagSet)

	// Init processes the positional arguments left after flag parsing
	// and validates the resulting configuration.
	Init(args []string) error

	// Run executes the command.
	Run(ctx *Context) error
}

// Context carries the environment a command runs in.
type Context struct {
	ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultContext returns a Context attached to the process streams.
func DefaultContext() *Context {
	return &Context{
		ctx:    context.Background(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Context returns the context.Context carried by this run context.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Infof prints a line to stdout.
func (c *Context) Infof(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout, format+"\n", args...)
}

// CheckEmpty returns an error if args is not empty.
func CheckEmpty(args []string) error {
	if len(args) != 0 {
		return errors.Errorf("unrecognized args: %q", args)
	}
	return nil
}

func newFlagSet(name string, output io.Writer) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSetWithFlagKnownAs(name, gnuflag.ContinueOnError, "option")
	f.SetOutput(output)
	return f
}

func printUsage(c Command, w io.Writer) {
	info := c.Info()
	fmt.Fprintf(w, "Usage: %s\n\nSummary:\n%s\n", info.Usage(), info.Purpose)
	f := newFlagSet(info.Name, w)
	c.SetFlags(f)
	fmt.Fprintf(w, "\nOptions:\n")
	f.PrintDefaults()
	if doc := strings.TrimSpace(info.Doc); doc != "" {
		fmt.Fprintf(w, "\nDetails:\n%s\n", doc)
	}
}

// interspersedFlags is implemented by commands that need flag parsing
// to stop at the first positional argument, such as SuperCommand.
type interspersedFlags interface {
	AllowInterspersedFlags() bool
}

// Main parses args on c and runs it, returning the exit status to pass
// to os.Exit: 0 on success, 2 on a usage error, 1 otherwise.
func Main(c Command, ctx *Context, args []string) int {
	intersperse := true
	if i, ok := c.(interspersedFlags); ok {
		intersperse = i.AllowInterspersedFlags()
	}
	f := newFlagSet(c.Info().Name, ctx.Stderr)
	c.SetFlags(f)
	if err := f.Parse(intersperse, args); err != nil {
		if err != gnuflag.ErrHelp {
			fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
			return 2
		}
		printUsage(c, ctx.Stdout)
		return 0
	}
	if err := c.Init(f.Args()); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		return 2
	}
	if err := c.Run(ctx); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		return 1
	}
	return 0
}
