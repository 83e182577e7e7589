// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/reconcile"
)

const filesystemDoc = `
Creates, resizes or removes a NAS filesystem inside an existing pool.
The pool must already exist. Sizes are rounded up to the array's 64 KiB
granularity before comparison.

Examples:
    infinistate filesystem --system ibox01 --name fs01 --size 1TB --pool bar
    infinistate filesystem --system ibox01 --name fs01 --pool bar --state absent
`

func newFilesystemCommand() cmd.Command {
	return &filesystemCommand{}
}

type filesystemCommand struct {
	resourceCommand
	name string
	pool string
	size string

	spec reconcile.FilesystemSpec
}

// Info implements cmd.Command.
func (c *filesystemCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "filesystem",
		Purpose: "Reconcile a NAS filesystem.",
		Doc:     filesystemDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *filesystemCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.name, "name", "", "Filesystem name")
	f.StringVar(&c.pool, "pool", "", "Pool the filesystem belongs to")
	f.StringVar(&c.size, "size", "", "Filesystem size, e.g. 1TB")
}

// Init implements cmd.Command.
func (c *filesystemCommand) Init(args []string) error {
	if err := cmd.CheckEmpty(args); err != nil {
		return err
	}
	if c.name == "" {
		return errors.New("--name is required")
	}
	if c.pool == "" {
		return errors.New("--pool is required")
	}
	if err := c.validate(); err != nil {
		return errors.Trace(err)
	}
	c.spec = reconcile.FilesystemSpec{
		Name:  c.name,
		State: c.state,
		Pool:  c.pool,
	}
	if c.size != "" {
		size, err := capacity.Parse(c.size)
		if err != nil {
			return errors.Annotate(err, "--size")
		}
		c.spec.Size = &size
	}
	return nil
}

// Run implements cmd.Command.
func (c *filesystemCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).Filesystem(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
