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

const volumeDoc = `
Creates, resizes or removes a block volume inside an existing pool. The
pool must already exist; declaring a volume in a missing pool is an
error, not a no-op. Sizes are rounded up to the array's 64 KiB
granularity before comparison.

Examples:
    infinistate volume --system ibox01 --name foo --size 1TB --pool bar
    infinistate volume --system ibox01 --name foo --pool bar --state absent
`

func newVolumeCommand() cmd.Command {
	return &volumeCommand{}
}

type volumeCommand struct {
	resourceCommand
	name string
	pool string
	size string

	spec reconcile.VolumeSpec
}

// Info implements cmd.Command.
func (c *volumeCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "volume",
		Purpose: "Reconcile a block volume.",
		Doc:     volumeDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *volumeCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.name, "name", "", "Volume name")
	f.StringVar(&c.pool, "pool", "", "Pool the volume belongs to")
	f.StringVar(&c.size, "size", "", "Volume size, e.g. 1TB")
}

// Init implements cmd.Command.
func (c *volumeCommand) Init(args []string) error {
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
	c.spec = reconcile.VolumeSpec{
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
func (c *volumeCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).Volume(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
