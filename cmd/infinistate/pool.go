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

const poolDoc = `
Creates, resizes or removes a capacity pool.

When neither --size nor --vsize is given at creation, both capacities
default to 1TB. When only --size is given, the virtual capacity follows
it. Capacities on an existing pool are only changed when the
corresponding option is supplied.

Examples:
    infinistate pool --system ibox01 --name foo --size 10TB
    infinistate pool --system ibox01 --name foo --vsize 300TB
    infinistate pool --system ibox01 --name foo --ssd-cache=false
    infinistate pool --system ibox01 --name foo --state absent
`

func newPoolCommand() cmd.Command {
	return &poolCommand{}
}

type poolCommand struct {
	resourceCommand
	name     string
	size     string
	vsize    string
	ssdCache bool

	spec reconcile.PoolSpec
}

// Info implements cmd.Command.
func (c *poolCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "pool",
		Purpose: "Reconcile a capacity pool.",
		Doc:     poolDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *poolCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.name, "name", "", "Pool name")
	f.StringVar(&c.size, "size", "", "Physical capacity, e.g. 10TB")
	f.StringVar(&c.vsize, "vsize", "", "Virtual capacity, e.g. 300TB")
	f.BoolVar(&c.ssdCache, "ssd-cache", true, "Enable SSD caching on the pool")
}

// Init implements cmd.Command. All input validation happens here,
// before any remote call is made.
func (c *poolCommand) Init(args []string) error {
	if err := cmd.CheckEmpty(args); err != nil {
		return err
	}
	if c.name == "" {
		return errors.New("--name is required")
	}
	if err := c.validate(); err != nil {
		return errors.Trace(err)
	}
	c.spec = reconcile.PoolSpec{
		Name:     c.name,
		State:    c.state,
		SsdCache: &c.ssdCache,
	}
	if c.size != "" {
		size, err := capacity.Parse(c.size)
		if err != nil {
			return errors.Annotate(err, "--size")
		}
		c.spec.Size = &size
	}
	if c.vsize != "" {
		vsize, err := capacity.Parse(c.vsize)
		if err != nil {
			return errors.Annotate(err, "--vsize")
		}
		c.spec.VSize = &vsize
	}
	return nil
}

// Run implements cmd.Command.
func (c *poolCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).Pool(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
