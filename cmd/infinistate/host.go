// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/reconcile"
)

const hostDoc = `
Creates or removes a SAN host. At creation each --wwn becomes an FC
port on the host, and --volume maps the named volume to it. An existing
host is never modified; rerunning against one reports no change.

Examples:
    infinistate host --system ibox01 --name foo.example.com \
        --wwn 21:00:00:24:ff:46:58:1c --wwn 21:00:00:24:ff:46:58:1d \
        --volume vol01
    infinistate host --system ibox01 --name foo.example.com --state absent
`

func newHostCommand() cmd.Command {
	return &hostCommand{}
}

type hostCommand struct {
	resourceCommand
	name   string
	wwns   stringsValue
	volume string

	spec reconcile.HostSpec
}

// Info implements cmd.Command.
func (c *hostCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "host",
		Purpose: "Reconcile a SAN host.",
		Doc:     hostDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *hostCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.name, "name", "", "Host name")
	f.Var(&c.wwns, "wwn", "FC port WWN to add at creation (repeatable)")
	f.StringVar(&c.volume, "volume", "", "Volume to map to the host at creation")
}

// Init implements cmd.Command.
func (c *hostCommand) Init(args []string) error {
	if err := cmd.CheckEmpty(args); err != nil {
		return err
	}
	if c.name == "" {
		return errors.New("--name is required")
	}
	if err := c.validate(); err != nil {
		return errors.Trace(err)
	}
	c.spec = reconcile.HostSpec{
		Name:   c.name,
		State:  c.state,
		WWNs:   c.wwns,
		Volume: c.volume,
	}
	return nil
}

// Run implements cmd.Command.
func (c *hostCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).Host(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
