// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

const exportClientDoc = `
Adds, updates or removes a single client entry on an existing export's
permission list, leaving every other entry untouched. The export itself
must already exist.

Examples:
    infinistate export-client --system ibox01 --export /data01 --client 10.0.0.5
    infinistate export-client --system ibox01 --export /data01 \
        --client 192.168.0.0/24 --access RO
    infinistate export-client --system ibox01 --export /data01 \
        --client 10.0.0.5 --state absent
`

func newExportClientCommand() cmd.Command {
	return &exportClientCommand{}
}

type exportClientCommand struct {
	resourceCommand
	client       string
	export       string
	access       string
	noRootSquash bool

	spec reconcile.ExportClientSpec
}

// Info implements cmd.Command.
func (c *exportClientCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "export-client",
		Purpose: "Reconcile one client entry on an export.",
		Doc:     exportClientDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *exportClientCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.client, "client", "", "Client IP address, IP range or *")
	f.StringVar(&c.export, "export", "", "Export path the entry belongs to")
	f.StringVar(&c.access, "access", string(infinibox.AccessRW), "Access mode, RO or RW")
	f.BoolVar(&c.noRootSquash, "no-root-squash", false, "Allow root access from the client")
}

// Init implements cmd.Command.
func (c *exportClientCommand) Init(args []string) error {
	if err := cmd.CheckEmpty(args); err != nil {
		return err
	}
	if c.client == "" {
		return errors.New("--client is required")
	}
	if c.export == "" {
		return errors.New("--export is required")
	}
	if err := c.validate(); err != nil {
		return errors.Trace(err)
	}
	access, err := infinibox.ParseAccessMode(c.access)
	if err != nil {
		return errors.Annotate(err, "--access")
	}
	c.spec = reconcile.ExportClientSpec{
		Client:       c.client,
		State:        c.state,
		Export:       c.export,
		Access:       access,
		NoRootSquash: c.noRootSquash,
	}
	return nil
}

// Run implements cmd.Command.
func (c *exportClientCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).ExportClient(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
