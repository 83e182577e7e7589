// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/reconcile"
)

const exportDoc = `
Creates or removes an NFS export of an existing filesystem, and manages
its client permission list.

Each --client option adds one desired permission entry of the form
CLIENT[,ACCESS[,no-root-squash]], where CLIENT is an IP address, an IP
range or "*", and ACCESS is RO or RW (default RW). When at least one
--client is given the export's permission list is replaced wholesale
whenever it differs from the desired entries, compared without regard
to order. Without --client the export's permissions are left entirely
alone, including at creation.

Examples:
    infinistate export --system ibox01 --name /data01 --filesystem fs01
    infinistate export --system ibox01 --name /data01 --filesystem fs01 \
        --client '10.0.0.1-10.0.0.20,RW,no-root-squash' --client '192.168.0.0/24,RO'
    infinistate export --system ibox01 --name /data01 --filesystem fs01 --state absent
`

func newExportCommand() cmd.Command {
	return &exportCommand{}
}

type exportCommand struct {
	resourceCommand
	path       string
	innerPath  string
	filesystem string
	clients    permissionsValue

	spec reconcile.ExportSpec
}

// Info implements cmd.Command.
func (c *exportCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "export",
		Purpose: "Reconcile an NFS export.",
		Doc:     exportDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *exportCommand) SetFlags(f *gnuflag.FlagSet) {
	c.resourceCommand.setFlags(f)
	f.StringVar(&c.path, "name", "", "Export path, e.g. /data01")
	f.StringVar(&c.innerPath, "inner-path", "/", "Exported path within the filesystem")
	f.StringVar(&c.filesystem, "filesystem", "", "Filesystem being exported")
	f.Var(&c.clients, "client", "Desired permission entry CLIENT[,ACCESS[,no-root-squash]] (repeatable)")
}

// Init implements cmd.Command.
func (c *exportCommand) Init(args []string) error {
	if err := cmd.CheckEmpty(args); err != nil {
		return err
	}
	if c.path == "" {
		return errors.New("--name is required")
	}
	if c.filesystem == "" {
		return errors.New("--filesystem is required")
	}
	if err := c.validate(); err != nil {
		return errors.Trace(err)
	}
	c.spec = reconcile.ExportSpec{
		Path:       c.path,
		State:      c.state,
		InnerPath:  c.innerPath,
		Filesystem: c.filesystem,
	}
	if c.clients.set {
		c.spec.ClientList = c.clients.entries
	}
	return nil
}

// Run implements cmd.Command.
func (c *exportCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	result, err := reconcile.New(client).Export(ctx.Context(), c.spec)
	if err != nil {
		return errors.Trace(err)
	}
	printResult(ctx, result)
	return nil
}
