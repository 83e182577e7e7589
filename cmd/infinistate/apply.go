// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/plan"
	"github.com/infinidat/infinistate/internal/reconcile"
)

const applyDoc = `
Applies a YAML plan describing the desired state of several resources,
strictly in document order, stopping at the first failure. The plan may
name the target system itself; --system overrides it.

Example plan:
    system: ibox01
    resources:
      - kind: pool
        name: data
        size: 10TB
      - kind: filesystem
        name: fs01
        pool: data
        size: 1TB
      - kind: export
        name: /fs01
        filesystem: fs01
        client_list:
          - client: 192.168.0.0/24
            access: RO

Example:
    infinistate apply plan.yaml
`

func newApplyCommand() cmd.Command {
	return &applyCommand{}
}

type applyCommand struct {
	connectionCommand
	path string

	plan *plan.Plan
}

// Info implements cmd.Command.
func (c *applyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "apply",
		Args:    "<plan-file>",
		Purpose: "Apply a desired-state plan.",
		Doc:     applyDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *applyCommand) SetFlags(f *gnuflag.FlagSet) {
	c.connectionCommand.setFlags(f)
}

// Init implements cmd.Command.
func (c *applyCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no plan file specified")
	}
	c.path = args[0]
	if err := cmd.CheckEmpty(args[1:]); err != nil {
		return err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.Annotate(err, "reading plan")
	}
	if c.plan, err = plan.Parse(data); err != nil {
		return errors.Trace(err)
	}
	if c.system == "" {
		c.system = c.plan.System
	}
	if c.system == "" {
		return errors.New("no system named by --system or the plan")
	}
	return nil
}

// Run implements cmd.Command.
func (c *applyCommand) Run(ctx *cmd.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	results, runErr := c.plan.Run(ctx.Context(), reconcile.New(client))
	changed := 0
	for _, res := range results {
		ctx.Infof("%s %q: changed: %t", res.Kind, res.Name, res.Changed)
		if res.Changed {
			changed++
		}
	}
	if runErr != nil {
		return errors.Trace(runErr)
	}
	ctx.Infof("%d resources applied, %d changed", c.plan.Len(), changed)
	return nil
}
