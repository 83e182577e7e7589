// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// infinistate reconciles declared desired state for Infinibox storage
// resources: capacity pools, volumes, filesystems, NFS exports, export
// clients and initiator hosts. Every command is idempotent; applying
// the same desired state twice reports "changed: false" the second
// time.
package main

import (
	"os"

	"github.com/infinidat/infinistate/internal/cmd"
)

const mainDoc = `
infinistate compares the declared state of a storage resource with the
array's current state and applies the minimal change: create when it is
missing, update the fields that differ, delete when declared absent,
and nothing otherwise.

Credentials are taken from --user and --password, from the
INFINIBOX_USER and INFINIBOX_PASSWORD environment variables, or from
~/.infinidat/infinisdk.ini, in that order.
`

// Main sets up the command tree and runs it. It is exposed for
// testing; main itself only wires the process arguments and exit code.
func Main(args []string) int {
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "infinistate",
		Purpose: "Manage Infinibox storage resources declaratively.",
		Doc:     mainDoc,
	})
	super.Register(newPoolCommand())
	super.Register(newVolumeCommand())
	super.Register(newFilesystemCommand())
	super.Register(newExportCommand())
	super.Register(newExportClientCommand())
	super.Register(newHostCommand())
	super.Register(newApplyCommand())
	return cmd.Main(super, cmd.DefaultContext(), args[1:])
}

func main() {
	os.Exit(Main(os.Args))
}
