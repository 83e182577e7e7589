// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package main

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/infinidat/infinistate/internal/cmd"
	"github.com/infinidat/infinistate/internal/creds"
	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

// connectionCommand carries the flags every command that talks to an
// array shares, and knows how to open an authenticated client.
type connectionCommand struct {
	system   string
	user     string
	password string
}

func (c *connectionCommand) setFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.system, "system", "", "Infinibox hostname or IP address")
	f.StringVar(&c.user, "user", "", "Infinibox user name")
	f.StringVar(&c.password, "password", "", "Infinibox user password")
}

func (c *connectionCommand) validate() error {
	if c.system == "" {
		return errors.New("--system is required")
	}
	return nil
}

// connect resolves credentials, builds a client and verifies the
// session before any reconciliation is attempted.
func (c *connectionCommand) connect(ctx *cmd.Context) (*infinibox.Client, error) {
	credentials, err := creds.Resolve(c.user, c.password)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := infinibox.NewClient(infinibox.Config{
		Address:  c.system,
		Username: credentials.Username,
		Password: credentials.Password,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := client.Login(ctx.Context()); err != nil {
		return nil, errors.Trace(err)
	}
	return client, nil
}

// resourceCommand adds the desired-state flag shared by the
// per-resource commands.
type resourceCommand struct {
	connectionCommand
	rawState string
	state    reconcile.State
}

func (c *resourceCommand) setFlags(f *gnuflag.FlagSet) {
	c.connectionCommand.setFlags(f)
	f.StringVar(&c.rawState, "state", "present", "Desired state: present or absent")
}

func (c *resourceCommand) validate() error {
	if err := c.connectionCommand.validate(); err != nil {
		return err
	}
	state, err := reconcile.ParseState(c.rawState)
	if err != nil {
		return errors.Trace(err)
	}
	c.state = state
	return nil
}

func printResult(ctx *cmd.Context, result reconcile.Result) {
	ctx.Infof("changed: %t", result.Changed)
}

// stringsValue accumulates a repeatable string flag.
type stringsValue []string

// Set implements gnuflag.Value.
func (v *stringsValue) Set(s string) error {
	*v = append(*v, s)
	return nil
}

// String implements gnuflag.Value.
func (v *stringsValue) String() string {
	return strings.Join(*v, ",")
}

// permissionsValue accumulates repeatable --client flags of the form
// CLIENT[,ACCESS[,no-root-squash]].
type permissionsValue struct {
	entries []infinibox.Permission
	set     bool
}

// Set implements gnuflag.Value.
func (v *permissionsValue) Set(s string) error {
	parts := strings.Split(s, ",")
	entry := infinibox.Permission{Client: strings.TrimSpace(parts[0]), Access: infinibox.AccessRW}
	if entry.Client == "" {
		return errors.NotValidf("client entry %q", s)
	}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		access, err := infinibox.ParseAccessMode(strings.TrimSpace(parts[1]))
		if err != nil {
			return errors.Trace(err)
		}
		entry.Access = access
	}
	if len(parts) > 2 {
		switch flag := strings.TrimSpace(parts[2]); flag {
		case "no-root-squash":
			entry.NoRootSquash = true
		case "root-squash", "":
		default:
			return errors.NotValidf("root squash flag %q", flag)
		}
	}
	if len(parts) > 3 {
		return errors.NotValidf("client entry %q", s)
	}
	v.entries = append(v.entries, entry)
	v.set = true
	return nil
}

// String implements gnuflag.Value.
func (v *permissionsValue) String() string {
	parts := make([]string, len(v.entries))
	for i, e := range v.entries {
		parts[i] = fmt.Sprintf("%s,%s", e.Client, e.Access)
		if e.NoRootSquash {
			parts[i] += ",no-root-squash"
		}
	}
	return strings.Join(parts, " ")
}
