// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package reconcile drives a declared desired state for array
// resources. Each resource kind has one entry point that looks up the
// current state, compares it to the desired state, applies the minimal
// operation, and reports whether anything changed. Reconciling the
// same desired state twice reports unchanged the second time.
package reconcile

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
)

var logger = loggo.GetLogger("infinistate.reconcile")

// State declares whether a resource should exist.
type State string

const (
	Present State = "present"
	Absent  State = "absent"
)

// ParseState interprets a state string; the empty string means present.
func ParseState(s string) (State, error) {
	switch state := State(strings.ToLower(s)); state {
	case "":
		return Present, nil
	case Present, Absent:
		return state, nil
	}
	return "", errors.NotValidf("state %q", s)
}

// Validate implements basic sanity checking for a State value.
func (s State) Validate() error {
	switch s {
	case Present, Absent:
		return nil
	}
	return errors.NotValidf("state %q", string(s))
}

// Result reports the outcome of one reconciliation.
type Result struct {
	Changed bool
}

// The array rounds dataset sizes to 64 KiB sections and pool
// capacities to six of them; desired capacities are rounded the same
// way before comparison so an in-effect value never reads as a change.
const (
	datasetAlignment = 64 * capacity.KiB
	poolAlignment    = 6 * datasetAlignment
)

// defaultPoolCapacity is applied to pool capacities left unspecified
// at creation time.
var defaultPoolCapacity = capacity.MustParse("1TB")

// Array is the client contract the reconcilers require. It is
// implemented by *infinibox.Client; lookups return a not-found error
// for missing resources rather than failing.
type Array interface {
	PoolByName(ctx context.Context, name string) (*infinibox.Pool, error)
	CreatePool(ctx context.Context, args infinibox.CreatePoolArgs) (*infinibox.Pool, error)
	UpdatePoolPhysicalCapacity(ctx context.Context, id int64, value capacity.Value) error
	UpdatePoolVirtualCapacity(ctx context.Context, id int64, value capacity.Value) error
	UpdatePoolSsdEnabled(ctx context.Context, id int64, enabled bool) error
	DeletePool(ctx context.Context, id int64) error

	VolumeByName(ctx context.Context, name string) (*infinibox.Volume, error)
	CreateVolume(ctx context.Context, args infinibox.CreateVolumeArgs) (*infinibox.Volume, error)
	UpdateVolumeSize(ctx context.Context, id int64, size capacity.Value) error
	DeleteVolume(ctx context.Context, id int64) error

	FilesystemByName(ctx context.Context, name string) (*infinibox.Filesystem, error)
	CreateFilesystem(ctx context.Context, args infinibox.CreateFilesystemArgs) (*infinibox.Filesystem, error)
	UpdateFilesystemSize(ctx context.Context, id int64, size capacity.Value) error
	DeleteFilesystem(ctx context.Context, id int64) error

	ExportByPath(ctx context.Context, exportPath string) (*infinibox.Export, error)
	CreateExport(ctx context.Context, args infinibox.CreateExportArgs) (*infinibox.Export, error)
	ReplaceExportPermissions(ctx context.Context, id int64, permissions infinibox.PermissionSet) error
	DeleteExport(ctx context.Context, id int64) error

	HostByName(ctx context.Context, name string) (*infinibox.Host, error)
	CreateHost(ctx context.Context, name string) (*infinibox.Host, error)
	AddHostFCPort(ctx context.Context, hostID int64, wwn string) error
	MapHostToVolume(ctx context.Context, hostID, volumeID int64) error
	DeleteHost(ctx context.Context, id int64) error
}

var _ Array = (*infinibox.Client)(nil)

// Reconciler applies desired state to one array. It holds no state of
// its own; every reconcile starts with a fresh lookup.
type Reconciler struct {
	api Array
}

// New returns a Reconciler driving the given array.
func New(api Array) *Reconciler {
	return &Reconciler{api: api}
}
