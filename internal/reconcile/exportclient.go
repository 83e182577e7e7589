// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"context"

	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/infinibox"
)

// ExportClientSpec declares the desired state of a single client entry
// within an export's permission list. Unlike ExportSpec, which
// replaces the list wholesale, this performs a targeted upsert or
// removal by client key and leaves every other entry untouched.
type ExportClientSpec struct {
	// Client is the IP address, IP range or "*" identifying the entry.
	Client string
	State  State

	// Export is the export path the entry belongs to.
	Export string

	// Access is the desired access mode; empty means RW.
	Access infinibox.AccessMode

	NoRootSquash bool
}

// Validate implements basic sanity checking.
func (s ExportClientSpec) Validate() error {
	if s.Client == "" {
		return errors.NotValidf("export client spec without client")
	}
	if s.Export == "" {
		return errors.NotValidf("export client spec without export")
	}
	if s.Access != "" {
		if _, err := infinibox.ParseAccessMode(string(s.Access)); err != nil {
			return errors.Trace(err)
		}
	}
	if err := s.State.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s ExportClientSpec) access() infinibox.AccessMode {
	if s.Access == "" {
		return infinibox.AccessRW
	}
	return s.Access
}

// ExportClient reconciles one client entry of an export. The export
// must already exist; this operation cannot create it.
func (r *Reconciler) ExportClient(ctx context.Context, spec ExportClientSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	export, err := r.api.ExportByPath(ctx, spec.Export)
	if errors.IsNotFound(err) {
		return Result{}, errors.NotFoundf("export %q", spec.Export)
	}
	if err != nil {
		return Result{}, translate(err)
	}

	permissions := infinibox.NewPermissionSet(export.Permissions.Entries()...)
	var changed bool
	if spec.State == Present {
		changed = permissions.Upsert(spec.Client, spec.access(), spec.NoRootSquash)
	} else {
		changed = permissions.Remove(spec.Client)
	}
	if !changed {
		return Result{}, nil
	}
	if err := r.api.ReplaceExportPermissions(ctx, export.ID, permissions); err != nil {
		return Result{}, translate(err)
	}
	logger.Infof("updated client %q of export %q", spec.Client, spec.Export)
	return Result{Changed: true}, nil
}
