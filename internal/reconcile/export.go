// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"context"

	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/infinibox"
)

// ExportSpec declares the desired state of an NFS export. A nil
// ClientList means the export's permissions are not managed at all; an
// export created without one keeps whatever defaults the array
// assigns.
type ExportSpec struct {
	// Path is the export path, e.g. "/data01".
	Path  string
	State State

	// InnerPath is the exported path within the filesystem; empty
	// means "/".
	InnerPath string

	// Filesystem names the filesystem being exported.
	Filesystem string

	// ClientList is the full desired permission list. When supplied it
	// replaces the export's permissions wholesale whenever the two
	// differ as unordered sets.
	ClientList []infinibox.Permission
}

// Validate implements basic sanity checking.
func (s ExportSpec) Validate() error {
	if s.Path == "" {
		return errors.NotValidf("export spec without path")
	}
	if s.Filesystem == "" {
		return errors.NotValidf("export spec without filesystem")
	}
	if err := s.State.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s ExportSpec) innerPath() string {
	if s.InnerPath == "" {
		return "/"
	}
	return s.InnerPath
}

// Export reconciles an export with its desired state. The exported
// filesystem must already exist, whatever the desired state.
func (r *Reconciler) Export(ctx context.Context, spec ExportSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	filesystem, err := r.api.FilesystemByName(ctx, spec.Filesystem)
	if errors.IsNotFound(err) {
		return Result{}, errors.NotFoundf("filesystem %q", spec.Filesystem)
	}
	if err != nil {
		return Result{}, translate(err)
	}

	export, err := r.api.ExportByPath(ctx, spec.Path)
	if errors.IsNotFound(err) {
		export, err = nil, nil
	}
	if err != nil {
		return Result{}, translate(err)
	}

	switch {
	case spec.State == Present && export == nil:
		export, err = r.api.CreateExport(ctx, infinibox.CreateExportArgs{
			ExportPath:   spec.Path,
			InnerPath:    spec.innerPath(),
			FilesystemID: filesystem.ID,
		})
		if err != nil {
			return Result{}, translate(err)
		}
		if spec.ClientList != nil {
			desired := infinibox.NewPermissionSet(spec.ClientList...)
			if err := r.api.ReplaceExportPermissions(ctx, export.ID, desired); err != nil {
				return Result{}, translate(err)
			}
		}
		logger.Infof("created export %q of filesystem %q", spec.Path, spec.Filesystem)
		return Result{Changed: true}, nil

	case spec.State == Present:
		if spec.ClientList == nil {
			return Result{}, nil
		}
		desired := infinibox.NewPermissionSet(spec.ClientList...)
		if export.Permissions.Equals(desired) {
			return Result{}, nil
		}
		if err := r.api.ReplaceExportPermissions(ctx, export.ID, desired); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("replaced permissions of export %q", spec.Path)
		return Result{Changed: true}, nil

	case export != nil:
		if err := r.api.DeleteExport(ctx, export.ID); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("deleted export %q", spec.Path)
		return Result{Changed: true}, nil

	default:
		return Result{}, nil
	}
}
