// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/infinibox"
)

// HostSpec declares the desired state of an initiator host. WWN ports
// and the optional volume mapping are applied at creation only; a host
// that already exists is never updated.
type HostSpec struct {
	Name  string
	State State

	// WWNs are Fibre-Channel port identifiers registered at creation.
	WWNs []string

	// Volume optionally names a volume to map at creation. It must
	// already exist on the array.
	Volume string
}

// Validate implements basic sanity checking.
func (s HostSpec) Validate() error {
	if s.Name == "" {
		return errors.NotValidf("host spec without name")
	}
	if err := s.State.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Host reconciles a host with its desired state. When a volume mapping
// is declared the volume must already exist, whatever the desired
// state.
func (r *Reconciler) Host(ctx context.Context, spec HostSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	var volume *infinibox.Volume
	if spec.Volume != "" {
		var err error
		volume, err = r.api.VolumeByName(ctx, spec.Volume)
		if errors.IsNotFound(err) {
			return Result{}, errors.NotFoundf("volume %q", spec.Volume)
		}
		if err != nil {
			return Result{}, translate(err)
		}
	}

	host, err := r.api.HostByName(ctx, spec.Name)
	if errors.IsNotFound(err) {
		host, err = nil, nil
	}
	if err != nil {
		return Result{}, translate(err)
	}

	switch {
	case spec.State == Present && host == nil:
		host, err = r.api.CreateHost(ctx, spec.Name)
		if err != nil {
			return Result{}, translate(err)
		}
		for _, wwn := range set.NewStrings(spec.WWNs...).SortedValues() {
			if err := r.api.AddHostFCPort(ctx, host.ID, wwn); err != nil {
				return Result{}, translate(err)
			}
		}
		if volume != nil {
			if err := r.api.MapHostToVolume(ctx, host.ID, volume.ID); err != nil {
				return Result{}, translate(err)
			}
		}
		logger.Infof("created host %q", spec.Name)
		return Result{Changed: true}, nil

	case spec.State == Present:
		// There is no update path for an existing host.
		return Result{}, nil

	case host != nil:
		if err := r.api.DeleteHost(ctx, host.ID); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("deleted host %q", spec.Name)
		return Result{Changed: true}, nil

	default:
		return Result{}, nil
	}
}
