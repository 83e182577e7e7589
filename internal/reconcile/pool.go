// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"context"

	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
)

// PoolSpec declares the desired state of a pool. A nil Size or VSize
// means the corresponding capacity is not managed: it is neither
// compared nor changed on an existing pool.
type PoolSpec struct {
	Name  string
	State State

	// Size is the desired physical capacity.
	Size *capacity.Value

	// VSize is the desired virtual capacity.
	VSize *capacity.Value

	// SsdCache enables SSD caching; nil means the default, enabled.
	SsdCache *bool
}

// Validate implements basic sanity checking.
func (s PoolSpec) Validate() error {
	if s.Name == "" {
		return errors.NotValidf("pool spec without name")
	}
	if err := s.State.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s PoolSpec) ssdEnabled() bool {
	return s.SsdCache == nil || *s.SsdCache
}

// Pool reconciles a pool with its desired state.
func (r *Reconciler) Pool(ctx context.Context, spec PoolSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	pool, err := r.api.PoolByName(ctx, spec.Name)
	if errors.IsNotFound(err) {
		pool, err = nil, nil
	}
	if err != nil {
		return Result{}, translate(err)
	}
	switch {
	case spec.State == Present && pool == nil:
		return r.createPool(ctx, spec)
	case spec.State == Present:
		return r.updatePool(ctx, spec, pool)
	case pool != nil:
		if err := r.api.DeletePool(ctx, pool.ID); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("deleted pool %q", spec.Name)
		return Result{Changed: true}, nil
	default:
		return Result{}, nil
	}
}

func (r *Reconciler) createPool(ctx context.Context, spec PoolSpec) (Result, error) {
	// An unspecified physical capacity defaults to 1TB; an unspecified
	// virtual capacity follows the physical one.
	physical, virtual := defaultPoolCapacity, defaultPoolCapacity
	if spec.Size != nil {
		physical, virtual = *spec.Size, *spec.Size
	}
	if spec.VSize != nil {
		virtual = *spec.VSize
	}
	pool, err := r.api.CreatePool(ctx, infinibox.CreatePoolArgs{
		Name:             spec.Name,
		PhysicalCapacity: physical,
		VirtualCapacity:  virtual,
	})
	if err != nil {
		return Result{}, translate(err)
	}
	if !spec.ssdEnabled() {
		if err := r.api.UpdatePoolSsdEnabled(ctx, pool.ID, false); err != nil {
			return Result{}, translate(err)
		}
	}
	logger.Infof("created pool %q (physical %s, virtual %s)", spec.Name, physical, virtual)
	return Result{Changed: true}, nil
}

func (r *Reconciler) updatePool(ctx context.Context, spec PoolSpec, pool *infinibox.Pool) (Result, error) {
	var changed bool
	if spec.Size != nil {
		if physical := spec.Size.RoundUp(poolAlignment); pool.PhysicalCapacity != physical {
			if err := r.api.UpdatePoolPhysicalCapacity(ctx, pool.ID, physical); err != nil {
				return Result{}, translate(err)
			}
			changed = true
		}
	}
	if spec.VSize != nil {
		if virtual := spec.VSize.RoundUp(poolAlignment); pool.VirtualCapacity != virtual {
			if err := r.api.UpdatePoolVirtualCapacity(ctx, pool.ID, virtual); err != nil {
				return Result{}, translate(err)
			}
			changed = true
		}
	}
	if ssd := spec.ssdEnabled(); pool.SsdEnabled != ssd {
		if err := r.api.UpdatePoolSsdEnabled(ctx, pool.ID, ssd); err != nil {
			return Result{}, translate(err)
		}
		changed = true
	}
	if changed {
		logger.Infof("updated pool %q", spec.Name)
	}
	return Result{Changed: changed}, nil
}
