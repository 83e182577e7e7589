// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"context"

	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
)

// VolumeSpec declares the desired state of a volume. A nil Size means
// the size is not managed.
type VolumeSpec struct {
	Name  string
	State State
	Pool  string
	Size  *capacity.Value
}

// Validate implements basic sanity checking.
func (s VolumeSpec) Validate() error {
	return validateDataset("volume", s.Name, s.Pool, s.State)
}

// FilesystemSpec declares the desired state of a filesystem. A nil
// Size means the size is not managed.
type FilesystemSpec struct {
	Name  string
	State State
	Pool  string
	Size  *capacity.Value
}

// Validate implements basic sanity checking.
func (s FilesystemSpec) Validate() error {
	return validateDataset("filesystem", s.Name, s.Pool, s.State)
}

func validateDataset(kind, name, pool string, state State) error {
	if name == "" {
		return errors.NotValidf("%s spec without name", kind)
	}
	if pool == "" {
		return errors.NotValidf("%s spec without pool", kind)
	}
	if err := state.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Volume reconciles a volume with its desired state. The owning pool
// must already exist, whatever the desired state.
func (r *Reconciler) Volume(ctx context.Context, spec VolumeSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	return r.dataset(ctx, datasetSpec{
		kind:  "volume",
		name:  spec.Name,
		state: spec.State,
		pool:  spec.Pool,
		size:  spec.Size,
	}, datasetOps{
		lookup: func(ctx context.Context, name string) (*datasetInfo, error) {
			volume, err := r.api.VolumeByName(ctx, name)
			if err != nil {
				return nil, err
			}
			return &datasetInfo{id: volume.ID, size: volume.Size}, nil
		},
		create: func(ctx context.Context, name string, poolID int64) (*datasetInfo, error) {
			volume, err := r.api.CreateVolume(ctx, infinibox.CreateVolumeArgs{Name: name, PoolID: poolID})
			if err != nil {
				return nil, err
			}
			return &datasetInfo{id: volume.ID, size: volume.Size}, nil
		},
		resize: r.api.UpdateVolumeSize,
		remove: r.api.DeleteVolume,
	})
}

// Filesystem reconciles a filesystem with its desired state. The
// owning pool must already exist, whatever the desired state.
func (r *Reconciler) Filesystem(ctx context.Context, spec FilesystemSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, errors.Trace(err)
	}
	return r.dataset(ctx, datasetSpec{
		kind:  "filesystem",
		name:  spec.Name,
		state: spec.State,
		pool:  spec.Pool,
		size:  spec.Size,
	}, datasetOps{
		lookup: func(ctx context.Context, name string) (*datasetInfo, error) {
			filesystem, err := r.api.FilesystemByName(ctx, name)
			if err != nil {
				return nil, err
			}
			return &datasetInfo{id: filesystem.ID, size: filesystem.Size}, nil
		},
		create: func(ctx context.Context, name string, poolID int64) (*datasetInfo, error) {
			filesystem, err := r.api.CreateFilesystem(ctx, infinibox.CreateFilesystemArgs{Name: name, PoolID: poolID})
			if err != nil {
				return nil, err
			}
			return &datasetInfo{id: filesystem.ID, size: filesystem.Size}, nil
		},
		resize: r.api.UpdateFilesystemSize,
		remove: r.api.DeleteFilesystem,
	})
}

// Volumes and filesystems share their lifecycle shape; datasetOps
// adapts the API differences so one state machine serves both.
type datasetOps struct {
	lookup func(context.Context, string) (*datasetInfo, error)
	create func(context.Context, string, int64) (*datasetInfo, error)
	resize func(context.Context, int64, capacity.Value) error
	remove func(context.Context, int64) error
}

type datasetInfo struct {
	id   int64
	size capacity.Value
}

type datasetSpec struct {
	kind  string
	name  string
	state State
	pool  string
	size  *capacity.Value
}

func (r *Reconciler) dataset(ctx context.Context, spec datasetSpec, ops datasetOps) (Result, error) {
	// Declaring a child of a pool that does not exist is a
	// configuration error, not a no-op, even for state absent.
	pool, err := r.api.PoolByName(ctx, spec.pool)
	if errors.IsNotFound(err) {
		return Result{}, errors.NotFoundf("pool %q", spec.pool)
	}
	if err != nil {
		return Result{}, translate(err)
	}

	dataset, err := ops.lookup(ctx, spec.name)
	if errors.IsNotFound(err) {
		dataset, err = nil, nil
	}
	if err != nil {
		return Result{}, translate(err)
	}

	switch {
	case spec.state == Present && dataset == nil:
		dataset, err = ops.create(ctx, spec.name, pool.ID)
		if err != nil {
			return Result{}, translate(err)
		}
		if spec.size != nil {
			if err := ops.resize(ctx, dataset.id, spec.size.RoundUp(datasetAlignment)); err != nil {
				return Result{}, translate(err)
			}
		}
		logger.Infof("created %s %q in pool %q", spec.kind, spec.name, spec.pool)
		return Result{Changed: true}, nil

	case spec.state == Present:
		if spec.size == nil {
			return Result{}, nil
		}
		size := spec.size.RoundUp(datasetAlignment)
		if dataset.size == size {
			return Result{}, nil
		}
		if err := ops.resize(ctx, dataset.id, size); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("resized %s %q to %s", spec.kind, spec.name, size)
		return Result{Changed: true}, nil

	case dataset != nil:
		if err := ops.remove(ctx, dataset.id); err != nil {
			return Result{}, translate(err)
		}
		logger.Infof("deleted %s %q", spec.kind, spec.name)
		return Result{Changed: true}, nil

	default:
		return Result{}, nil
	}
}
