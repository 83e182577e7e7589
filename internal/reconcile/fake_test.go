// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

// fakeArray is an in-memory Array recording every call on its Stub.
// Errors queued with SetErrors surface in call order.
type fakeArray struct {
	*testing.Stub

	nextID      int64
	pools       map[int64]*infinibox.Pool
	volumes     map[int64]*infinibox.Volume
	filesystems map[int64]*infinibox.Filesystem
	exports     map[int64]*infinibox.Export
	hosts       map[int64]*infinibox.Host

	// luns maps host ID to the volume IDs mapped to it.
	luns map[int64][]int64
}

var _ reconcile.Array = (*fakeArray)(nil)

func newFakeArray() *fakeArray {
	return &fakeArray{
		Stub:        &testing.Stub{},
		nextID:      100,
		pools:       make(map[int64]*infinibox.Pool),
		volumes:     make(map[int64]*infinibox.Volume),
		filesystems: make(map[int64]*infinibox.Filesystem),
		exports:     make(map[int64]*infinibox.Export),
		hosts:       make(map[int64]*infinibox.Host),
		luns:        make(map[int64][]int64),
	}
}

func (f *fakeArray) id() int64 {
	f.nextID++
	return f.nextID
}

// Seeding helpers; these bypass the Stub.

func (f *fakeArray) addPool(name string, physical, virtual capacity.Value, ssd bool) *infinibox.Pool {
	pool := &infinibox.Pool{
		ID:               f.id(),
		Name:             name,
		PhysicalCapacity: physical,
		VirtualCapacity:  virtual,
		SsdEnabled:       ssd,
	}
	f.pools[pool.ID] = pool
	return pool
}

func (f *fakeArray) addVolume(name string, poolID int64, size capacity.Value) *infinibox.Volume {
	volume := &infinibox.Volume{ID: f.id(), Name: name, PoolID: poolID, Size: size}
	f.volumes[volume.ID] = volume
	return volume
}

func (f *fakeArray) addFilesystem(name string, poolID int64, size capacity.Value) *infinibox.Filesystem {
	filesystem := &infinibox.Filesystem{ID: f.id(), Name: name, PoolID: poolID, Size: size}
	f.filesystems[filesystem.ID] = filesystem
	return filesystem
}

func (f *fakeArray) addExport(path string, filesystemID int64, permissions ...infinibox.Permission) *infinibox.Export {
	export := &infinibox.Export{
		ID:           f.id(),
		ExportPath:   path,
		InnerPath:    "/",
		FilesystemID: filesystemID,
		Permissions:  infinibox.NewPermissionSet(permissions...),
	}
	f.exports[export.ID] = export
	return export
}

func (f *fakeArray) addHost(name string) *infinibox.Host {
	host := &infinibox.Host{ID: f.id(), Name: name}
	f.hosts[host.ID] = host
	return host
}

// Array implementation.

func (f *fakeArray) PoolByName(ctx context.Context, name string) (*infinibox.Pool, error) {
	f.MethodCall(f, "PoolByName", name)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	for _, pool := range f.pools {
		if pool.Name == name {
			out := *pool
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("pool %q", name)
}

func (f *fakeArray) CreatePool(ctx context.Context, args infinibox.CreatePoolArgs) (*infinibox.Pool, error) {
	f.MethodCall(f, "CreatePool", args)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	pool := f.addPool(args.Name, args.PhysicalCapacity, args.VirtualCapacity, true)
	out := *pool
	return &out, nil
}

func (f *fakeArray) UpdatePoolPhysicalCapacity(ctx context.Context, id int64, value capacity.Value) error {
	f.MethodCall(f, "UpdatePoolPhysicalCapacity", id, value)
	if err := f.NextErr(); err != nil {
		return err
	}
	pool, ok := f.pools[id]
	if !ok {
		return errors.NotFoundf("pool %d", id)
	}
	pool.PhysicalCapacity = value
	return nil
}

func (f *fakeArray) UpdatePoolVirtualCapacity(ctx context.Context, id int64, value capacity.Value) error {
	f.MethodCall(f, "UpdatePoolVirtualCapacity", id, value)
	if err := f.NextErr(); err != nil {
		return err
	}
	pool, ok := f.pools[id]
	if !ok {
		return errors.NotFoundf("pool %d", id)
	}
	pool.VirtualCapacity = value
	return nil
}

func (f *fakeArray) UpdatePoolSsdEnabled(ctx context.Context, id int64, enabled bool) error {
	f.MethodCall(f, "UpdatePoolSsdEnabled", id, enabled)
	if err := f.NextErr(); err != nil {
		return err
	}
	pool, ok := f.pools[id]
	if !ok {
		return errors.NotFoundf("pool %d", id)
	}
	pool.SsdEnabled = enabled
	return nil
}

func (f *fakeArray) DeletePool(ctx context.Context, id int64) error {
	f.MethodCall(f, "DeletePool", id)
	if err := f.NextErr(); err != nil {
		return err
	}
	delete(f.pools, id)
	return nil
}

func (f *fakeArray) VolumeByName(ctx context.Context, name string) (*infinibox.Volume, error) {
	f.MethodCall(f, "VolumeByName", name)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	for _, volume := range f.volumes {
		if volume.Name == name {
			out := *volume
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("volume %q", name)
}

func (f *fakeArray) CreateVolume(ctx context.Context, args infinibox.CreateVolumeArgs) (*infinibox.Volume, error) {
	f.MethodCall(f, "CreateVolume", args)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	volume := f.addVolume(args.Name, args.PoolID, 0)
	out := *volume
	return &out, nil
}

func (f *fakeArray) UpdateVolumeSize(ctx context.Context, id int64, size capacity.Value) error {
	f.MethodCall(f, "UpdateVolumeSize", id, size)
	if err := f.NextErr(); err != nil {
		return err
	}
	volume, ok := f.volumes[id]
	if !ok {
		return errors.NotFoundf("volume %d", id)
	}
	volume.Size = size
	return nil
}

func (f *fakeArray) DeleteVolume(ctx context.Context, id int64) error {
	f.MethodCall(f, "DeleteVolume", id)
	if err := f.NextErr(); err != nil {
		return err
	}
	delete(f.volumes, id)
	return nil
}

func (f *fakeArray) FilesystemByName(ctx context.Context, name string) (*infinibox.Filesystem, error) {
	f.MethodCall(f, "FilesystemByName", name)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	for _, filesystem := range f.filesystems {
		if filesystem.Name == name {
			out := *filesystem
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("filesystem %q", name)
}

func (f *fakeArray) CreateFilesystem(ctx context.Context, args infinibox.CreateFilesystemArgs) (*infinibox.Filesystem, error) {
	f.MethodCall(f, "CreateFilesystem", args)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	filesystem := f.addFilesystem(args.Name, args.PoolID, 0)
	out := *filesystem
	return &out, nil
}

func (f *fakeArray) UpdateFilesystemSize(ctx context.Context, id int64, size capacity.Value) error {
	f.MethodCall(f, "UpdateFilesystemSize", id, size)
	if err := f.NextErr(); err != nil {
		return err
	}
	filesystem, ok := f.filesystems[id]
	if !ok {
		return errors.NotFoundf("filesystem %d", id)
	}
	filesystem.Size = size
	return nil
}

func (f *fakeArray) DeleteFilesystem(ctx context.Context, id int64) error {
	f.MethodCall(f, "DeleteFilesystem", id)
	if err := f.NextErr(); err != nil {
		return err
	}
	delete(f.filesystems, id)
	return nil
}

func (f *fakeArray) ExportByPath(ctx context.Context, exportPath string) (*infinibox.Export, error) {
	f.MethodCall(f, "ExportByPath", exportPath)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	for _, export := range f.exports {
		if export.ExportPath == exportPath {
			out := *export
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("export %q", exportPath)
}

func (f *fakeArray) CreateExport(ctx context.Context, args infinibox.CreateExportArgs) (*infinibox.Export, error) {
	f.MethodCall(f, "CreateExport", args)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	export := f.addExport(args.ExportPath, args.FilesystemID)
	export.InnerPath = args.InnerPath
	out := *export
	return &out, nil
}

func (f *fakeArray) ReplaceExportPermissions(ctx context.Context, id int64, permissions infinibox.PermissionSet) error {
	f.MethodCall(f, "ReplaceExportPermissions", id, permissions)
	if err := f.NextErr(); err != nil {
		return err
	}
	export, ok := f.exports[id]
	if !ok {
		return errors.NotFoundf("export %d", id)
	}
	export.Permissions = permissions
	return nil
}

func (f *fakeArray) DeleteExport(ctx context.Context, id int64) error {
	f.MethodCall(f, "DeleteExport", id)
	if err := f.NextErr(); err != nil {
		return err
	}
	delete(f.exports, id)
	return nil
}

func (f *fakeArray) HostByName(ctx context.Context, name string) (*infinibox.Host, error) {
	f.MethodCall(f, "HostByName", name)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	for _, host := range f.hosts {
		if host.Name == name {
			out := *host
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("host %q", name)
}

func (f *fakeArray) CreateHost(ctx context.Context, name string) (*infinibox.Host, error) {
	f.MethodCall(f, "CreateHost", name)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	host := f.addHost(name)
	out := *host
	return &out, nil
}

func (f *fakeArray) AddHostFCPort(ctx context.Context, hostID int64, wwn string) error {
	f.MethodCall(f, "AddHostFCPort", hostID, wwn)
	if err := f.NextErr(); err != nil {
		return err
	}
	host, ok := f.hosts[hostID]
	if !ok {
		return errors.NotFoundf("host %d", hostID)
	}
	host.Ports = append(host.Ports, infinibox.HostPort{Type: "FC", Address: wwn})
	return nil
}

func (f *fakeArray) MapHostToVolume(ctx context.Context, hostID, volumeID int64) error {
	f.MethodCall(f, "MapHostToVolume", hostID, volumeID)
	if err := f.NextErr(); err != nil {
		return err
	}
	if _, ok := f.hosts[hostID]; !ok {
		return errors.NotFoundf("host %d", hostID)
	}
	f.luns[hostID] = append(f.luns[hostID], volumeID)
	return nil
}

func (f *fakeArray) DeleteHost(ctx context.Context, id int64) error {
	f.MethodCall(f, "DeleteHost", id)
	if err := f.NextErr(); err != nil {
		return err
	}
	delete(f.hosts, id)
	return nil
}
