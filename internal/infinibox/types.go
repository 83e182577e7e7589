// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package infinibox

import (
	"github.com/infinidat/infinistate/internal/capacity"
)

// Pool is a capacity container allocating physical and virtual space to
// volumes and filesystems.
type Pool struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	PhysicalCapacity capacity.Value `json:"physical_capacity"`
	VirtualCapacity  capacity.Value `json:"virtual_capacity"`
	SsdEnabled       bool           `json:"ssd_enabled"`
}

// Volume is a block volume carved out of a pool.
type Volume struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	PoolID int64          `json:"pool_id"`
	Size   capacity.Value `json:"size"`
}

// Filesystem is a NAS filesystem carved out of a pool. Filesystem and
// volume names are independent namespaces on the array.
type Filesystem struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	PoolID int64          `json:"pool_id"`
	Size   capacity.Value `json:"size"`
}

// Export is an NFS export exposing a filesystem path to a set of
// permitted clients.
type Export struct {
	ID           int64         `json:"id"`
	ExportPath   string        `json:"export_path"`
	InnerPath    string        `json:"inner_path"`
	FilesystemID int64         `json:"filesystem_id"`
	Permissions  PermissionSet `json:"permissions"`
}

// HostPort is a single initiator port registered on a host.
type HostPort struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

// Host is an initiator host registered on the array.
type Host struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Ports []HostPort `json:"ports"`
}

// CreatePoolArgs holds the attributes of a new pool.
type CreatePoolArgs struct {
	Name             string         `json:"name"`
	PhysicalCapacity capacity.Value `json:"physical_capacity"`
	VirtualCapacity  capacity.Value `json:"virtual_capacity"`
}

// CreateVolumeArgs holds the attributes of a new volume.
type CreateVolumeArgs struct {
	Name   string `json:"name"`
	PoolID int64  `json:"pool_id"`
}

// CreateFilesystemArgs holds the attributes of a new filesystem.
type CreateFilesystemArgs struct {
	Name   string `json:"name"`
	PoolID int64  `json:"pool_id"`
}

// CreateExportArgs holds the attributes of a new export.
type CreateExportArgs struct {
	ExportPath   string `json:"export_path"`
	InnerPath    string `json:"inner_path"`
	FilesystemID int64  `json:"filesystem_id"`
}
