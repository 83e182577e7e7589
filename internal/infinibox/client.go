// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package infinibox implements a client for the Infinibox REST API,
// covering the pool, volume, filesystem, export and host resources.
// Lookups return a not-found error for missing resources; command
// errors reported by the array surface as *APIError.
package infinibox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"

	"github.com/infinidat/infinistate/internal/capacity"
)

var logger = loggo.GetLogger("infinistate.infinibox")

const (
	apiPrefix = "/api/rest"

	// Transient transport failures are retried a few times before the
	// array is declared unreachable. Command errors are never retried.
	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// Transport makes an HTTP request. *http.Client implements it.
type Transport interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds everything needed to talk to an array. Credentials are
// resolved by the caller and passed in here; the client never consults
// the environment itself.
type Config struct {
	// Address is the array's hostname or IP, with an optional scheme
	// ("https://" is assumed when absent).
	Address  string
	Username string
	Password string

	// Transport is the HTTP transport to use. Defaults to an
	// *http.Client with a 30 second timeout.
	Transport Transport

	// Clock is used for retry delays. Defaults to the wall clock.
	Clock clock.Clock
}

// Client talks to one Infinibox array.
type Client struct {
	base      *url.URL
	address   string
	username  string
	password  string
	transport Transport
	clock     clock.Clock
}

// NewClient constructs a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.NotValidf("empty array address")
	}
	address := cfg.Address
	if !hasScheme(address) {
		address = "https://" + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, errors.NotValidf("array address %q", cfg.Address)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Client{Timeout: 30 * time.Second}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	return &Client{
		base:      base,
		address:   cfg.Address,
		username:  cfg.Username,
		password:  cfg.Password,
		transport: transport,
		clock:     clk,
	}, nil
}

func hasScheme(address string) bool {
	u, err := url.Parse(address)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Login verifies the array is reachable and the credentials are
// accepted.
func (c *Client) Login(ctx context.Context) error {
	var system struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := c.call(ctx, "GET", "system", nil, nil, &system); err != nil {
		return errors.Trace(err)
	}
	logger.Debugf("connected to %q (version %s)", system.Name, system.Version)
	return nil
}

// PoolByName returns the named pool, or a not-found error.
func (c *Client) PoolByName(ctx context.Context, name string) (*Pool, error) {
	var pools []Pool
	query := url.Values{"name": []string{name}}
	if err := c.call(ctx, "GET", "pools", query, nil, &pools); err != nil {
		return nil, errors.Trace(err)
	}
	if len(pools) == 0 {
		return nil, errors.NotFoundf("pool %q", name)
	}
	return &pools[0], nil
}

// CreatePool creates a pool and returns its record.
func (c *Client) CreatePool(ctx context.Context, args CreatePoolArgs) (*Pool, error) {
	var pool Pool
	if err := c.call(ctx, "POST", "pools", nil, args, &pool); err != nil {
		return nil, errors.Trace(err)
	}
	return &pool, nil
}

// UpdatePoolPhysicalCapacity resizes a pool's physical capacity.
func (c *Client) UpdatePoolPhysicalCapacity(ctx context.Context, id int64, value capacity.Value) error {
	return c.update(ctx, "pools", id, attrs{"physical_capacity": value})
}

// UpdatePoolVirtualCapacity resizes a pool's virtual capacity.
func (c *Client) UpdatePoolVirtualCapacity(ctx context.Context, id int64, value capacity.Value) error {
	return c.update(ctx, "pools", id, attrs{"virtual_capacity": value})
}

// UpdatePoolSsdEnabled toggles SSD caching on a pool.
func (c *Client) UpdatePoolSsdEnabled(ctx context.Context, id int64, enabled bool) error {
	return c.update(ctx, "pools", id, attrs{"ssd_enabled": enabled})
}

// DeletePool removes a pool.
func (c *Client) DeletePool(ctx context.Context, id int64) error {
	return c.remove(ctx, "pools", id)
}

// VolumeByName returns the named volume, or a not-found error.
func (c *Client) VolumeByName(ctx context.Context, name string) (*Volume, error) {
	var volumes []Volume
	query := url.Values{"name": []string{name}}
	if err := c.call(ctx, "GET", "volumes", query, nil, &volumes); err != nil {
		return nil, errors.Trace(err)
	}
	if len(volumes) == 0 {
		return nil, errors.NotFoundf("volume %q", name)
	}
	return &volumes[0], nil
}

// CreateVolume creates a volume inside a pool.
func (c *Client) CreateVolume(ctx context.Context, args CreateVolumeArgs) (*Volume, error) {
	var volume Volume
	if err := c.call(ctx, "POST", "volumes", nil, args, &volume); err != nil {
		return nil, errors.Trace(err)
	}
	return &volume, nil
}

// UpdateVolumeSize resizes a volume.
func (c *Client) UpdateVolumeSize(ctx context.Context, id int64, size capacity.Value) error {
	return c.update(ctx, "volumes", id, attrs{"size": size})
}

// DeleteVolume removes a volume.
func (c *Client) DeleteVolume(ctx context.Context, id int64) error {
	return c.remove(ctx, "volumes", id)
}

// FilesystemByName returns the named filesystem, or a not-found error.
func (c *Client) FilesystemByName(ctx context.Context, name string) (*Filesystem, error) {
	var filesystems []Filesystem
	query := url.Values{"name": []string{name}}
	if err := c.call(ctx, "GET", "filesystems", query, nil, &filesystems); err != nil {
		return nil, errors.Trace(err)
	}
	if len(filesystems) == 0 {
		return nil, errors.NotFoundf("filesystem %q", name)
	}
	return &filesystems[0], nil
}

// CreateFilesystem creates a filesystem inside a pool.
func (c *Client) CreateFilesystem(ctx context.Context, args CreateFilesystemArgs) (*Filesystem, error) {
	var filesystem Filesystem
	if err := c.call(ctx, "POST", "filesystems", nil, args, &filesystem); err != nil {
		return nil, errors.Trace(err)
	}
	return &filesystem, nil
}

// UpdateFilesystemSize resizes a filesystem.
func (c *Client) UpdateFilesystemSize(ctx context.Context, id int64, size capacity.Value) error {
	return c.update(ctx, "filesystems", id, attrs{"size": size})
}

// DeleteFilesystem removes a filesystem.
func (c *Client) DeleteFilesystem(ctx context.Context, id int64) error {
	return c.remove(ctx, "filesystems", id)
}

// ExportByPath returns the export with the given export path, or a
// not-found error. The API has no path filter, so all exports are
// listed and matched locally.
func (c *Client) ExportByPath(ctx context.Context, exportPath string) (*Export, error) {
	var exports []Export
	if err := c.call(ctx, "GET", "exports", nil, nil, &exports); err != nil {
		return nil, errors.Trace(err)
	}
	for i, export := range exports {
		if export.ExportPath == exportPath {
			return &exports[i], nil
		}
	}
	return nil, errors.NotFoundf("export %q", exportPath)
}

// CreateExport creates an export of a filesystem.
func (c *Client) CreateExport(ctx context.Context, args CreateExportArgs) (*Export, error) {
	var export Export
	if err := c.call(ctx, "POST", "exports", nil, args, &export); err != nil {
		return nil, errors.Trace(err)
	}
	return &export, nil
}

// ReplaceExportPermissions replaces an export's whole permission list.
func (c *Client) ReplaceExportPermissions(ctx context.Context, id int64, permissions PermissionSet) error {
	return c.update(ctx, "exports", id, attrs{"permissions": permissions})
}

// DeleteExport removes an export.
func (c *Client) DeleteExport(ctx context.Context, id int64) error {
	return c.remove(ctx, "exports", id)
}

// HostByName returns the named host, or a not-found error. Hosts are
// listed and matched locally.
func (c *Client) HostByName(ctx context.Context, name string) (*Host, error) {
	var hosts []Host
	if err := c.call(ctx, "GET", "hosts", nil, nil, &hosts); err != nil {
		return nil, errors.Trace(err)
	}
	for i, host := range hosts {
		if host.Name == name {
			return &hosts[i], nil
		}
	}
	return nil, errors.NotFoundf("host %q", name)
}

// CreateHost registers a host on the array.
func (c *Client) CreateHost(ctx context.Context, name string) (*Host, error) {
	var host Host
	if err := c.call(ctx, "POST", "hosts", nil, attrs{"name": name}, &host); err != nil {
		return nil, errors.Trace(err)
	}
	return &host, nil
}

// AddHostFCPort registers a Fibre-Channel WWN port on a host.
func (c *Client) AddHostFCPort(ctx context.Context, hostID int64, wwn string) error {
	port := HostPort{Type: "FC", Address: wwn}
	path := fmt.Sprintf("hosts/%d/ports", hostID)
	return errors.Trace(c.call(ctx, "POST", path, nil, port, nil))
}

// MapHostToVolume maps a volume to a host.
func (c *Client) MapHostToVolume(ctx context.Context, hostID, volumeID int64) error {
	path := fmt.Sprintf("hosts/%d/luns", hostID)
	return errors.Trace(c.call(ctx, "POST", path, nil, attrs{"volume_id": volumeID}, nil))
}

// DeleteHost removes a host.
func (c *Client) DeleteHost(ctx context.Context, id int64) error {
	return c.remove(ctx, "hosts", id)
}

type attrs map[string]interface{}

func (c *Client) update(ctx context.Context, collection string, id int64, fields attrs) error {
	path := fmt.Sprintf("%s/%d", collection, id)
	return errors.Trace(c.call(ctx, "PUT", path, nil, fields, nil))
}

func (c *Client) remove(ctx context.Context, collection string, id int64) error {
	path := fmt.Sprintf("%s/%d", collection, id)
	return errors.Trace(c.call(ctx, "DELETE", path, nil, nil, nil))
}

// envelope is the wire frame every API response arrives in.
type envelope struct {
	Result   json.RawMessage `json:"result"`
	Error    *APIError       `json:"error"`
	Metadata json.RawMessage `json:"metadata"`
}

// call performs one API command, retrying transient transport failures.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Annotate(err, "encoding request")
		}
	}
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return c.do(ctx, method, path, query, payload, result)
		},
		IsFatalError: func(err error) bool {
			return !IsSystemNotFound(err)
		},
		Attempts: retryAttempts,
		Delay:    retryDelay,
		Clock:    c.clock,
		Stop:     ctx.Done(),
	})
	if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
		err = retry.LastError(err)
	}
	return errors.Trace(err)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, result interface{}) error {
	u := c.base.JoinPath(apiPrefix, path)
	u.RawQuery = query.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Annotate(err, "building request")
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	logger.Tracef("%s %s", method, u)
	resp, err := c.transport.Do(req)
	if err != nil {
		return systemNotFound(c.address, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.Unauthorizedf("infinibox authentication failed: check your credentials")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return systemNotFound(c.address, err)
	}
	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return &APIError{
				Message: fmt.Sprintf("malformed response: %s", http.StatusText(resp.StatusCode)),
				Status:  resp.StatusCode,
			}
		}
	}
	if env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	if resp.StatusCode >= 300 {
		return &APIError{
			Message: http.StatusText(resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return errors.Annotate(err, "decoding response")
		}
	}
	return nil
}
