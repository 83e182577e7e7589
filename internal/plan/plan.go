// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package plan reads declarative YAML documents describing the desired
// state of a set of array resources and applies them in order. A plan
// is the batch-mode equivalent of the per-resource commands:
//
//	system: ibox01
//	resources:
//	  - kind: pool
//	    name: data
//	    size: 10TB
//	  - kind: filesystem
//	    name: fs01
//	    pool: data
//	    size: 1TB
package plan

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/schema"
	"gopkg.in/yaml.v2"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

var logger = loggo.GetLogger("infinistate.plan")

// Applier reconciles individual resources; *reconcile.Reconciler
// implements it.
type Applier interface {
	Pool(context.Context, reconcile.PoolSpec) (reconcile.Result, error)
	Volume(context.Context, reconcile.VolumeSpec) (reconcile.Result, error)
	Filesystem(context.Context, reconcile.FilesystemSpec) (reconcile.Result, error)
	Export(context.Context, reconcile.ExportSpec) (reconcile.Result, error)
	ExportClient(context.Context, reconcile.ExportClientSpec) (reconcile.Result, error)
	Host(context.Context, reconcile.HostSpec) (reconcile.Result, error)
}

var _ Applier = (*reconcile.Reconciler)(nil)

// Result reports the outcome of one resource in a plan.
type Result struct {
	Kind    string
	Name    string
	Changed bool
}

// Plan is a parsed desired-state document.
type Plan struct {
	// System is the array the plan targets. The command line may
	// override it.
	System string

	resources []resource
}

type resource struct {
	kind  string
	name  string
	apply func(context.Context, Applier) (reconcile.Result, error)
}

// Len returns the number of resources in the plan.
func (p *Plan) Len() int {
	return len(p.resources)
}

// Run applies the plan's resources strictly in order, stopping at the
// first failure. The results cover the resources applied so far.
func (p *Plan) Run(ctx context.Context, api Applier) ([]Result, error) {
	results := make([]Result, 0, len(p.resources))
	for _, res := range p.resources {
		out, err := res.apply(ctx, api)
		if err != nil {
			return results, errors.Annotatef(err, "%s %q", res.kind, res.name)
		}
		logger.Debugf("%s %q: changed=%t", res.kind, res.name, out.Changed)
		results = append(results, Result{Kind: res.kind, Name: res.name, Changed: out.Changed})
	}
	return results, nil
}

// Parse reads a plan document.
func Parse(data []byte) (*Plan, error) {
	var doc struct {
		System    string        `yaml:"system"`
		Resources []interface{} `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "parsing plan")
	}
	plan := &Plan{System: doc.System}
	for i, raw := range doc.Resources {
		res, err := parseResource(raw)
		if err != nil {
			return nil, errors.Annotatef(err, "resource %d", i)
		}
		plan.resources = append(plan.resources, res)
	}
	return plan, nil
}

func parseResource(raw interface{}) (resource, error) {
	coerced, err := schema.StringMap(schema.Any()).Coerce(raw, nil)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	kind, _ := coerced.(map[string]interface{})["kind"].(string)
	parse, ok := resourceParsers[kind]
	if !ok {
		return resource{}, errors.NotValidf("resource kind %q", kind)
	}
	res, err := parse(raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	return res, nil
}

var resourceParsers = map[string]func(interface{}) (resource, error){
	"pool":          parsePool,
	"volume":        parseVolume,
	"filesystem":    parseFilesystem,
	"export":        parseExport,
	"export-client": parseExportClient,
	"host":          parseHost,
}

var poolChecker = schema.FieldMap(schema.Fields{
	"kind":      schema.String(),
	"name":      schema.String(),
	"state":     schema.String(),
	"size":      schema.String(),
	"vsize":     schema.String(),
	"ssd_cache": schema.Bool(),
}, schema.Defaults{
	"state":     string(reconcile.Present),
	"size":      schema.Omit,
	"vsize":     schema.Omit,
	"ssd_cache": true,
})

func parsePool(raw interface{}) (resource, error) {
	attrs, err := coerce(poolChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.PoolSpec{Name: attrs.str("name")}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	if spec.Size, err = attrs.size("size"); err != nil {
		return resource{}, errors.Trace(err)
	}
	if spec.VSize, err = attrs.size("vsize"); err != nil {
		return resource{}, errors.Trace(err)
	}
	ssd := attrs["ssd_cache"].(bool)
	spec.SsdCache = &ssd
	return resource{
		kind: "pool",
		name: spec.Name,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.Pool(ctx, spec)
		},
	}, nil
}

var datasetChecker = schema.FieldMap(schema.Fields{
	"kind":  schema.String(),
	"name":  schema.String(),
	"state": schema.String(),
	"pool":  schema.String(),
	"size":  schema.String(),
}, schema.Defaults{
	"state": string(reconcile.Present),
	"size":  schema.Omit,
})

func parseVolume(raw interface{}) (resource, error) {
	attrs, err := coerce(datasetChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.VolumeSpec{Name: attrs.str("name"), Pool: attrs.str("pool")}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	if spec.Size, err = attrs.size("size"); err != nil {
		return resource{}, errors.Trace(err)
	}
	return resource{
		kind: "volume",
		name: spec.Name,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.Volume(ctx, spec)
		},
	}, nil
}

func parseFilesystem(raw interface{}) (resource, error) {
	attrs, err := coerce(datasetChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.FilesystemSpec{Name: attrs.str("name"), Pool: attrs.str("pool")}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	if spec.Size, err = attrs.size("size"); err != nil {
		return resource{}, errors.Trace(err)
	}
	return resource{
		kind: "filesystem",
		name: spec.Name,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.Filesystem(ctx, spec)
		},
	}, nil
}

var exportChecker = schema.FieldMap(schema.Fields{
	"kind":       schema.String(),
	"name":       schema.String(),
	"state":      schema.String(),
	"filesystem": schema.String(),
	"inner_path": schema.String(),
	"client_list": schema.List(schema.FieldMap(schema.Fields{
		"client":         schema.String(),
		"access":         schema.String(),
		"no_root_squash": schema.Bool(),
	}, schema.Defaults{
		"access":         string(infinibox.AccessRW),
		"no_root_squash": false,
	})),
}, schema.Defaults{
	"state":       string(reconcile.Present),
	"inner_path":  "/",
	"client_list": schema.Omit,
})

func parseExport(raw interface{}) (resource, error) {
	attrs, err := coerce(exportChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.ExportSpec{
		Path:       attrs.str("name"),
		InnerPath:  attrs.str("inner_path"),
		Filesystem: attrs.str("filesystem"),
	}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	if list, ok := attrs["client_list"].([]interface{}); ok {
		spec.ClientList = make([]infinibox.Permission, 0, len(list))
		for _, entry := range list {
			fields := entry.(map[string]interface{})
			access, err := infinibox.ParseAccessMode(fields["access"].(string))
			if err != nil {
				return resource{}, errors.Trace(err)
			}
			spec.ClientList = append(spec.ClientList, infinibox.Permission{
				Client:       fields["client"].(string),
				Access:       access,
				NoRootSquash: fields["no_root_squash"].(bool),
			})
		}
	}
	return resource{
		kind: "export",
		name: spec.Path,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.Export(ctx, spec)
		},
	}, nil
}

var exportClientChecker = schema.FieldMap(schema.Fields{
	"kind":           schema.String(),
	"client":         schema.String(),
	"state":          schema.String(),
	"export":         schema.String(),
	"access_mode":    schema.String(),
	"no_root_squash": schema.Bool(),
}, schema.Defaults{
	"state":          string(reconcile.Present),
	"access_mode":    string(infinibox.AccessRW),
	"no_root_squash": false,
})

func parseExportClient(raw interface{}) (resource, error) {
	attrs, err := coerce(exportClientChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	access, err := infinibox.ParseAccessMode(attrs.str("access_mode"))
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.ExportClientSpec{
		Client:       attrs.str("client"),
		Export:       attrs.str("export"),
		Access:       access,
		NoRootSquash: attrs["no_root_squash"].(bool),
	}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	return resource{
		kind: "export-client",
		name: spec.Client,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.ExportClient(ctx, spec)
		},
	}, nil
}

var hostChecker = schema.FieldMap(schema.Fields{
	"kind":   schema.String(),
	"name":   schema.String(),
	"state":  schema.String(),
	"wwns":   schema.List(schema.String()),
	"volume": schema.String(),
}, schema.Defaults{
	"state":  string(reconcile.Present),
	"wwns":   schema.Omit,
	"volume": schema.Omit,
})

func parseHost(raw interface{}) (resource, error) {
	attrs, err := coerce(hostChecker, raw)
	if err != nil {
		return resource{}, errors.Trace(err)
	}
	spec := reconcile.HostSpec{Name: attrs.str("name"), Volume: attrs.str("volume")}
	if spec.State, err = reconcile.ParseState(attrs.str("state")); err != nil {
		return resource{}, errors.Trace(err)
	}
	if wwns, ok := attrs["wwns"].([]interface{}); ok {
		for _, wwn := range wwns {
			spec.WWNs = append(spec.WWNs, wwn.(string))
		}
	}
	return resource{
		kind: "host",
		name: spec.Name,
		apply: func(ctx context.Context, api Applier) (reconcile.Result, error) {
			return api.Host(ctx, spec)
		},
	}, nil
}

type resourceAttrs map[string]interface{}

func coerce(checker schema.Checker, raw interface{}) (resourceAttrs, error) {
	coerced, err := checker.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return resourceAttrs(coerced.(map[string]interface{})), nil
}

func (a resourceAttrs) str(key string) string {
	value, _ := a[key].(string)
	return value
}

// size parses an optional capacity attribute.
func (a resourceAttrs) size(key string) (*capacity.Value, error) {
	raw, ok := a[key].(string)
	if !ok {
		return nil, nil
	}
	value, err := capacity.Parse(raw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &value, nil
}
