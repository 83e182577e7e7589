// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile_test

import (
	"context"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

type exportClientSuite struct {
	reconcileSuite
}

var _ = gc.Suite(&exportClientSuite{})

func (s *exportClientSuite) TestMissingExportFatal(c *gc.C) {
	for _, state := range []reconcile.State{reconcile.Present, reconcile.Absent} {
		c.Logf("state %q", state)
		_, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
			Client: "10.0.0.1",
			State:  state,
			Export: "/data01",
		})
		c.Check(err, jc.Satisfies, errors.IsNotFound)
		c.Check(err, gc.ErrorMatches, `export "/data01" not found`)
	}
}

func (s *exportClientSuite) TestAddsEntry(c *gc.C) {
	export := s.array.addExport("/data01", 1,
		infinibox.Permission{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	)

	result, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Present,
		Export: "/data01",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	// The new entry defaults to RW with root squash, and the existing
	// entry is untouched.
	c.Check(s.array.exports[export.ID].Permissions.Entries(), jc.DeepEquals, []infinibox.Permission{
		{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
		{Client: "10.0.0.1", Access: infinibox.AccessRW},
	})
}

func (s *exportClientSuite) TestUpdatesEntry(c *gc.C) {
	export := s.array.addExport("/data01", 1,
		infinibox.Permission{Client: "10.0.0.1", Access: infinibox.AccessRW},
		infinibox.Permission{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	)

	result, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client:       "10.0.0.1",
		State:        reconcile.Present,
		Export:       "/data01",
		Access:       infinibox.AccessRO,
		NoRootSquash: true,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	c.Check(s.array.exports[export.ID].Permissions.Entries(), jc.DeepEquals, []infinibox.Permission{
		{Client: "10.0.0.1", Access: infinibox.AccessRO, NoRootSquash: true},
		{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	})
}

func (s *exportClientSuite) TestMatchingEntryIsNoop(c *gc.C) {
	s.array.addExport("/data01", 1,
		infinibox.Permission{Client: "10.0.0.1", Access: infinibox.AccessRW},
	)

	result, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Present,
		Export: "/data01",
		Access: infinibox.AccessRW,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsFalse)
	s.array.CheckCallNames(c, "ExportByPath")
}

func (s *exportClientSuite) TestRemovesEntry(c *gc.C) {
	export := s.array.addExport("/data01", 1,
		infinibox.Permission{Client: "10.0.0.1", Access: infinibox.AccessRW},
		infinibox.Permission{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	)

	result, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Absent,
		Export: "/data01",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	c.Check(s.array.exports[export.ID].Permissions.Entries(), jc.DeepEquals, []infinibox.Permission{
		{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	})
}

func (s *exportClientSuite) TestRemoveMissingIsNoop(c *gc.C) {
	s.array.addExport("/data01", 1,
		infinibox.Permission{Client: "192.168.0.0/24", Access: infinibox.AccessRO},
	)

	result, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Absent,
		Export: "/data01",
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsFalse)
	s.array.CheckCallNames(c, "ExportByPath")
}

func (s *exportClientSuite) TestValidate(c *gc.C) {
	_, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Present,
	})
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	_, err = s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Present,
		Export: "/data01",
		Access: "RWX",
	})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	s.array.CheckNoCalls(c)
}

func (s *exportClientSuite) TestRemoteFailure(c *gc.C) {
	s.array.addExport("/data01", 1)
	s.array.SetErrors(nil, &infinibox.APIError{Message: "boom"})

	_, err := s.rec.ExportClient(context.Background(), reconcile.ExportClientSpec{
		Client: "10.0.0.1",
		State:  reconcile.Present,
		Export: "/data01",
	})
	c.Check(err, jc.Satisfies, reconcile.IsRemoteOperationFailed)
}
