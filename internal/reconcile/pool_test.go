// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/infinidat/infinistate/internal/capacity"
	"github.com/infinidat/infinistate/internal/infinibox"
	"github.com/infinidat/infinistate/internal/reconcile"
)

type poolSuite struct {
	reconcileSuite
}

var _ = gc.Suite(&poolSuite{})

func (s *poolSuite) TestCreateDefaults(c *gc.C) {
	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "CreatePool", Args: []interface{}{infinibox.CreatePoolArgs{
			Name:             "data",
			PhysicalCapacity: oneTB,
			VirtualCapacity:  oneTB,
		}}},
	})
}

func (s *poolSuite) TestCreateSizeSetsBothCapacities(c *gc.C) {
	size := capacity.MustParse("10TB")
	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
		Size:  sizePtr(size),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "CreatePool", Args: []interface{}{infinibox.CreatePoolArgs{
			Name:             "data",
			PhysicalCapacity: size,
			VirtualCapacity:  size,
		}}},
	})
}

func (s *poolSuite) TestCreateVsizeOverridesVirtual(c *gc.C) {
	size := capacity.MustParse("10TB")
	vsize := capacity.MustParse("30TB")
	_, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
		Size:  sizePtr(size),
		VSize: sizePtr(vsize),
	})
	c.Assert(err, jc.ErrorIsNil)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "CreatePool", Args: []interface{}{infinibox.CreatePoolArgs{
			Name:             "data",
			PhysicalCapacity: size,
			VirtualCapacity:  vsize,
		}}},
	})
}

func (s *poolSuite) TestCreateSsdDisabled(c *gc.C) {
	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:     "data",
		State:    reconcile.Present,
		SsdCache: boolPtr(false),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCallNames(c, "PoolByName", "CreatePool", "UpdatePoolSsdEnabled")
	call := s.array.Calls()[2]
	c.Check(call.Args[1], gc.Equals, false)
}

func (s *poolSuite) TestPresentUnchanged(c *gc.C) {
	size := capacity.MustParse("10TB")
	s.array.addPool("data", size.RoundUp(poolAlignment), size.RoundUp(poolAlignment), true)

	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
		Size:  sizePtr(size),
		VSize: sizePtr(size),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsFalse)
	s.array.CheckCallNames(c, "PoolByName")
}

func (s *poolSuite) TestResizePhysical(c *gc.C) {
	pool := s.array.addPool("data", oneTB.RoundUp(poolAlignment), oneTB.RoundUp(poolAlignment), true)
	size := capacity.MustParse("2TB")

	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
		Size:  sizePtr(size),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	// VSize is unmanaged here, so only the physical capacity moves.
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "UpdatePoolPhysicalCapacity", Args: []interface{}{pool.ID, size.RoundUp(poolAlignment)}},
	})
}

func (s *poolSuite) TestResizeVirtualOnly(c *gc.C) {
	pool := s.array.addPool("data", oneTB.RoundUp(poolAlignment), oneTB.RoundUp(poolAlignment), true)
	vsize := capacity.MustParse("5TB")

	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
		VSize: sizePtr(vsize),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "UpdatePoolVirtualCapacity", Args: []interface{}{pool.ID, vsize.RoundUp(poolAlignment)}},
	})
}

func (s *poolSuite) TestSsdToggle(c *gc.C) {
	pool := s.array.addPool("data", oneTB, oneTB, true)

	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:     "data",
		State:    reconcile.Present,
		SsdCache: boolPtr(false),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "UpdatePoolSsdEnabled", Args: []interface{}{pool.ID, false}},
	})
}

func (s *poolSuite) TestAbsentDeletes(c *gc.C) {
	pool := s.array.addPool("data", oneTB, oneTB, true)

	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Absent,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsTrue)
	s.array.CheckCalls(c, []testing.StubCall{
		{FuncName: "PoolByName", Args: []interface{}{"data"}},
		{FuncName: "DeletePool", Args: []interface{}{pool.ID}},
	})
}

func (s *poolSuite) TestAbsentMissingIsNoop(c *gc.C) {
	result, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Absent,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Changed, jc.IsFalse)
	s.array.CheckCallNames(c, "PoolByName")
}

func (s *poolSuite) TestValidate(c *gc.C) {
	_, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{State: reconcile.Present})
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	_, err = s.rec.Pool(context.Background(), reconcile.PoolSpec{Name: "data", State: "sideways"})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	s.array.CheckNoCalls(c)
}

func (s *poolSuite) TestRemoteFailure(c *gc.C) {
	s.array.SetErrors(&infinibox.APIError{Code: "SYSTEM_BUSY", Message: "busy"})
	_, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
	})
	c.Check(err, jc.Satisfies, reconcile.IsRemoteOperationFailed)
	c.Check(err, gc.ErrorMatches, "remote operation failed: SYSTEM_BUSY: busy")
}

func (s *poolSuite) TestCreateFailure(c *gc.C) {
	s.array.SetErrors(nil, &infinibox.APIError{Message: "no room"})
	_, err := s.rec.Pool(context.Background(), reconcile.PoolSpec{
		Name:  "data",
		State: reconcile.Present,
	})
	c.Check(err, jc.Satisfies, reconcile.IsRemoteOperationFailed)
	s.array.CheckCallNames(c, "PoolByName", "CreatePool")
}
