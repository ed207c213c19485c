// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/world/memory"
	"github.com/axosm/axosm/internal/world/worldtest"
	"github.com/axosm/axosm/internal/worldgen"
	"github.com/axosm/axosm/pkg/errutil"
)

var (
	planet = worldgen.PlanetAddress{System: worldgen.SystemAddress{X: 1, Y: 2, Z: 3}, Orbit: 1}
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func seedUnit(t *testing.T, s *memory.Store, playerID int64, loc world.Location) *world.Unit {
	t.Helper()
	u := &world.Unit{ID: ulid.Make(), PlayerID: playerID, UnitType: "scout", Location: loc}
	require.NoError(t, s.Create(context.Background(), u))
	return u
}

func seedOrder(t *testing.T, s *memory.Store, u *world.Unit, dest world.Location, arrival time.Time) *world.MoveOrder {
	t.Helper()
	o := &world.MoveOrder{
		ID:          ulid.Make(),
		UnitID:      u.ID,
		PlayerID:    u.PlayerID,
		Origin:      u.Location,
		Destination: dest,
		ArrivalTime: arrival,
		Status:      world.OrderPending,
		CreatedAt:   now,
	}
	require.NoError(t, s.Orders().Create(context.Background(), o))
	return o
}

func TestStore_Units(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	here := worldtest.Surface(t, planet.ID(), 0, 3, 3)
	there := worldtest.OrbitOf(t, planet.ID())

	a := seedUnit(t, s, 1, here)
	b := seedUnit(t, s, 2, here)
	seedUnit(t, s, 1, there)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Location, got.Location)

	got.UnitType = "mutated"
	again, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "scout", again.UnitType, "returned units are copies")

	at, err := s.ListAt(ctx, here)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ulid.ULID{a.ID, b.ID}, []ulid.ULID{at[0].ID, at[1].ID})

	mine, err := s.ListByPlayer(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = s.Get(ctx, ulid.Make())
	require.ErrorIs(t, err, world.ErrNotFound)
	errutil.AssertErrorCode(t, err, "UNIT_NOT_FOUND")

	errutil.AssertErrorCode(t, s.Create(ctx, a), "UNIT_EXISTS")
}

func TestStore_ListDue(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	u := seedUnit(t, s, 1, worldtest.Surface(t, planet.ID(), 0, 0, 0))
	dest := worldtest.OrbitOf(t, planet.ID())

	late := seedOrder(t, s, u, dest, now.Add(-time.Second))
	early := seedOrder(t, s, u, dest, now.Add(-time.Minute))
	exact := seedOrder(t, s, u, dest, now)
	seedOrder(t, s, u, dest, now.Add(time.Second))

	due, err := s.Orders().ListDue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)
	assert.Equal(t, exact.ID, due[2].ID)

	limited, err := s.Orders().ListDue(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	pending, dueCount, err := s.Orders().CountPending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, pending)
	assert.Equal(t, 3, dueCount)

	s.SetFaults(memory.Faults{ListDue: func() error { return errors.New("store unavailable") }})
	_, err = s.Orders().ListDue(ctx, now, 0)
	require.Error(t, err)
}

func TestStore_Resolve(t *testing.T) {
	ctx := context.Background()
	origin := worldtest.Surface(t, planet.ID(), 0, 0, 0)
	dest := worldtest.Surface(t, planet.ID(), 0, 3, 3)

	t.Run("moves the unit and marks the order", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)

		res, err := s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.NoError(t, err)
		assert.Equal(t, world.Location(dest), res.Unit.Location)
		assert.Equal(t, world.Location(origin), res.Previous)
		assert.Equal(t, world.OrderResolved, res.Order.Status)
		require.NotNil(t, res.Order.ResolvedAt)

		stored, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, world.Location(dest), stored.Location)
	})

	t.Run("second resolution is rejected without changes", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)

		_, err := s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.NoError(t, err)
		_, err = s.Orders().Resolve(ctx, o.ID, u.ID, now.Add(time.Second))
		require.ErrorIs(t, err, world.ErrOrderResolved)
		errutil.AssertErrorCode(t, err, "ORDER_ALREADY_RESOLVED")

		stored, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, now, *stored.ResolvedAt)
	})

	t.Run("failure between the unit move and the marker rolls the move back", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)
		s.SetFaults(memory.Faults{BeforeMarkResolved: func(ulid.ULID) error { return errors.New("crash") }})

		_, err := s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.Error(t, err)

		stored, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, world.Location(origin), stored.Location)
		order, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, order.IsPending())
	})

	t.Run("unit mismatch is rejected", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)

		_, err := s.Orders().Resolve(ctx, o.ID, ulid.Make(), now)
		errutil.AssertErrorCode(t, err, "ORDER_UNIT_MISMATCH")
		assert.True(t, world.IsUnresolvable(err))
	})

	t.Run("later order cannot overtake an earlier pending one", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		first := seedOrder(t, s, u, dest, now.Add(-2*time.Second))
		second := seedOrder(t, s, u, worldtest.OrbitOf(t, planet.ID()), now.Add(-time.Second))

		_, err := s.Orders().Resolve(ctx, second.ID, u.ID, now)
		require.ErrorIs(t, err, world.ErrEarlierOrderPending)
		errutil.AssertErrorCode(t, err, "ORDER_OUT_OF_SEQUENCE")
		errutil.AssertErrorContext(t, err, "earlier_order_id", first.ID.String())

		stored, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, world.Location(origin), stored.Location)

		_, err = s.Orders().Resolve(ctx, first.ID, u.ID, now)
		require.NoError(t, err)
		res, err := s.Orders().Resolve(ctx, second.ID, u.ID, now)
		require.NoError(t, err)
		assert.Equal(t, world.Location(dest), res.Previous)
	})

	t.Run("orders of other units do not block", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		other := seedUnit(t, s, 2, origin)
		seedOrder(t, s, other, dest, now.Add(-2*time.Second))
		o := seedOrder(t, s, u, dest, now.Add(-time.Second))

		_, err := s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.NoError(t, err)
	})

	t.Run("error from the hook before resolving is returned as is", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)
		boom := errors.New("decode failed")
		s.SetFaults(memory.Faults{BeforeResolve: func(id ulid.ULID) error {
			assert.Equal(t, o.ID, id)
			return boom
		}})

		_, err := s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.ErrorIs(t, err, boom)
		order, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, order.IsPending())
	})

	t.Run("aborted transaction undoes the resolution", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)

		err := s.InTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.Orders().Resolve(ctx, o.ID, u.ID, now); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.EqualError(t, err, "abort")

		stored, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, world.Location(origin), stored.Location)
		order, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, order.IsPending())
	})

	t.Run("unknown order", func(t *testing.T) {
		s := memory.NewStore()
		_, err := s.Orders().Resolve(ctx, ulid.Make(), ulid.Make(), now)
		require.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestStore_MarkFailed(t *testing.T) {
	ctx := context.Background()
	origin := worldtest.Surface(t, planet.ID(), 0, 0, 0)
	dest := worldtest.Surface(t, planet.ID(), 0, 1, 1)

	t.Run("failed order leaves discovery", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now.Add(-time.Second))

		require.NoError(t, s.Orders().MarkFailed(ctx, o.ID, "INVALID_LOCATION", now))

		stored, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, world.OrderFailed, stored.Status)
		assert.Nil(t, stored.ResolvedAt)

		due, err := s.Orders().ListDue(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
		pending, dueCount, err := s.Orders().CountPending(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, pending)
		assert.Zero(t, dueCount)
		byUnit, err := s.Orders().ListPendingByUnit(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, byUnit)
	})

	t.Run("failed order no longer blocks later ones", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		broken := seedOrder(t, s, u, dest, now.Add(-2*time.Second))
		later := seedOrder(t, s, u, dest, now.Add(-time.Second))

		require.NoError(t, s.Orders().MarkFailed(ctx, broken.ID, "INVALID_LOCATION", now))
		_, err := s.Orders().Resolve(ctx, later.ID, u.ID, now)
		require.NoError(t, err)
	})

	t.Run("only pending orders can fail", func(t *testing.T) {
		s := memory.NewStore()
		u := seedUnit(t, s, 1, origin)
		o := seedOrder(t, s, u, dest, now)

		require.NoError(t, s.Orders().MarkFailed(ctx, o.ID, "INVALID_LOCATION", now))
		err := s.Orders().MarkFailed(ctx, o.ID, "INVALID_LOCATION", now)
		require.ErrorIs(t, err, world.ErrOrderResolved)
		errutil.AssertErrorCode(t, err, "ORDER_NOT_PENDING")

		_, err = s.Orders().Resolve(ctx, o.ID, u.ID, now)
		require.ErrorIs(t, err, world.ErrOrderResolved)
	})

	t.Run("unknown order", func(t *testing.T) {
		s := memory.NewStore()
		err := s.Orders().MarkFailed(ctx, ulid.Make(), "INVALID_LOCATION", now)
		require.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestStore_InTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	u := seedUnit(t, s, 1, worldtest.OrbitOf(t, planet.ID()))

	var created *world.MoveOrder
	err := s.InTransaction(ctx, func(ctx context.Context) error {
		created = &world.MoveOrder{ID: ulid.Make(), UnitID: u.ID, PlayerID: 1, Status: world.OrderPending,
			Origin: u.Location, Destination: worldtest.SpaceOf(t, planet.System.ID()), ArrivalTime: now}
		if err := s.Orders().Create(ctx, created); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	_, err = s.Orders().Get(ctx, created.ID)
	require.ErrorIs(t, err, world.ErrNotFound)
}

func TestStore_OrderForUnknownUnit(t *testing.T) {
	s := memory.NewStore()
	err := s.Orders().Create(context.Background(), &world.MoveOrder{ID: ulid.Make(), UnitID: ulid.Make()})
	require.ErrorIs(t, err, world.ErrNotFound)
}
