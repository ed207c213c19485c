// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/world/memory"
	"github.com/axosm/axosm/internal/world/worldtest"
	"github.com/axosm/axosm/internal/worldgen"
	"github.com/axosm/axosm/pkg/errutil"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc    *world.Service
	store  *memory.Store
	gen    *worldgen.Generator
	planet worldgen.Planet
	unit   *world.Unit
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	gen := worldtest.Generator(t)
	store := memory.NewStore()
	svc := world.NewService(world.ServiceConfig{
		Units:      store,
		Orders:     store.Orders(),
		Transactor: store,
		Generator:  gen,
		Travel:     world.DefaultTravelConfig(),
		Now:        func() time.Time { return testNow },
	})

	planet := worldtest.SurfacePlanet(t, gen)
	unit := &world.Unit{
		PlayerID: 5,
		UnitType: "scout",
		Location: worldtest.Surface(t, planet.ID, 0, 3, 3),
	}
	require.NoError(t, svc.CreateUnit(context.Background(), unit))

	return &serviceFixture{svc: svc, store: store, gen: gen, planet: planet, unit: unit}
}

func (f *serviceFixture) pendingOrders(t *testing.T) []*world.MoveOrder {
	t.Helper()
	orders, err := f.store.Orders().ListPendingByUnit(context.Background(), f.unit.ID)
	require.NoError(t, err)
	return orders
}

func TestService_IssueMove(t *testing.T) {
	ctx := context.Background()

	t.Run("queues a pending order", func(t *testing.T) {
		f := newServiceFixture(t)
		dest := worldtest.Surface(t, f.planet.ID, 0, 4, 3)

		order, err := f.svc.IssueMove(ctx, 5, f.unit.ID, dest)
		require.NoError(t, err)

		assert.Equal(t, world.OrderPending, order.Status)
		assert.Equal(t, f.unit.ID, order.UnitID)
		assert.Equal(t, int64(5), order.PlayerID)
		assert.Equal(t, f.unit.Location, order.Origin)
		assert.Equal(t, world.Location(dest), order.Destination)
		assert.Equal(t, testNow.Add(11*time.Second), order.ArrivalTime)

		stored, err := f.store.Orders().Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ArrivalTime, stored.ArrivalTime)

		unit, err := f.store.Get(ctx, f.unit.ID)
		require.NoError(t, err)
		assert.Equal(t, f.unit.Location, unit.Location, "origin is vacated only at arrival")
	})

	t.Run("rejects a unit owned by another player", func(t *testing.T) {
		f := newServiceFixture(t)
		dest := worldtest.Surface(t, f.planet.ID, 0, 4, 3)

		order, err := f.svc.IssueMove(ctx, 7, f.unit.ID, dest)
		assert.Nil(t, order)
		require.ErrorIs(t, err, world.ErrPermissionDenied)
		errutil.AssertErrorCode(t, err, "UNIT_NOT_OWNED")
		assert.Empty(t, f.pendingOrders(t))
	})

	t.Run("rejects an unknown unit", func(t *testing.T) {
		f := newServiceFixture(t)
		dest := worldtest.Surface(t, f.planet.ID, 0, 4, 3)

		_, err := f.svc.IssueMove(ctx, 5, ulid.Make(), dest)
		require.ErrorIs(t, err, world.ErrNotFound)
		errutil.AssertErrorCode(t, err, "UNIT_NOT_FOUND")
	})

	t.Run("rejects a missing destination", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.IssueMove(ctx, 5, f.unit.ID, nil)
		var verr *world.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "destination", verr.Field)
	})

	t.Run("rejects an invalid player id", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.IssueMove(ctx, 0, f.unit.ID, f.unit.Location)
		var verr *world.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects the current location", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.IssueMove(ctx, 5, f.unit.ID, f.unit.Location)
		var verr *world.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, f.pendingOrders(t))
	})

	t.Run("rejects another star system", func(t *testing.T) {
		f := newServiceFixture(t)
		other := worldtest.FindSystem(t, f.gen, func(s worldgen.System) bool {
			return s.Exists && s.Address != f.planet.Address.System
		})

		_, err := f.svc.IssueMove(ctx, 5, f.unit.ID, worldtest.SpaceOf(t, other.ID))
		require.ErrorIs(t, err, world.ErrInvalidDestination)
		errutil.AssertErrorCode(t, err, "UNREACHABLE_DESTINATION")
		assert.Empty(t, f.pendingOrders(t))
	})

	t.Run("chains queued orders", func(t *testing.T) {
		f := newServiceFixture(t)
		first := worldtest.Surface(t, f.planet.ID, 0, 4, 3)
		orbit := worldtest.OrbitOf(t, f.planet.ID)

		o1, err := f.svc.IssueMove(ctx, 5, f.unit.ID, first)
		require.NoError(t, err)
		o2, err := f.svc.IssueMove(ctx, 5, f.unit.ID, orbit)
		require.NoError(t, err)

		assert.Equal(t, world.Location(first), o2.Origin)
		assert.Equal(t, o1.ArrivalTime.Add(15*time.Second), o2.ArrivalTime)

		pending := f.pendingOrders(t)
		require.Len(t, pending, 2)
		assert.Equal(t, o1.ID, pending[0].ID)
		assert.Equal(t, o2.ID, pending[1].ID)

		_, err = f.svc.IssueMove(ctx, 5, f.unit.ID, orbit)
		var verr *world.ValidationError
		require.ErrorAs(t, err, &verr, "already headed to orbit")
	})

	t.Run("limits queued orders", func(t *testing.T) {
		f := newServiceFixture(t)
		a := worldtest.Surface(t, f.planet.ID, 0, 4, 3)
		b := worldtest.Surface(t, f.planet.ID, 0, 5, 3)
		for i := range world.MaxQueuedOrders {
			dest := a
			if i%2 == 1 {
				dest = b
			}
			_, err := f.svc.IssueMove(ctx, 5, f.unit.ID, dest)
			require.NoError(t, err)
		}

		_, err := f.svc.IssueMove(ctx, 5, f.unit.ID, f.unit.Location)
		var verr *world.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, f.pendingOrders(t), world.MaxQueuedOrders)
	})
}

func TestService_ValidateDestination(t *testing.T) {
	f := newServiceFixture(t)

	giant := worldtest.GasGiant(t, f.gen)
	err := f.svc.ValidateDestination(worldtest.Surface(t, giant.ID, 0, 0, 0))
	require.ErrorIs(t, err, world.ErrInvalidDestination)
	errutil.AssertErrorCode(t, err, "INVALID_DESTINATION")

	assert.NoError(t, f.svc.ValidateDestination(worldtest.OrbitOf(t, giant.ID)))

	empty := worldtest.FindSystem(t, f.gen, func(s worldgen.System) bool { return !s.Exists })
	err = f.svc.ValidateDestination(worldtest.SpaceOf(t, empty.ID))
	require.ErrorIs(t, err, world.ErrInvalidDestination)

	err = f.svc.ValidateDestination(worldtest.OrbitOf(t, worldgen.PlanetAddress{System: empty.Address, Orbit: 0}.ID()))
	require.ErrorIs(t, err, world.ErrInvalidDestination)

	full := worldtest.FindSystem(t, f.gen, func(s worldgen.System) bool { return s.Exists && s.PlanetCount < worldgen.MaxOrbits })
	err = f.svc.ValidateDestination(worldtest.OrbitOf(t, worldgen.PlanetAddress{System: full.Address, Orbit: full.PlanetCount}.ID()))
	require.ErrorIs(t, err, world.ErrInvalidDestination)

	assert.NoError(t, f.svc.ValidateDestination(worldtest.SpaceOf(t, full.ID)))
}

func TestService_IssueMove_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	gen := worldtest.Generator(t)
	planet := worldtest.SurfacePlanet(t, gen)
	units := &worldtest.MockUnitRepository{}
	orders := &worldtest.MockOrderRepository{}

	svc := world.NewService(world.ServiceConfig{
		Units:      units,
		Orders:     orders,
		Transactor: worldtest.PassthroughTransactor{},
		Generator:  gen,
		Travel:     world.DefaultTravelConfig(),
	})

	unit := &world.Unit{ID: ulid.Make(), PlayerID: 5, UnitType: "scout", Location: worldtest.Surface(t, planet.ID, 0, 3, 3)}
	units.On("GetForUpdate", mock.Anything, unit.ID).Return(unit, nil)
	orders.On("ListPendingByUnit", mock.Anything, unit.ID).Return(nil, errors.New("connection reset"))

	_, err := svc.IssueMove(ctx, 5, unit.ID, worldtest.OrbitOf(t, planet.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	units.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestService_CreateUnit(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	assert.False(t, f.unit.ID.IsZero())
	assert.Equal(t, testNow, f.unit.CreatedAt)

	err := f.svc.CreateUnit(ctx, &world.Unit{PlayerID: 5, UnitType: "Bad Type", Location: f.unit.Location})
	var verr *world.ValidationError
	require.ErrorAs(t, err, &verr)

	err = f.svc.CreateUnit(ctx, &world.Unit{PlayerID: 5, UnitType: "scout"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)

	giant := worldtest.GasGiant(t, f.gen)
	err = f.svc.CreateUnit(ctx, &world.Unit{PlayerID: 5, UnitType: "scout", Location: worldtest.Surface(t, giant.ID, 0, 0, 0)})
	require.ErrorIs(t, err, world.ErrInvalidDestination)
}

func TestService_State(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	other := &world.Unit{PlayerID: 9, UnitType: "frigate", Location: f.unit.Location}
	require.NoError(t, f.svc.CreateUnit(ctx, other))

	order, err := f.svc.IssueMove(ctx, 5, f.unit.ID, worldtest.OrbitOf(t, f.planet.ID))
	require.NoError(t, err)

	state, err := f.svc.State(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), state.PlayerID)
	require.Len(t, state.Units, 1)
	assert.Equal(t, f.unit.ID, state.Units[0].ID)
	require.Len(t, state.Orders, 1)
	assert.Equal(t, order.ID, state.Orders[0].ID)

	_, err = f.svc.State(ctx, -1)
	var verr *world.ValidationError
	require.ErrorAs(t, err, &verr)
}
