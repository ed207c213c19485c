// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldtest

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/axosm/axosm/internal/world"
)

// MockUnitRepository is a testify mock of world.UnitRepository.
type MockUnitRepository struct {
	mock.Mock
}

var _ world.UnitRepository = (*MockUnitRepository)(nil)

// Get implements world.UnitRepository.
func (m *MockUnitRepository) Get(ctx context.Context, id ulid.ULID) (*world.Unit, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*world.Unit)
	return u, args.Error(1)
}

// GetForUpdate implements world.UnitRepository.
func (m *MockUnitRepository) GetForUpdate(ctx context.Context, id ulid.ULID) (*world.Unit, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*world.Unit)
	return u, args.Error(1)
}

// Create implements world.UnitRepository.
func (m *MockUnitRepository) Create(ctx context.Context, unit *world.Unit) error {
	return m.Called(ctx, unit).Error(0)
}

// ListAt implements world.UnitRepository.
func (m *MockUnitRepository) ListAt(ctx context.Context, loc world.Location) ([]*world.Unit, error) {
	args := m.Called(ctx, loc)
	units, _ := args.Get(0).([]*world.Unit)
	return units, args.Error(1)
}

// ListByPlayer implements world.UnitRepository.
func (m *MockUnitRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*world.Unit, error) {
	args := m.Called(ctx, playerID)
	units, _ := args.Get(0).([]*world.Unit)
	return units, args.Error(1)
}

// MockOrderRepository is a testify mock of world.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

var _ world.OrderRepository = (*MockOrderRepository)(nil)

// Get implements world.OrderRepository.
func (m *MockOrderRepository) Get(ctx context.Context, id ulid.ULID) (*world.MoveOrder, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*world.MoveOrder)
	return o, args.Error(1)
}

// Create implements world.OrderRepository.
func (m *MockOrderRepository) Create(ctx context.Context, order *world.MoveOrder) error {
	return m.Called(ctx, order).Error(0)
}

// ListDue implements world.OrderRepository.
func (m *MockOrderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]world.DueOrder, error) {
	args := m.Called(ctx, now, limit)
	due, _ := args.Get(0).([]world.DueOrder)
	return due, args.Error(1)
}

// ListPendingByUnit implements world.OrderRepository.
func (m *MockOrderRepository) ListPendingByUnit(ctx context.Context, unitID ulid.ULID) ([]*world.MoveOrder, error) {
	args := m.Called(ctx, unitID)
	orders, _ := args.Get(0).([]*world.MoveOrder)
	return orders, args.Error(1)
}

// ListPendingByPlayer implements world.OrderRepository.
func (m *MockOrderRepository) ListPendingByPlayer(ctx context.Context, playerID int64) ([]*world.MoveOrder, error) {
	args := m.Called(ctx, playerID)
	orders, _ := args.Get(0).([]*world.MoveOrder)
	return orders, args.Error(1)
}

// CountPending implements world.OrderRepository.
func (m *MockOrderRepository) CountPending(ctx context.Context, now time.Time) (pending, due int, err error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Int(1), args.Error(2)
}

// Resolve implements world.OrderRepository.
func (m *MockOrderRepository) Resolve(ctx context.Context, orderID, unitID ulid.ULID, resolvedAt time.Time) (*world.Resolution, error) {
	args := m.Called(ctx, orderID, unitID, resolvedAt)
	r, _ := args.Get(0).(*world.Resolution)
	return r, args.Error(1)
}

// MarkFailed implements world.OrderRepository.
func (m *MockOrderRepository) MarkFailed(ctx context.Context, orderID ulid.ULID, reason string, at time.Time) error {
	return m.Called(ctx, orderID, reason, at).Error(0)
}

// PassthroughTransactor runs fn directly without a transaction.
type PassthroughTransactor struct{}

// InTransaction implements world.Transactor.
func (PassthroughTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
