// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package memory provides an in-memory implementation of the world
// repositories, used by tests and by the development server mode.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/world"
)

// Faults injects failures into store operations. Nil hooks are skipped.
type Faults struct {
	// ListDue fails due-order discovery when it returns an error.
	ListDue func() error
	// ListAt fails co-location queries when it returns an error.
	ListAt func() error
	// BeforeResolve runs when Resolve starts. Its error is returned as is.
	BeforeResolve func(orderID ulid.ULID) error
	// BeforeMarkResolved runs inside Resolve after the unit has moved and
	// before the order is marked resolved. An error undoes the move.
	BeforeMarkResolved func(orderID ulid.ULID) error
}

// Store holds units and move orders in memory. It implements
// world.UnitRepository and world.Transactor; Orders returns the
// world.OrderRepository view over the same data.
type Store struct {
	mu     sync.Mutex
	units  map[ulid.ULID]*world.Unit
	orders map[ulid.ULID]*world.MoveOrder
	faults Faults

	// txMu serializes transactions.
	txMu sync.Mutex
}

// Compile-time interface checks.
var (
	_ world.UnitRepository = (*Store)(nil)
	_ world.Transactor     = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		units:  make(map[ulid.ULID]*world.Unit),
		orders: make(map[ulid.ULID]*world.MoveOrder),
	}
}

// SetFaults replaces the store's fault hooks.
func (s *Store) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

type txKey struct{}

// journal records how to undo the writes of a transaction.
type journal struct {
	undo []func()
}

// InTransaction runs fn with other transactions excluded. Writes made through
// the store with fn's context are undone if fn returns an error.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record registers an undo step when ctx carries a transaction. Callers hold s.mu.
func record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// Get implements world.UnitRepository.
func (s *Store) Get(_ context.Context, id ulid.ULID) (*world.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return nil, unitNotFound(id)
	}
	return copyUnit(u), nil
}

// GetForUpdate implements world.UnitRepository. Transactions are already
// exclusive, so no extra locking is needed.
func (s *Store) GetForUpdate(ctx context.Context, id ulid.ULID) (*world.Unit, error) {
	return s.Get(ctx, id)
}

// Create implements world.UnitRepository.
func (s *Store) Create(ctx context.Context, unit *world.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.units[unit.ID]; exists {
		return oops.Code("UNIT_EXISTS").With("unit_id", unit.ID.String()).Errorf("unit already exists")
	}
	s.units[unit.ID] = copyUnit(unit)
	id := unit.ID
	record(ctx, func() { delete(s.units, id) })
	return nil
}

// ListAt implements world.UnitRepository.
func (s *Store) ListAt(_ context.Context, loc world.Location) ([]*world.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults.ListAt != nil {
		if err := s.faults.ListAt(); err != nil {
			return nil, err
		}
	}
	var out []*world.Unit
	for _, u := range s.units {
		if u.Location == loc {
			out = append(out, copyUnit(u))
		}
	}
	sortUnits(out)
	return out, nil
}

// ListByPlayer implements world.UnitRepository.
func (s *Store) ListByPlayer(_ context.Context, playerID int64) ([]*world.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Unit
	for _, u := range s.units {
		if u.PlayerID == playerID {
			out = append(out, copyUnit(u))
		}
	}
	sortUnits(out)
	return out, nil
}

func sortUnits(units []*world.Unit) {
	slices.SortFunc(units, func(a, b *world.Unit) int { return a.ID.Compare(b.ID) })
}

func copyUnit(u *world.Unit) *world.Unit {
	c := *u
	return &c
}

func unitNotFound(id ulid.ULID) error {
	return oops.Code("UNIT_NOT_FOUND").With("unit_id", id.String()).Wrap(world.ErrNotFound)
}

// Orders returns the order repository view of the store.
func (s *Store) Orders() *OrderStore {
	return (*OrderStore)(s)
}

// OrderStore is the world.OrderRepository view of a Store.
type OrderStore Store

var _ world.OrderRepository = (*OrderStore)(nil)

func (o *OrderStore) store() *Store { return (*Store)(o) }

// Get implements world.OrderRepository.
func (o *OrderStore) Get(_ context.Context, id ulid.ULID) (*world.MoveOrder, error) {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[id]
	if !ok {
		return nil, orderNotFound(id)
	}
	return copyOrder(ord), nil
}

// Create implements world.OrderRepository.
func (o *OrderStore) Create(ctx context.Context, order *world.MoveOrder) error {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[order.UnitID]; !ok {
		return unitNotFound(order.UnitID)
	}
	if _, exists := s.orders[order.ID]; exists {
		return oops.Code("ORDER_EXISTS").With("order_id", order.ID.String()).Errorf("order already exists")
	}
	s.orders[order.ID] = copyOrder(order)
	id := order.ID
	record(ctx, func() { delete(s.orders, id) })
	return nil
}

// ListDue implements world.OrderRepository.
func (o *OrderStore) ListDue(_ context.Context, now time.Time, limit int) ([]world.DueOrder, error) {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults.ListDue != nil {
		if err := s.faults.ListDue(); err != nil {
			return nil, oops.Code("ORDER_QUERY_FAILED").Wrap(err)
		}
	}
	var due []world.DueOrder
	for _, ord := range s.orders {
		if ord.IsDue(now) {
			due = append(due, world.DueOrder{ID: ord.ID, UnitID: ord.UnitID, ArrivalTime: ord.ArrivalTime})
		}
	}
	slices.SortFunc(due, func(a, b world.DueOrder) int {
		return cmp.Or(a.ArrivalTime.Compare(b.ArrivalTime), a.ID.Compare(b.ID))
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// ListPendingByUnit implements world.OrderRepository.
func (o *OrderStore) ListPendingByUnit(_ context.Context, unitID ulid.ULID) ([]*world.MoveOrder, error) {
	return o.pending(func(ord *world.MoveOrder) bool { return ord.UnitID == unitID }), nil
}

// ListPendingByPlayer implements world.OrderRepository.
func (o *OrderStore) ListPendingByPlayer(_ context.Context, playerID int64) ([]*world.MoveOrder, error) {
	return o.pending(func(ord *world.MoveOrder) bool { return ord.PlayerID == playerID }), nil
}

func (o *OrderStore) pending(match func(*world.MoveOrder) bool) []*world.MoveOrder {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.MoveOrder
	for _, ord := range s.orders {
		if ord.IsPending() && match(ord) {
			out = append(out, copyOrder(ord))
		}
	}
	slices.SortFunc(out, func(a, b *world.MoveOrder) int {
		return cmp.Or(a.ArrivalTime.Compare(b.ArrivalTime), a.ID.Compare(b.ID))
	})
	return out
}

// CountPending implements world.OrderRepository.
func (o *OrderStore) CountPending(_ context.Context, now time.Time) (pending, due int, err error) {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ord := range s.orders {
		if !ord.IsPending() {
			continue
		}
		pending++
		if ord.IsDue(now) {
			due++
		}
	}
	return pending, due, nil
}

// Resolve implements world.OrderRepository. It runs under the store lock,
// so no other operation observes the unit moved while the order is pending.
func (o *OrderStore) Resolve(ctx context.Context, orderID, unitID ulid.ULID, resolvedAt time.Time) (*world.Resolution, error) {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults.BeforeResolve != nil {
		if err := s.faults.BeforeResolve(orderID); err != nil {
			return nil, err
		}
	}

	ord, ok := s.orders[orderID]
	if !ok {
		return nil, orderNotFound(orderID)
	}
	if !ord.IsPending() {
		return nil, oops.Code("ORDER_ALREADY_RESOLVED").
			With("order_id", orderID.String()).
			Wrap(world.ErrOrderResolved)
	}
	if ord.UnitID != unitID {
		return nil, oops.Code("ORDER_UNIT_MISMATCH").
			With("order_id", orderID.String()).
			With("unit_id", unitID.String()).
			Wrapf(world.ErrUnitMismatch, "order belongs to unit %s", ord.UnitID)
	}
	unit, ok := s.units[ord.UnitID]
	if !ok {
		return nil, unitNotFound(ord.UnitID)
	}
	if earlier := s.earlierPending(ord); earlier != nil {
		return nil, oops.Code("ORDER_OUT_OF_SEQUENCE").
			With("order_id", orderID.String()).
			With("earlier_order_id", earlier.ID.String()).
			Wrap(world.ErrEarlierOrderPending)
	}

	movedUnit := copyUnit(unit)
	movedUnit.Location = ord.Destination
	s.units[unit.ID] = movedUnit

	if s.faults.BeforeMarkResolved != nil {
		if err := s.faults.BeforeMarkResolved(orderID); err != nil {
			s.units[unit.ID] = unit
			return nil, oops.Code("ORDER_RESOLVE_FAILED").With("order_id", orderID.String()).Wrap(err)
		}
	}

	resolvedOrder := copyOrder(ord)
	resolvedOrder.Status = world.OrderResolved
	at := resolvedAt
	resolvedOrder.ResolvedAt = &at
	s.orders[orderID] = resolvedOrder

	record(ctx, func() {
		s.units[unit.ID] = unit
		s.orders[orderID] = ord
	})
	return &world.Resolution{
		Order:    copyOrder(resolvedOrder),
		Unit:     copyUnit(movedUnit),
		Previous: unit.Location,
	}, nil
}

// earlierPending returns a pending order of ord's unit that sorts before ord
// by arrival time and id, or nil. Callers hold s.mu.
func (s *Store) earlierPending(ord *world.MoveOrder) *world.MoveOrder {
	for _, other := range s.orders {
		if other.UnitID != ord.UnitID || other.ID == ord.ID || !other.IsPending() {
			continue
		}
		if cmp.Or(other.ArrivalTime.Compare(ord.ArrivalTime), other.ID.Compare(ord.ID)) < 0 {
			return other
		}
	}
	return nil
}

// MarkFailed implements world.OrderRepository.
func (o *OrderStore) MarkFailed(ctx context.Context, orderID ulid.ULID, _ string, _ time.Time) error {
	s := o.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[orderID]
	if !ok {
		return orderNotFound(orderID)
	}
	if !ord.IsPending() {
		return oops.Code("ORDER_NOT_PENDING").
			With("order_id", orderID.String()).
			With("status", ord.Status.String()).
			Wrap(world.ErrOrderResolved)
	}
	failed := copyOrder(ord)
	failed.Status = world.OrderFailed
	s.orders[orderID] = failed
	record(ctx, func() { s.orders[orderID] = ord })
	return nil
}

func copyOrder(o *world.MoveOrder) *world.MoveOrder {
	c := *o
	if o.ResolvedAt != nil {
		t := *o.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func orderNotFound(id ulid.ULID) error {
	return oops.Code("ORDER_NOT_FOUND").With("order_id", id.String()).Wrap(world.ErrNotFound)
}
