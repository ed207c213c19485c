// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// UnitRepository manages unit persistence.
type UnitRepository interface {
	// Get retrieves a unit by ID.
	Get(ctx context.Context, id ulid.ULID) (*Unit, error)

	// GetForUpdate retrieves a unit by ID and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like Get.
	GetForUpdate(ctx context.Context, id ulid.ULID) (*Unit, error)

	// Create persists a new unit.
	Create(ctx context.Context, unit *Unit) error

	// ListAt returns every unit whose location equals loc exactly.
	ListAt(ctx context.Context, loc Location) ([]*Unit, error)

	// ListByPlayer returns the player's units.
	ListByPlayer(ctx context.Context, playerID int64) ([]*Unit, error)
}

// OrderRepository manages move order persistence.
type OrderRepository interface {
	// Get retrieves an order by ID.
	Get(ctx context.Context, id ulid.ULID) (*MoveOrder, error)

	// Create persists a new pending order.
	Create(ctx context.Context, order *MoveOrder) error

	// ListDue returns up to limit pending orders with arrival time at or
	// before now, earliest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]DueOrder, error)

	// ListPendingByUnit returns the unit's pending orders, earliest arrival first.
	ListPendingByUnit(ctx context.Context, unitID ulid.ULID) ([]*MoveOrder, error)

	// ListPendingByPlayer returns the player's pending orders, earliest arrival first.
	ListPendingByPlayer(ctx context.Context, playerID int64) ([]*MoveOrder, error)

	// CountPending returns the number of pending orders and how many of them are due at now.
	CountPending(ctx context.Context, now time.Time) (pending, due int, err error)

	// Resolve atomically re-reads the order, moves its unit to the order's
	// destination and marks the order resolved. The unit must match unitID.
	// Returns ErrOrderResolved when the order is no longer pending and
	// ErrEarlierOrderPending when another pending order of the unit sorts
	// before it by (arrival time, id); in both cases nothing changes.
	Resolve(ctx context.Context, orderID, unitID ulid.ULID, resolvedAt time.Time) (*Resolution, error)

	// MarkFailed moves a pending order to OrderFailed so discovery stops
	// returning it. Returns ErrOrderResolved when the order is no longer pending.
	MarkFailed(ctx context.Context, orderID ulid.ULID, reason string, at time.Time) error
}

// Transactor runs a function inside a transaction. Repository calls made
// with the context passed to fn take part in that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
