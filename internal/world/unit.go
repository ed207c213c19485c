// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Unit is a player-owned piece that moves between locations.
type Unit struct {
	ID        ulid.ULID
	PlayerID  int64
	UnitType  string
	Location  Location
	CreatedAt time.Time
}

// OrderStatus is the lifecycle state of a move order.
type OrderStatus string

// Order statuses. Resolved and failed are terminal.
const (
	OrderPending  OrderStatus = "pending"
	OrderResolved OrderStatus = "resolved"
	// OrderFailed marks an order that can never resolve, such as one whose
	// stored destination no longer decodes.
	OrderFailed OrderStatus = "failed"
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return string(s)
}

// MoveOrder moves a unit to Destination once ArrivalTime has passed.
type MoveOrder struct {
	ID          ulid.ULID
	UnitID      ulid.ULID
	PlayerID    int64
	Origin      Location
	Destination Location
	ArrivalTime time.Time
	Status      OrderStatus
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// IsPending reports whether the order still waits for resolution.
func (o *MoveOrder) IsPending() bool {
	return o.Status == OrderPending
}

// IsDue reports whether the order is pending and its arrival time is at or before now.
func (o *MoveOrder) IsDue(now time.Time) bool {
	return o.IsPending() && !o.ArrivalTime.After(now)
}

// DueOrder is the discovery snapshot of a due order. Resolution re-reads the
// full order, so the snapshot carries only what scheduling needs.
type DueOrder struct {
	ID          ulid.ULID
	UnitID      ulid.ULID
	ArrivalTime time.Time
}

// Resolution is the committed outcome of resolving a move order.
type Resolution struct {
	Order    *MoveOrder
	Unit     *Unit
	Previous Location
}
