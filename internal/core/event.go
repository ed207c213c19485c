// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package core contains the order resolution engine and the event bus that
// carries its results to live subscribers.
package core

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/axosm/axosm/internal/world"
)

// EventType identifies the kind of event.
type EventType string

// Event types.
const (
	EventTypeEncounter EventType = "encounter"
	EventTypeArrival   EventType = "arrival"
)

// Event is an ephemeral notification produced by order resolution. Events
// are not persisted; the store stays authoritative for unit locations.
type Event struct {
	ID        ulid.ULID
	Type      EventType
	Timestamp time.Time
	OrderID   ulid.ULID
	// Location is where the event happened: the resolved order's destination.
	Location  world.Location
	Encounter *Encounter
	Arrival   *Arrival
}

// Encounter names the two players whose units met. PlayerA owns the unit
// that just arrived.
type Encounter struct {
	PlayerA int64
	PlayerB int64
	UnitA   ulid.ULID
	UnitB   ulid.ULID
}

// Arrival describes a unit reaching its destination.
type Arrival struct {
	PlayerID int64
	UnitID   ulid.ULID
	From     world.Location
}

// Involves reports whether the event concerns the player.
func (e Event) Involves(playerID int64) bool {
	switch {
	case e.Encounter != nil:
		return e.Encounter.PlayerA == playerID || e.Encounter.PlayerB == playerID
	case e.Arrival != nil:
		return e.Arrival.PlayerID == playerID
	default:
		return false
	}
}

// ForPlayer returns a filter selecting events that involve the player.
func ForPlayer(playerID int64) func(Event) bool {
	return func(e Event) bool { return e.Involves(playerID) }
}
