// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"time"

	"github.com/axosm/axosm/internal/core"
	"github.com/axosm/axosm/internal/world"
)

// MoveRequest is the body of POST /api/move.
type MoveRequest struct {
	PlayerID    int64                 `json:"player_id" jsonschema:"minimum=1"`
	UnitID      string                `json:"unit_id" jsonschema:"pattern=^[0-9A-Za-z]{26}$"`
	Destination world.LocationPayload `json:"destination"`
}

// UnitView is the JSON form of a unit.
type UnitView struct {
	ID        string                `json:"id"`
	PlayerID  int64                 `json:"player_id"`
	UnitType  string                `json:"unit_type"`
	Location  world.LocationPayload `json:"location"`
	CreatedAt time.Time             `json:"created_at"`
}

// OrderView is the JSON form of a move order.
type OrderView struct {
	ID          string                `json:"id"`
	UnitID      string                `json:"unit_id"`
	PlayerID    int64                 `json:"player_id"`
	Origin      world.LocationPayload `json:"origin"`
	Destination world.LocationPayload `json:"destination"`
	ArrivalTime time.Time             `json:"arrival_time"`
	Status      string                `json:"status"`
}

// StateResponse is the body of GET /api/state/{playerID}.
type StateResponse struct {
	PlayerID int64       `json:"player_id"`
	Now      time.Time   `json:"now"`
	Units    []UnitView  `json:"units"`
	Orders   []OrderView `json:"orders"`
}

// MoveResponse is the body of a successful POST /api/move.
type MoveResponse struct {
	OK          bool      `json:"ok"`
	ArrivalTime time.Time `json:"arrival_time"`
	Order       OrderView `json:"order"`
}

// EventView is the JSON form of a bus event, sent over SSE and WebSocket.
type EventView struct {
	ID        string                `json:"id"`
	Type      string                `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	OrderID   string                `json:"order_id"`
	Location  world.LocationPayload `json:"location"`

	PlayerA *int64 `json:"player_a,omitempty"`
	PlayerB *int64 `json:"player_b,omitempty"`
	UnitA   string `json:"unit_a,omitempty"`
	UnitB   string `json:"unit_b,omitempty"`

	PlayerID *int64                 `json:"player_id,omitempty"`
	UnitID   string                 `json:"unit_id,omitempty"`
	From     *world.LocationPayload `json:"from,omitempty"`
}

// LaggedView tells a stream client that events were dropped because it
// read too slowly.
type LaggedView struct {
	Type   string `json:"type"`
	Missed uint64 `json:"missed"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func unitView(u *world.Unit) UnitView {
	return UnitView{
		ID:        u.ID.String(),
		PlayerID:  u.PlayerID,
		UnitType:  u.UnitType,
		Location:  world.PayloadOf(u.Location),
		CreatedAt: u.CreatedAt,
	}
}

func orderView(o *world.MoveOrder) OrderView {
	return OrderView{
		ID:          o.ID.String(),
		UnitID:      o.UnitID.String(),
		PlayerID:    o.PlayerID,
		Origin:      world.PayloadOf(o.Origin),
		Destination: world.PayloadOf(o.Destination),
		ArrivalTime: o.ArrivalTime,
		Status:      o.Status.String(),
	}
}

func stateResponse(st *world.PlayerState, now time.Time) StateResponse {
	resp := StateResponse{
		PlayerID: st.PlayerID,
		Now:      now,
		Units:    make([]UnitView, 0, len(st.Units)),
		Orders:   make([]OrderView, 0, len(st.Orders)),
	}
	for _, u := range st.Units {
		resp.Units = append(resp.Units, unitView(u))
	}
	for _, o := range st.Orders {
		resp.Orders = append(resp.Orders, orderView(o))
	}
	return resp
}

func eventView(e core.Event) EventView {
	v := EventView{
		ID:        e.ID.String(),
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		OrderID:   e.OrderID.String(),
	}
	if e.Location != nil {
		v.Location = world.PayloadOf(e.Location)
	}
	if enc := e.Encounter; enc != nil {
		v.PlayerA = &enc.PlayerA
		v.PlayerB = &enc.PlayerB
		v.UnitA = enc.UnitA.String()
		v.UnitB = enc.UnitB.String()
	}
	if arr := e.Arrival; arr != nil {
		v.PlayerID = &arr.PlayerID
		v.UnitID = arr.UnitID.String()
		if arr.From != nil {
			from := world.PayloadOf(arr.From)
			v.From = &from
		}
	}
	return v
}
