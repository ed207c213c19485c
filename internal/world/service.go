// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/worldgen"
)

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Units      UnitRepository
	Orders     OrderRepository
	Transactor Transactor
	Generator  *worldgen.Generator
	Travel     TravelConfig
	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service validates and records player requests against units.
type Service struct {
	units  UnitRepository
	orders OrderRepository
	tx     Transactor
	gen    *worldgen.Generator
	travel TravelConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		units:  cfg.Units,
		orders: cfg.Orders,
		tx:     cfg.Transactor,
		gen:    cfg.Generator,
		travel: cfg.Travel,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// PlayerState is a player's view of their units and queued orders.
type PlayerState struct {
	PlayerID int64
	Units    []*Unit
	Orders   []*MoveOrder
}

// IssueMove validates a move request and queues a pending order.
//
// The unit must exist and belong to playerID, and the destination must be a
// generated, reachable location. A unit with queued orders departs from the
// last queued destination once the last queued order arrives.
func (s *Service) IssueMove(ctx context.Context, playerID int64, unitID ulid.ULID, destination Location) (*MoveOrder, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return nil, err
	}
	if destination == nil {
		return nil, &ValidationError{Field: "destination", Message: "is required"}
	}

	var order *MoveOrder
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		unit, err := s.units.GetForUpdate(ctx, unitID)
		if err != nil {
			return oops.Wrapf(err, "get unit %s", unitID)
		}
		if unit.PlayerID != playerID {
			return oops.Code("UNIT_NOT_OWNED").
				With("unit_id", unitID.String()).
				With("player_id", playerID).
				Wrap(ErrPermissionDenied)
		}
		if err := s.ValidateDestination(destination); err != nil {
			return err
		}

		pending, err := s.orders.ListPendingByUnit(ctx, unitID)
		if err != nil {
			return oops.Wrapf(err, "list pending orders for unit %s", unitID)
		}
		if len(pending) >= MaxQueuedOrders {
			return &ValidationError{Field: "unit_id", Message: "too many queued orders"}
		}

		now := s.now()
		origin, departure := unit.Location, now
		if n := len(pending); n > 0 {
			last := pending[n-1]
			origin = last.Destination
			if last.ArrivalTime.After(departure) {
				departure = last.ArrivalTime
			}
		}
		if origin == destination {
			return &ValidationError{Field: "destination", Message: "unit is already headed there"}
		}

		travel, err := s.travel.TravelTime(origin, destination)
		if err != nil {
			return err
		}

		order = &MoveOrder{
			ID:          ulid.Make(),
			UnitID:      unitID,
			PlayerID:    playerID,
			Origin:      origin,
			Destination: destination,
			ArrivalTime: departure.Add(travel),
			Status:      OrderPending,
			CreatedAt:   now,
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return oops.Wrapf(err, "create move order for unit %s", unitID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "move order queued",
		"order_id", order.ID.String(),
		"unit_id", unitID.String(),
		"player_id", playerID,
		"destination", destination.String(),
		"arrival_time", order.ArrivalTime,
	)
	return order, nil
}

// ValidateDestination checks that a location exists in the generated world:
// its system holds a star, and a planet location names an existing planet
// whose surface, for surface locations, can be landed on.
func (s *Service) ValidateDestination(loc Location) error {
	switch l := loc.(type) {
	case PlanetSurface, Orbit:
		addr, _ := planetOf(l)
		planet, err := s.gen.Planet(addr)
		if err != nil {
			return oops.Code("INVALID_DESTINATION").With("destination", loc.String()).Wrap(err)
		}
		if !planet.Exists {
			return invalidDestination(loc, "planet does not exist")
		}
		if _, surface := l.(PlanetSurface); surface && !planet.HasSurface {
			return invalidDestination(loc, "planet has no surface")
		}
	case Space:
		sys, err := s.gen.System(l.System())
		if err != nil {
			return oops.Code("INVALID_DESTINATION").With("destination", loc.String()).Wrap(err)
		}
		if !sys.Exists {
			return invalidDestination(loc, "system does not exist")
		}
	default:
		return invalidDestination(loc, "unknown location")
	}
	return nil
}

func invalidDestination(loc Location, reason string) error {
	return oops.Code("INVALID_DESTINATION").
		With("destination", loc.String()).
		Wrapf(ErrInvalidDestination, "%s", reason)
}

// CreateUnit validates and persists a new unit. The ID is generated if not set.
func (s *Service) CreateUnit(ctx context.Context, unit *Unit) error {
	if err := ValidatePlayerID(unit.PlayerID); err != nil {
		return err
	}
	if err := ValidateUnitType(unit.UnitType); err != nil {
		return err
	}
	if unit.Location == nil {
		return &ValidationError{Field: "location", Message: "is required"}
	}
	if err := s.ValidateDestination(unit.Location); err != nil {
		return err
	}
	if unit.ID.IsZero() {
		unit.ID = ulid.Make()
	}
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = s.now()
	}
	if err := s.units.Create(ctx, unit); err != nil {
		return oops.Wrapf(err, "create unit %s", unit.ID)
	}
	return nil
}

// State returns the player's units and pending orders.
func (s *Service) State(ctx context.Context, playerID int64) (*PlayerState, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return nil, err
	}
	units, err := s.units.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, oops.Wrapf(err, "list units for player %d", playerID)
	}
	orders, err := s.orders.ListPendingByPlayer(ctx, playerID)
	if err != nil {
		return nil, oops.Wrapf(err, "list orders for player %d", playerID)
	}
	return &PlayerState{PlayerID: playerID, Units: units, Orders: orders}, nil
}

// Generator returns the world generator the service validates against.
func (s *Service) Generator() *worldgen.Generator {
	return s.gen
}
