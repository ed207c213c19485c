// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"time"

	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/worldgen"
)

// TravelConfig prices the legs of a move.
type TravelConfig struct {
	// Base is charged for every move.
	Base time.Duration `koanf:"base"`
	// PerHop is charged per surface tile crossed.
	PerHop time.Duration `koanf:"per_hop"`
	// Launch is charged for each surface to orbit transition.
	Launch time.Duration `koanf:"launch"`
	// Transit is charged for each orbit to open space transition.
	Transit time.Duration `koanf:"transit"`
}

// DefaultTravelConfig returns the default travel prices.
func DefaultTravelConfig() TravelConfig {
	return TravelConfig{
		Base:    10 * time.Second,
		PerHop:  time.Second,
		Launch:  5 * time.Second,
		Transit: 8 * time.Second,
	}
}

// Validate checks that no price is negative and that every move takes time.
func (c TravelConfig) Validate() error {
	if c.Base <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "travel.base").Errorf("base travel time must be positive")
	}
	if c.PerHop < 0 || c.Launch < 0 || c.Transit < 0 {
		return oops.Code("CONFIG_INVALID").With("field", "travel").Errorf("travel prices cannot be negative")
	}
	return nil
}

// TravelTime returns how long a move from origin to destination takes. Both
// locations must be in the same star system.
//
// A move climbs from the origin to the lowest level it shares with the
// destination and descends again: surface tiles of one planet are joined
// across the surface, locations of one planet meet in its orbit, and
// everything else meets in the system's open space.
func (c TravelConfig) TravelTime(origin, destination Location) (time.Duration, error) {
	if origin.System() != destination.System() {
		return 0, oops.Code("UNREACHABLE_DESTINATION").
			With("origin", origin.String()).
			With("destination", destination.String()).
			Wrapf(ErrInvalidDestination, "destination is outside the unit's star system")
	}

	total := c.Base
	if a, ok := origin.(PlanetSurface); ok {
		if b, ok := destination.(PlanetSurface); ok && a.tile.Planet == b.tile.Planet {
			hops, _ := worldgen.SurfaceDistance(a.tile, b.tile)
			return total + time.Duration(hops)*c.PerHop, nil
		}
	}

	op, originOnPlanet := planetOf(origin)
	dp, destOnPlanet := planetOf(destination)
	samePlanet := originOnPlanet && destOnPlanet && op == dp

	total += c.climb(origin, samePlanet)
	total += c.climb(destination, samePlanet)
	return total, nil
}

// climb prices the path from l up to the meeting level: the planet's orbit
// when both ends share a planet, otherwise open space.
func (c TravelConfig) climb(l Location, samePlanet bool) time.Duration {
	switch l.(type) {
	case PlanetSurface:
		if samePlanet {
			return c.Launch
		}
		return c.Launch + c.Transit
	case Orbit:
		if samePlanet {
			return 0
		}
		return c.Transit
	default:
		return 0
	}
}
