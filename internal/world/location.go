// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package world contains the unit and movement domain types and logic.
package world

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/worldgen"
)

// LocationKind is the storage discriminant of a location.
type LocationKind string

// Location kinds.
const (
	KindPlanetSurface LocationKind = "PLANET_SURFACE"
	KindOrbit         LocationKind = "ORBIT"
	KindSpace         LocationKind = "SPACE"
)

// String returns the string representation of the location kind.
func (k LocationKind) String() string {
	return string(k)
}

// Location is where a unit is. The set of implementations is closed:
// PlanetSurface, Orbit and Space, each built only through its validating
// constructor. Locations are comparable with ==.
type Location interface {
	Kind() LocationKind
	// System returns the star system containing the location.
	System() worldgen.SystemAddress
	String() string
	location()
}

// PlanetSurface is a tile on a planet's surface.
type PlanetSurface struct {
	tile worldgen.TileAddress
}

// Orbit is the orbit around a planet.
type Orbit struct {
	planet worldgen.PlanetAddress
}

// Space is open space inside a star system.
type Space struct {
	system worldgen.SystemAddress
}

func (PlanetSurface) location() {}
func (Orbit) location()         {}
func (Space) location()         {}

// NewPlanetSurface builds a surface location. The tile coordinates must
// resolve to a valid tile address.
func NewPlanetSurface(planetID worldgen.PlanetID, face, u, v int) (PlanetSurface, error) {
	planet, err := planetID.Address()
	if err != nil {
		return PlanetSurface{}, invalidLocation(KindPlanetSurface, err)
	}
	return NewPlanetSurfaceAt(worldgen.TileAddress{Planet: planet, Face: face, U: u, V: v})
}

// NewPlanetSurfaceAt builds a surface location from a tile address.
func NewPlanetSurfaceAt(tile worldgen.TileAddress) (PlanetSurface, error) {
	if err := tile.Validate(); err != nil {
		return PlanetSurface{}, invalidLocation(KindPlanetSurface, err)
	}
	return PlanetSurface{tile: tile}, nil
}

// NewOrbit builds an orbit location.
func NewOrbit(planetID worldgen.PlanetID) (Orbit, error) {
	planet, err := planetID.Address()
	if err != nil {
		return Orbit{}, invalidLocation(KindOrbit, err)
	}
	return Orbit{planet: planet}, nil
}

// NewSpace builds a space location.
func NewSpace(systemID worldgen.SystemID) (Space, error) {
	system, err := systemID.Address()
	if err != nil {
		return Space{}, invalidLocation(KindSpace, err)
	}
	return Space{system: system}, nil
}

func invalidLocation(kind LocationKind, err error) error {
	return oops.Code("INVALID_LOCATION").
		With("location_type", kind.String()).
		Wrapf(joinInvalid(err), "invalid %s location", kind)
}

// joinInvalid makes err match ErrInvalidLocation while keeping its own chain.
func joinInvalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidLocation, err)
}

// Kind implements Location.
func (PlanetSurface) Kind() LocationKind { return KindPlanetSurface }

// Kind implements Location.
func (Orbit) Kind() LocationKind { return KindOrbit }

// Kind implements Location.
func (Space) Kind() LocationKind { return KindSpace }

// System implements Location.
func (p PlanetSurface) System() worldgen.SystemAddress { return p.tile.Planet.System }

// System implements Location.
func (o Orbit) System() worldgen.SystemAddress { return o.planet.System }

// System implements Location.
func (s Space) System() worldgen.SystemAddress { return s.system }

// Tile returns the tile address.
func (p PlanetSurface) Tile() worldgen.TileAddress { return p.tile }

// PlanetID returns the packed planet identifier.
func (p PlanetSurface) PlanetID() worldgen.PlanetID { return p.tile.Planet.ID() }

// Face returns the icosahedron face.
func (p PlanetSurface) Face() int { return p.tile.Face }

// U returns the first barycentric coordinate.
func (p PlanetSurface) U() int { return p.tile.U }

// V returns the second barycentric coordinate.
func (p PlanetSurface) V() int { return p.tile.V }

// Planet returns the orbited planet's address.
func (o Orbit) Planet() worldgen.PlanetAddress { return o.planet }

// PlanetID returns the packed planet identifier.
func (o Orbit) PlanetID() worldgen.PlanetID { return o.planet.ID() }

// SystemID returns the packed system identifier.
func (s Space) SystemID() worldgen.SystemID { return s.system.ID() }

func (p PlanetSurface) String() string {
	return fmt.Sprintf("surface:%d/%d:%d,%d", p.PlanetID(), p.tile.Face, p.tile.U, p.tile.V)
}

func (o Orbit) String() string {
	return fmt.Sprintf("orbit:%d", o.PlanetID())
}

func (s Space) String() string {
	return fmt.Sprintf("space:%d", s.SystemID())
}

// planetOf returns the planet a location is attached to, if any.
func planetOf(l Location) (worldgen.PlanetAddress, bool) {
	switch loc := l.(type) {
	case PlanetSurface:
		return loc.tile.Planet, true
	case Orbit:
		return loc.planet, true
	default:
		return worldgen.PlanetAddress{}, false
	}
}
