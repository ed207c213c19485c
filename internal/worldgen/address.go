// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Grid constants for planet surfaces. A planet is an icosahedron whose 20
// triangular faces are each subdivided into a triangular lattice; a tile is
// addressed by its face and barycentric (u, v) with u+v <= Subdivision.
const (
	Faces       = 20
	Subdivision = 20
)

// MaxCoordinate bounds each system coordinate to a signed 18-bit range.
const MaxCoordinate = 1<<17 - 1

// ErrInvalidAddress is returned when an address is outside the valid ranges.
var ErrInvalidAddress = errors.New("invalid address")

// Level identifies an address level.
type Level uint8

// Address levels, outermost first.
const (
	LevelGalaxy Level = iota
	LevelSystem
	LevelPlanet
	LevelTile
)

func (l Level) String() string {
	switch l {
	case LevelGalaxy:
		return "galaxy"
	case LevelSystem:
		return "system"
	case LevelPlanet:
		return "planet"
	case LevelTile:
		return "tile"
	default:
		return "unknown"
	}
}

// Address is a hierarchical world coordinate. The set of implementations is
// closed: GalaxyAddress, SystemAddress, PlanetAddress and TileAddress.
type Address interface {
	Level() Level
	Validate() error
	String() string
	address()
}

// GalaxyAddress addresses the single galaxy rooted at the world seed.
type GalaxyAddress struct{}

// SystemAddress addresses a star system by its galactic grid position.
type SystemAddress struct {
	X int32 `yaml:"x" json:"x"`
	Y int32 `yaml:"y" json:"y"`
	Z int32 `yaml:"z" json:"z"`
}

// PlanetAddress addresses an orbit slot of a star system.
type PlanetAddress struct {
	System SystemAddress `yaml:"system" json:"system"`
	Orbit  int           `yaml:"orbit" json:"orbit"`
}

// TileAddress addresses a surface tile of a planet.
type TileAddress struct {
	Planet PlanetAddress `yaml:"planet" json:"planet"`
	Face   int           `yaml:"face" json:"face"`
	U      int           `yaml:"u" json:"u"`
	V      int           `yaml:"v" json:"v"`
}

func (GalaxyAddress) address() {}
func (SystemAddress) address() {}
func (PlanetAddress) address() {}
func (TileAddress) address()   {}

// Level implements Address.
func (GalaxyAddress) Level() Level { return LevelGalaxy }

// Level implements Address.
func (SystemAddress) Level() Level { return LevelSystem }

// Level implements Address.
func (PlanetAddress) Level() Level { return LevelPlanet }

// Level implements Address.
func (TileAddress) Level() Level { return LevelTile }

// Validate implements Address.
func (GalaxyAddress) Validate() error { return nil }

// Validate checks each coordinate against MaxCoordinate.
func (a SystemAddress) Validate() error {
	for _, c := range [...]struct {
		name string
		v    int32
	}{{"x", a.X}, {"y", a.Y}, {"z", a.Z}} {
		if c.v < -MaxCoordinate || c.v > MaxCoordinate {
			return invalidAddress(a, c.name, "coordinate %d outside [-%d, %d]", c.v, MaxCoordinate, MaxCoordinate)
		}
	}
	return nil
}

// Validate checks the system and the orbit index.
func (a PlanetAddress) Validate() error {
	if err := a.System.Validate(); err != nil {
		return err
	}
	if a.Orbit < 0 || a.Orbit >= MaxOrbits {
		return invalidAddress(a, "orbit", "orbit %d outside [0, %d)", a.Orbit, MaxOrbits)
	}
	return nil
}

// Validate checks the planet, the face and the barycentric tile coordinates.
func (a TileAddress) Validate() error {
	if err := a.Planet.Validate(); err != nil {
		return err
	}
	if a.Face < 0 || a.Face >= Faces {
		return invalidAddress(a, "face", "face %d outside [0, %d)", a.Face, Faces)
	}
	if a.U < 0 || a.V < 0 {
		return invalidAddress(a, "uv", "tile coordinates must be non-negative")
	}
	if a.U+a.V > Subdivision {
		return invalidAddress(a, "uv", "u+v = %d exceeds subdivision %d", a.U+a.V, Subdivision)
	}
	return nil
}

func (GalaxyAddress) String() string { return "galaxy" }

func (a SystemAddress) String() string {
	return fmt.Sprintf("system(%d,%d,%d)", a.X, a.Y, a.Z)
}

func (a PlanetAddress) String() string {
	return fmt.Sprintf("planet(%d,%d,%d#%d)", a.System.X, a.System.Y, a.System.Z, a.Orbit)
}

func (a TileAddress) String() string {
	return fmt.Sprintf("tile(%d,%d,%d#%d/%d:%d,%d)",
		a.Planet.System.X, a.Planet.System.Y, a.Planet.System.Z, a.Planet.Orbit, a.Face, a.U, a.V)
}

// W returns the third barycentric coordinate of the tile.
func (a TileAddress) W() int {
	return Subdivision - a.U - a.V
}

// SurfaceDistance estimates the number of tile hops between two tiles of the
// same planet. Tiles on the same face use the triangular lattice distance;
// crossing to another face counts as a full face traversal. ok is false when
// the tiles are on different planets.
func SurfaceDistance(a, b TileAddress) (hops int, ok bool) {
	if a.Planet != b.Planet {
		return 0, false
	}
	if a.Face != b.Face {
		return Subdivision, true
	}
	return (abs(a.U-b.U) + abs(a.V-b.V) + abs(a.W()-b.W())) / 2, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func invalidAddress(a Address, field, format string, args ...any) error {
	return oops.Code("INVALID_ADDRESS").
		With("address", a.String()).
		With("field", field).
		Wrapf(ErrInvalidAddress, format, args...)
}
