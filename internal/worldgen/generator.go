// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

import (
	"github.com/samber/oops"
)

// Default generation parameters.
const (
	DefaultSeed       uint64 = 1
	GenerationVersion uint64 = 1
)

// Config holds the process-wide generation constants. Changing either field
// changes every derived value: it is a world reset, not a migration.
type Config struct {
	Seed    uint64 `koanf:"seed"`
	Version uint64 `koanf:"version"`
}

// DefaultConfig returns the default generation constants.
func DefaultConfig() Config {
	return Config{Seed: DefaultSeed, Version: GenerationVersion}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Version == 0 {
		return oops.Code("CONFIG_INVALID").With("field", "world.version").Errorf("generation version must be positive")
	}
	return nil
}

// Generator derives world content for one world seed and version. It holds
// no mutable state and is safe for concurrent use.
type Generator struct {
	cfg        Config
	galaxySeed uint64
}

// New creates a generator.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:        cfg,
		galaxySeed: Hash(cfg.Version, cfg.Seed, TagGalaxy),
	}, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Seed returns the seed of any address after validating it.
func (g *Generator) Seed(addr Address) (uint64, error) {
	if err := addr.Validate(); err != nil {
		return 0, err
	}
	switch a := addr.(type) {
	case GalaxyAddress:
		return g.galaxySeed, nil
	case SystemAddress:
		return g.systemSeed(a), nil
	case PlanetAddress:
		return g.planetSeed(a), nil
	case TileAddress:
		return g.tileSeed(a), nil
	default:
		return 0, oops.Code("INVALID_ADDRESS").Wrapf(ErrInvalidAddress, "unknown address type %T", addr)
	}
}

func (g *Generator) systemSeed(a SystemAddress) uint64 {
	return DeriveSeed(g.galaxySeed, TagSystem, int64(a.X), int64(a.Y), int64(a.Z))
}

func (g *Generator) planetSeed(a PlanetAddress) uint64 {
	return DeriveSeed(g.systemSeed(a.System), TagPlanet, int64(a.Orbit))
}

func (g *Generator) tileSeed(a TileAddress) uint64 {
	return DeriveSeed(g.planetSeed(a.Planet), TagTile, int64(a.Face), int64(a.U), int64(a.V))
}

// System describes a star system slot.
type System struct {
	Address     SystemAddress  `yaml:"address" json:"address"`
	ID          SystemID       `yaml:"id" json:"id"`
	Exists      bool           `yaml:"exists" json:"exists"`
	Star        StarType       `yaml:"star,omitempty" json:"star,omitempty"`
	PlanetCount int            `yaml:"planet_count" json:"planet_count"`
	Objects     []SystemObject `yaml:"objects,omitempty" json:"objects,omitempty"`
}

// SystemObject is a non-planet body in a star system.
type SystemObject struct {
	Index int        `yaml:"index" json:"index"`
	Type  ObjectType `yaml:"type" json:"type"`
	// Angle is the orbital angle in degrees.
	Angle int `yaml:"angle" json:"angle"`
	// Radius is the orbital radius in hundredths of an astronomical unit.
	Radius int `yaml:"radius" json:"radius"`
}

// Planet describes an orbit slot of a system.
type Planet struct {
	Address    PlanetAddress `yaml:"address" json:"address"`
	ID         PlanetID      `yaml:"id" json:"id"`
	Exists     bool          `yaml:"exists" json:"exists"`
	Type       PlanetType    `yaml:"type,omitempty" json:"type,omitempty"`
	HasSurface bool          `yaml:"has_surface" json:"has_surface"`
}

// Tile describes a planet surface tile.
type Tile struct {
	Address TileAddress `yaml:"address" json:"address"`
	Height  uint16      `yaml:"height" json:"height"`
	Biome   Biome       `yaml:"biome" json:"biome"`
}

// System generates the system at addr. A system that does not exist has no
// star, planets or objects.
func (g *Generator) System(addr SystemAddress) (System, error) {
	if err := addr.Validate(); err != nil {
		return System{}, err
	}
	seed := g.systemSeed(addr)
	sys := System{Address: addr, ID: addr.ID()}
	if deriveAttribute(seed, TagSystemExists, 100) >= SystemExistsPercent {
		return sys, nil
	}
	sys.Exists = true
	sys.Star = StarType(1 + deriveAttribute(seed, TagStarType, uint64(numStarTypes)))
	sys.PlanetCount = int(deriveAttribute(seed, TagPlanetCount, MaxOrbits))

	count := int(deriveAttribute(seed, TagObjectCount, MaxSystemObjects))
	if count > 0 {
		sys.Objects = make([]SystemObject, count)
	}
	for i := range count {
		objSeed := DeriveSeed(seed, TagSystemObject, int64(i))
		pos := attributeBits(objSeed, TagObjectPosition)
		sys.Objects[i] = SystemObject{
			Index:  i,
			Type:   ObjectType(deriveAttribute(objSeed, TagObjectType, uint64(numObjectTypes))),
			Angle:  int((pos & 0xFFFFFFFF) % 360),
			Radius: 10 + int((pos>>32)%5000),
		}
	}
	return sys, nil
}

// Planet generates the planet at addr. The planet exists when its system
// exists and the orbit index is below the system's planet count.
func (g *Generator) Planet(addr PlanetAddress) (Planet, error) {
	sys, err := g.System(addr.System)
	if err != nil {
		return Planet{}, err
	}
	if err := addr.Validate(); err != nil {
		return Planet{}, err
	}
	p := Planet{Address: addr, ID: addr.ID()}
	if !sys.Exists || addr.Orbit >= sys.PlanetCount {
		return p, nil
	}
	p.Exists = true
	p.Type = g.planetType(addr)
	p.HasSurface = p.Type.HasSurface()
	return p, nil
}

func (g *Generator) planetType(addr PlanetAddress) PlanetType {
	return PlanetType(1 + deriveAttribute(g.planetSeed(addr), TagPlanetType, uint64(numPlanetTypes)))
}

// Tile generates the tile at addr. Tile attributes are defined for every
// valid address; callers decide whether the owning planet exists.
func (g *Generator) Tile(addr TileAddress) (Tile, error) {
	if err := addr.Validate(); err != nil {
		return Tile{}, err
	}
	seed := g.tileSeed(addr)
	height := Noise(attributeBits(seed, TagTileHeight))
	return Tile{
		Address: addr,
		Height:  height,
		Biome:   biomeFor(g.planetType(addr.Planet), height, seed),
	}, nil
}
