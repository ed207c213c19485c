// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

import (
	"fmt"

	"github.com/samber/oops"
)

// StarType is the spectral class of a system's star. The zero value means no star.
type StarType uint8

// Star types.
const (
	StarNone StarType = iota
	StarRedDwarf
	StarYellowDwarf
	StarBlueGiant
	StarWhiteDwarf
	StarNeutron
)

const numStarTypes = 5

var starNames = [...]string{"none", "red_dwarf", "yellow_dwarf", "blue_giant", "white_dwarf", "neutron"}

func (s StarType) String() string { return enumName(starNames[:], int(s)) }

// MarshalText implements encoding.TextMarshaler.
func (s StarType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StarType) UnmarshalText(text []byte) error {
	i, err := enumIndex(starNames[:], "StarType", string(text))
	if err != nil {
		return err
	}
	*s = StarType(i)
	return nil
}

// PlanetType is the class of a planet. The zero value means no planet.
type PlanetType uint8

// Planet types.
const (
	PlanetNone PlanetType = iota
	PlanetRocky
	PlanetOcean
	PlanetIce
	PlanetLava
	PlanetDesert
	PlanetGasGiant
)

const numPlanetTypes = 6

var planetNames = [...]string{"none", "rocky", "ocean", "ice", "lava", "desert", "gas_giant"}

func (p PlanetType) String() string { return enumName(planetNames[:], int(p)) }

// MarshalText implements encoding.TextMarshaler.
func (p PlanetType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PlanetType) UnmarshalText(text []byte) error {
	i, err := enumIndex(planetNames[:], "PlanetType", string(text))
	if err != nil {
		return err
	}
	*p = PlanetType(i)
	return nil
}

// HasSurface reports whether units can land on the planet.
func (p PlanetType) HasSurface() bool {
	return p != PlanetNone && p != PlanetGasGiant
}

// ObjectType classifies non-planet bodies in a system.
type ObjectType uint8

// Object types.
const (
	ObjectAsteroidField ObjectType = iota
	ObjectComet
	ObjectNebula
	ObjectDerelict
)

const numObjectTypes = 4

var objectNames = [...]string{"asteroid_field", "comet", "nebula", "derelict"}

func (o ObjectType) String() string { return enumName(objectNames[:], int(o)) }

// MarshalText implements encoding.TextMarshaler.
func (o ObjectType) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ObjectType) UnmarshalText(text []byte) error {
	i, err := enumIndex(objectNames[:], "ObjectType", string(text))
	if err != nil {
		return err
	}
	*o = ObjectType(i)
	return nil
}

// Biome classifies a surface tile.
type Biome uint8

// Biomes.
const (
	BiomeOcean Biome = iota
	BiomeBarren
	BiomeGrassland
	BiomeForest
	BiomeTundra
	BiomeGlacier
	BiomeVolcanic
	BiomeAsh
	BiomeDunes
	BiomeMesa
	BiomeMountain
)

var biomeNames = [...]string{
	"ocean", "barren", "grassland", "forest", "tundra", "glacier",
	"volcanic", "ash", "dunes", "mesa", "mountain",
}

func (b Biome) String() string { return enumName(biomeNames[:], int(b)) }

// MarshalText implements encoding.TextMarshaler.
func (b Biome) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Biome) UnmarshalText(text []byte) error {
	i, err := enumIndex(biomeNames[:], "Biome", string(text))
	if err != nil {
		return err
	}
	*b = Biome(i)
	return nil
}

// Height thresholds on the Noise scale.
const (
	SeaLevel     = 26000
	MountainLine = 44000
)

// landBiomes lists the biomes a planet type draws from above sea level.
var landBiomes = map[PlanetType][]Biome{
	PlanetRocky:  {BiomeBarren, BiomeGrassland, BiomeForest, BiomeTundra},
	PlanetOcean:  {BiomeGrassland, BiomeForest},
	PlanetIce:    {BiomeTundra, BiomeGlacier},
	PlanetLava:   {BiomeVolcanic, BiomeAsh, BiomeBarren},
	PlanetDesert: {BiomeDunes, BiomeMesa, BiomeBarren},
}

// seaPlanets are the planet types with liquid below sea level.
var seaPlanets = map[PlanetType]bool{
	PlanetRocky: true,
	PlanetOcean: true,
}

func biomeFor(pt PlanetType, height uint16, tileSeed uint64) Biome {
	if height >= MountainLine {
		return BiomeMountain
	}
	if height < SeaLevel && seaPlanets[pt] {
		return BiomeOcean
	}
	options, ok := landBiomes[pt]
	if !ok {
		return BiomeBarren
	}
	return options[deriveAttribute(tileSeed, TagTileBiome, uint64(len(options)))]
}

func enumIndex(names []string, kind, name string) (int, error) {
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return 0, oops.Code("UNKNOWN_ENUM").With("kind", kind).Errorf("unknown %s %q", kind, name)
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}
