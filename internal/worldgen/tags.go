// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

// Level tags separate the seed chains of different address levels.
const (
	TagGalaxy       uint64 = 1
	TagSystem       uint64 = 10
	TagPlanet       uint64 = 20
	TagTile         uint64 = 100
	TagSystemObject uint64 = 210
)

// Attribute tags partition the hash space of a single seed so that attributes
// derived from the same address stay uncorrelated.
const (
	TagSystemExists   uint64 = 11
	TagStarType       uint64 = 12
	TagPlanetCount    uint64 = 13
	TagPlanetType     uint64 = 21
	TagTileHeight     uint64 = 101
	TagTileBiome      uint64 = 102
	TagObjectCount    uint64 = 200
	TagObjectType     uint64 = 201
	TagObjectPosition uint64 = 202
)

// Generation rules.
const (
	// SystemExistsPercent is the share of system coordinates holding a star.
	SystemExistsPercent = 30
	// MaxOrbits bounds the planet count of a system; orbits run 0..MaxOrbits-1.
	MaxOrbits = 12
	// MaxSystemObjects bounds the number of non-planet objects in a system.
	MaxSystemObjects = 20
)
