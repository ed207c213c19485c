// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package worldtest provides fixtures and mocks for tests that need generated
// world content or world repositories.
package worldtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
)

const scanLimit = 5000

// Generator returns a generator with the default configuration.
func Generator(t testing.TB) *worldgen.Generator {
	t.Helper()
	g, err := worldgen.New(worldgen.DefaultConfig())
	require.NoError(t, err)
	return g
}

// FindSystem returns the first generated system along the x axis matching pred.
func FindSystem(t testing.TB, g *worldgen.Generator, pred func(worldgen.System) bool) worldgen.System {
	t.Helper()
	for x := range int32(scanLimit) {
		sys, err := g.System(worldgen.SystemAddress{X: x, Y: 4, Z: -2})
		require.NoError(t, err)
		if pred(sys) {
			return sys
		}
	}
	t.Fatal("no matching system generated")
	return worldgen.System{}
}

// FindPlanet returns the first existing generated planet matching pred.
func FindPlanet(t testing.TB, g *worldgen.Generator, pred func(worldgen.Planet) bool) worldgen.Planet {
	t.Helper()
	for x := range int32(scanLimit) {
		sys, err := g.System(worldgen.SystemAddress{X: x, Y: 4, Z: -2})
		require.NoError(t, err)
		for orbit := range sys.PlanetCount {
			p, err := g.Planet(worldgen.PlanetAddress{System: sys.Address, Orbit: orbit})
			require.NoError(t, err)
			if p.Exists && pred(p) {
				return p
			}
		}
	}
	t.Fatal("no matching planet generated")
	return worldgen.Planet{}
}

// SurfacePlanet returns an existing planet units can land on.
func SurfacePlanet(t testing.TB, g *worldgen.Generator) worldgen.Planet {
	t.Helper()
	return FindPlanet(t, g, func(p worldgen.Planet) bool { return p.HasSurface })
}

// GasGiant returns an existing planet without a surface.
func GasGiant(t testing.TB, g *worldgen.Generator) worldgen.Planet {
	t.Helper()
	return FindPlanet(t, g, func(p worldgen.Planet) bool { return !p.HasSurface })
}

// Surface builds a surface location, failing the test on invalid input.
func Surface(t testing.TB, planet worldgen.PlanetID, face, u, v int) world.PlanetSurface {
	t.Helper()
	loc, err := world.NewPlanetSurface(planet, face, u, v)
	require.NoError(t, err)
	return loc
}

// OrbitOf builds an orbit location, failing the test on invalid input.
func OrbitOf(t testing.TB, planet worldgen.PlanetID) world.Orbit {
	t.Helper()
	loc, err := world.NewOrbit(planet)
	require.NoError(t, err)
	return loc
}

// SpaceOf builds a space location, failing the test on invalid input.
func SpaceOf(t testing.TB, system worldgen.SystemID) world.Space {
	t.Helper()
	loc, err := world.NewSpace(system)
	require.NoError(t, err)
	return loc
}
