// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/pkg/errutil"
)

func TestAddress_Validate(t *testing.T) {
	sys := SystemAddress{X: 1, Y: -2, Z: 3}
	planet := PlanetAddress{System: sys, Orbit: 4}

	tests := []struct {
		name    string
		addr    Address
		wantErr bool
	}{
		{"galaxy", GalaxyAddress{}, false},
		{"system", sys, false},
		{"system at max", SystemAddress{X: MaxCoordinate, Y: -MaxCoordinate}, false},
		{"system beyond max", SystemAddress{X: MaxCoordinate + 1}, true},
		{"system beyond min", SystemAddress{Z: -MaxCoordinate - 1}, true},
		{"planet", planet, false},
		{"planet last orbit", PlanetAddress{System: sys, Orbit: MaxOrbits - 1}, false},
		{"planet orbit too high", PlanetAddress{System: sys, Orbit: MaxOrbits}, true},
		{"planet negative orbit", PlanetAddress{System: sys, Orbit: -1}, true},
		{"tile origin", TileAddress{Planet: planet}, false},
		{"tile corner", TileAddress{Planet: planet, Face: Faces - 1, U: Subdivision}, false},
		{"tile on edge", TileAddress{Planet: planet, Face: 3, U: 12, V: 8}, false},
		{"tile face too high", TileAddress{Planet: planet, Face: Faces}, true},
		{"tile negative u", TileAddress{Planet: planet, U: -1}, true},
		{"tile outside triangle", TileAddress{Planet: planet, U: 11, V: 10}, true},
		{"tile with invalid planet", TileAddress{Planet: PlanetAddress{System: sys, Orbit: 99}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.addr.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAddress))
			errutil.AssertErrorCode(t, err, "INVALID_ADDRESS")
		})
	}
}

func TestAddress_Levels(t *testing.T) {
	assert.Equal(t, LevelGalaxy, GalaxyAddress{}.Level())
	assert.Equal(t, LevelSystem, SystemAddress{}.Level())
	assert.Equal(t, LevelPlanet, PlanetAddress{}.Level())
	assert.Equal(t, LevelTile, TileAddress{}.Level())
	assert.Equal(t, "tile", LevelTile.String())
}

func TestTileAddress_W(t *testing.T) {
	assert.Equal(t, Subdivision, TileAddress{}.W())
	assert.Equal(t, 0, TileAddress{U: 5, V: 15}.W())
}

func TestSurfaceDistance(t *testing.T) {
	p := PlanetAddress{System: SystemAddress{X: 1}, Orbit: 2}
	other := PlanetAddress{System: SystemAddress{X: 1}, Orbit: 3}

	tests := []struct {
		name   string
		a, b   TileAddress
		want   int
		wantOK bool
	}{
		{"same tile", TileAddress{Planet: p, U: 3, V: 3}, TileAddress{Planet: p, U: 3, V: 3}, 0, true},
		{"one step u", TileAddress{Planet: p, U: 3, V: 3}, TileAddress{Planet: p, U: 4, V: 3}, 1, true},
		{"one step across u and v", TileAddress{Planet: p, U: 3, V: 3}, TileAddress{Planet: p, U: 4, V: 2}, 1, true},
		{"corner to corner", TileAddress{Planet: p}, TileAddress{Planet: p, U: Subdivision}, Subdivision, true},
		{"other face", TileAddress{Planet: p}, TileAddress{Planet: p, Face: 1}, Subdivision, true},
		{"other planet", TileAddress{Planet: p}, TileAddress{Planet: other}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SurfaceDistance(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDs_RoundTrip(t *testing.T) {
	systems := []SystemAddress{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -3, Y: 7, Z: -11},
		{X: MaxCoordinate, Y: MaxCoordinate, Z: MaxCoordinate},
		{X: -MaxCoordinate, Y: -MaxCoordinate, Z: -MaxCoordinate},
	}
	for _, sys := range systems {
		got, err := sys.ID().Address()
		require.NoError(t, err)
		assert.Equal(t, sys, got)

		for _, orbit := range []int{0, 5, MaxOrbits - 1} {
			planet := PlanetAddress{System: sys, Orbit: orbit}
			id := planet.ID()
			assert.GreaterOrEqual(t, int64(id), int64(0))
			assert.Equal(t, sys.ID(), id.System())

			gotPlanet, err := id.Address()
			require.NoError(t, err)
			assert.Equal(t, planet, gotPlanet)
		}
	}
}

func TestIDs_Invalid(t *testing.T) {
	_, err := SystemID(-1).Address()
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = SystemID(1 << 60).Address()
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = PlanetID(-5).Address()
	require.ErrorIs(t, err, ErrInvalidAddress)

	// Orbit bits 31 exceed MaxOrbits.
	_, err = PlanetID(int64(SystemAddress{}.ID())<<5 | 31).Address()
	require.ErrorIs(t, err, ErrInvalidAddress)

	// Coordinate field 0 decodes to -(MaxCoordinate+1), just outside the range.
	_, err = SystemID(0).Address()
	require.ErrorIs(t, err, ErrInvalidAddress)
}
