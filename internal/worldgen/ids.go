// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

import "github.com/samber/oops"

// SystemID is a packed, storable form of a SystemAddress: three 18-bit fields
// holding each coordinate offset by MaxCoordinate+1.
type SystemID int64

// PlanetID is a packed, storable form of a PlanetAddress: the SystemID shifted
// left by five bits with the orbit index in the low bits.
type PlanetID int64

const (
	coordBits   = 18
	coordMask   = 1<<coordBits - 1
	coordOffset = MaxCoordinate + 1
	orbitBits   = 5
	orbitMask   = 1<<orbitBits - 1
	systemIDMax = 1<<(3*coordBits) - 1
)

// ID packs the address. The address must be valid.
func (a SystemAddress) ID() SystemID {
	x := int64(a.X) + coordOffset
	y := int64(a.Y) + coordOffset
	z := int64(a.Z) + coordOffset
	return SystemID(x<<(2*coordBits) | y<<coordBits | z)
}

// ID packs the address. The address must be valid.
func (a PlanetAddress) ID() PlanetID {
	return PlanetID(int64(a.System.ID())<<orbitBits | int64(a.Orbit))
}

// Address unpacks the identifier, validating the result.
func (id SystemID) Address() (SystemAddress, error) {
	if id < 0 || id > systemIDMax {
		return SystemAddress{}, oops.Code("INVALID_ADDRESS").
			With("system_id", int64(id)).
			Wrapf(ErrInvalidAddress, "system id out of range")
	}
	v := int64(id)
	a := SystemAddress{
		X: int32(v>>(2*coordBits)&coordMask - coordOffset),
		Y: int32(v>>coordBits&coordMask - coordOffset),
		Z: int32(v&coordMask - coordOffset),
	}
	if err := a.Validate(); err != nil {
		return SystemAddress{}, err
	}
	return a, nil
}

// Address unpacks the identifier, validating the result.
func (id PlanetID) Address() (PlanetAddress, error) {
	if id < 0 {
		return PlanetAddress{}, oops.Code("INVALID_ADDRESS").
			With("planet_id", int64(id)).
			Wrapf(ErrInvalidAddress, "planet id out of range")
	}
	sys, err := SystemID(int64(id) >> orbitBits).Address()
	if err != nil {
		return PlanetAddress{}, err
	}
	a := PlanetAddress{System: sys, Orbit: int(int64(id) & orbitMask)}
	if err := a.Validate(); err != nil {
		return PlanetAddress{}, err
	}
	return a, nil
}

// System returns the identifier of the planet's star system.
func (id PlanetID) System() SystemID {
	return SystemID(int64(id) >> orbitBits)
}
