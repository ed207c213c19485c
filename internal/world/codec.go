// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/worldgen"
)

// JSON discriminants for locations.
const (
	JSONPlanetSurface = "PlanetSurface"
	JSONOrbit         = "Orbit"
	JSONSpace         = "Space"
)

// LocationRecord is the column form of a location: a kind discriminant plus
// the nullable columns each kind uses.
type LocationRecord struct {
	Type     string
	PlanetID *int64
	Face     *int32
	U        *int32
	V        *int32
	SystemID *int64
}

// LocationPayload is the JSON form of a location.
type LocationPayload struct {
	LocationType string `json:"location_type" jsonschema:"enum=PlanetSurface,enum=Orbit,enum=Space"`
	PlanetID     *int64 `json:"planet_id,omitempty" jsonschema:"minimum=0"`
	Face         *int   `json:"face,omitempty" jsonschema:"minimum=0,maximum=19"`
	U            *int   `json:"u,omitempty" jsonschema:"minimum=0,maximum=20"`
	V            *int   `json:"v,omitempty" jsonschema:"minimum=0,maximum=20"`
	SystemID     *int64 `json:"system_id,omitempty" jsonschema:"minimum=0"`
}

// RecordOf returns the column form of l.
func RecordOf(l Location) LocationRecord {
	rec := LocationRecord{Type: l.Kind().String()}
	switch loc := l.(type) {
	case PlanetSurface:
		rec.PlanetID = ptr(int64(loc.PlanetID()))
		rec.Face = ptr(int32(loc.tile.Face))
		rec.U = ptr(int32(loc.tile.U))
		rec.V = ptr(int32(loc.tile.V))
	case Orbit:
		rec.PlanetID = ptr(int64(loc.PlanetID()))
	case Space:
		rec.SystemID = ptr(int64(loc.SystemID()))
	}
	return rec
}

// Decode rebuilds the location. A record with an unknown kind or without the
// columns its kind requires is an invariant violation.
func (r LocationRecord) Decode() (Location, error) {
	switch LocationKind(r.Type) {
	case KindPlanetSurface:
		if r.PlanetID == nil || r.Face == nil || r.U == nil || r.V == nil {
			return nil, missingFields(r.Type, "planet_id, face, u, v")
		}
		return NewPlanetSurface(worldgen.PlanetID(*r.PlanetID), int(*r.Face), int(*r.U), int(*r.V))
	case KindOrbit:
		if r.PlanetID == nil {
			return nil, missingFields(r.Type, "planet_id")
		}
		return NewOrbit(worldgen.PlanetID(*r.PlanetID))
	case KindSpace:
		if r.SystemID == nil {
			return nil, missingFields(r.Type, "system_id")
		}
		return NewSpace(worldgen.SystemID(*r.SystemID))
	default:
		return nil, unknownKind(r.Type)
	}
}

// PayloadOf returns the JSON form of l.
func PayloadOf(l Location) LocationPayload {
	switch loc := l.(type) {
	case PlanetSurface:
		return LocationPayload{
			LocationType: JSONPlanetSurface,
			PlanetID:     ptr(int64(loc.PlanetID())),
			Face:         ptr(loc.tile.Face),
			U:            ptr(loc.tile.U),
			V:            ptr(loc.tile.V),
		}
	case Orbit:
		return LocationPayload{LocationType: JSONOrbit, PlanetID: ptr(int64(loc.PlanetID()))}
	case Space:
		return LocationPayload{LocationType: JSONSpace, SystemID: ptr(int64(loc.SystemID()))}
	default:
		return LocationPayload{}
	}
}

// Decode rebuilds the location from its JSON form.
func (p LocationPayload) Decode() (Location, error) {
	switch p.LocationType {
	case JSONPlanetSurface:
		if p.PlanetID == nil || p.Face == nil || p.U == nil || p.V == nil {
			return nil, missingFields(p.LocationType, "planet_id, face, u, v")
		}
		return NewPlanetSurface(worldgen.PlanetID(*p.PlanetID), *p.Face, *p.U, *p.V)
	case JSONOrbit:
		if p.PlanetID == nil {
			return nil, missingFields(p.LocationType, "planet_id")
		}
		return NewOrbit(worldgen.PlanetID(*p.PlanetID))
	case JSONSpace:
		if p.SystemID == nil {
			return nil, missingFields(p.LocationType, "system_id")
		}
		return NewSpace(worldgen.SystemID(*p.SystemID))
	default:
		return nil, unknownKind(p.LocationType)
	}
}

func missingFields(kind, fields string) error {
	return oops.Code("INVALID_LOCATION").
		With("location_type", kind).
		With("required", fields).
		Wrapf(ErrInvalidLocation, "location %s is missing required fields", kind)
}

func unknownKind(kind string) error {
	return oops.Code("INVALID_LOCATION").
		With("location_type", kind).
		Wrapf(ErrInvalidLocation, "unknown location type %q", kind)
}

func ptr[T any](v T) *T {
	return &v
}
