// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/world"
)

const unitColumns = `id, player_id, unit_type, location_type, planet_id, face, u, v, system_id, created_at`

// UnitRepository implements world.UnitRepository using PostgreSQL.
type UnitRepository struct {
	pool Pool
}

// NewUnitRepository creates a new UnitRepository.
func NewUnitRepository(pool Pool) *UnitRepository {
	return &UnitRepository{pool: pool}
}

// Get retrieves a unit by ID.
func (r *UnitRepository) Get(ctx context.Context, id ulid.ULID) (*world.Unit, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = $1`, id.String())
	return r.scanOne(row, id, "get unit")
}

// GetForUpdate retrieves a unit and locks its row until the transaction in
// ctx ends.
func (r *UnitRepository) GetForUpdate(ctx context.Context, id ulid.ULID) (*world.Unit, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = $1 FOR UPDATE`, id.String())
	return r.scanOne(row, id, "lock unit")
}

func (r *UnitRepository) scanOne(row pgx.Row, id ulid.ULID, operation string) (*world.Unit, error) {
	u, err := scanUnit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("UNIT_NOT_FOUND").With("unit_id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("unit_id", id.String()).Wrap(classify(err, operation, ""))
	}
	return u, nil
}

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *world.Unit) error {
	args := append([]any{unit.ID.String(), unit.PlayerID, unit.UnitType}, locationArgs(unit.Location)...)
	args = append(args, unit.CreatedAt)
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO units (`+unitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, args...)
	if err != nil {
		return oops.With("unit_id", unit.ID.String()).Wrap(classify(err, "create unit", "UNIT_EXISTS"))
	}
	return nil
}

// ListAt returns the units at exactly loc, ordered by ID.
func (r *UnitRepository) ListAt(ctx context.Context, loc world.Location) ([]*world.Unit, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+unitColumns+` FROM units
		WHERE location_type = $1
		AND planet_id IS NOT DISTINCT FROM $2
		AND face IS NOT DISTINCT FROM $3
		AND u IS NOT DISTINCT FROM $4
		AND v IS NOT DISTINCT FROM $5
		AND system_id IS NOT DISTINCT FROM $6
		ORDER BY id
	`, locationArgs(loc)...)
	if err != nil {
		return nil, oops.With("location", loc.String()).Wrap(classify(err, "list units at location", ""))
	}
	defer rows.Close()
	return scanUnits(rows)
}

// ListByPlayer returns the player's units, ordered by ID.
func (r *UnitRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*world.Unit, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+unitColumns+` FROM units WHERE player_id = $1 ORDER BY id`, playerID)
	if err != nil {
		return nil, oops.With("player_id", playerID).Wrap(classify(err, "list units by player", ""))
	}
	defer rows.Close()
	return scanUnits(rows)
}

func scanUnit(row rowScanner) (*world.Unit, error) {
	var (
		u     world.Unit
		idStr string
		rec   world.LocationRecord
	)
	targets := append([]any{&idStr, &u.PlayerID, &u.UnitType}, locationTargets(&rec)...)
	targets = append(targets, &u.CreatedAt)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("CORRUPT_ID").With("unit_id", idStr).Wrap(err)
	}
	u.ID = id

	loc, err := rec.Decode()
	if err != nil {
		return nil, oops.With("unit_id", idStr).Wrap(err)
	}
	u.Location = loc
	return &u, nil
}

func scanUnits(rows pgx.Rows) ([]*world.Unit, error) {
	var units []*world.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, oops.With("operation", "scan unit").Wrap(err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate units").Wrap(err)
	}
	return units, nil
}
