// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package postgres implements the world repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/axosm/axosm/internal/world"
)

// querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the repositories use.
type Pool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// conn returns the transaction stored in ctx, or the pool.
func conn(ctx context.Context, pool Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Location columns appear in this order wherever a location is stored.
func locationTargets(rec *world.LocationRecord) []any {
	return []any{&rec.Type, &rec.PlanetID, &rec.Face, &rec.U, &rec.V, &rec.SystemID}
}

func locationArgs(l world.Location) []any {
	rec := world.RecordOf(l)
	return []any{rec.Type, rec.PlanetID, rec.Face, rec.U, rec.V, rec.SystemID}
}
