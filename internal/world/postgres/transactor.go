// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// Transactor implements world.Transactor. The active pgx.Tx travels in the
// context so repository calls made with it join the transaction.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor backed by the given pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction runs fn in a transaction, committing when fn returns nil.
// A context that already carries a transaction is reused.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, t.pool, fn)
}

func inTx(ctx context.Context, pool Pool, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // the fn error is what the caller needs
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(classify(err, "commit transaction", ""))
	}
	return nil
}
