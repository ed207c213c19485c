// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/world"
)

// classify wraps a driver error. Serialization failures, deadlocks and lock
// timeouts become world.ErrConflict so callers can retry them; unique
// violations are tagged with dupCode when one is given.
func classify(err error, operation, dupCode string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return oops.Code("TX_CONFLICT").
				With("operation", operation).
				With("sqlstate", pgErr.Code).
				Wrap(fmt.Errorf("%w: %w", world.ErrConflict, err))
		case pgerrcode.UniqueViolation:
			if dupCode != "" {
				return oops.Code(dupCode).
					With("operation", operation).
					With("constraint", pgErr.ConstraintName).
					Wrap(err)
			}
		}
	}
	return oops.With("operation", operation).Wrap(err)
}
