// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import "errors"

// Sentinel errors. Repository and service errors wrap these with oops codes,
// so callers classify failures with errors.Is.
var (
	// ErrNotFound is returned when a unit or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when a player acts on a unit they do not own.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidLocation marks a location that cannot be constructed or decoded.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidDestination marks a well-formed location that cannot be moved to.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrOrderResolved is returned when resolving an order that already resolved.
	ErrOrderResolved = errors.New("order already resolved")

	// ErrUnitMismatch is returned when an order is resolved for a unit it
	// does not belong to.
	ErrUnitMismatch = errors.New("order unit mismatch")

	// ErrEarlierOrderPending is returned when resolving an order while an
	// earlier order of the same unit is still pending. The order stays
	// pending and resolves after the earlier one.
	ErrEarlierOrderPending = errors.New("earlier order pending")

	// ErrConflict is returned when a transaction lost a race with another one
	// and may succeed if retried.
	ErrConflict = errors.New("transaction conflict")
)

// IsRetryable reports whether err is a transient conflict worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnresolvable reports whether err means the order can never resolve, no
// matter how often it is retried.
func IsUnresolvable(err error) bool {
	return errors.Is(err, ErrInvalidLocation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnitMismatch)
}
