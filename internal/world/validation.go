// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package world

import (
	"fmt"
	"regexp"
)

// Validation limits for domain types.
const (
	MaxUnitTypeLength = 32
	MaxQueuedOrders   = 16
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var unitTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateUnitType checks that a unit type is a short lower_snake_case identifier.
func ValidateUnitType(unitType string) error {
	if unitType == "" {
		return &ValidationError{Field: "unit_type", Message: "cannot be empty"}
	}
	if len(unitType) > MaxUnitTypeLength {
		return &ValidationError{Field: "unit_type", Message: fmt.Sprintf("exceeds maximum length of %d", MaxUnitTypeLength)}
	}
	if !unitTypeRegex.MatchString(unitType) {
		return &ValidationError{Field: "unit_type", Message: "must be lower_snake_case"}
	}
	return nil
}

// ValidatePlayerID checks that a player id is positive.
func ValidatePlayerID(playerID int64) error {
	if playerID <= 0 {
		return &ValidationError{Field: "player_id", Message: "must be positive"}
	}
	return nil
}
