// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/axosm/axosm/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("UNIT_NOT_FOUND").Wrap(errors.New("no rows"))
	errutil.AssertErrorCode(t, err, "UNIT_NOT_FOUND")
}

func TestAssertErrorCode_DeepestCode(t *testing.T) {
	inner := oops.Code("TX_CONFLICT").Errorf("serialization failure")
	errutil.AssertErrorCode(t, oops.Code("TX_COMMIT_FAILED").Wrap(inner), "TX_CONFLICT")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("player_id", int64(7)).Errorf("test error")
	errutil.AssertErrorContext(t, err, "player_id", int64(7))
}
