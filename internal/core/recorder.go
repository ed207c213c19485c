// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package core

import "time"

// Recorder receives engine and bus measurements.
type Recorder interface {
	OrderResolved(took time.Duration)
	OrderFailed(reason string)
	EncounterEmitted()
	ScanFailed()
	EventDropped()
	InFlight(n int)
}

// Failure reasons passed to Recorder.OrderFailed.
const (
	FailureNotFound   = "not_found"
	FailureInvariant  = "invariant"
	FailureStore      = "store"
	FailureEncounters = "encounter_query"
	FailureDeferred   = "deferred"
)

// NopRecorder discards all measurements.
type NopRecorder struct{}

// OrderResolved implements Recorder.
func (NopRecorder) OrderResolved(time.Duration) {}

// OrderFailed implements Recorder.
func (NopRecorder) OrderFailed(string) {}

// EncounterEmitted implements Recorder.
func (NopRecorder) EncounterEmitted() {}

// ScanFailed implements Recorder.
func (NopRecorder) ScanFailed() {}

// EventDropped implements Recorder.
func (NopRecorder) EventDropped() {}

// InFlight implements Recorder.
func (NopRecorder) InFlight(int) {}
