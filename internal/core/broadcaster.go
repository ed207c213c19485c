// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultSubscriberBuffer is the per-subscriber buffer size.
const DefaultSubscriberBuffer = 128

// ErrClosed is returned by Recv once the subscription is closed.
var ErrClosed = errors.New("subscription closed")

// LaggedError reports that a subscriber fell behind and Missed events were
// dropped instead of blocking the publisher.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged: %d events dropped", e.Missed)
}

// Broadcaster fans events out to subscribers. Publish never blocks: each
// subscriber has a bounded buffer, and events that do not fit are dropped
// and counted against that subscriber.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	rec    Recorder
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithSubscriberBuffer sets the per-subscriber buffer size.
func WithSubscriberBuffer(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithBusRecorder records dropped events.
func WithBusRecorder(rec Recorder) BroadcasterOption {
	return func(b *Broadcaster) {
		if rec != nil {
			b.rec = rec
		}
	}
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		subs:   make(map[*Subscription]struct{}),
		buffer: DefaultSubscriberBuffer,
		rec:    NopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is one subscriber's view of the bus, starting at the moment
// it subscribed.
type Subscription struct {
	b       *Broadcaster
	ch      chan Event
	filter  func(Event) bool
	dropped atomic.Uint64
}

// Subscribe registers a subscriber. A nil filter receives every event.
// Subscribing to a closed broadcaster returns an already closed subscription.
func (b *Broadcaster) Subscribe(filter func(Event) bool) *Subscription {
	sub := &Subscription{
		b:      b,
		ch:     make(chan Event, b.buffer),
		filter: filter,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish offers the event to every matching subscriber and returns how many
// accepted it. Having no subscribers is not an error.
func (b *Broadcaster) Publish(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub := range b.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
			delivered++
		default:
			sub.dropped.Add(1)
			b.rec.EventDropped()
			slog.Debug("event dropped: subscriber buffer full",
				"event_id", event.ID.String(),
				"event_type", event.Type,
			)
		}
	}
	return delivered
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription. Later publishes are discarded.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
	}
	clear(b.subs)
}

// Events returns the raw event channel. Callers reading it directly should
// poll Missed to learn about dropped events.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Missed returns and resets the number of events dropped since the last call.
func (s *Subscription) Missed() uint64 {
	return s.dropped.Swap(0)
}

// Recv returns the next event. If events were dropped since the previous
// call it first returns a *LaggedError with the count; the subscription stays
// usable afterwards. It returns ErrClosed once the subscription is closed and
// drained.
func (s *Subscription) Recv(ctx context.Context) (Event, error) {
	if n := s.Missed(); n > 0 {
		return Event{}, &LaggedError{Missed: n}
	}
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, ErrClosed
		}
		return ev, nil
	}
}

// Close unsubscribes.
func (s *Subscription) Close() {
	s.b.Unsubscribe(s)
}
