// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package core

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/pkg/errutil"
)

// EngineConfig tunes the resolution engine.
type EngineConfig struct {
	// Interval between due-order scans.
	Interval time.Duration `koanf:"interval"`
	// Workers bounds concurrent resolutions.
	Workers int `koanf:"workers"`
	// BatchSize bounds the due orders fetched per scan.
	BatchSize int `koanf:"batch_size"`
	// ResolveTimeout bounds a single resolution, including retries.
	ResolveTimeout time.Duration `koanf:"resolve_timeout"`
	// ConflictRetries is how many times a conflicting transaction is retried
	// within one resolution attempt.
	ConflictRetries uint64 `koanf:"conflict_retries"`
	// MaxBackoff caps the pause after repeated discovery failures.
	MaxBackoff time.Duration `koanf:"max_backoff"`
}

// DefaultEngineConfig returns the default engine tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Interval:        time.Second,
		Workers:         16,
		BatchSize:       256,
		ResolveTimeout:  10 * time.Second,
		ConflictRetries: 3,
		MaxBackoff:      30 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c EngineConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "engine.interval").Errorf("scan interval must be positive")
	case c.Workers <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "engine.workers").Errorf("worker count must be positive")
	case c.BatchSize <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "engine.batch_size").Errorf("batch size must be positive")
	case c.ResolveTimeout <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "engine.resolve_timeout").Errorf("resolve timeout must be positive")
	case c.MaxBackoff < c.Interval:
		return oops.Code("CONFIG_INVALID").With("field", "engine.max_backoff").Errorf("max backoff must be at least the scan interval")
	}
	return nil
}

// EngineDeps holds the collaborators of an Engine.
type EngineDeps struct {
	Units  world.UnitRepository
	Orders world.OrderRepository
	Bus    *Broadcaster
	// Recorder defaults to NopRecorder.
	Recorder Recorder
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine resolves due move orders. Each scan finds pending orders whose
// arrival time has passed and hands them to a bounded worker pool; each
// worker commits the move, looks for units of other players at the
// destination and publishes the resulting events.
//
// A unit has at most one resolution in flight, and only its earliest due
// order is dispatched per scan. When the pool is full the remaining due
// orders stay pending until a later scan. Orders that can never resolve are
// marked failed so they stop occupying the scan batch.
type Engine struct {
	units  world.UnitRepository
	orders world.OrderRepository
	bus    *Broadcaster
	cfg    EngineConfig
	rec    Recorder
	logger *slog.Logger
	now    func() time.Time
	tracer trace.Tracer

	group *errgroup.Group

	mu             sync.Mutex
	inflightOrders map[ulid.ULID]struct{}
	inflightUnits  map[ulid.ULID]struct{}

	running  atomic.Bool
	stopping atomic.Bool
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig, deps EngineDeps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Units == nil || deps.Orders == nil {
		return nil, oops.Code("ENGINE_INVALID").Errorf("unit and order repositories are required")
	}
	e := &Engine{
		units:          deps.Units,
		orders:         deps.Orders,
		bus:            deps.Bus,
		cfg:            cfg,
		rec:            deps.Recorder,
		logger:         deps.Logger,
		now:            deps.Now,
		tracer:         otel.Tracer("axosm/core"),
		group:          &errgroup.Group{},
		inflightOrders: make(map[ulid.ULID]struct{}),
		inflightUnits:  make(map[ulid.ULID]struct{}),
	}
	if e.rec == nil {
		e.rec = NopRecorder{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.group.SetLimit(cfg.Workers)
	return e, nil
}

// Run scans for due orders every interval until ctx is cancelled. After
// repeated discovery failures it backs off exponentially, up to MaxBackoff.
// On cancellation it stops dispatching and waits for in-flight resolutions
// to finish before returning.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return oops.Code("ENGINE_RUNNING").Errorf("engine already running")
	}
	defer e.running.Store(false)

	e.logger.InfoContext(ctx, "resolution engine started",
		"interval", e.cfg.Interval,
		"workers", e.cfg.Workers,
	)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	backoff := e.newBackoff()
	var resumeAt time.Time

	for {
		select {
		case <-ctx.Done():
			e.stopping.Store(true)
			e.Wait()
			e.stopping.Store(false)
			e.logger.Info("resolution engine stopped")
			return nil
		case tick := <-ticker.C:
			if tick.Before(resumeAt) {
				continue
			}
			if _, err := e.Scan(ctx); err != nil {
				delay, _ := backoff.Next()
				resumeAt = tick.Add(delay)
				errutil.LogError(e.logger, "due order discovery failed", err)
				e.logger.Warn("backing off discovery", "delay", delay)
				continue
			}
			backoff = e.newBackoff()
			resumeAt = time.Time{}
		}
	}
}

func (e *Engine) newBackoff() retry.Backoff {
	return retry.WithCappedDuration(e.cfg.MaxBackoff, retry.NewExponential(e.cfg.Interval))
}

// Scan discovers due orders and dispatches them to the worker pool without
// waiting for them. It returns how many resolutions were dispatched.
func (e *Engine) Scan(ctx context.Context) (int, error) {
	if e.stopping.Load() {
		return 0, nil
	}
	ctx, span := e.tracer.Start(ctx, "engine.scan")
	defer span.End()

	due, err := e.orders.ListDue(ctx, e.now(), e.cfg.BatchSize)
	if err != nil {
		e.rec.ScanFailed()
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return 0, oops.Code("DISCOVERY_FAILED").Wrap(err)
	}

	dispatched := 0
	seen := make(map[ulid.ULID]struct{}, len(due))
	for _, d := range due {
		// Due orders arrive sorted, so the first one seen for a unit is its
		// earliest. Later ones wait for the next scan even if the claim fails.
		if _, ok := seen[d.UnitID]; ok {
			continue
		}
		seen[d.UnitID] = struct{}{}
		if !e.claim(d) {
			continue
		}
		if !e.group.TryGo(func() error {
			e.process(ctx, d)
			return nil
		}) {
			e.release(d)
			e.logger.Debug("worker pool saturated, deferring due orders",
				"deferred", len(due)-dispatched)
			break
		}
		dispatched++
	}
	span.SetAttributes(attribute.Int("orders.due", len(due)), attribute.Int("orders.dispatched", dispatched))
	return dispatched, nil
}

// Wait blocks until every dispatched resolution has finished.
func (e *Engine) Wait() {
	_ = e.group.Wait()
}

// ResolveDue runs one scan and waits for its resolutions.
func (e *Engine) ResolveDue(ctx context.Context) (int, error) {
	n, err := e.Scan(ctx)
	e.Wait()
	return n, err
}

// claim marks the order and its unit in flight. It fails when either is
// already being resolved.
func (e *Engine) claim(d world.DueOrder) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflightOrders[d.ID]; busy {
		return false
	}
	if _, busy := e.inflightUnits[d.UnitID]; busy {
		return false
	}
	e.inflightOrders[d.ID] = struct{}{}
	e.inflightUnits[d.UnitID] = struct{}{}
	e.rec.InFlight(len(e.inflightOrders))
	return true
}

func (e *Engine) release(d world.DueOrder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflightOrders, d.ID)
	delete(e.inflightUnits, d.UnitID)
	e.rec.InFlight(len(e.inflightOrders))
}

// process resolves one order. It detaches from the scan's cancellation so
// shutdown lets the resolution commit or roll back on its own. The
// resolution gets its own trace, linked to the scan that dispatched it.
func (e *Engine) process(parent context.Context, d world.DueOrder) {
	defer e.release(d)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), e.cfg.ResolveTimeout)
	defer cancel()

	logger := e.logger.With("order_id", d.ID.String(), "unit_id", d.UnitID.String())
	events, err := e.resolveOrder(ctx, d,
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(parent)),
	)
	if err != nil {
		switch {
		case errors.Is(err, world.ErrEarlierOrderPending):
			e.rec.OrderFailed(FailureDeferred)
			logger.Debug("deferring due order: an earlier order of the unit is pending")
		case world.IsUnresolvable(err):
			reason := FailureInvariant
			if errors.Is(err, world.ErrNotFound) {
				reason = FailureNotFound
			}
			e.rec.OrderFailed(reason)
			errutil.LogError(logger, "due order cannot resolve, marking it failed", err)
			e.markFailed(ctx, logger, d, cmp.Or(errutil.Code(err), reason))
		default:
			e.rec.OrderFailed(FailureStore)
			errutil.LogError(logger, "order resolution failed, will retry", err)
		}
		return
	}

	for _, ev := range events {
		if e.bus != nil {
			e.bus.Publish(ev)
		}
	}
}

// markFailed takes an unresolvable order out of discovery. An order that
// vanished or left pending meanwhile needs nothing more.
func (e *Engine) markFailed(ctx context.Context, logger *slog.Logger, d world.DueOrder, reason string) {
	err := e.orders.MarkFailed(ctx, d.ID, reason, e.now())
	if err == nil || errors.Is(err, world.ErrNotFound) || errors.Is(err, world.ErrOrderResolved) {
		return
	}
	errutil.LogError(logger, "failed to mark order failed", err)
}

// ResolveOrder commits one due order and returns the events it produced.
// Resolving an order that already resolved is a no-op returning no events.
// On error the order is left pending.
func (e *Engine) ResolveOrder(ctx context.Context, d world.DueOrder) ([]Event, error) {
	return e.resolveOrder(ctx, d)
}

func (e *Engine) resolveOrder(ctx context.Context, d world.DueOrder, opts ...trace.SpanStartOption) ([]Event, error) {
	opts = append(opts, trace.WithAttributes(attribute.String("order.id", d.ID.String())))
	ctx, span := e.tracer.Start(ctx, "engine.resolve", opts...)
	defer span.End()

	start := time.Now()
	backoff := retry.WithMaxRetries(e.cfg.ConflictRetries, retry.NewExponential(25*time.Millisecond))
	res, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*world.Resolution, error) {
		res, err := e.orders.Resolve(ctx, d.ID, d.UnitID, e.now())
		if world.IsRetryable(err) {
			return nil, retry.RetryableError(err)
		}
		return res, err
	})
	if errors.Is(err, world.ErrOrderResolved) {
		e.logger.DebugContext(ctx, "order already resolved", "order_id", d.ID.String())
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, oops.With("order_id", d.ID.String()).Wrap(err)
	}
	e.rec.OrderResolved(time.Since(start))

	e.logger.InfoContext(ctx, "order resolved",
		"order_id", d.ID.String(),
		"unit_id", res.Unit.ID.String(),
		"player_id", res.Unit.PlayerID,
		"location", res.Order.Destination.String(),
	)
	return e.eventsFor(ctx, res), nil
}

// eventsFor builds the arrival event and one encounter per unit of another
// player found at the destination after the move committed.
func (e *Engine) eventsFor(ctx context.Context, res *world.Resolution) []Event {
	at := e.now()
	if res.Order.ResolvedAt != nil {
		at = *res.Order.ResolvedAt
	}
	dest := res.Order.Destination

	events := []Event{{
		ID:        NewULIDAt(at),
		Type:      EventTypeArrival,
		Timestamp: at,
		OrderID:   res.Order.ID,
		Location:  dest,
		Arrival: &Arrival{
			PlayerID: res.Unit.PlayerID,
			UnitID:   res.Unit.ID,
			From:     res.Previous,
		},
	}}

	var present []*world.Unit
	err := retry.Do(ctx, retry.WithMaxRetries(2, retry.NewConstant(50*time.Millisecond)), func(ctx context.Context) error {
		units, err := e.units.ListAt(ctx, dest)
		if err != nil {
			return retry.RetryableError(err)
		}
		present = units
		return nil
	})
	if err != nil {
		e.rec.OrderFailed(FailureEncounters)
		errutil.LogError(e.logger, "encounter check failed after commit", err)
		return events
	}

	for _, other := range present {
		if other.ID == res.Unit.ID || other.PlayerID == res.Unit.PlayerID {
			continue
		}
		e.rec.EncounterEmitted()
		events = append(events, Event{
			ID:        NewULIDAt(at),
			Type:      EventTypeEncounter,
			Timestamp: at,
			OrderID:   res.Order.ID,
			Location:  dest,
			Encounter: &Encounter{
				PlayerA: res.Unit.PlayerID,
				PlayerB: other.PlayerID,
				UnitA:   res.Unit.ID,
				UnitB:   other.ID,
			},
		})
	}
	return events
}
