// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package observability

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/axosm/axosm/internal/core"
)

// Metrics holds the engine, bus and API metrics. It implements core.Recorder.
type Metrics struct {
	OrdersResolved prometheus.Counter
	OrderFailures  *prometheus.CounterVec
	Encounters     prometheus.Counter
	ScanErrors     prometheus.Counter
	EventsDropped  prometheus.Counter
	InFlight       prometheus.Gauge
	ResolutionTime prometheus.Histogram
	RequestsTotal  *prometheus.CounterVec
	StreamClients  *prometheus.GaugeVec
}

var _ core.Recorder = (*Metrics)(nil)

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axosm_orders_resolved_total",
			Help: "Move orders resolved.",
		}),
		OrderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axosm_order_failures_total",
			Help: "Move order resolution failures by reason.",
		}, []string{"reason"}),
		Encounters: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axosm_encounters_total",
			Help: "Encounter events emitted.",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axosm_scan_errors_total",
			Help: "Failed due order discovery scans.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axosm_bus_events_dropped_total",
			Help: "Events dropped for slow subscribers.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axosm_engine_inflight",
			Help: "Resolutions currently running.",
		}),
		ResolutionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "axosm_resolution_seconds",
			Help:    "Time to commit a move order, including conflict retries.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axosm_http_requests_total",
			Help: "API requests by route and status code.",
		}, []string{"route", "code"}),
		StreamClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "axosm_stream_clients",
			Help: "Connected event stream clients by transport.",
		}, []string{"transport"}),
	}

	reg.MustRegister(
		m.OrdersResolved,
		m.OrderFailures,
		m.Encounters,
		m.ScanErrors,
		m.EventsDropped,
		m.InFlight,
		m.ResolutionTime,
		m.RequestsTotal,
		m.StreamClients,
	)
	return m
}

// OrderResolved implements core.Recorder.
func (m *Metrics) OrderResolved(took time.Duration) {
	m.OrdersResolved.Inc()
	m.ResolutionTime.Observe(took.Seconds())
}

// OrderFailed implements core.Recorder.
func (m *Metrics) OrderFailed(reason string) {
	m.OrderFailures.WithLabelValues(reason).Inc()
}

// EncounterEmitted implements core.Recorder.
func (m *Metrics) EncounterEmitted() { m.Encounters.Inc() }

// ScanFailed implements core.Recorder.
func (m *Metrics) ScanFailed() { m.ScanErrors.Inc() }

// EventDropped implements core.Recorder.
func (m *Metrics) EventDropped() { m.EventsDropped.Inc() }

// InFlight implements core.Recorder.
func (m *Metrics) InFlight(n int) { m.InFlight.Set(float64(n)) }

// Request counts an API request. It implements api.Recorder.
func (m *Metrics) Request(route string, code int) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// StreamOpened implements api.Recorder.
func (m *Metrics) StreamOpened(transport string) { m.StreamClients.WithLabelValues(transport).Inc() }

// StreamClosed implements api.Recorder.
func (m *Metrics) StreamClosed(transport string) { m.StreamClients.WithLabelValues(transport).Dec() }

// PendingCounter reports pending order counts.
type PendingCounter interface {
	CountPending(ctx context.Context, now time.Time) (pending, due int, err error)
}

// pendingCollector reads the order backlog at scrape time.
type pendingCollector struct {
	orders  PendingCounter
	now     func() time.Time
	timeout time.Duration
	pending *prometheus.Desc
	due     *prometheus.Desc
}

// NewPendingCollector returns a collector exporting axosm_orders_pending and
// axosm_orders_due from orders. now defaults to time.Now.
func NewPendingCollector(orders PendingCounter, now func() time.Time) prometheus.Collector {
	if now == nil {
		now = time.Now
	}
	return &pendingCollector{
		orders:  orders,
		now:     now,
		timeout: 2 * time.Second,
		pending: prometheus.NewDesc("axosm_orders_pending", "Pending move orders.", nil, nil),
		due:     prometheus.NewDesc("axosm_orders_due", "Pending move orders whose arrival time has passed.", nil, nil),
	}
}

func (c *pendingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pending
	ch <- c.due
}

func (c *pendingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	pending, due, err := c.orders.CountPending(ctx, c.now())
	if err != nil {
		slog.Warn("order backlog scrape failed", "error", err)
		ch <- prometheus.NewInvalidMetric(c.pending, err)
		ch <- prometheus.NewInvalidMetric(c.due, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(pending))
	ch <- prometheus.MustNewConstMetric(c.due, prometheus.GaugeValue, float64(due))
}
