// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/axosm/axosm/pkg/errutil"
)

func newTestLogger(t *testing.T, opts Options) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts.Writer = &buf
	logger, err := New(opts)
	require.NoError(t, err)
	return logger, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse JSON: %s", buf.String())
	return entry
}

func TestNew_JSONFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm", Version: "1.0.0", Format: "json"})
	logger.Info("order resolved", "order_id", "01J")

	entry := decode(t, buf)
	assert.Equal(t, "order resolved", entry["msg"])
	assert.Equal(t, "axosm", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "01J", entry["order_id"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestNew_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm", Format: "text"})
	logger.Info("engine started")

	assert.Contains(t, buf.String(), "engine started")
	assert.Contains(t, buf.String(), "service=axosm")
}

func TestNew_DefaultsToJSONAtInfo(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm"})
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Equal(t, "shown", decode(t, buf)["msg"])
}

func TestNew_Level(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Level: "warn"})
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.NotEmpty(t, buf.String())
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "field", "log.format")

	_, err = New(Options{Level: "loud"})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "field", "log.level")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestHandler_TraceContext(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm"})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced message")

	entry := decode(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm"})
	logger.Info("untraced")

	entry := decode(t, buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_WithAttrsKeepsService(t *testing.T) {
	logger, buf := newTestLogger(t, Options{Service: "axosm"})
	logger.With("component", "engine").WithGroup("scan").Info("done", "due", 3)

	entry := decode(t, buf)
	assert.Equal(t, "engine", entry["component"])
	scan, ok := entry["scan"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, scan["due"], 0)
	assert.Equal(t, "axosm", scan["service"])
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger, err := SetDefault(Options{Service: "axosm", Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())
}
