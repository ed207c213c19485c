// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package errutil inspects, logs and asserts errors built with samber/oops.
package errutil

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/samber/oops"
)

// Code returns the oops code carried by err, or "" when it has none.
// Codes set deeper in the chain win over outer ones.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// Public returns the user-safe message attached to err with oops Public, or
// fallback when there is none.
func Public(err error, fallback string) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if msg := oopsErr.Public(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Attrs flattens err into log attributes: the message, the code if any, and
// one attribute per context key in key order.
func Attrs(err error) []slog.Attr {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{slog.String("error", err.Error())}
	if code := Code(err); code != "" {
		attrs = append(attrs, slog.String("code", code))
	}
	ctx := oopsErr.Context()
	for _, key := range slices.Sorted(maps.Keys(ctx)) {
		if key == "error" || key == "code" {
			continue
		}
		attrs = append(attrs, slog.Any(key, ctx[key]))
	}
	return attrs
}

// LogError logs err at error level with its code and context flattened.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError with a context, so handlers can add trace ids.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.LogAttrs(ctx, slog.LevelError, msg, Attrs(err)...)
}
