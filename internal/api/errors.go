// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
	"github.com/axosm/axosm/pkg/errutil"
)

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var verr *world.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, world.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, world.ErrInvalidDestination),
		errors.Is(err, world.ErrInvalidLocation),
		errors.Is(err, worldgen.ErrInvalidAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorKind is the "error" field of a reply: the oops code when the error
// carries one, otherwise a name derived from the status.
func errorKind(err error, status int) string {
	if code := errutil.Code(err); code != "" && status < http.StatusInternalServerError {
		return code
	}
	var verr *world.ValidationError
	switch {
	case errors.As(err, &verr):
		return "VALIDATION_FAILED"
	case status == http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "INTERNAL"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: errorKind(err, status), Message: err.Error()}

	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), s.logger, "request failed", err)
		resp.Message = errutil.Public(err, http.StatusText(status))
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
