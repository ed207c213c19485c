// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"time"

	"github.com/samber/oops"
)

// Config configures the HTTP API.
type Config struct {
	Addr string `koanf:"addr"`
	// AllowedOrigins lists origins allowed to call the API from a browser.
	// Empty allows same-origin requests only; "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`
	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	TrustProxy bool `koanf:"trust_proxy"`
	// KeepAlive is the interval between stream keepalives.
	KeepAlive       time.Duration `koanf:"keepalive"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		RateLimit:       10,
		RateBurst:       20,
		KeepAlive:       15 * time.Second,
		MaxBodyBytes:    64 << 10,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return oops.Code("CONFIG_INVALID").With("field", "api.addr").Errorf("api address is required")
	case c.RateLimit < 0:
		return oops.Code("CONFIG_INVALID").With("field", "api.rate_limit").Errorf("rate_limit cannot be negative")
	case c.RateLimit > 0 && c.RateBurst <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "api.rate_burst").Errorf("rate_burst must be positive when rate limiting")
	case c.KeepAlive <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "api.keepalive").Errorf("keepalive must be positive")
	case c.MaxBodyBytes <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "api.max_body_bytes").Errorf("max_body_bytes must be positive")
	}
	return nil
}
