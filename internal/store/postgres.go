// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package store opens the PostgreSQL pool and manages the schema.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig configures the database connection pool.
type PoolConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	// ConnectRetries is how many times a failed initial ping is retried.
	ConnectRetries uint64 `koanf:"connect_retries"`
}

// DefaultPoolConfig returns pool defaults. URL is left empty.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        20,
		MinConns:        2,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		ConnectRetries:  5,
	}
}

// Validate checks that the configuration is usable.
func (c PoolConfig) Validate() error {
	switch {
	case c.URL == "":
		return oops.Code("CONFIG_INVALID").With("field", "database.url").Errorf("database url is required")
	case c.MaxConns <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "database.max_conns").Errorf("max_conns must be positive")
	case c.MinConns < 0 || c.MinConns > c.MaxConns:
		return oops.Code("CONFIG_INVALID").With("field", "database.min_conns").
			Errorf("min_conns must be between 0 and max_conns (%d)", c.MaxConns)
	case c.ConnectTimeout <= 0:
		return oops.Code("CONFIG_INVALID").With("field", "database.connect_timeout").Errorf("connect_timeout must be positive")
	}
	return nil
}

// ParsePoolConfig turns cfg into a pgxpool configuration.
func ParsePoolConfig(cfg PoolConfig) (*pgxpool.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("field", "database.url").Wrap(err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	return pc, nil
}

// Connect opens a pool and waits for the database to answer a ping,
// retrying with exponential backoff while it starts up.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := ParsePoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(cfg.ConnectRetries,
		retry.WithCappedDuration(5*time.Second, retry.NewExponential(200*time.Millisecond)))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	return pool, nil
}
