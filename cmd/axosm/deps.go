// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/axosm/axosm/internal/api"
	"github.com/axosm/axosm/internal/config"
	"github.com/axosm/axosm/internal/observability"
	"github.com/axosm/axosm/internal/store"
	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/world/memory"
	"github.com/axosm/axosm/internal/world/postgres"
)

// Deps contains injectable dependencies for the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// BackendOpener opens the unit and order store selected by the config.
	// Default: openBackend
	BackendOpener func(ctx context.Context, cfg config.Config) (*Backend, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and probe server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, gatherer prometheus.Gatherer, ready observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the player API server.
	// Default: api.NewServer
	APIServerFactory func(cfg api.Config, deps api.Deps) APIServer
}

// withDefaults returns a copy of d with every nil field set.
func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.BackendOpener == nil {
		out.BackendOpener = openBackend
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, gatherer prometheus.Gatherer, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, gatherer, ready)
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(cfg api.Config, deps api.Deps) APIServer {
			return api.NewServer(cfg, deps)
		}
	}
	return &out
}

// Backend is an open unit and order store.
type Backend struct {
	Units      world.UnitRepository
	Orders     world.OrderRepository
	Transactor world.Transactor
	// Ready reports whether the store can take traffic. Nil is always ready.
	Ready observability.ReadinessChecker
	// Close releases the store.
	Close func()
}

// openBackend opens the store named by cfg.Store.
func openBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	if cfg.Store == config.StoreMemory {
		return memoryBackend(memory.NewStore()), nil
	}
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Units:      postgres.NewUnitRepository(pool),
		Orders:     postgres.NewOrderRepository(pool),
		Transactor: postgres.NewTransactor(pool),
		Ready:      pool.Ping,
		Close:      pool.Close,
	}, nil
}

// memoryBackend wraps an in-memory store.
func memoryBackend(s *memory.Store) *Backend {
	return &Backend{
		Units:      s,
		Orders:     s.Orders(),
		Transactor: s,
		Close:      func() {},
	}
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// APIServer wraps the methods used from api.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
