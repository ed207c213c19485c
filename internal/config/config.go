// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package config assembles the process configuration from defaults, an
// optional YAML file, the environment and command-line flags.
package config

import (
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/api"
	"github.com/axosm/axosm/internal/core"
	"github.com/axosm/axosm/internal/logging"
	"github.com/axosm/axosm/internal/store"
	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// BusConfig configures the event bus.
type BusConfig struct {
	SubscriberBuffer int `koanf:"subscriber_buffer"`
}

// MetricsConfig configures the metrics and probe server.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `koanf:"addr"`
}

// Config is the complete process configuration.
type Config struct {
	// Store selects the unit and order backend.
	Store    string             `koanf:"store"`
	Database store.PoolConfig   `koanf:"database"`
	World    worldgen.Config    `koanf:"world"`
	Travel   world.TravelConfig `koanf:"travel"`
	Engine   core.EngineConfig  `koanf:"engine"`
	Bus      BusConfig          `koanf:"bus"`
	API      api.Config         `koanf:"api"`
	Log      logging.Options    `koanf:"log"`
	Metrics  MetricsConfig      `koanf:"metrics"`
}

// Default returns the defaults for every section. Database.URL is left
// empty; it must be supplied when the Postgres store is selected.
func Default() Config {
	return Config{
		Store:    StorePostgres,
		Database: store.DefaultPoolConfig(),
		World:    worldgen.DefaultConfig(),
		Travel:   world.DefaultTravelConfig(),
		Engine:   core.DefaultEngineConfig(),
		Bus:      BusConfig{SubscriberBuffer: core.DefaultSubscriberBuffer},
		API:      api.DefaultConfig(),
		Log:      logging.Options{Service: "axosm", Format: "json", Level: "info"},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Validate checks every section. Database settings are only checked when
// the Postgres store is selected.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case StoreMemory:
	default:
		return oops.Code("CONFIG_INVALID").
			With("field", "store").
			Errorf("unknown store %q, want %q or %q", c.Store, StorePostgres, StoreMemory)
	}
	if c.Bus.SubscriberBuffer <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "bus.subscriber_buffer").
			Errorf("subscriber_buffer must be positive")
	}
	for _, v := range []interface{ Validate() error }{c.World, c.Travel, c.Engine, c.API, c.Log} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
