// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/pkg/errutil"
)

// isolate points every implicit source at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("DATABASE_URL", "")
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_Validate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "field", "database.url")

	cfg.Database.URL = "postgres://localhost/axosm"
	require.NoError(t, cfg.Validate())

	mem := Default()
	mem.Store = StoreMemory
	require.NoError(t, mem.Validate())
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, "store"},
		{"bus buffer", func(c *Config) { c.Bus.SubscriberBuffer = 0 }, "bus.subscriber_buffer"},
		{"world version", func(c *Config) { c.World.Version = 0 }, "world.version"},
		{"travel base", func(c *Config) { c.Travel.Base = 0 }, "travel.base"},
		{"engine workers", func(c *Config) { c.Engine.Workers = 0 }, "engine.workers"},
		{"api addr", func(c *Config) { c.API.Addr = "" }, "api.addr"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store = StoreMemory
			tt.mod(&cfg)
			err := cfg.Validate()
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	isolate(t)
	t.Setenv("AXOSM_STORE", "memory")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	want := Default()
	want.Store = StoreMemory
	assert.Equal(t, want, cfg)
}

func TestLoad_Layering(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "axosm.yaml"), `
store: memory
world:
  seed: 7
engine:
  interval: 250ms
  workers: 4
api:
  addr: ":9000"
  allowed_origins:
    - https://a.example
    - https://b.example
log:
  level: warn
`)
	t.Setenv("AXOSM_API__ADDR", ":9001")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))

	cfg, err := Load(LoadOptions{File: path, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, uint64(7), cfg.World.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.Interval)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, Default().Engine.BatchSize, cfg.Engine.BatchSize, "keys absent from every source keep their default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.Equal(t, ":9001", cfg.API.Addr, "environment overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level, "flags override the file")
	assert.Equal(t, Default().Metrics.Addr, cfg.Metrics.Addr, "unset flags do not override")
}

func TestLoad_DatabaseURL(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://from-env/axosm")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://from-env/axosm", cfg.Database.URL)

	t.Setenv("AXOSM_DATABASE__URL", "postgres://prefixed/axosm")
	cfg, err = Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed/axosm", cfg.Database.URL)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--database-url", "postgres://flag/axosm"}))
	cfg, err = Load(LoadOptions{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/axosm", cfg.Database.URL)
}

func TestLoad_EnvironmentLists(t *testing.T) {
	isolate(t)
	t.Setenv("AXOSM_STORE", "memory")
	t.Setenv("AXOSM_API__ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("AXOSM_API__RATE_LIMIT", "2.5")
	t.Setenv("AXOSM_API__TRUST_PROXY", "true")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.InDelta(t, 2.5, cfg.API.RateLimit, 1e-9)
	assert.True(t, cfg.API.TrustProxy)
}

func TestLoad_DefaultEnvFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultEnvFile), "AXOSM_STORE=memory\nAXOSM_METRICS__ADDR=\"\"\nAXOSM_API__ADDR=:7000\n")
	t.Setenv("AXOSM_API__ADDR", ":7100")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, ":7100", cfg.API.Addr, "variables already in the environment win over .env")
}

func TestLoad_XDGConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "xdg", "axosm", "config.yaml"), "store: memory\nbus:\n  subscriber_buffer: 8\n")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 8, cfg.Bus.SubscriberBuffer)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) LoadOptions
		code  string
	}{
		{
			name: "missing config file",
			setup: func(_ *testing.T, dir string) LoadOptions {
				return LoadOptions{File: filepath.Join(dir, "nope.yaml")}
			},
			code: "CONFIG_LOAD_FAILED",
		},
		{
			name: "missing env file",
			setup: func(_ *testing.T, dir string) LoadOptions {
				return LoadOptions{EnvFile: filepath.Join(dir, "nope.env")}
			},
			code: "CONFIG_LOAD_FAILED",
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T, dir string) LoadOptions {
				return LoadOptions{File: writeFile(t, filepath.Join(dir, "bad.yaml"), "store: [memory\n")}
			},
			code: "CONFIG_LOAD_FAILED",
		},
		{
			name: "undecodable value",
			setup: func(t *testing.T, _ string) LoadOptions {
				t.Setenv("AXOSM_STORE", "memory")
				t.Setenv("AXOSM_ENGINE__WORKERS", "many")
				return LoadOptions{}
			},
			code: "CONFIG_INVALID",
		},
		{
			name: "invalid value",
			setup: func(t *testing.T, _ string) LoadOptions {
				t.Setenv("AXOSM_STORE", "memory")
				t.Setenv("AXOSM_ENGINE__WORKERS", "0")
				return LoadOptions{}
			},
			code: "CONFIG_INVALID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			_, err := Load(tt.setup(t, dir))
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestEnvKey(t *testing.T) {
	key, val := envKey("AXOSM_ENGINE__RESOLVE_TIMEOUT", "3s")
	assert.Equal(t, "engine.resolve_timeout", key)
	assert.Equal(t, "3s", val)

	key, val = envKey("AXOSM_API__ALLOWED_ORIGINS", "*")
	assert.Equal(t, "api.allowed_origins", key)
	assert.Equal(t, []string{"*"}, val)
}

func TestLoad_SkipValidation(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	cfg, err := Load(LoadOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Empty(t, cfg.Database.URL)
}
