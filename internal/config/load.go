// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/axosm/axosm/internal/xdg"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: AXOSM_API__ADDR sets api.addr.
const EnvPrefix = "AXOSM_"

// DefaultEnvFile is loaded into the environment when present.
const DefaultEnvFile = ".env"

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"api.allowed_origins": true,
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"store":           "store",
	"database-url":    "database.url",
	"api-addr":        "api.addr",
	"allowed-origins": "api.allowed_origins",
	"metrics-addr":    "metrics.addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"world-seed":      "world.seed",
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is a YAML config file that must exist. When empty, config.yaml in
	// the XDG config directory is read if present.
	File string
	// EnvFile is a dotenv file that must exist. When empty, DefaultEnvFile is
	// read if present. Variables already set in the environment win.
	EnvFile string
	// Flags overrides keys for the flags the user set. See BindFlags.
	Flags *pflag.FlagSet
	// SkipValidation returns the merged configuration unchecked. Callers
	// validate the sections they use.
	SkipValidation bool
}

// Load builds the configuration. Later sources override earlier ones:
// defaults, the config file, DATABASE_URL, AXOSM_ variables, then flags.
// The result is validated unless opts.SkipValidation is set.
func Load(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if err := loadFile(k, opts.File); err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "DATABASE_URL").Wrap(err)
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}
	if opts.Flags != nil {
		flags := opts.Flags
		provider := posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "decode configuration")
	}
	if opts.SkipValidation {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if path == "" {
		def, err := xdg.ConfigFile()
		if err != nil {
			return nil
		}
		if _, err := os.Stat(def); err != nil {
			return nil
		}
		path = def
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
	}
	return nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
}

// envKey maps AXOSM_API__ALLOWED_ORIGINS to api.allowed_origins.
func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return key, out
	}
	return key, value
}

// BindFlags registers the configuration flags on fs. Their defaults are
// informational: only flags the user sets override other sources.
func BindFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("store", def.Store, `unit and order store ("postgres" or "memory")`)
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.String("api-addr", def.API.Addr, "API listen address")
	fs.StringSlice("allowed-origins", nil, "browser origins allowed to call the API")
	fs.String("metrics-addr", def.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", def.Log.Format, "log format (json or text)")
	fs.Uint64("world-seed", def.World.Seed, "galaxy seed")
}
