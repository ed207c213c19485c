// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/axosm/axosm/internal/config"
	"github.com/axosm/axosm/internal/logging"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
}

// NewRootCmd creates the root command for the Axosm CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "axosm",
		Short: "Axosm - persistent space strategy simulation",
		Long: `Axosm runs the authoritative simulation of a persistent space strategy
game: a deterministic world generator, the move order resolution engine
and the event stream players watch their units through.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/axosm/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load (default: .env when present)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(flags, deps))
	cmd.AddCommand(NewMigrateCmd(flags, deps))
	cmd.AddCommand(NewSeedCmd(flags, deps))
	cmd.AddCommand(NewWorldCmd(flags))
	cmd.AddCommand(NewStatusCmd(flags, deps))

	return cmd
}

// load reads the configuration for cmd and validates it.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	return config.Load(config.LoadOptions{File: g.configFile, EnvFile: g.envFile, Flags: cmd.Flags()})
}

// loadUnchecked reads the configuration for cmd without validating it.
func (g *globalFlags) loadUnchecked(cmd *cobra.Command) (config.Config, error) {
	return config.Load(config.LoadOptions{
		File:           g.configFile,
		EnvFile:        g.envFile,
		Flags:          cmd.Flags(),
		SkipValidation: true,
	})
}

// setupLogging installs the configured logger as the slog default. Logs go
// to the command's error stream.
func setupLogging(cmd *cobra.Command, opts logging.Options) (*slog.Logger, error) {
	opts.Version = version
	if opts.Writer == nil {
		opts.Writer = cmd.ErrOrStderr()
	}
	return logging.SetDefault(opts)
}
