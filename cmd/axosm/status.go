// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/axosm/axosm/internal/config"
)

// Default timeout for status queries.
const defaultStatusTimeout = 10 * time.Second

// BacklogStatus summarises the order backlog and, for Postgres, the schema.
type BacklogStatus struct {
	Store   string        `json:"store"`
	Pending int           `json:"pending"`
	Due     int           `json:"due"`
	Schema  *SchemaStatus `json:"schema,omitempty"`
}

// SchemaStatus is the migration state of the database.
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	Pending int  `json:"pending_migrations"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd(flags *globalFlags, deps *Deps) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the move order backlog",
		Long: `Show how many move orders are pending and how many of them are already
due, plus the schema version when the Postgres store is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runStatusWithDeps(cmd.Context(), appCfg, cfg, cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultStatusTimeout, "timeout for store queries")

	return cmd
}

func runStatusWithDeps(ctx context.Context, cfg config.Config, statusCfg *statusConfig, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := setupLogging(cmd, cfg.Log); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, statusCfg.timeout)
	defer cancel()

	status, err := queryBacklog(ctx, cfg, deps, time.Now())
	if err != nil {
		return err
	}

	var output string
	if statusCfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return err
		}
	} else {
		output = formatStatusTable(status)
	}

	cmd.Print(output)
	return nil
}

// queryBacklog counts pending and due orders at now.
func queryBacklog(ctx context.Context, cfg config.Config, deps *Deps, now time.Time) (BacklogStatus, error) {
	status := BacklogStatus{Store: cfg.Store}

	if cfg.Store == config.StorePostgres {
		schema, err := querySchema(deps, cfg.Database.URL)
		if err != nil {
			return BacklogStatus{}, err
		}
		status.Schema = schema
	}

	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return BacklogStatus{}, oops.Code("DB_CONNECT_FAILED").With("store", cfg.Store).Wrap(err)
	}
	defer backend.Close()

	status.Pending, status.Due, err = backend.Orders.CountPending(ctx, now)
	if err != nil {
		return BacklogStatus{}, oops.With("operation", "count pending orders").Wrap(err)
	}
	return status, nil
}

func querySchema(deps *Deps, databaseURL string) (*SchemaStatus, error) {
	m, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()
	st, err := m.Status()
	if err != nil {
		return nil, err
	}
	return &SchemaStatus{Version: st.Current, Dirty: st.Dirty, Pending: len(st.Pending)}, nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status BacklogStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "STORE\tPENDING\tDUE\tSCHEMA")
	_, _ = fmt.Fprintln(w, "-----\t-------\t---\t------")

	schema := "-"
	if s := status.Schema; s != nil {
		schema = fmt.Sprintf("v%d", s.Version)
		switch {
		case s.Dirty:
			schema += " (dirty)"
		case s.Pending > 0:
			schema += fmt.Sprintf(" (%d pending)", s.Pending)
		}
	}
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", status.Store, status.Pending, status.Due, schema)

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status BacklogStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Wrapf(err, "marshal status")
	}
	return string(data) + "\n", nil
}
