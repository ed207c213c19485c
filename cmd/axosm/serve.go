// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/axosm/axosm/internal/api"
	"github.com/axosm/axosm/internal/config"
	"github.com/axosm/axosm/internal/core"
	"github.com/axosm/axosm/internal/observability"
	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
	"github.com/axosm/axosm/pkg/errutil"
)

// observabilityStopTimeout bounds the metrics server shutdown.
const observabilityStopTimeout = 5 * time.Second

// serveConfig holds flags local to the serve command.
type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(flags *globalFlags, deps *Deps) *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API, resolution engine and metrics server",
		Long: `Run the simulation: the player API with its event streams, the move
order resolution engine and the metrics and health server. SIGINT or
SIGTERM stops accepting requests, lets in-flight resolutions finish and
exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), appCfg, cfg, cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.autoMigrate, "migrate", false, "apply pending migrations before starting (postgres store only)")

	return cmd
}

// runServeWithDeps runs the server until ctx is cancelled, a signal arrives
// or a server fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg config.Config, serveCfg *serveConfig, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := setupLogging(cmd, cfg.Log)
	if err != nil {
		return oops.Wrapf(err, "set up logging")
	}

	gen, err := worldgen.New(cfg.World)
	if err != nil {
		return err
	}

	logger.Info("starting axosm",
		"store", cfg.Store,
		"api_addr", cfg.API.Addr,
		"world_seed", cfg.World.Seed,
		"world_version", cfg.World.Version,
	)

	if serveCfg.autoMigrate && cfg.Store == config.StorePostgres {
		if err := migrateUp(deps, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("store", cfg.Store).Wrap(err)
	}
	defer backend.Close()

	reg := observability.NewRegistry()
	metrics := observability.NewMetrics(reg)
	reg.MustRegister(observability.NewPendingCollector(backend.Orders, nil))

	bus := core.NewBroadcaster(
		core.WithSubscriberBuffer(cfg.Bus.SubscriberBuffer),
		core.WithBusRecorder(metrics),
	)
	defer bus.Close()

	svc := world.NewService(world.ServiceConfig{
		Units:      backend.Units,
		Orders:     backend.Orders,
		Transactor: backend.Transactor,
		Generator:  gen,
		Travel:     cfg.Travel,
		Logger:     logger,
	})

	engine, err := core.NewEngine(cfg.Engine, core.EngineDeps{
		Units:    backend.Units,
		Orders:   backend.Orders,
		Bus:      bus,
		Recorder: metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, reg, backend.Ready)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), observabilityStopTimeout)
			defer stopCancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiServer := deps.APIServerFactory(cfg.API, api.Deps{
		Service:   svc,
		Generator: gen,
		Bus:       bus,
		Recorder:  metrics,
		Logger:    logger,
	})
	apiErrChan, err := apiServer.Start()
	if err != nil {
		return oops.With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Axosm started")
	logger.Info("axosm ready", "api_addr", apiServer.Addr())

	var runErr error
	engineStopped := false
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case err := <-engineDone:
		engineStopped = true
		if err != nil {
			runErr = oops.With("operation", "run resolution engine").Wrap(err)
			errutil.LogError(logger, "resolution engine stopped unexpectedly", runErr)
		}
	}

	logger.Info("shutting down")

	// New requests are refused before the engine stops publishing.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer stopCancel()
	if err := apiServer.Stop(stopCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}

	cancel()
	if !engineStopped {
		if err := <-engineDone; err != nil {
			slog.Warn("resolution engine stopped with error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// monitorServerErrors cancels ctx when a server reports a failure. It exits
// when an error arrives, the channel is closed, or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
