// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/axosm/axosm/internal/config"
	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
	"github.com/axosm/axosm/pkg/errutil"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// homeScanLimit bounds the search for a home planet along the x axis.
const homeScanLimit = 10000

// Well-known demo unit IDs. Fixed IDs make reseeding hit a unique violation
// instead of creating duplicates.
var (
	seedScoutA   = ulid.MustParse("01J00000000000000000000001")
	seedFrigateA = ulid.MustParse("01J00000000000000000000002")
	seedScoutB   = ulid.MustParse("01J00000000000000000000003")
	seedFrigateB = ulid.MustParse("01J00000000000000000000004")
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(flags *globalFlags, deps *Deps) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo players and units",
		Long: `Creates two demo players with a scout and a frigate each, around the
first generated planet with a surface. Player 2's scout sits one tile away
from player 1's, so moving either onto the other's tile produces an
encounter. This command is idempotent - it will not create duplicates if
run multiple times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runSeedWithDeps(cmd.Context(), appCfg, cfg, cmd, deps)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeedWithDeps(ctx context.Context, cfg config.Config, seedCfg *seedConfig, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := setupLogging(cmd, cfg.Log)
	if err != nil {
		return err
	}

	gen, err := worldgen.New(cfg.World)
	if err != nil {
		return err
	}
	units, err := demoUnits(gen)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, seedCfg.timeout)
	defer cancel()

	if cfg.Store == config.StorePostgres {
		cmd.Println("Running migrations...")
		if err := migrateUp(deps, cfg.Database.URL); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	cmd.Println("Connecting to store...")
	backend, err := deps.BackendOpener(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to store").Wrap(err)
	}
	defer backend.Close()

	svc := world.NewService(world.ServiceConfig{
		Units:      backend.Units,
		Orders:     backend.Orders,
		Transactor: backend.Transactor,
		Generator:  gen,
		Travel:     cfg.Travel,
		Logger:     logger,
	})

	created := 0
	for _, unit := range units {
		want := *unit
		err := svc.CreateUnit(ctx, unit)
		if err == nil {
			created++
			cmd.Printf("Created %s %s for player %d at %s\n", unit.UnitType, unit.ID, unit.PlayerID, unit.Location)
			continue
		}
		if !isDuplicate(err) {
			return oops.Code("SEED_FAILED").With("unit_id", unit.ID.String()).Wrap(err)
		}

		cmd.Printf("Unit %s already exists, skipping\n", unit.ID)
		existing, getErr := backend.Units.Get(ctx, unit.ID)
		if getErr != nil {
			errutil.LogError(logger, "could not verify existing seed unit", getErr)
			continue
		}
		for _, m := range seedMismatches(&want, existing) {
			logger.Warn("seed unit mismatch",
				"unit_id", unit.ID.String(),
				"field", m.field,
				"expected", m.expected,
				"actual", m.actual,
			)
		}
	}

	if created == 0 {
		logger.Info("world already seeded")
	}
	cmd.Println("World seeding complete!")
	return nil
}

// demoUnits places the demo units around the first planet with a surface.
func demoUnits(gen *worldgen.Generator) ([]*world.Unit, error) {
	home, err := findHomePlanet(gen)
	if err != nil {
		return nil, err
	}
	surfaceA, err := world.NewPlanetSurface(home.ID, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	surfaceB, err := world.NewPlanetSurface(home.ID, 0, 1, 0)
	if err != nil {
		return nil, err
	}
	orbit, err := world.NewOrbit(home.ID)
	if err != nil {
		return nil, err
	}
	space, err := world.NewSpace(home.Address.System.ID())
	if err != nil {
		return nil, err
	}

	return []*world.Unit{
		{ID: seedScoutA, PlayerID: 1, UnitType: "scout", Location: surfaceA},
		{ID: seedFrigateA, PlayerID: 1, UnitType: "frigate", Location: orbit},
		{ID: seedScoutB, PlayerID: 2, UnitType: "scout", Location: surfaceB},
		{ID: seedFrigateB, PlayerID: 2, UnitType: "frigate", Location: space},
	}, nil
}

// findHomePlanet returns the first existing planet with a surface along the
// x axis of the galactic plane.
func findHomePlanet(gen *worldgen.Generator) (worldgen.Planet, error) {
	for x := range int32(homeScanLimit) {
		sys, err := gen.System(worldgen.SystemAddress{X: x})
		if err != nil {
			return worldgen.Planet{}, err
		}
		for orbit := range sys.PlanetCount {
			p, err := gen.Planet(worldgen.PlanetAddress{System: sys.Address, Orbit: orbit})
			if err != nil {
				return worldgen.Planet{}, err
			}
			if p.Exists && p.HasSurface {
				return p, nil
			}
		}
	}
	return worldgen.Planet{}, oops.Code("SEED_FAILED").
		With("scan_limit", homeScanLimit).
		Errorf("no planet with a surface found")
}

// isDuplicate reports whether err is a unique violation on create.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}
	return errutil.Code(err) == "UNIT_EXISTS"
}

type seedMismatch struct {
	field    string
	expected string
	actual   string
}

// seedMismatches compares a stored seed unit with the one seed would create.
func seedMismatches(want, got *world.Unit) []seedMismatch {
	var out []seedMismatch
	if want.PlayerID != got.PlayerID {
		out = append(out, seedMismatch{"player_id", strconv.FormatInt(want.PlayerID, 10), strconv.FormatInt(got.PlayerID, 10)})
	}
	if want.UnitType != got.UnitType {
		out = append(out, seedMismatch{"unit_type", want.UnitType, got.UnitType})
	}
	if want.Location != got.Location {
		out = append(out, seedMismatch{"location", want.Location.String(), locationString(got.Location)})
	}
	return out
}

func locationString(l world.Location) string {
	if l == nil {
		return "<none>"
	}
	return l.String()
}
