// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/axosm/axosm/internal/worldgen"
)

// NewWorldCmd creates the world subcommand.
func NewWorldCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Print generated world content",
		Long: `Print what the world generator derives for an address, as YAML. Only
the world seed and generation version are read from the configuration;
no database is needed.

Negative coordinates must follow "--" so they are not read as flags.`,
	}

	system := &cobra.Command{
		Use:     "system X Y Z",
		Short:   "Print a star system",
		Example: "  axosm world system -- 12 -4 0",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := worldGenerator(cmd, flags)
			if err != nil {
				return err
			}
			addr, err := parseSystemAddress(args)
			if err != nil {
				return err
			}
			sys, err := gen.System(addr)
			if err != nil {
				return err
			}
			return writeYAML(cmd, sys)
		},
	}

	planet := &cobra.Command{
		Use:   "planet PLANET_ID",
		Short: "Print a planet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := worldGenerator(cmd, flags)
			if err != nil {
				return err
			}
			addr, err := parsePlanetID(args[0])
			if err != nil {
				return err
			}
			p, err := gen.Planet(addr)
			if err != nil {
				return err
			}
			return writeYAML(cmd, p)
		},
	}

	tile := &cobra.Command{
		Use:   "tile PLANET_ID FACE U V",
		Short: "Print a surface tile",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := worldGenerator(cmd, flags)
			if err != nil {
				return err
			}
			planetAddr, err := parsePlanetID(args[0])
			if err != nil {
				return err
			}
			coords := make([]int, 3)
			for i, name := range []string{"face", "u", "v"} {
				n, err := parseArg(args[i+1], name, 32)
				if err != nil {
					return err
				}
				coords[i] = int(n)
			}
			addr := worldgen.TileAddress{Planet: planetAddr, Face: coords[0], U: coords[1], V: coords[2]}
			if err := addr.Validate(); err != nil {
				return err
			}
			p, err := gen.Planet(planetAddr)
			if err != nil {
				return err
			}
			if !p.Exists || !p.HasSurface {
				return oops.Code("TILE_NOT_FOUND").
					With("planet_id", int64(p.ID)).
					Errorf("planet %d has no surface", p.ID)
			}
			t, err := gen.Tile(addr)
			if err != nil {
				return err
			}
			return writeYAML(cmd, t)
		},
	}

	cmd.AddCommand(system, planet, tile)
	return cmd
}

// worldGenerator builds a generator from the world section of the config.
func worldGenerator(cmd *cobra.Command, flags *globalFlags) (*worldgen.Generator, error) {
	cfg, err := flags.loadUnchecked(cmd)
	if err != nil {
		return nil, err
	}
	return worldgen.New(cfg.World)
}

func parseSystemAddress(args []string) (worldgen.SystemAddress, error) {
	var coords [3]int32
	for i, name := range []string{"x", "y", "z"} {
		n, err := parseArg(args[i], name, 32)
		if err != nil {
			return worldgen.SystemAddress{}, err
		}
		coords[i] = int32(n)
	}
	addr := worldgen.SystemAddress{X: coords[0], Y: coords[1], Z: coords[2]}
	return addr, addr.Validate()
}

func parsePlanetID(raw string) (worldgen.PlanetAddress, error) {
	id, err := parseArg(raw, "planet_id", 64)
	if err != nil {
		return worldgen.PlanetAddress{}, err
	}
	return worldgen.PlanetID(id).Address()
}

func parseArg(raw, name string, bits int) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, bits)
	if err != nil {
		return 0, oops.Code("INVALID_ARGUMENT").
			With("argument", name).
			With("value", raw).
			Errorf("%s must be an integer", name)
	}
	return n, nil
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return oops.Wrapf(err, "encode yaml")
	}
	return enc.Close()
}
