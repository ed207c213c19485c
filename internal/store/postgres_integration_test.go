// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/axosm/axosm/internal/store"
)

var _ = Describe("Connect", func() {
	var (
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeEach(func(ctx SpecContext) {
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("axosm_test"),
			postgres.WithUsername("axosm"),
			postgres.WithPassword("axosm"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())
		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func(ctx SpecContext) {
		Expect(container.Terminate(ctx)).To(Succeed())
	})

	It("opens a pool and applies the schema", func(ctx SpecContext) {
		cfg := store.DefaultPoolConfig()
		cfg.URL = connStr

		pool, err := store.Connect(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(migrator.Close)
		Expect(migrator.Up()).To(Succeed())

		Expect(tables(ctx, pool)).To(ContainElements("units", "move_orders"))
	})

	It("rejects a unit whose location columns do not match its kind", func(ctx SpecContext) {
		cfg := store.DefaultPoolConfig()
		cfg.URL = connStr
		pool, err := store.Connect(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(migrator.Close)
		Expect(migrator.Up()).To(Succeed())

		_, err = pool.Exec(ctx, `
			INSERT INTO units (id, player_id, unit_type, location_type, planet_id)
			VALUES ('01HZN3XS000000000000000000', 1, 'scout', 'SPACE', 42)
		`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("units_location_shape"))
	})
})

func tables(ctx context.Context, pool *pgxpool.Pool) []string {
	rows, err := pool.Query(ctx, `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`)
	Expect(err).NotTo(HaveOccurred())
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		Expect(rows.Scan(&name)).To(Succeed())
		names = append(names, name)
	}
	Expect(rows.Err()).NotTo(HaveOccurred())
	return names
}
