//go:build integration

package gormstore

// Run with: go test -tags integration ./internal/storage/gormstore/...

import (
	"context"
	"testing"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/storagetest"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestGormStore_Postgres(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("workcrew_test"),
		tcPostgres.WithUsername("workcrew"),
		tcPostgres.WithPassword("workcrew"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// Patches must be safe to re-apply on every boot.
	require.NoError(t, Migrate(db))
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		t.Helper()
		require.NoError(t, db.Exec(`TRUNCATE partes_diarias, equipa_membros, equipa_obra,
			registo_ponto, obras, users RESTART IDENTITY CASCADE`).Error)
		created, err := storage.SeedAdmin(ctx, s, "hash")
		require.NoError(t, err)
		require.True(t, created)
		return s
	})
}
