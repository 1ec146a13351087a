package gormstore

import (
	"context"
	"testing"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newSeededStore(t *testing.T) storage.Storage {
	t.Helper()
	s := New(openSQLite(t))
	created, err := storage.SeedAdmin(context.Background(), s, "hash")
	require.NoError(t, err)
	require.True(t, created)
	return s
}

func TestGormStore_Contract(t *testing.T) {
	storagetest.Run(t, newSeededStore)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.RegistoPonto{}))
	assert.True(t, db.Migrator().HasIndex(&model.RegistoPonto{}, "idx_registo_user_data"))
}

func TestSeedAdmin_KeepsExistingPassword(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	_, err := s.UpdateUserPassword(ctx, storage.AdminID, "changed")
	require.NoError(t, err)

	created, err := storage.SeedAdmin(ctx, s, "hash")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := s.GetUser(ctx, storage.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "changed", admin.Password)
}

func TestNilConnection_FailsFast(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "admin")
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	_, err = s.ListObras(ctx)
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	_, err = s.GetUserStats(ctx, "admin", storage.StatsWindow{})
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrNotConnected)
	assert.NoError(t, s.Close())
}

func TestUpdateRegistoPonto_EmptyPatchOnMissingRow(t *testing.T) {
	s := newSeededStore(t)
	_, err := s.UpdateRegistoPonto(context.Background(), 42, storage.RegistoPontoPatch{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClosedConnection_ReportsNotConnected(t *testing.T) {
	db := openSQLite(t)
	s := New(db)
	ctx := context.Background()
	_, err := storage.SeedAdmin(ctx, s, "hash")
	require.NoError(t, err)

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.GetUser(ctx, storage.AdminID)
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	_, err = s.ListObras(ctx)
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	_, err = s.CreateObra(ctx, &model.Obra{Codigo: "OB-1", Nome: "Ponte"})
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrNotConnected)
}

func TestClosedConnection_OpensBreaker(t *testing.T) {
	s := New(openSQLite(t))
	ctx := context.Background()

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	for i := 0; i < infra.DefaultCBConfig().FailureThreshold; i++ {
		_, err = s.GetUser(ctx, storage.AdminID)
		require.ErrorIs(t, err, storage.ErrNotConnected)
	}
	assert.Equal(t, infra.CBOpen, s.BreakerState())

	_, err = s.ListObras(ctx)
	assert.ErrorIs(t, err, storage.ErrNotConnected)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

func TestQueryErrors_DoNotTripBreaker(t *testing.T) {
	s := New(openSQLite(t))
	ctx := context.Background()

	for i := 0; i < infra.DefaultCBConfig().FailureThreshold+1; i++ {
		u, err := s.GetUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, u)
		_, err = s.UpdateRegistoPonto(ctx, 42, storage.RegistoPontoPatch{})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
	assert.Equal(t, infra.CBClosed, s.BreakerState())
}
