// Package factory picks and opens the storage backend once at startup.
package factory

import (
	"context"
	"fmt"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/gormstore"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/memory"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/sqlserver"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminPassword is the initial password of the seeded director.
const AdminPassword = "admin123"

// Selection describes the backend chosen at startup.
type Selection struct {
	Kind     string
	Store    storage.Storage
	FellBack bool   // true when the configured backend failed and memory took over
	Reason   string // why the fallback happened
}

// Resolve maps the configured backend to a concrete kind. "auto" prefers
// SQL Server, then PostgreSQL, then memory.
func Resolve(cfg *config.Config) string {
	if cfg.StorageBackend != config.BackendAuto && cfg.StorageBackend != "" {
		return cfg.StorageBackend
	}
	switch {
	case cfg.SQLServerURL != "":
		return config.BackendSQLServer
	case cfg.DatabaseURL != "":
		return config.BackendPostgres
	default:
		return config.BackendMemory
	}
}

// Open connects the configured backend, bootstraps its schema and seeds the
// admin director. When the backend cannot be opened and STORAGE_FALLBACK is
// set, the volatile memory store is returned instead.
func Open(ctx context.Context, cfg *config.Config) (*Selection, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	kind := Resolve(cfg)
	if kind == config.BackendMemory {
		return &Selection{Kind: kind, Store: memory.New(string(hash))}, nil
	}

	store, err := openRelational(ctx, cfg, kind)
	if err == nil && cfg.SeedAdmin {
		if _, err = storage.SeedAdmin(ctx, store, string(hash)); err != nil {
			_ = store.Close()
			err = fmt.Errorf("seed admin: %w", err)
		}
	}
	if err == nil {
		return &Selection{Kind: kind, Store: store}, nil
	}

	if !cfg.StorageFallback {
		return nil, fmt.Errorf("open %s storage: %w", kind, err)
	}
	log.Warn().Err(err).Str("backend", kind).Msg("storage backend unavailable, falling back to memory")
	return &Selection{
		Kind:     config.BackendMemory,
		Store:    memory.New(string(hash)),
		FellBack: true,
		Reason:   fmt.Sprintf("%s: %v", kind, err),
	}, nil
}

func openRelational(ctx context.Context, cfg *config.Config, kind string) (storage.Storage, error) {
	switch kind {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db)
		if err := gormstore.Migrate(db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return s, nil

	case config.BackendSQLite:
		db, err := infra.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db)
		if err := gormstore.Migrate(db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return s, nil

	case config.BackendSQLServer:
		if cfg.SQLServerURL == "" {
			return nil, fmt.Errorf("SQLSERVER_URL is not set")
		}
		db, err := infra.NewSQLServer(cfg.SQLServerURL)
		if err != nil {
			return nil, err
		}
		s := sqlserver.New(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", kind)
}
