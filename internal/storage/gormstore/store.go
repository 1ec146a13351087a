// Package gormstore implements storage.Storage on top of gorm. Production
// runs it against PostgreSQL; tests and the sqlite backend kind use the
// pure-Go SQLite dialector.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db  *gorm.DB // guarded session used by every operation
	raw *gorm.DB
	cb  *infra.CircuitBreaker
}

var _ storage.Storage = (*Store)(nil)

// New wraps an open gorm connection. The connection must have been opened
// with TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
// Every statement runs behind a circuit breaker that only counts
// connection-level failures.
func New(db *gorm.DB) *Store {
	if db == nil {
		return &Store{}
	}
	cfg := infra.DefaultCBConfig()
	cfg.IsFailure = isConnLost
	cb := infra.NewCircuitBreaker(cfg)
	return &Store{db: withBreaker(db, cb), raw: db, cb: cb}
}

// DB exposes the underlying connection (health checks, CLI).
func (s *Store) DB() *gorm.DB { return s.raw }

// BreakerState reports the circuit breaker state for health output.
func (s *Store) BreakerState() infra.CBState {
	if s == nil || s.cb == nil {
		return infra.CBClosed
	}
	return s.cb.State()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, storage.ErrNotConnected
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return storage.ErrNotConnected
	}
	sqlDB, err := s.raw.DB()
	if err != nil {
		return notConnected(err)
	}
	err = s.cb.Execute(func() error { return sqlDB.PingContext(ctx) })
	if errors.Is(err, infra.ErrCircuitOpen) || isConnLost(err) {
		return notConnected(err)
	}
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.raw.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table, then applies the PostgreSQL-only
// patches AutoMigrate cannot express. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Obra{},
		&model.RegistoPonto{},
		&model.Equipa{},
		&model.EquipaMembro{},
		&model.ParteDiaria{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL: enum CHECK constraints and the
// partial index used to find open time records.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_users_tipo_user') THEN
		    ALTER TABLE users ADD CONSTRAINT chk_users_tipo_user
		      CHECK (tipo_user IN ('Trabalhador', 'Encarregado', 'Diretor'));
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_obras_estado') THEN
		    ALTER TABLE obras ADD CONSTRAINT chk_obras_estado
		      CHECK (estado IN ('Ativa', 'Pausada', 'Concluida'));
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_partes_diarias_categoria') THEN
		    ALTER TABLE partes_diarias ADD CONSTRAINT chk_partes_diarias_categoria
		      CHECK (categoria IN ('MaoObra', 'Materiais', 'Equipamentos'));
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_registo_ponto_open
		    ON registo_ponto (user_id)
		    WHERE hora_entrada IS NOT NULL AND hora_saida IS NULL`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// translate maps gorm errors onto the storage sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return storage.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return storage.ErrNotFound
	case isConnLost(err):
		return notConnected(err)
	}
	return err
}

// first runs q.First into a new T, mapping "no row" to (nil, nil).
func first[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// exists reports whether a row of model m with the given id is present.
func exists(db *gorm.DB, m interface{}, id interface{}) (bool, error) {
	var n int64
	if err := db.Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// omitRefs keeps Create from touching belongs-to / has-many associations.
func omitRefs(db *gorm.DB) *gorm.DB { return db.Omit(clause.Associations) }
