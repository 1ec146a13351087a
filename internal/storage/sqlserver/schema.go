package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/rs/zerolog/log"
)

// schemaVersion is bumped whenever createStatements or columnMigrations change.
const schemaVersion = 3

const createMetaTable = `IF OBJECT_ID(N'schema_meta', N'U') IS NULL
CREATE TABLE schema_meta (
    id         INT       NOT NULL PRIMARY KEY,
    version    INT       NOT NULL,
    applied_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
)`

const selectVersion = `SELECT version FROM schema_meta WHERE id = 1`

const upsertVersion = `MERGE schema_meta AS t
USING (SELECT 1 AS id) AS s ON t.id = s.id
WHEN MATCHED THEN UPDATE SET version = @version, applied_at = SYSUTCDATETIME()
WHEN NOT MATCHED THEN INSERT (id, version) VALUES (1, @version);`

// detectStale flags layouts written by earlier releases that cannot be
// migrated additively: the single latitude/longitude pair on registo_ponto
// and obras without a QR token column.
const detectStale = `SELECT CASE
    WHEN OBJECT_ID(N'registo_ponto', N'U') IS NOT NULL AND COL_LENGTH(N'registo_ponto', N'latitude_entrada') IS NULL THEN 1
    WHEN OBJECT_ID(N'obras', N'U') IS NOT NULL AND COL_LENGTH(N'obras', N'qr_code') IS NULL THEN 1
    ELSE 0 END`

// dropStatements run child tables first so foreign keys never block a drop.
var dropStatements = []string{
	`IF OBJECT_ID(N'partes_diarias', N'U') IS NOT NULL DROP TABLE partes_diarias`,
	`IF OBJECT_ID(N'equipa_membros', N'U') IS NOT NULL DROP TABLE equipa_membros`,
	`IF OBJECT_ID(N'equipa_obra', N'U') IS NOT NULL DROP TABLE equipa_obra`,
	`IF OBJECT_ID(N'registo_ponto', N'U') IS NOT NULL DROP TABLE registo_ponto`,
	`IF OBJECT_ID(N'obras', N'U') IS NOT NULL DROP TABLE obras`,
	`IF OBJECT_ID(N'users', N'U') IS NOT NULL DROP TABLE users`,
}

var createStatements = []string{
	`IF OBJECT_ID(N'users', N'U') IS NULL
CREATE TABLE users (
    id                NVARCHAR(64)  NOT NULL PRIMARY KEY,
    username          NVARCHAR(100) NOT NULL CONSTRAINT uq_users_username UNIQUE,
    password          NVARCHAR(255) NOT NULL,
    email             NVARCHAR(255) NULL,
    first_name        NVARCHAR(100) NULL,
    last_name         NVARCHAR(100) NULL,
    profile_image_url NVARCHAR(500) NULL,
    tipo_user         NVARCHAR(20)  NOT NULL DEFAULT 'Trabalhador',
    created_at        DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at        DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME()
)`,
	`IF OBJECT_ID(N'obras', N'U') IS NULL
CREATE TABLE obras (
    id          INT IDENTITY(1,1) NOT NULL PRIMARY KEY,
    codigo      NVARCHAR(50)  NOT NULL CONSTRAINT uq_obras_codigo UNIQUE,
    nome        NVARCHAR(255) NOT NULL,
    estado      NVARCHAR(20)  NOT NULL DEFAULT 'Ativa',
    localizacao NVARCHAR(255) NULL,
    qr_code     NVARCHAR(255) NOT NULL CONSTRAINT uq_obras_qr_code UNIQUE,
    created_at  DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at  DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME()
)`,
	`IF OBJECT_ID(N'registo_ponto', N'U') IS NULL
CREATE TABLE registo_ponto (
    id                      INT IDENTITY(1,1) NOT NULL PRIMARY KEY,
    user_id                 NVARCHAR(64)  NOT NULL REFERENCES users(id),
    data                    NVARCHAR(10)  NOT NULL,
    hora_entrada            DATETIME2     NULL,
    hora_saida              DATETIME2     NULL,
    total_horas_trabalhadas DECIMAL(5,2)  NULL,
    total_tempo_intervalo   DECIMAL(5,2)  NULL,
    latitude_entrada        DECIMAL(10,8) NULL,
    longitude_entrada       DECIMAL(11,8) NULL,
    latitude_saida          DECIMAL(10,8) NULL,
    longitude_saida         DECIMAL(11,8) NULL,
    obra_id                 INT           NULL REFERENCES obras(id),
    created_at              DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at              DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    CONSTRAINT uq_registo_user_data UNIQUE (user_id, data)
)`,
	`IF OBJECT_ID(N'equipa_obra', N'U') IS NULL
CREATE TABLE equipa_obra (
    id             INT IDENTITY(1,1) NOT NULL PRIMARY KEY,
    nome           NVARCHAR(255) NOT NULL,
    obra_id        INT           NOT NULL REFERENCES obras(id),
    encarregado_id NVARCHAR(64)  NOT NULL REFERENCES users(id),
    created_at     DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at     DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME()
)`,
	`IF OBJECT_ID(N'equipa_membros', N'U') IS NULL
CREATE TABLE equipa_membros (
    id         INT IDENTITY(1,1) NOT NULL PRIMARY KEY,
    equipa_id  INT          NOT NULL REFERENCES equipa_obra(id) ON DELETE CASCADE,
    user_id    NVARCHAR(64) NOT NULL REFERENCES users(id),
    created_at DATETIME2    NOT NULL DEFAULT SYSUTCDATETIME(),
    CONSTRAINT uq_equipa_membro UNIQUE (equipa_id, user_id)
)`,
	`IF OBJECT_ID(N'partes_diarias', N'U') IS NULL
CREATE TABLE partes_diarias (
    id            INT IDENTITY(1,1) NOT NULL PRIMARY KEY,
    categoria     NVARCHAR(20)  NOT NULL,
    designacao    NVARCHAR(255) NULL,
    quantidade    DECIMAL(10,2) NULL,
    unidade       NVARCHAR(50)  NULL,
    horas         DECIMAL(5,2)  NULL,
    nome          NVARCHAR(255) NULL,
    especialidade NVARCHAR(100) NULL,
    data          NVARCHAR(10)  NOT NULL,
    user_id       NVARCHAR(64)  NOT NULL REFERENCES users(id),
    obra_id       INT           NOT NULL REFERENCES obras(id),
    created_at    DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at    DATETIME2     NOT NULL DEFAULT SYSUTCDATETIME()
)`,
}

// columnMigrations add columns introduced after a table first shipped.
// They never drop or rewrite data.
var columnMigrations = []struct{ table, column, definition string }{
	{"users", "profile_image_url", "NVARCHAR(500) NULL"},
	{"obras", "localizacao", "NVARCHAR(255) NULL"},
	{"registo_ponto", "total_tempo_intervalo", "DECIMAL(5,2) NULL"},
	{"registo_ponto", "latitude_saida", "DECIMAL(10,8) NULL"},
	{"registo_ponto", "longitude_saida", "DECIMAL(11,8) NULL"},
	{"partes_diarias", "especialidade", "NVARCHAR(100) NULL"},
}

func addColumnSQL(table, column, definition string) string {
	return fmt.Sprintf("IF COL_LENGTH(N'%s', N'%s') IS NULL ALTER TABLE %s ADD %s %s",
		table, column, table, column, definition)
}

// EnsureSchema brings the database to schemaVersion. When schema_meta already
// records the current version nothing else runs. A stale legacy layout is
// dropped and recreated; otherwise missing tables are created and missing
// columns added.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return storage.ErrNotConnected
	}
	db := s.db

	if _, err := db.ExecContext(ctx, createMetaTable); err != nil {
		return fmt.Errorf("schema_meta: %w", err)
	}

	var current int
	err := db.QueryRowContext(ctx, selectVersion).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}
	if current == schemaVersion {
		return nil
	}

	var stale int
	if err := db.QueryRowContext(ctx, detectStale).Scan(&stale); err != nil {
		return fmt.Errorf("detect stale schema: %w", err)
	}
	if stale == 1 {
		log.Warn().Int("from_version", current).Msg("sqlserver: stale schema detected, dropping and recreating tables")
		for _, stmt := range dropStatements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("drop stale table: %w", err)
			}
		}
	}

	for _, stmt := range createStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, m := range columnMigrations {
		if _, err := db.ExecContext(ctx, addColumnSQL(m.table, m.column, m.definition)); err != nil {
			return fmt.Errorf("add column %s.%s: %w", m.table, m.column, err)
		}
	}

	if _, err := db.ExecContext(ctx, upsertVersion, sql.Named("version", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	log.Info().Int("from_version", current).Int("to_version", schemaVersion).Msg("sqlserver: schema ready")
	return nil
}
