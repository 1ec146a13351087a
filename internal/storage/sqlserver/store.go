// Package sqlserver implements storage.Storage with hand-written T-SQL over
// database/sql and the go-mssqldb driver. Every call goes through a circuit
// breaker so an unreachable server fails fast with storage.ErrNotConnected.
package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
)

// SQL Server error numbers the store translates.
const (
	errUniqueConstraint = 2627
	errUniqueIndex      = 2601
	errForeignKey       = 547
)

// sqlError is satisfied by mssql.Error without importing the driver here.
type sqlError interface {
	SQLErrorNumber() int32
}

type Store struct {
	db *sql.DB
	cb *infra.CircuitBreaker
}

var _ storage.Storage = (*Store)(nil)

// New wraps db. A nil db yields a store whose every call returns
// storage.ErrNotConnected.
func New(db *sql.DB) *Store {
	cfg := infra.DefaultCBConfig()
	cfg.IsFailure = isConnFailure
	return &Store{db: db, cb: infra.NewCircuitBreaker(cfg)}
}

// BreakerState reports the circuit breaker state for health output.
func (s *Store) BreakerState() infra.CBState { return s.cb.State() }

func (s *Store) Ping(ctx context.Context) error {
	return s.exec(func(db *sql.DB) error { return db.PingContext(ctx) })
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// exec runs fn through the breaker and translates the outcome.
func (s *Store) exec(fn func(db *sql.DB) error) error {
	if s == nil || s.db == nil {
		return storage.ErrNotConnected
	}
	err := s.cb.Execute(func() error { return fn(s.db) })
	if errors.Is(err, infra.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", storage.ErrNotConnected, err)
	}
	return translate(err)
}

// isConnFailure counts only errors that suggest the server is unreachable.
// Server-side errors (constraint violations etc.) prove the link is alive.
func isConnFailure(err error) bool {
	var se sqlError
	switch {
	case err == nil,
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, context.Canceled),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrConflict),
		errors.As(err, &se):
		return false
	}
	return true
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var se sqlError
	if errors.As(err, &se) {
		switch se.SQLErrorNumber() {
		case errUniqueConstraint, errUniqueIndex:
			return storage.ErrDuplicate
		case errForeignKey:
			return storage.ErrNotFound
		}
	}
	return err
}

// ── parameter helpers ───────────────────────────────────────────────────────

func nullString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ── scan helpers ────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}

// prefixed qualifies each column in cols with prefix ("u." or "INSERTED.").
func prefixed(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// queryOne returns (nil, nil) when query yields no row.
func queryOne[T any](ctx context.Context, s *Store, scan func(rowScanner) (*T, error), query string, args ...interface{}) (*T, error) {
	var out *T
	err := s.exec(func(db *sql.DB) error {
		var err error
		out, err = scan(db.QueryRowContext(ctx, query, args...))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

// queryList always returns a non-nil slice on success.
func queryList[T any](ctx context.Context, s *Store, scan func(rowScanner) (*T, error), query string, args ...interface{}) ([]T, error) {
	out := make([]T, 0)
	err := s.exec(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, *v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var errNoOutput = errors.New("sqlserver: insert returned no row")

// inserted unwraps the result of an INSERT ... OUTPUT statement.
func inserted[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errNoOutput
	}
	return v, nil
}
