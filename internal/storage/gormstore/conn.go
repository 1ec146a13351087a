package gormstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/infra"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	guardBefore = "workcrew:conn_guard_before"
	guardAfter  = "workcrew:conn_guard_after"
	breakerKey  = "workcrew:breaker"
)

// connLostMarkers are driver messages that mean the pool or the server is gone.
// database/sql does not export its "database is closed" error.
var connLostMarkers = []string{
	"sql: database is closed",
	"connection refused",
	"failed to connect",
	"broken pipe",
	"connection reset by peer",
	"server closed the connection",
	"conn closed",
}

// isConnLost reports whether err means the database cannot be reached, as
// opposed to a query the server rejected.
func isConnLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, m := range connLostMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// notConnected wraps err so callers can match storage.ErrNotConnected.
func notConnected(err error) error {
	if err == nil || errors.Is(err, storage.ErrNotConnected) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrNotConnected, err)
}

// withBreaker returns a session of db whose statements are guarded by cb.
// The hooks are registered once per gorm configuration and find the breaker
// through the session settings.
func withBreaker(db *gorm.DB, cb *infra.CircuitBreaker) *gorm.DB {
	c := db.Callback()
	if c.Query().Get(guardAfter) == nil {
		hooks := []error{
			c.Create().Before("*").Register(guardBefore, guardStatement),
			c.Create().After("*").Register(guardAfter, recordStatement),
			c.Query().Before("*").Register(guardBefore, guardStatement),
			c.Query().After("*").Register(guardAfter, recordStatement),
			c.Update().Before("*").Register(guardBefore, guardStatement),
			c.Update().After("*").Register(guardAfter, recordStatement),
			c.Delete().Before("*").Register(guardBefore, guardStatement),
			c.Delete().After("*").Register(guardAfter, recordStatement),
			c.Row().Before("*").Register(guardBefore, guardStatement),
			c.Row().After("*").Register(guardAfter, recordStatement),
			c.Raw().Before("*").Register(guardBefore, guardStatement),
			c.Raw().After("*").Register(guardAfter, recordStatement),
		}
		if err := errors.Join(hooks...); err != nil {
			log.Warn().Err(err).Msg("gorm connection guard not installed")
		}
	}
	return db.Set(breakerKey, cb).Session(&gorm.Session{})
}

func breakerOf(tx *gorm.DB) *infra.CircuitBreaker {
	v, ok := tx.Get(breakerKey)
	if !ok {
		return nil
	}
	cb, _ := v.(*infra.CircuitBreaker)
	return cb
}

// guardStatement short-circuits the statement while the breaker is open.
func guardStatement(tx *gorm.DB) {
	cb := breakerOf(tx)
	if cb == nil || tx.Error != nil {
		return
	}
	if err := cb.Allow(); err != nil {
		tx.Error = notConnected(err)
	}
}

// recordStatement feeds the outcome to the breaker and marks connection loss.
func recordStatement(tx *gorm.DB) {
	cb := breakerOf(tx)
	if cb == nil || errors.Is(tx.Error, infra.ErrCircuitOpen) || errors.Is(tx.Error, context.Canceled) {
		return
	}
	cb.Record(tx.Error)
	if isConnLost(tx.Error) {
		tx.Error = notConnected(tx.Error)
	}
}
