package service

import (
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "admin123"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		BcryptCost:         bcrypt.MinCost,
	}
}

func newMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return memory.New(string(hash))
}

// fakeClock is a settable Clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(h, m int) {
	c.t = time.Date(c.t.Year(), c.t.Month(), c.t.Day(), h, m, 0, 0, c.t.Location())
}

func newClock(y int, mo time.Month, d int) *fakeClock {
	return &fakeClock{t: time.Date(y, mo, d, 8, 0, 0, 0, time.UTC)}
}

func assertKind(t *testing.T, want apierror.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apierror.KindOf(err), "error: %v", err)
}

func assertDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.Truef(t, decimal.RequireFromString(want).Equal(*got), "want %s, got %s", want, got)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
