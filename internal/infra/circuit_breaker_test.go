package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDial = errors.New("dial tcp: connection refused")

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		Now:              func() time.Time { return now },
	})

	assert.ErrorIs(t, cb.Execute(func() error { return errDial }), errDial)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errDial }), errDial)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Second,
		Now:              func() time.Time { return now },
	})
	_ = cb.Execute(func() error { return errDial })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errDial })
	assert.Equal(t, CBOpen, cb.State())
	assert.Equal(t, "open", cb.State().String())
}

func TestCircuitBreaker_IgnoresNonFailureErrors(t *testing.T) {
	errDup := errors.New("duplicate key")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, errDup) },
	})
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errDup }), errDup)
	}
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_AllowRecord(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})
	require.NoError(t, cb.Allow())
	cb.Record(errDial)
	cb.Record(nil)
	cb.Record(errDial)
	assert.Equal(t, CBClosed, cb.State())
	cb.Record(errDial)
	assert.Equal(t, CBOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}
