package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(cfg Config) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(cfg)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	cb.lastStateTime = now
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 2, Timeout: time.Minute})

	require.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	require.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb, now := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Second})

	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.GetState())

	*now = now.Add(2 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.GetState())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Second})

	_ = cb.Execute(func() error { return errBoom })
	*now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errBoom })

	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("client error")
	cb, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, ignored) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return ignored }), ignored)
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(func() error { return errBoom })
	cb.Reset()

	assert.Equal(t, []string{"closed->open"}, transitions)
	assert.Equal(t, StateClosed, cb.GetState())
}
