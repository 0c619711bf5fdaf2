package providers

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/config"
)

func TestCircuitManager_TripsOnConsecutiveFailures(t *testing.T) {
	m := NewCircuitManager()
	m.Register("prizepicks", config.CircuitConfig{
		FailureThreshold: 3,
		WindowRequests:   20,
		FailureRate:      0.5,
		Cooldown:         50 * time.Millisecond,
		MaxCooldown:      time.Second,
	})

	failing := func() (any, error) { return nil, errors.New("boom") }

	for i := 0; i < 3; i++ {
		_, err := m.Execute("prizepicks", failing)
		require.Error(t, err)
	}

	state, ok := m.State("prizepicks")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateOpen, state)

	_, err := m.Execute("prizepicks", func() (any, error) { return "ok", nil })
	require.Error(t, err)
	assert.Equal(t, "circuit breaker is open", err.Error())
}

func TestCircuitManager_HalfOpenRecoversToClosedOnSuccess(t *testing.T) {
	m := NewCircuitManager()
	m.Register("draftkings", config.CircuitConfig{
		FailureThreshold: 1,
		WindowRequests:   20,
		FailureRate:      0.5,
		Cooldown:         10 * time.Millisecond,
		MaxCooldown:      time.Second,
	})

	_, _ = m.Execute("draftkings", func() (any, error) { return nil, errors.New("boom") })
	state, _ := m.State("draftkings")
	require.Equal(t, gobreaker.StateOpen, state)

	time.Sleep(20 * time.Millisecond)

	_, err := m.Execute("draftkings", func() (any, error) { return "ok", nil })
	require.NoError(t, err)

	state, _ = m.State("draftkings")
	assert.Equal(t, gobreaker.StateClosed, state)
}

func TestCircuitManager_RepeatedTripsEscalateCooldown(t *testing.T) {
	// §4.1: "failure [of the HALF_OPEN probe] -> OPEN with exponential
	// cooldown (cap 5 min)". First trip uses the base cooldown; a HALF_OPEN
	// probe that fails again must wait longer than the base cooldown before
	// admitting another probe.
	m := NewCircuitManager()
	base := 30 * time.Millisecond
	m.Register("underdog", config.CircuitConfig{
		FailureThreshold: 1,
		WindowRequests:   20,
		FailureRate:      0.5,
		Cooldown:         base,
		MaxCooldown:      time.Second,
	})

	failing := func() (any, error) { return nil, errors.New("boom") }

	// First trip: CLOSED -> OPEN, base cooldown.
	_, _ = m.Execute("underdog", failing)
	state, _ := m.State("underdog")
	require.Equal(t, gobreaker.StateOpen, state)

	// Wait out the base cooldown and fail the HALF_OPEN probe: OPEN again,
	// but now with an escalated cooldown.
	time.Sleep(base + 10*time.Millisecond)
	_, err := m.Execute("underdog", failing)
	require.Error(t, err)
	state, _ = m.State("underdog")
	require.Equal(t, gobreaker.StateOpen, state)

	// Immediately after the base cooldown elapses again, the escalated
	// cooldown must still be running: calls fail fast without reaching fn.
	time.Sleep(base + 10*time.Millisecond)
	calledFn := false
	_, err = m.Execute("underdog", func() (any, error) { calledFn = true; return "ok", nil })
	require.Error(t, err)
	assert.Equal(t, "circuit breaker is open", err.Error())
	assert.False(t, calledFn, "escalated cooldown must still be running, fn must not be invoked")

	// Once the escalated (2x base) cooldown has actually elapsed, a probe
	// is admitted and can recover the circuit.
	time.Sleep(2 * base)
	_, err = m.Execute("underdog", func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	state, _ = m.State("underdog")
	assert.Equal(t, gobreaker.StateClosed, state)
}

func TestCircuitManager_UnregisteredProviderExecutesDirectly(t *testing.T) {
	m := NewCircuitManager()
	result, err := m.Execute("unknown", func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCircuitManager_AllStates(t *testing.T) {
	m := NewCircuitManager()
	m.Register("prizepicks", config.CircuitConfig{FailureThreshold: 5, Cooldown: time.Second})
	m.Register("underdog", config.CircuitConfig{FailureThreshold: 5, Cooldown: time.Second})

	states := m.AllStates()
	require.Len(t, states, 2)
	assert.Equal(t, gobreaker.StateClosed, states["prizepicks"])
	assert.Equal(t, gobreaker.StateClosed, states["underdog"])
}
