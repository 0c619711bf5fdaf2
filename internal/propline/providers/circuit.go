package providers

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sportsdata/propline/internal/config"
)

// errCircuitOpenFast is returned when CircuitManager itself fails a call
// fast, before ever reaching gobreaker.Execute, while the provider's
// escalated cooldown (see providerCircuit) is still running. It carries the
// identical message gobreaker's own open-state error uses so callers (and
// client.go's translateCircuitErr) see one error surface regardless of
// which layer rejected the call.
var errCircuitOpenFast = errors.New("circuit breaker is open")

// providerCircuit pairs a gobreaker.CircuitBreaker (which owns trip
// detection and the HALF_OPEN single-probe admission) with the escalating
// cooldown spec §4.1 requires on repeated trips: "failure [of the HALF_OPEN
// probe] -> OPEN with exponential cooldown (cap 5 min)". gobreaker's own
// Settings.Timeout is fixed at construction, so the escalation is layered on
// top rather than inside it: gobreaker's Timeout is pinned to the
// provider's base cooldown (the smallest possible wait), and
// CircuitManager.Execute additionally fails fast until nextProbeAt, which
// OnStateChange pushes further out on every HALF_OPEN -> OPEN transition.
type providerCircuit struct {
	breaker      *gobreaker.CircuitBreaker
	baseCooldown time.Duration
	maxCooldown  time.Duration

	mu               sync.Mutex
	consecutiveOpens int // HALF_OPEN -> OPEN failures since the last CLOSED
	nextProbeAt      time.Time
}

// nextCooldown computes base * 2^consecutiveOpens, capped at maxCooldown.
// consecutiveOpens == 0 (the first trip from CLOSED) yields exactly
// baseCooldown, matching spec §4.1's "default 30s" first-trip cooldown.
func (pc *providerCircuit) nextCooldown() time.Duration {
	cooldown := pc.baseCooldown
	for i := 0; i < pc.consecutiveOpens; i++ {
		if cooldown >= pc.maxCooldown {
			return pc.maxCooldown
		}
		cooldown *= 2
	}
	if cooldown > pc.maxCooldown {
		cooldown = pc.maxCooldown
	}
	return cooldown
}

func (pc *providerCircuit) onStateChange(_ string, from, to gobreaker.State) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	switch to {
	case gobreaker.StateOpen:
		if from == gobreaker.StateHalfOpen {
			pc.consecutiveOpens++
		} else {
			pc.consecutiveOpens = 0
		}
		pc.nextProbeAt = time.Now().Add(pc.nextCooldown())
	case gobreaker.StateClosed:
		pc.consecutiveOpens = 0
		pc.nextProbeAt = time.Time{}
	}
}

// stillCoolingDown reports whether the escalated cooldown is still running,
// i.e. gobreaker itself may be willing to admit a HALF_OPEN probe but this
// provider's escalated wait (longer than gobreaker's own fixed Timeout on a
// repeat trip) has not elapsed. It reads only nextProbeAt, which
// onStateChange sets on every trip to OPEN and clears on CLOSED; it does not
// call breaker.State(), which can fire onStateChange (and so take pc.mu)
// and would report HALF_OPEN once gobreaker's shorter Timeout has passed.
func (pc *providerCircuit) stillCoolingDown() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return time.Now().Before(pc.nextProbeAt)
}

// CircuitManager owns one providerCircuit per provider, matching the
// teacher's internal/infrastructure/providers/circuitbreakers.go shape but
// trading its bespoke fallback-chain bookkeeping for the narrower contract
// this spec needs: CLOSED -> OPEN -> HALF_OPEN -> CLOSED with a trip
// condition of "consecutive failures >= threshold OR failure rate > 50% once
// at least 20 calls are counted", plus the exponential-cooldown escalation on
// repeated trips. The rate is not over a rolling window: with Interval 0,
// gobreaker's counts accumulate from the breaker's last state change, so the
// rate covers every call since then.
type CircuitManager struct {
	mu       sync.RWMutex
	circuits map[string]*providerCircuit
}

// NewCircuitManager creates an empty manager; providers are registered via
// Register before first use.
func NewCircuitManager() *CircuitManager {
	return &CircuitManager{circuits: make(map[string]*providerCircuit)}
}

// Register configures the circuit breaker for a provider from its
// ProviderConfig. Safe to call again to reconfigure (e.g. on admin reload);
// doing so resets that provider's escalation state.
func (m *CircuitManager) Register(providerID string, cfg config.CircuitConfig) {
	windowRequests := cfg.WindowRequests
	if windowRequests <= 0 {
		windowRequests = 20
	}
	failureRate := cfg.FailureRate
	if failureRate <= 0 {
		failureRate = 0.5
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 5
	}
	baseCooldown := cfg.Cooldown
	if baseCooldown <= 0 {
		baseCooldown = 30 * time.Second
	}
	maxCooldown := cfg.MaxCooldown
	if maxCooldown <= 0 {
		maxCooldown = 5 * time.Minute
	}

	pc := &providerCircuit{baseCooldown: baseCooldown, maxCooldown: maxCooldown}

	settings := gobreaker.Settings{
		Name:        providerID,
		MaxRequests: 1, // admit exactly one probe in half-open (spec §4.1)
		Interval:    0, // never reset counts while closed; we trip on consecutive OR rate
		Timeout:     baseCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= uint32(threshold) {
				return true
			}
			if counts.Requests >= uint32(windowRequests) {
				rate := float64(counts.TotalFailures) / float64(counts.Requests)
				return rate > failureRate
			}
			return false
		},
		OnStateChange: pc.onStateChange,
	}
	pc.breaker = gobreaker.NewCircuitBreaker(settings)

	m.mu.Lock()
	m.circuits[providerID] = pc
	m.mu.Unlock()
}

// Execute runs fn through the named provider's circuit breaker. Unregistered
// providers execute directly (fail open on missing config rather than
// refusing to fetch).
func (m *CircuitManager) Execute(providerID string, fn func() (any, error)) (any, error) {
	m.mu.RLock()
	pc, ok := m.circuits[providerID]
	m.mu.RUnlock()
	if !ok {
		return fn()
	}

	if pc.stillCoolingDown() {
		return nil, errCircuitOpenFast
	}
	return pc.breaker.Execute(fn)
}

// State reports the current breaker state for health/diagnostics endpoints.
func (m *CircuitManager) State(providerID string) (gobreaker.State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pc, ok := m.circuits[providerID]
	if !ok {
		return gobreaker.StateClosed, false
	}
	return pc.breaker.State(), true
}

// Counts returns the rolling request/failure counters for a provider.
func (m *CircuitManager) Counts(providerID string) (gobreaker.Counts, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pc, ok := m.circuits[providerID]
	if !ok {
		return gobreaker.Counts{}, false
	}
	return pc.breaker.Counts(), true
}

// AllStates returns every registered provider's current state, used by the
// health endpoint (spec §6: "per-provider circuit state").
func (m *CircuitManager) AllStates() map[string]gobreaker.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]gobreaker.State, len(m.circuits))
	for name, pc := range m.circuits {
		out[name] = pc.breaker.State()
	}
	return out
}
