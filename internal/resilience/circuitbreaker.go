// Package resilience provides circuit breaking and provider failover for
// the collaborators behind the monitor loop (language model, speech
// synthesis, text recognition).
//
// A [CircuitBreaker] is the classic closed, open, half-open state machine.
// A [FallbackGroup] puts one breaker in front of every provider instance
// and tries them in registration order.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker
// rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name labels log records and state-change callbacks.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 3.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of concurrent probe calls allowed while
	// half-open. The first successful probe closes the breaker. Default: 1.
	HalfOpenMax int

	// OnStateChange, if set, is called after every transition with the
	// breaker's lock released.
	OnStateChange func(name string, from, to State)

	// now is overridden in tests.
	now func() time.Time
}

// CircuitBreaker implements the three-state breaker.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	halfOpenCalls int
}

// NewCircuitBreaker returns a closed breaker. Zero-value fields get
// defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &CircuitBreaker{cfg: cfg}
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	var changed []transition
	if cb.state == StateOpen {
		if cb.cfg.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		changed = append(changed, cb.setState(StateHalfOpen))
		cb.halfOpenCalls = 0
	}
	probing := cb.state == StateHalfOpen
	if probing {
		if cb.halfOpenCalls >= cb.cfg.HalfOpenMax {
			cb.mu.Unlock()
			cb.notify(changed)
			return ErrCircuitOpen
		}
		cb.halfOpenCalls++
	}
	cb.mu.Unlock()
	cb.notify(changed)

	err := fn()

	cb.mu.Lock()
	changed = changed[:0]
	switch {
	case err != nil && probing:
		changed = append(changed, cb.trip())
	case err != nil:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			changed = append(changed, cb.trip())
		}
	case probing:
		cb.halfOpenCalls--
		cb.failures = 0
		changed = append(changed, cb.setState(StateClosed))
	default:
		cb.failures = 0
	}
	cb.mu.Unlock()
	cb.notify(changed)
	return err
}

// State reports the current state. An open breaker whose timeout has
// elapsed reports half-open; the transition itself happens on the next
// call to Execute.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.cfg.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	t := cb.setState(StateClosed)
	cb.failures, cb.halfOpenCalls = 0, 0
	cb.mu.Unlock()
	cb.notify([]transition{t})
}

type transition struct{ from, to State }

// trip opens the breaker. cb.mu must be held.
func (cb *CircuitBreaker) trip() transition {
	cb.openedAt = cb.cfg.now()
	cb.failures = 0
	return cb.setState(StateOpen)
}

// setState must be called with cb.mu held.
func (cb *CircuitBreaker) setState(s State) transition {
	t := transition{from: cb.state, to: s}
	cb.state = s
	return t
}

func (cb *CircuitBreaker) notify(ts []transition) {
	for _, t := range ts {
		if t.from == t.to {
			continue
		}
		level := slog.LevelInfo
		if t.to == StateOpen {
			level = slog.LevelWarn
		}
		slog.Log(context.Background(), level, "circuit breaker state change", "name", cb.cfg.Name, "from", t.from, "to", t.to)
		if cb.cfg.OnStateChange != nil {
			cb.cfg.OnStateChange(cb.cfg.Name, t.from, t.to)
		}
	}
}
