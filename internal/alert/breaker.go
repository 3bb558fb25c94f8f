package alert

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a notifier's breaker is open and its reset
// timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("alert: circuit breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the reset timeout
	// elapses.
	StateOpen

	// StateHalfOpen lets a single probe through. Success closes the breaker,
	// failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
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

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the breaker
	// opens. Default: 3.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before allowing a
	// probe. Default: 30s.
	ResetTimeout time.Duration
}

// Breaker is a three-state circuit breaker guarding one notifier. While open,
// the dispatcher skips the notifier and moves on to the next one.
//
// Breaker is safe for concurrent use.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu              sync.Mutex
	state           State
	consecutiveFail int
	openedAt        time.Time
	probing         bool
}

// NewBreaker creates a [Breaker] for the named notifier. Zero-value config
// fields are replaced with defaults.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:         name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		now:          time.Now,
	}
}

// Execute runs fn if the breaker allows it.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probing = false
		slog.Info("alert breaker half-open", "notifier", b.name)
	}
	if b.state == StateHalfOpen {
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	probe := b.state == StateHalfOpen
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.recordFailure(probe)
	} else {
		b.recordSuccess(probe)
	}
	return err
}

// recordFailure must be called with b.mu held.
func (b *Breaker) recordFailure(probe bool) {
	if probe {
		b.state = StateOpen
		b.openedAt = b.now()
		b.probing = false
		slog.Warn("alert breaker re-opened", "notifier", b.name)
		return
	}
	b.consecutiveFail++
	if b.consecutiveFail >= b.maxFailures && b.state == StateClosed {
		b.state = StateOpen
		b.openedAt = b.now()
		slog.Warn("alert breaker opened",
			"notifier", b.name,
			"consecutive_failures", b.consecutiveFail)
	}
}

// recordSuccess must be called with b.mu held.
func (b *Breaker) recordSuccess(probe bool) {
	if probe {
		slog.Info("alert breaker closed", "notifier", b.name)
	}
	b.state = StateClosed
	b.consecutiveFail = 0
	b.probing = false
}

// State returns the current [State]. An open breaker whose reset timeout has
// elapsed reports [StateHalfOpen]; the transition happens on the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}
