package resilience

import (
	"context"
	"sync"
	"time"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	"github.com/devnla/backend-express/internal/common/logger"
	"github.com/devnla/backend-express/internal/observability/metrics"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops calling a dependency after Threshold consecutive
// failures. Once ResetAfter has elapsed a single probe call is let through;
// its outcome closes or re-opens the circuit.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    State
	failures int32
	openedAt time.Time
	probing  bool

	threshold  int32
	timeout    time.Duration
	resetAfter time.Duration
	name       string
	log        *logger.Logger
	isFailure  func(error) bool
	now        func() time.Time
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	Logger     *logger.Logger
	// IsFailure decides whether an error counts toward opening the circuit.
	// Every non-nil error counts when it is nil.
	IsFailure func(error) bool
	Now       func() time.Time
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		threshold:  max(config.Threshold, 1),
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		log:        config.Logger,
		isFailure:  config.IsFailure,
		now:        config.Now,
	}
	if cb.isFailure == nil {
		cb.isFailure = func(err error) bool { return err != nil }
	}
	if cb.now == nil {
		cb.now = time.Now
	}
	cb.publish()
	return cb
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()
	return cb.state
}

// Call runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without touching the dependency.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	admitted, probe := cb.acquire()
	if !admitted {
		cb.logf(logger.WARNING, "circuit breaker [%s]: circuit is open, rejecting call", cb.name)
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	failed := err != nil && cb.isFailure(err)
	if probe {
		cb.resolveProbe(failed)
	} else {
		cb.record(failed)
	}
	return err
}

// acquire reports whether a call may run and whether it is the single
// half-open probe.
func (cb *CircuitBreaker) acquire() (admitted, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()

	switch cb.state {
	case StateOpen:
		return false, false
	case StateHalfOpen:
		if cb.probing {
			return false, false
		}
		cb.probing = true
		return true, true
	}
	return true, false
}

// advance moves an open circuit to half-open once the cool-down has passed.
// Callers hold mu.
func (cb *CircuitBreaker) advance() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.resetAfter {
		cb.state = StateHalfOpen
		cb.probing = false
		cb.publish()
		cb.logf(logger.INFO, "circuit breaker [%s]: cool-down elapsed, allowing a probe call", cb.name)
	}
}

// resolveProbe is the only path out of half-open.
func (cb *CircuitBreaker) resolveProbe(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false

	if !failed {
		cb.logf(logger.INFO, "circuit breaker [%s]: probe succeeded, closing circuit", cb.name)
		cb.state = StateClosed
		cb.failures = 0
		cb.publish()
		return
	}

	cb.countFailure()
	cb.logf(logger.ERROR, "circuit breaker [%s]: probe failed, re-opening circuit", cb.name)
	cb.trip()
}

// record applies the outcome of an ordinary call. Calls admitted before the
// circuit opened may finish later; their outcome no longer says anything
// about the dependency and is dropped.
func (cb *CircuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		return
	}

	if !failed {
		cb.failures = 0
		return
	}

	cb.countFailure()
	if cb.failures >= cb.threshold {
		cb.logf(logger.ERROR, "circuit breaker [%s]: %d consecutive failures, opening circuit", cb.name, cb.failures)
		cb.trip()
		return
	}
	cb.logf(logger.WARNING, "circuit breaker [%s]: failure recorded (%d/%d)", cb.name, cb.failures, cb.threshold)
}

func (cb *CircuitBreaker) countFailure() {
	cb.failures++
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.publish()
}

func (cb *CircuitBreaker) publish() {
	if cb.name == "" {
		return
	}
	open := 0.0
	if cb.state == StateOpen {
		open = 1
	}
	metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(open)
}

func (cb *CircuitBreaker) logf(level logger.LogLevel, format string, args ...any) {
	if cb.log == nil {
		return
	}
	switch level {
	case logger.ERROR:
		cb.log.Errorf(format, args...)
	case logger.WARNING:
		cb.log.Warnf(format, args...)
	default:
		cb.log.Infof(format, args...)
	}
}
