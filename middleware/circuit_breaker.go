package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/waveofmymind/simple-db/core"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

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
	}
	return "closed"
}

// CircuitBreakerMiddleware rejects statements after Threshold consecutive
// failures until ResetTimeout has passed. Constraint violations and empty
// results are answers from a healthy database and do not count.
type CircuitBreakerMiddleware struct {
	Threshold    int
	ResetTimeout time.Duration

	clock          clockwork.Clock
	mu             sync.Mutex
	state          State
	failures       int
	lastFailure    time.Time
	halfOpenPassed bool
}

func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreakerMiddleware {
	return &CircuitBreakerMiddleware{
		Threshold:    threshold,
		ResetTimeout: resetTimeout,
		clock:        clockwork.NewRealClock(),
		state:        StateClosed,
	}
}

// WithClock replaces the clock used for the reset timeout.
func (m *CircuitBreakerMiddleware) WithClock(c clockwork.Clock) *CircuitBreakerMiddleware {
	m.clock = c
	return m
}

func (m *CircuitBreakerMiddleware) Name() string {
	return "CircuitBreaker"
}

func (m *CircuitBreakerMiddleware) Init(*core.DB) error {
	if m.Threshold < 1 {
		return errors.Newf("circuit breaker threshold must be positive, got %d", m.Threshold)
	}
	return nil
}

func (m *CircuitBreakerMiddleware) Shutdown() error {
	return nil
}

// State reports the current breaker state.
func (m *CircuitBreakerMiddleware) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *CircuitBreakerMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.Handler) (*core.Result, error) {
	m.mu.Lock()
	switch m.state {
	case StateOpen:
		if m.clock.Since(m.lastFailure) <= m.ResetTimeout {
			m.mu.Unlock()
			return nil, ErrCircuitOpen
		}
		m.state = StateHalfOpen
		m.halfOpenPassed = true
	case StateHalfOpen:
		// one probe at a time
		if m.halfOpenPassed {
			m.mu.Unlock()
			return nil, ErrCircuitOpen
		}
		m.halfOpenPassed = true
	}
	m.mu.Unlock()

	res, err := next(ctx, stmt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil && countsAsFailure(err) {
		m.recordFailure()
	} else {
		m.recordSuccess()
	}
	return res, err
}

func countsAsFailure(err error) bool {
	return !errors.IsAny(err,
		core.ErrDuplicateKey,
		core.ErrForeignKey,
		core.ErrRecordNotFound,
		core.ErrInvalidSQL,
		context.Canceled,
	)
}

func (m *CircuitBreakerMiddleware) recordFailure() {
	m.failures++
	m.lastFailure = m.clock.Now()

	switch m.state {
	case StateClosed:
		if m.failures >= m.Threshold {
			m.state = StateOpen
		}
	case StateHalfOpen:
		m.state = StateOpen
		m.halfOpenPassed = false
	}
}

func (m *CircuitBreakerMiddleware) recordSuccess() {
	m.failures = 0
	if m.state == StateHalfOpen {
		m.state = StateClosed
		m.halfOpenPassed = false
	}
}
