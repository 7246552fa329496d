package util

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"    // 정상 작동
	CircuitStateOpen     CircuitState = "OPEN"      // 요청 차단
	CircuitStateHalfOpen CircuitState = "HALF_OPEN" // 복구 시도 중
)

func (s CircuitState) String() string {
	return string(s)
}

// HealthCheckFunction probes the guarded upstream. It must honour ctx.
type HealthCheckFunction func(ctx context.Context) bool

// CircuitBreakerOptions configures a CircuitBreaker.
type CircuitBreakerOptions struct {
	Name                string
	FailureThreshold    int
	ResetTimeout        time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
	HealthCheck         HealthCheckFunction
}

// CircuitBreaker guards an upstream (CMS API, chat providers) against repeated failures.
type CircuitBreaker struct {
	opts                CircuitBreakerOptions
	state               CircuitState
	failureCount        int
	nextRetryTime       time.Time
	nextHealthCheckTime time.Time
	isHealthChecking    bool
	logger              *zap.Logger
	mu                  sync.Mutex
}

func NewCircuitBreaker(opts CircuitBreakerOptions, logger *zap.Logger) *CircuitBreaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 1
	}
	if opts.HealthCheckTimeout <= 0 {
		opts.HealthCheckTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		opts:   opts,
		state:  CircuitStateClosed,
		logger: logger.With(zap.String("circuit", opts.Name)),
	}
}

// GetState returns the current state, promoting OPEN to HALF_OPEN once the
// retry window has passed (or kicking off a health check when one is set).
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitStateOpen {
		return cb.state
	}

	now := time.Now()
	switch {
	case cb.opts.HealthCheck != nil:
		if now.After(cb.nextHealthCheckTime) && !cb.isHealthChecking {
			cb.isHealthChecking = true
			go cb.runHealthCheck()
		}
	case now.After(cb.nextRetryTime):
		cb.transitionTo(CircuitStateHalfOpen)
	}

	return cb.state
}

func (cb *CircuitBreaker) CanExecute() bool {
	return cb.GetState() != CircuitStateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case cb.state == CircuitStateHalfOpen:
		cb.failureCount = 0
		cb.transitionTo(CircuitStateClosed)
	case cb.failureCount > 0:
		cb.logger.Debug("Circuit breaker failure count reset", zap.Int("was", cb.failureCount))
		cb.failureCount = 0
	}
}

// RecordFailure counts a failure. customTimeout overrides the reset timeout when > 0
// (rate limits hold the circuit open longer).
func (cb *CircuitBreaker) RecordFailure(customTimeout time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	timeout := cb.opts.ResetTimeout
	if customTimeout > 0 {
		timeout = customTimeout
	}

	cb.logger.Warn("Circuit breaker failure recorded",
		zap.Int("count", cb.failureCount),
		zap.Int("threshold", cb.opts.FailureThreshold),
		zap.Duration("timeout", timeout),
	)

	if cb.state == CircuitStateHalfOpen || cb.failureCount >= cb.opts.FailureThreshold {
		cb.nextRetryTime = time.Now().Add(timeout)
		cb.nextHealthCheckTime = time.Now().Add(cb.opts.HealthCheckInterval)
		cb.transitionTo(CircuitStateOpen)
	}
}

func (cb *CircuitBreaker) runHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), cb.opts.HealthCheckTimeout)
	defer cancel()

	healthy := cb.opts.HealthCheck(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.isHealthChecking = false
	if cb.state != CircuitStateOpen {
		return
	}
	if healthy {
		cb.transitionTo(CircuitStateHalfOpen)
		return
	}
	cb.logger.Warn("Circuit breaker health check failed")
	cb.nextHealthCheckTime = time.Now().Add(cb.opts.HealthCheckInterval)
}

// must be called with cb.mu held
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState

	fields := []zap.Field{
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failure_count", cb.failureCount),
	}
	if newState == CircuitStateOpen {
		fields = append(fields, zap.Time("next_retry", cb.nextRetryTime))
	}
	cb.logger.Info("Circuit breaker state transition", fields...)
}

func (cb *CircuitBreaker) GetStatus() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		Name:         cb.opts.Name,
		State:        cb.state,
		FailureCount: cb.failureCount,
	}
	if cb.state == CircuitStateOpen {
		next := cb.nextRetryTime
		status.NextRetryTime = &next
	}
	return status
}

type CircuitBreakerStatus struct {
	Name          string       `json:"name"`
	State         CircuitState `json:"state"`
	FailureCount  int          `json:"failure_count"`
	NextRetryTime *time.Time   `json:"next_retry_time,omitempty"`
}
