// Package client provides resilience patterns for the Supabase gateway:
// retry with exponential backoff and a circuit breaker.
package client

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Retry Configuration
// =============================================================================

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
	// Jitter adds randomness to backoff (0.0 to 1.0)
	Jitter float64
	// RetryableStatusCodes are HTTP status codes that should be retried
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns sensible defaults for retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
	}
}

// =============================================================================
// Circuit Breaker
// =============================================================================

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures before opening the circuit
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close
	SuccessThreshold int
	// Timeout is how long the circuit stays open before transitioning to half-open
	Timeout time.Duration
	// OnStateChange is called when the circuit state changes
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	mu sync.RWMutex

	config CircuitBreakerConfig
	state  CircuitState

	failures  int
	successes int
	lastError error
	openedAt  time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  CircuitClosed,
	}
}

// ErrCircuitOpen is returned when the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Allow checks if a request should be allowed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if time.Since(cb.openedAt) > cb.config.Timeout {
			cb.transitionTo(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	case CircuitHalfOpen:
		return nil
	}
	return nil
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastError = err

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState

	switch newState {
	case CircuitClosed:
		cb.failures = 0
		cb.successes = 0
	case CircuitOpen:
		cb.openedAt = time.Now()
		cb.successes = 0
	case CircuitHalfOpen:
		cb.successes = 0
	}

	if cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(oldState, newState)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// LastError returns the last recorded error.
func (cb *CircuitBreaker) LastError() error {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.lastError
}

// =============================================================================
// Resilient Transport
// =============================================================================

// ResilientTransport is an http.RoundTripper that adds retry and circuit
// breaking in front of a base transport. Plug it into Config.HTTPClient to
// make every gateway call resilient.
type ResilientTransport struct {
	base           http.RoundTripper
	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker

	totalRequests   int64
	successRequests int64
	failedRequests  int64
	retriedRequests int64
}

// NewResilientTransport creates a resilient round tripper.
func NewResilientTransport(base http.RoundTripper, retry RetryConfig, breaker CircuitBreakerConfig) *ResilientTransport {
	if base == nil {
		base = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		}
	}
	return &ResilientTransport{
		base:           base,
		retryConfig:    retry,
		circuitBreaker: NewCircuitBreaker(breaker),
	}
}

// RoundTrip executes the request with retry and circuit breaking.
func (rt *ResilientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&rt.totalRequests, 1)

	if err := rt.circuitBreaker.Allow(); err != nil {
		atomic.AddInt64(&rt.failedRequests, 1)
		return nil, err
	}

	// A request with a body that cannot be re-read is not retryable.
	retries := rt.retryConfig.MaxRetries
	if req.Body != nil && req.GetBody == nil {
		retries = 0
	}

	var lastErr error
	var resp *http.Response

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&rt.retriedRequests, 1)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(rt.calculateBackoff(attempt)):
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					break
				}
				req = req.Clone(req.Context())
				req.Body = body
			} else {
				req = req.Clone(req.Context())
			}
		}

		resp, lastErr = rt.base.RoundTrip(req)

		if lastErr != nil {
			if rt.isRetryableError(lastErr) {
				continue
			}
			rt.circuitBreaker.RecordFailure(lastErr)
			atomic.AddInt64(&rt.failedRequests, 1)
			return nil, lastErr
		}

		if rt.isRetryableStatusCode(resp.StatusCode) {
			lastErr = &HTTPError{StatusCode: resp.StatusCode}
			resp.Body.Close()
			continue
		}

		rt.circuitBreaker.RecordSuccess()
		atomic.AddInt64(&rt.successRequests, 1)
		return resp, nil
	}

	rt.circuitBreaker.RecordFailure(lastErr)
	atomic.AddInt64(&rt.failedRequests, 1)
	return nil, lastErr
}

func (rt *ResilientTransport) calculateBackoff(attempt int) time.Duration {
	backoff := float64(rt.retryConfig.InitialBackoff) * math.Pow(rt.retryConfig.BackoffMultiplier, float64(attempt-1))

	if backoff > float64(rt.retryConfig.MaxBackoff) {
		backoff = float64(rt.retryConfig.MaxBackoff)
	}

	if rt.retryConfig.Jitter > 0 {
		jitter := backoff * rt.retryConfig.Jitter * (rand.Float64()*2 - 1)
		backoff += jitter
	}

	return time.Duration(backoff)
}

func (rt *ResilientTransport) isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func (rt *ResilientTransport) isRetryableStatusCode(code int) bool {
	for _, retryable := range rt.retryConfig.RetryableStatusCodes {
		if code == retryable {
			return true
		}
	}
	return false
}

// HTTPError represents an HTTP-level retry failure.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return http.StatusText(e.StatusCode)
}

// Metrics returns transport counters.
func (rt *ResilientTransport) Metrics() map[string]int64 {
	return map[string]int64{
		"total_requests":   atomic.LoadInt64(&rt.totalRequests),
		"success_requests": atomic.LoadInt64(&rt.successRequests),
		"failed_requests":  atomic.LoadInt64(&rt.failedRequests),
		"retried_requests": atomic.LoadInt64(&rt.retriedRequests),
	}
}

// CircuitState returns the current circuit breaker state.
func (rt *ResilientTransport) CircuitState() CircuitState {
	return rt.circuitBreaker.State()
}

// NewResilient creates a Supabase client whose HTTP calls retry transient
// failures and trip a circuit breaker on sustained ones.
func NewResilient(cfg Config, retry RetryConfig, breaker CircuitBreakerConfig) (*Client, error) {
	var base http.RoundTripper
	timeout := 30 * time.Second
	if cfg.HTTPClient != nil {
		base = cfg.HTTPClient.Transport
		if cfg.HTTPClient.Timeout > 0 {
			timeout = cfg.HTTPClient.Timeout
		}
	}

	cfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: NewResilientTransport(base, retry, breaker),
	}
	return New(cfg)
}
