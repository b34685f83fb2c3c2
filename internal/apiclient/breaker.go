package apiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without a round trip while the breaker is open.
var ErrCircuitOpen = errors.New("admin api circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker stops calling the API after threshold consecutive transport
// failures or 5xx answers. After openFor one probe request is let through;
// its outcome closes or re-opens the circuit.
type Breaker struct {
	mu            sync.Mutex
	st            breakerState
	fails         int
	threshold     int
	openFor       time.Duration
	nextTryAt     time.Time
	probeInFlight bool

	Now func() time.Time
}

func NewBreaker(threshold int, openFor time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return &Breaker{threshold: threshold, openFor: openFor, Now: time.Now}
}

// State is "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.String()
}

func (b *Breaker) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case breakerOpen:
		if b.Now().After(b.nextTryAt) && !b.probeInFlight {
			b.st = breakerHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case breakerHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	}
	return true
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	b.fails = 0
	b.st = breakerClosed
	b.probeInFlight = false
	b.mu.Unlock()
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.st == breakerHalfOpen {
		b.st = breakerOpen
		b.nextTryAt = b.Now().Add(b.openFor)
		b.probeInFlight = false
		return
	}
	b.fails++
	if b.fails >= b.threshold {
		b.st = breakerOpen
		b.nextTryAt = b.Now().Add(b.openFor)
	}
}

// abandon frees the probe slot when the caller gave up before an answer.
func (b *Breaker) abandon() {
	b.mu.Lock()
	b.probeInFlight = false
	b.mu.Unlock()
}

// CircuitBreaker fails fast with ErrCircuitOpen while b is open. 4xx
// answers count as success: the API is up, the request was wrong.
func CircuitBreaker(b *Breaker) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if !b.tryAcquire() {
				return nil, ErrCircuitOpen
			}
			resp, err := next.RoundTrip(r)
			switch {
			case err != nil && errors.Is(err, context.Canceled):
				b.abandon()
			case err != nil || resp.StatusCode >= http.StatusInternalServerError:
				b.onFailure()
			default:
				b.onSuccess()
			}
			return resp, err
		})
	}
}
