// Package circuitbreaker guards a stream of price observations against
// sudden jumps and unreliable samples.
package circuitbreaker

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, observations are refused
	StateHalfOpen              // Testing if the source has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrOpen is returned while the breaker refuses observations
	ErrOpen = errors.New("circuit breaker open")

	// ErrTripped is wrapped by the error of the observation that opened the breaker
	ErrTripped = errors.New("circuit breaker tripped")
)

const maxHistorySize = 100

// Observation is one aggregated price reading
type Observation struct {
	Price      float64
	StdDev     float64
	Samples    int
	ObservedAt time.Time
}

// Thresholds defines the limits that will trigger the circuit breaker.
// Zero values disable the corresponding check.
type Thresholds struct {
	// Maximum relative change against the last accepted price (0.5 for 50%)
	MaxPriceChange float64 `json:"max_price_change" yaml:"max_price_change"`

	MinSamples int `json:"min_samples" yaml:"min_samples"`

	// Maximum standard deviation as a multiple of the price
	MaxDispersion float64 `json:"max_dispersion,omitempty" yaml:"max_dispersion,omitempty"`
}

// CircuitBreaker implements the circuit breaker pattern over price observations
type CircuitBreaker struct {
	thresholds Thresholds

	mu       sync.RWMutex
	state    State
	lastTrip time.Time
	history  []Observation

	// Count of consecutive accepted observations in HalfOpen state
	successCount int

	resetDelay       time.Duration
	successThreshold int
	onTrip           func(reason string, obs Observation)
	now              func() time.Time
	log              logrus.FieldLogger
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
		now:              time.Now,
		log:              logrus.StandardLogger(),
	}
}

// WithResetDelay sets how long the breaker stays open before probing again
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of accepted observations needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback registers fn to run in its own goroutine whenever the circuit trips
func (cb *CircuitBreaker) WithTripCallback(fn func(reason string, obs Observation)) *CircuitBreaker {
	cb.onTrip = fn
	return cb
}

func (cb *CircuitBreaker) WithLogger(l logrus.FieldLogger) *CircuitBreaker {
	cb.log = l
	return cb
}

func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// Check accepts obs into the history or trips the circuit. While the circuit
// is open it returns ErrOpen without looking at obs.
func (cb *CircuitBreaker) Check(obs Observation) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// The first reading after the reset delay becomes the new baseline, so a
	// lasting move past MaxPriceChange can still close the circuit.
	rebase := false
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastTrip) <= cb.resetDelay {
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		rebase = true
		cb.log.Info("Circuit breaker half-open: testing price source")
	}

	if reason := cb.violation(obs, !rebase); reason != "" {
		cb.trip(reason, obs)
		return fmt.Errorf("%w: %s", ErrTripped, reason)
	}

	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = cb.now()
	}
	cb.history = append(cb.history, obs)
	if len(cb.history) > maxHistorySize {
		cb.history = cb.history[len(cb.history)-maxHistorySize:]
	}

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.successCount = 0
			cb.log.Info("Circuit breaker closed: price source recovered")
		}
	}
	return nil
}

// violation returns why obs is unacceptable, or ""
func (cb *CircuitBreaker) violation(obs Observation, compareLast bool) string {
	if math.IsNaN(obs.Price) || math.IsInf(obs.Price, 0) || obs.Price <= 0 {
		return fmt.Sprintf("invalid price %v", obs.Price)
	}

	if obs.Samples < cb.thresholds.MinSamples {
		return fmt.Sprintf("insufficient samples: got %d, need %d", obs.Samples, cb.thresholds.MinSamples)
	}

	if compareLast && cb.thresholds.MaxPriceChange > 0 && len(cb.history) > 0 {
		last := cb.history[len(cb.history)-1].Price
		change := math.Abs(obs.Price-last) / last
		if change > cb.thresholds.MaxPriceChange {
			return fmt.Sprintf("price change too drastic: %.2f%% (threshold: %.2f%%)",
				change*100, cb.thresholds.MaxPriceChange*100)
		}
	}

	if cb.thresholds.MaxDispersion > 0 {
		if d := obs.StdDev / obs.Price; d > cb.thresholds.MaxDispersion {
			return fmt.Sprintf("price dispersion too high: %.4f x price (threshold: %.4f)",
				d, cb.thresholds.MaxDispersion)
		}
	}
	return ""
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forcibly closes the circuit. History is kept.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.successCount = 0
	cb.log.Info("Circuit breaker manually reset to closed state")
}

// LastGood returns the most recent accepted observation
func (cb *CircuitBreaker) LastGood() (Observation, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	if len(cb.history) == 0 {
		return Observation{}, false
	}
	return cb.history[len(cb.history)-1], true
}

// History returns a copy of the accepted observations, oldest first
func (cb *CircuitBreaker) History() []Observation {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	out := make([]Observation, len(cb.history))
	copy(out, cb.history)
	return out
}

// trip must be called with mu held
func (cb *CircuitBreaker) trip(reason string, obs Observation) {
	cb.state = StateOpen
	cb.lastTrip = cb.now()
	cb.successCount = 0
	cb.log.WithField("price", obs.Price).Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTrip != nil {
		go cb.onTrip(reason, obs)
	}
}
