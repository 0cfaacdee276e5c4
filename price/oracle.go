// Package price derives USD prices of native assets from recent DEX trades
// reported by the Token API.
//
// Prices come from the median of trades in a short window after range and
// outlier filtering. Quotes are cached for 5 minutes, or 1 minute when the
// market is volatile, and every currency is guarded by a circuit breaker that
// falls back to the last accepted quote when the price jumps.
package price

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/yourorg/tokenapi"
	"github.com/yourorg/tokenapi/internal/aggregate"
	"github.com/yourorg/tokenapi/internal/circuitbreaker"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInsufficientData is returned when too few trades were found even after widening the window
	ErrInsufficientData = errors.New("insufficient trade data")

	ErrLowConfidence = errors.New("price confidence too low")

	// ErrCircuitOpen is returned when the breaker rejects a price and no earlier quote exists
	ErrCircuitOpen = errors.New("price circuit breaker open")
)

const (
	// MinConfidence is the lowest confidence a fresh quote may have
	MinConfidence = 0.1

	// VolatilityThreshold separates volatile from stable markets
	VolatilityThreshold = 0.05
	VolatileTTL         = time.Minute
	StableTTL           = 5 * time.Minute

	maxAttempts = 3
	baseTrades  = 100
	baseWindow  = 15 * time.Minute
	minSamples  = 3
)

// EVMSwapLister is satisfied by *tokenapi.EVM
type EVMSwapLister interface {
	Swaps(ctx context.Context, opts tokenapi.SwapsOptions) ([]model.Swap, error)
}

// SVMSwapLister is satisfied by *tokenapi.SVM
type SVMSwapLister interface {
	Swaps(ctx context.Context, program types.SwapProgram, opts tokenapi.SVMSwapsOptions) ([]model.SolanaSwap, error)
}

// Quote is a USD price with the statistics it was derived from
type Quote struct {
	Currency   types.Currency `json:"currency"`
	Price      float64        `json:"price"`
	Mean       float64        `json:"mean_price"`
	StdDev     float64        `json:"std_dev"`
	Min        float64        `json:"min_price"`
	Max        float64        `json:"max_price"`
	Trades     int            `json:"trades_analyzed"`
	Confidence float64        `json:"confidence"`
	// Volatility is the coefficient of variation of the retained trades
	Volatility float64   `json:"volatility"`
	FetchedAt  time.Time `json:"fetched_at"`
	// Stale is set when the circuit breaker refused a fresh price and this
	// earlier quote was served instead.
	Stale bool `json:"stale,omitempty"`
}

// TTL is how long q may be served from cache
func (q *Quote) TTL() time.Duration {
	if q.Volatility > VolatilityThreshold {
		return VolatileTTL
	}
	return StableTTL
}

// Oracle is safe for concurrent use
type Oracle struct {
	evm EVMSwapLister
	svm SVMSwapLister

	store      Store
	breakers   map[types.Currency]*circuitbreaker.CircuitBreaker
	thresholds circuitbreaker.Thresholds
	resetDelay time.Duration
	log        *logrus.Entry
	now        func() time.Time
	group      singleflight.Group

	mu       sync.RWMutex
	lastGood map[types.Currency]Quote
}

type Option func(*Oracle)

// WithStore replaces the in-memory quote cache
func WithStore(s Store) Option {
	return func(o *Oracle) { o.store = s }
}

func WithLogger(l *logrus.Logger) Option {
	return func(o *Oracle) { o.log = l.WithField("component", "price_oracle") }
}

// WithBreaker tunes the per currency circuit breakers. maxChange is the
// largest accepted move between quotes (0.5 for 50%), maxDispersion the
// largest accepted standard deviation relative to the price.
func WithBreaker(maxChange, maxDispersion float64, resetDelay time.Duration) Option {
	return func(o *Oracle) {
		o.thresholds.MaxPriceChange = maxChange
		o.thresholds.MaxDispersion = maxDispersion
		o.resetDelay = resetDelay
	}
}

func withClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

// New builds an oracle on top of client
func New(client *tokenapi.Client, opts ...Option) *Oracle {
	return NewOracle(client.EVM, client.SVM, opts...)
}

func NewOracle(evm EVMSwapLister, svm SVMSwapLister, opts ...Option) *Oracle {
	o := &Oracle{
		evm: evm,
		svm: svm,
		thresholds: circuitbreaker.Thresholds{
			MaxPriceChange: 0.5,
			MinSamples:     minSamples,
			MaxDispersion:  0.25,
		},
		resetDelay: 5 * time.Minute,
		log:        logrus.WithField("component", "price_oracle"),
		now:        time.Now,
		lastGood:   make(map[types.Currency]Quote),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = newMemoryStore(o.now)
	}

	o.breakers = make(map[types.Currency]*circuitbreaker.CircuitBreaker, len(currencies))
	for currency := range currencies {
		o.breakers[currency] = circuitbreaker.New(o.thresholds).
			WithResetDelay(o.resetDelay).
			WithClock(o.now).
			WithLogger(o.log.WithField("currency", currency)).
			WithTripCallback(func(reason string, obs circuitbreaker.Observation) {
				o.log.WithFields(logrus.Fields{
					"currency": currency,
					"price":    obs.Price,
					"reason":   reason,
				}).Warn("Price rejected by circuit breaker")
			})
	}
	return o
}

// SupportedCurrencies lists the currencies Get accepts
func (o *Oracle) SupportedCurrencies() []types.Currency { return types.Currencies() }

func (o *Oracle) IsSupported(c types.Currency) bool {
	_, ok := currencies[c]
	return ok
}

type getOptions struct {
	force bool
}

type GetOption func(*getOptions)

// ForceRefresh bypasses the cache
func ForceRefresh() GetOption {
	return func(g *getOptions) { g.force = true }
}

// Get returns the USD price of c
func (o *Oracle) Get(ctx context.Context, c types.Currency, opts ...GetOption) (float64, error) {
	q, err := o.GetWithStats(ctx, c, opts...)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// GetWithStats returns the USD price of c with the statistics behind it
func (o *Oracle) GetWithStats(ctx context.Context, c types.Currency, opts ...GetOption) (*Quote, error) {
	if !o.IsSupported(c) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, c)
	}

	var g getOptions
	for _, opt := range opts {
		opt(&g)
	}

	if !g.force {
		q, err := o.store.Get(ctx, c)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			o.log.WithError(err).WithField("currency", c).Warn("Price cache read failed")
		}
	}

	v, err, _ := o.group.Do(string(c), func() (any, error) {
		return o.refresh(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	q := *v.(*Quote)
	return &q, nil
}

// ClearCache drops the cached quotes of the given currencies, or of all when none are given
func (o *Oracle) ClearCache(ctx context.Context, cs ...types.Currency) error {
	if len(cs) == 0 {
		return o.store.Clear(ctx)
	}
	return o.store.Delete(ctx, cs...)
}

func (o *Oracle) refresh(ctx context.Context, c types.Currency) (*Quote, error) {
	cfg := currencies[c]
	log := o.log.WithField("currency", c)

	stats, err := o.collect(ctx, c, cfg)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Currency:   c,
		Price:      stats.Median,
		Mean:       stats.Mean,
		StdDev:     stats.StdDev,
		Min:        stats.Min,
		Max:        stats.Max,
		Trades:     stats.Samples,
		Confidence: stats.Confidence,
		Volatility: stats.CV(),
		FetchedAt:  o.now(),
	}

	if q.Confidence < MinConfidence {
		return nil, fmt.Errorf("%w: %s confidence %.3f below %.2f", ErrLowConfidence, c, q.Confidence, MinConfidence)
	}

	err = o.breakers[c].Check(circuitbreaker.Observation{
		Price:      q.Price,
		StdDev:     q.StdDev,
		Samples:    q.Trades,
		ObservedAt: q.FetchedAt,
	})
	if err != nil {
		if last, ok := o.lastQuote(c); ok {
			log.WithError(err).Info("Serving last accepted price")
			last.Stale = true
			return &last, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	o.mu.Lock()
	o.lastGood[c] = *q
	o.mu.Unlock()

	if err := o.store.Set(ctx, q, q.TTL()); err != nil {
		log.WithError(err).Warn("Price cache write failed")
	}

	log.WithFields(logrus.Fields{
		"price":      q.Price,
		"trades":     q.Trades,
		"confidence": q.Confidence,
	}).Debug("Price refreshed")
	return q, nil
}

// collect widens the trade window until enough usable samples are found
func (o *Oracle) collect(ctx context.Context, c types.Currency, cfg currencyConfig) (*aggregate.Stats, error) {
	opts := aggregate.Options{
		MinSamples:    minSamples,
		MinValue:      cfg.bounds.min,
		MaxValue:      cfg.bounds.max,
		IQRMultiplier: 1.5,
	}

	var found int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		trades, window := attemptParams(attempt)

		samples, err := cfg.source.samples(ctx, o, trades, o.now().Add(-window))
		if err != nil {
			return nil, fmt.Errorf("fetching %s trades: %w", c, err)
		}

		stats, err := aggregate.Summarize(samples, opts)
		if err == nil {
			return stats, nil
		}
		found = len(samples)

		o.log.WithFields(logrus.Fields{
			"currency": c,
			"attempt":  attempt,
			"trades":   trades,
			"window":   window,
			"samples":  len(samples),
		}).Debug("Not enough trades, widening window")
	}
	return nil, fmt.Errorf("%w: %s had %d trades after %d attempts", ErrInsufficientData, c, found, maxAttempts)
}

// attemptParams doubles the trade count and window on every attempt
func attemptParams(attempt int) (trades int, window time.Duration) {
	shift := attempt - 1
	return baseTrades << shift, baseWindow << shift
}

func (o *Oracle) lastQuote(c types.Currency) (Quote, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	q, ok := o.lastGood[c]
	return q, ok
}
