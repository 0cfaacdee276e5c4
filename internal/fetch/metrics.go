package fetch

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	validation *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. Collectors that
// are already registered, for example by another client, are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenapi_requests_total",
			Help: "Token API requests by endpoint and HTTP status. Status is \"error\" when no response arrived.",
		}, []string{"endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenapi_request_duration_seconds",
			Help:    "Token API request latency including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenapi_validation_failures_total",
			Help: "Calls rejected before any request was sent.",
		}, []string{"endpoint"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.validation, err = register(reg, m.validation); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, label).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ValidationFailed counts a call rejected before dispatch
func (m *Metrics) ValidationFailed(endpoint string) {
	if m == nil {
		return
	}
	m.validation.WithLabelValues(endpoint).Inc()
}
