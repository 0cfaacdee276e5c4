// Package tokenapi is a typed client for The Graph Token API.
//
// A Client exposes the EVM endpoints under Client.EVM (NFT endpoints under
// Client.EVM.NFTs) and the Solana endpoints under Client.SVM. Every call
// validates its arguments, sends exactly one GET and decodes the JSON answer.
// Invalid arguments fail with a *ValidationError before anything is sent.
//
//	client, err := tokenapi.New(tokenapi.WithAPIKey(key))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	balances, err := client.EVM.Balances(ctx, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", tokenapi.BalancesOptions{})
package tokenapi

import (
	"bytes"
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/tokenapi/internal/config"
	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/otel"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

// Client is safe for concurrent use. Call Close to release its connections.
type Client struct {
	EVM *EVM
	SVM *SVM

	core     *core
	shutdown func()
	once     sync.Once
}

// core is the state every namespace shares. It is read-only after New.
type core struct {
	api     *fetch.Client
	network types.NetworkID
	log     *logrus.Entry
	now     func() time.Time
	closed  atomic.Bool
}

// New builds a client from the environment and the given options.
// It fails with a *ConfigError when no API key is available.
func New(opts ...Option) (*Client, error) {
	s := collect(opts)

	var (
		cfg config.Config
		err error
	)
	if s.configFile != "" {
		cfg, err = config.LoadFile(s.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	return build(cfg, s)
}

// NewFromConfig builds a client from cfg without reading the environment
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	return build(cfg, collect(opts))
}

func collect(opts []Option) *settings {
	s := &settings{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func build(cfg config.Config, s *settings) (*Client, error) {
	for _, o := range s.overrides {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := s.logger
	if logger == nil {
		logger = cfg.Logger()
	}
	log := logger.WithField("component", "tokenapi")

	opts := fetch.Options{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryWaitMin:   cfg.RetryWaitMin,
		RetryWaitMax:   cfg.RetryWaitMax,
		Logger:         log,
		TracerProvider: s.tracerProvider,
		HTTPClient:     s.httpClient,
	}

	if cfg.RateLimitRPS > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	if s.registerer != nil {
		m, err := fetch.NewMetrics(s.registerer)
		if err != nil {
			return nil, &ConfigError{Field: "metrics", Reason: err.Error()}
		}
		opts.Metrics = m
	}

	shutdown := func() {}
	if opts.TracerProvider == nil && cfg.OtelEndpoint != "" {
		tp, stop, err := otel.InitTracer(context.Background(), cfg.OtelEndpoint, true)
		if err != nil {
			return nil, &ConfigError{Field: "otel_endpoint", Reason: err.Error()}
		}
		opts.TracerProvider = tp
		shutdown = stop
	}

	c := &core{
		api:     fetch.NewClient(opts),
		network: types.NetworkID(cfg.Network),
		log:     log,
		now:     s.now,
	}

	log.WithFields(logrus.Fields{
		"base_url": cfg.BaseURL,
		"network":  cfg.Network,
		"timeout":  cfg.Timeout,
		"retries":  cfg.MaxRetries,
	}).Debug("Token API client created")

	return &Client{
		EVM:      &EVM{c: c, NFTs: &NFTs{c: c}},
		SVM:      &SVM{c: c},
		core:     c,
		shutdown: shutdown,
	}, nil
}

// Close releases pooled connections and flushes traces. Calls made afterwards fail with ErrClosed.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.core.closed.Store(true)
		c.core.api.Close()
		c.shutdown()
	})
	return nil
}

// Network returns the default EVM network
func (c *Client) Network() types.NetworkID { return c.core.network }

// Health probes the service. A reachable service answering with an error
// status, including 401, gives Healthy=false and a nil error. Only transport
// failures are returned as errors.
func (c *Client) Health(ctx context.Context) (model.Health, error) {
	if c.core.closed.Load() {
		return model.Health{Reason: ErrClosed.Error()}, ErrClosed
	}

	status, body, err := c.core.api.Raw(ctx, fetch.Health, nil)
	if err != nil {
		return model.Health{Reason: err.Error()}, err
	}

	h := model.Health{
		StatusCode: status,
		Status:     string(bytes.TrimSpace(body)),
	}
	if status >= 200 && status <= 299 {
		h.Healthy = true
		return h, nil
	}

	h.Reason = fetch.NewStatusError(fetch.Health.Name, status, body).Error()
	c.core.log.WithFields(logrus.Fields{
		"status": status,
		"reason": h.Reason,
	}).Info("Token API health check failed")
	return h, nil
}

// Version returns the deployed API build
func (c *Client) Version(ctx context.Context) (*model.Version, error) {
	if c.core.closed.Load() {
		return nil, ErrClosed
	}
	return fetch.Object[model.Version](ctx, c.core.api, fetch.Version, nil)
}

// Networks lists the networks the service indexes
func (c *Client) Networks(ctx context.Context) ([]model.Network, error) {
	if c.core.closed.Load() {
		return nil, ErrClosed
	}
	resp, err := fetch.Object[struct {
		Networks []model.Network `json:"networks"`
	}](ctx, c.core.api, fetch.Networks, nil)
	if err != nil {
		return nil, err
	}
	return resp.Networks, nil
}

// reject records a call refused before dispatch
func (c *core) reject(ep fetch.Endpoint, err error) error {
	c.api.Metrics().ValidationFailed(ep.Name)
	c.log.WithError(err).WithField("endpoint", ep.Name).Debug("Rejected invalid input")
	return err
}

func list[T any](ctx context.Context, c *core, ep fetch.Endpoint, q url.Values, invalid error) ([]T, error) {
	if invalid != nil {
		return nil, c.reject(ep, invalid)
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return fetch.List[T](ctx, c.api, ep, q)
}

func first[T any](ctx context.Context, c *core, ep fetch.Endpoint, q url.Values, invalid error) (*T, error) {
	if invalid != nil {
		return nil, c.reject(ep, invalid)
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return fetch.First[T](ctx, c.api, ep, q)
}
