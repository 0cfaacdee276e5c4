package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/tokenapi/internal/security"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/price"
	"github.com/yourorg/tokenapi/types"
)

const version = "0.1.0"

// quoter is the part of *price.Oracle the server uses
type quoter interface {
	GetWithStats(ctx context.Context, c types.Currency, opts ...price.GetOption) (*price.Quote, error)
	ClearCache(ctx context.Context, cs ...types.Currency) error
	SupportedCurrencies() []types.Currency
}

type healthChecker interface {
	Health(ctx context.Context) (model.Health, error)
}

// Server represents the External Adapter server instance
type Server struct {
	cfg     adapterConfig
	oracle  quoter
	api     healthChecker
	signer  *security.Signer
	limiter *rate.Limiter
	reg     *prometheus.Registry
	metrics *serverMetrics
	log     *logrus.Entry
	started time.Time
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	price      *prometheus.GaugeVec
	confidence *prometheus.GaugeVec
	stale      *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceadapter_requests_total",
			Help: "Total number of adapter requests processed",
		}, []string{"status", "currency"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "priceadapter_request_duration_seconds",
			Help:    "Adapter request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceadapter_price_usd",
			Help: "Last reported USD price",
		}, []string{"currency"}),
		confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceadapter_price_confidence",
			Help: "Confidence of the last reported price",
		}, []string{"currency"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceadapter_stale_quotes_total",
			Help: "Quotes served from the last accepted price after a circuit breaker trip",
		}, []string{"currency"}),
	}
	reg.MustRegister(m.requests, m.duration, m.price, m.confidence, m.stale)
	return m
}

// NewServer wires the adapter. signer may be nil to disable response signing.
func NewServer(cfg adapterConfig, oracle quoter, api healthChecker, signer *security.Signer, reg *prometheus.Registry, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		oracle:  oracle,
		api:     api,
		signer:  signer,
		reg:     reg,
		metrics: newServerMetrics(reg),
		log:     logger.WithField("component", "priceadapter"),
		started: time.Now(),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	return s
}

// Handler returns the adapter routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest) // Chainlink EA endpoint
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/cache", s.handleCache)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Server starting on port %s", s.cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server stopped")
	return nil
}

// ChainlinkRequest matches the standard Chainlink External Adapter request format
type ChainlinkRequest struct {
	ID       string         `json:"id"`
	JobRunID string         `json:"jobRunId"`
	Data     map[string]any `json:"data"`
}

// ChainlinkResponse matches the standard Chainlink External Adapter response format
type ChainlinkResponse struct {
	JobRunID   string           `json:"jobRunId,omitempty"`
	StatusCode int              `json:"statusCode"`
	Status     string           `json:"status"`
	Data       map[string]any   `json:"data"`
	Error      string           `json:"error,omitempty"`
	Signed     *security.Signed `json:"signed,omitempty"`
}

// currencyParam reads the asset from the first of the usual EA parameter names
func currencyParam(data map[string]any) string {
	for _, k := range []string{"currency", "base", "from", "coin"} {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.errorResponse(w, "", "", http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req ChainlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "", "", http.StatusBadRequest, "Invalid request body")
		return
	}

	raw := currencyParam(req.Data)
	currency, ok := types.ParseCurrency(raw)
	if !ok {
		s.errorResponse(w, req.JobRunID, raw, http.StatusBadRequest, "Unsupported currency: "+raw)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var opts []price.GetOption
	if force, _ := req.Data["forceRefresh"].(bool); force {
		opts = append(opts, price.ForceRefresh())
	}

	q, err := s.oracle.GetWithStats(ctx, currency, opts...)
	if err != nil {
		s.errorResponse(w, req.JobRunID, string(currency), statusFor(err), err.Error())
		return
	}

	s.metrics.price.WithLabelValues(string(currency)).Set(q.Price)
	s.metrics.confidence.WithLabelValues(string(currency)).Set(q.Confidence)
	if q.Stale {
		s.metrics.stale.WithLabelValues(string(currency)).Inc()
	}

	resp := ChainlinkResponse{
		JobRunID:   req.JobRunID,
		StatusCode: http.StatusOK,
		Status:     "success",
		Data: map[string]any{
			"result":     q.Price,
			"currency":   q.Currency,
			"confidence": q.Confidence,
			"trades":     q.Trades,
			"volatility": q.Volatility,
			"stale":      q.Stale,
			"fetchedAt":  q.FetchedAt.Unix(),
		},
	}
	if req.ID != "" {
		resp.Data["id"] = req.ID
	}

	if s.signer != nil {
		signed, err := s.signer.Sign(resp.Data)
		if err != nil {
			s.log.WithError(err).Warn("Failed to sign response")
		} else {
			resp.Signed = signed
		}
	}

	s.metrics.requests.WithLabelValues("success", string(currency)).Inc()
	s.metrics.duration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps oracle failures onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, price.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, price.ErrInsufficientData),
		errors.Is(err, price.ErrLowConfidence),
		errors.Is(err, price.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// errorResponse returns a formatted error response for Chainlink nodes
func (s *Server) errorResponse(w http.ResponseWriter, jobRunID, currency string, status int, msg string) {
	s.log.WithFields(logrus.Fields{
		"status":   status,
		"currency": currency,
	}).Warn(msg)

	s.metrics.requests.WithLabelValues("error", currency).Inc()
	s.metrics.duration.WithLabelValues("error").Observe(0)

	writeJSON(w, status, ChainlinkResponse{
		JobRunID:   jobRunID,
		StatusCode: status,
		Status:     "errored",
		Error:      msg,
		Data:       map[string]any{"error": msg},
	})
}

// handleHealth reports whether the Token API is reachable with our credentials
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	h, err := s.api.Health(ctx)
	status := http.StatusOK
	if err != nil || !h.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":    strings.ToLower(http.StatusText(status)),
		"token_api": h,
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":     "operational",
		"uptime":     time.Since(s.started).String(),
		"version":    version,
		"currencies": s.oracle.SupportedCurrencies(),
		"signing":    s.signer != nil,
	}
	if s.signer != nil {
		status["signer"] = s.signer.Address().Hex()
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCache clears cached quotes: POST /cache?action=clear[&currency=ETH]
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Query().Get("action") != "clear" {
		http.Error(w, "Use POST /cache?action=clear", http.StatusBadRequest)
		return
	}

	var cs []types.Currency
	if raw := r.URL.Query().Get("currency"); raw != "" {
		c, ok := types.ParseCurrency(raw)
		if !ok {
			http.Error(w, "Unsupported currency: "+raw, http.StatusBadRequest)
			return
		}
		cs = append(cs, c)
	}

	if err := s.oracle.ClearCache(r.Context(), cs...); err != nil {
		s.log.WithError(err).Warn("Failed to clear price cache")
		http.Error(w, "Failed to clear cache", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cache cleared", "currencies": cs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
