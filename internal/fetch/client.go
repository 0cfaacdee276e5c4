// Package fetch builds, sends and decodes Token API requests.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	tracerName  = "github.com/yourorg/tokenapi"
	maxBodySize = 32 << 20
)

// Options configures a Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string

	// Timeout bounds one attempt. Zero disables it.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Limiter        *rate.Limiter
	Logger         *logrus.Entry
	Metrics        *Metrics
	TracerProvider trace.TracerProvider

	// HTTPClient replaces the pooled default transport client
	HTTPClient *http.Client
}

// Client sends authenticated GET requests to the Token API
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string

	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     *logrus.Entry
	metrics *Metrics
	tracer  trace.Tracer
}

// NewClient creates a new Token API client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		http:      newRetryClient(opts, log),
		limiter:   opts.Limiter,
		log:       log,
		metrics:   opts.Metrics,
		tracer:    tp.Tracer(tracerName),
	}
}

// newRetryClient creates an HTTP client with explicit retry settings.
// Failed final attempts are passed through so the status and body reach the caller.
func newRetryClient(opts Options, log *logrus.Entry) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		hc := *opts.HTTPClient
		c.HTTPClient = &hc
	}
	c.HTTPClient.Timeout = opts.Timeout
	c.RetryMax = opts.MaxRetries
	c.RetryWaitMin = opts.RetryWaitMin
	c.RetryWaitMax = opts.RetryWaitMax
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{log}
	return c
}

// Close releases idle pooled connections
func (c *Client) Close() {
	c.http.HTTPClient.CloseIdleConnections()
}

// Metrics returns the collectors the client records to, possibly nil
func (c *Client) Metrics() *Metrics { return c.metrics }

// Raw issues one GET and returns the status and body. Only transport failures
// are errors; any HTTP status is returned as is.
func (c *Client) Raw(ctx context.Context, ep Endpoint, params url.Values) (int, []byte, error) {
	target, err := ep.URL(c.baseURL, params)
	if err != nil {
		c.metrics.ValidationFailed(ep.Name)
		return 0, nil, err
	}

	ctx, span := c.tracer.Start(ctx, "tokenapi "+ep.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", ep.Path),
			attribute.String("tokenapi.endpoint", ep.Name),
		),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			apiErr := newTransportError(ep.Name, fmt.Errorf("rate limiter: %w", err))
			span.RecordError(apiErr)
			span.SetStatus(codes.Error, apiErr.Error())
			return 0, nil, apiErr
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, newTransportError(ep.Name, fmt.Errorf("error creating request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.log.WithFields(logrus.Fields{
		"endpoint": ep.Name,
		"path":     ep.Path,
	}).Debug("Sending Token API request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(ep.Name, 0, time.Since(start))
		apiErr := newTransportError(ep.Name, err)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		c.log.WithError(err).WithField("endpoint", ep.Name).Warn("Token API request failed")
		return 0, nil, apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := time.Since(start)
	c.metrics.observe(ep.Name, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		apiErr := newTransportError(ep.Name, fmt.Errorf("error reading response: %w", err))
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return 0, nil, apiErr
	}

	c.log.WithFields(logrus.Fields{
		"endpoint": ep.Name,
		"status":   resp.StatusCode,
		"duration": elapsed,
		"bytes":    len(body),
	}).Debug("Received Token API response")

	return resp.StatusCode, body, nil
}

// Get issues one GET and maps any non-2xx status to an *APIError
func (c *Client) Get(ctx context.Context, ep Endpoint, params url.Values) ([]byte, error) {
	status, body, err := c.Raw(ctx, ep, params)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		apiErr := NewStatusError(ep.Name, status, body)
		trace.SpanFromContext(ctx).RecordError(apiErr)
		c.log.WithFields(logrus.Fields{
			"endpoint": ep.Name,
			"status":   status,
			"message":  apiErr.Message,
		}).Warn("Token API returned an error status")
		return nil, apiErr
	}
	return body, nil
}

// List sends the request and decodes a list response
func List[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values) ([]T, error) {
	body, err := c.Get(ctx, ep, params)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](ep, body)
}

// First sends the request and returns the first record, or nil when there is none
func First[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values) (*T, error) {
	body, err := c.Get(ctx, ep, params)
	if err != nil {
		return nil, err
	}
	return DecodeFirst[T](ep, body)
}

// Object sends the request and decodes a single JSON object
func Object[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values) (*T, error) {
	body, err := c.Get(ctx, ep, params)
	if err != nil {
		return nil, err
	}
	return DecodeObject[T](ep, body)
}

// leveledLogger routes retryablehttp logging through logrus
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) fields(kv []interface{}) *logrus.Entry {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.entry.WithFields(f)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Trace(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }
