package tokenapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/tokenapi/internal/config"
	"github.com/yourorg/tokenapi/types"
)

// Config is the full client configuration. LoadConfig reads it from the
// environment; NewFromConfig builds a client from it directly.
type Config = config.Config

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads THEGRAPH_* and OTEL_EXPORTER_OTLP_ENDPOINT from the environment
func LoadConfig() (Config, error) { return config.Load() }

// LoadConfigFile reads the environment and then the YAML file at path
func LoadConfigFile(path string) (Config, error) { return config.LoadFile(path) }

// Option customizes a Client
type Option func(*settings)

type settings struct {
	configFile string
	overrides  []func(*config.Config)

	logger         *logrus.Logger
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	httpClient     *http.Client
	now            func() time.Time
}

func override(f func(*config.Config)) Option {
	return func(s *settings) { s.overrides = append(s.overrides, f) }
}

// WithAPIKey sets the bearer credential. Without it THEGRAPH_API_KEY is used.
func WithAPIKey(key string) Option {
	return override(func(c *config.Config) { c.APIKey = key })
}

func WithBaseURL(u string) Option {
	return override(func(c *config.Config) { c.BaseURL = u })
}

// WithNetwork sets the EVM network used when a call does not name one
func WithNetwork(n types.NetworkID) Option {
	return override(func(c *config.Config) { c.Network = string(n) })
}

// WithTimeout bounds each request attempt. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return override(func(c *config.Config) { c.Timeout = d })
}

// WithRetries enables up to n retries on 429, 5xx and connection failures.
// The default is no retries.
func WithRetries(n int) Option {
	return override(func(c *config.Config) { c.MaxRetries = n })
}

// WithRetryWait sets the backoff bounds between retries
func WithRetryWait(min, max time.Duration) Option {
	return override(func(c *config.Config) {
		c.RetryWaitMin = min
		c.RetryWaitMax = max
	})
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(rps float64, burst int) Option {
	return override(func(c *config.Config) {
		c.RateLimitRPS = rps
		c.RateLimitBurst = burst
	})
}

func WithUserAgent(ua string) Option {
	return override(func(c *config.Config) { c.UserAgent = ua })
}

// WithConfigFile layers a YAML file over the environment before other options apply
func WithConfigFile(path string) Option {
	return func(s *settings) { s.configFile = path }
}

// WithLogger replaces the logger built from the log settings
func WithLogger(l *logrus.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics registers request metrics on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// WithTracerProvider records request spans on tp instead of the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.tracerProvider = tp }
}

// WithHTTPClient supplies the underlying HTTP client. Its Timeout is replaced by the configured one.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

func withClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}
