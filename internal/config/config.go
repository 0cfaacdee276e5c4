// Package config provides configuration loading for the Token API client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/tokenapi/types"
)

const (
	DefaultBaseURL   = "https://token-api.thegraph.com"
	DefaultUserAgent = "tokenapi-go/0.1.0"
)

// ErrConfig is matched by every configuration failure
var ErrConfig = errors.New("invalid configuration")

// Error reports a missing or malformed setting
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrConfig
}

// Config holds all client configuration
type Config struct {
	// Bearer token sent on every request
	APIKey string `envconfig:"THEGRAPH_API_KEY" yaml:"api_key"`

	BaseURL string `envconfig:"THEGRAPH_API_ENDPOINT" default:"https://token-api.thegraph.com" yaml:"base_url"`

	// Network used when a call does not name one
	Network string `envconfig:"THEGRAPH_NETWORK" default:"mainnet" yaml:"network"`

	// Per-request timeout, zero disables it
	Timeout time.Duration `envconfig:"THEGRAPH_TIMEOUT" default:"30s" yaml:"timeout"`

	// Retries after the first attempt, only for 429, 5xx and connection errors
	MaxRetries   int           `envconfig:"THEGRAPH_MAX_RETRIES" default:"0" yaml:"max_retries"`
	RetryWaitMin time.Duration `envconfig:"THEGRAPH_RETRY_WAIT_MIN" default:"500ms" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `envconfig:"THEGRAPH_RETRY_WAIT_MAX" default:"5s" yaml:"retry_wait_max"`

	// Client side rate limit, zero disables it
	RateLimitRPS   float64 `envconfig:"THEGRAPH_RATE_LIMIT_RPS" default:"0" yaml:"rate_limit_rps"`
	RateLimitBurst int     `envconfig:"THEGRAPH_RATE_LIMIT_BURST" default:"1" yaml:"rate_limit_burst"`

	UserAgent string `envconfig:"THEGRAPH_USER_AGENT" default:"tokenapi-go/0.1.0" yaml:"user_agent"`

	// OpenTelemetry endpoint for request traces
	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" yaml:"otel_endpoint"`

	LogLevel  string `envconfig:"THEGRAPH_LOG_LEVEL" default:"warn" yaml:"log_level"`
	LogFormat string `envconfig:"THEGRAPH_LOG_FORMAT" default:"text" yaml:"log_format"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Network:        string(types.NetworkMainnet),
		Timeout:        30 * time.Second,
		RetryWaitMin:   500 * time.Millisecond,
		RetryWaitMax:   5 * time.Second,
		RateLimitBurst: 1,
		UserAgent:      DefaultUserAgent,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Load creates a new Config from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, &Error{Field: "environment", Reason: err.Error()}
	}
	return cfg, nil
}

// LoadFile reads the environment and then applies a YAML file on top.
// Keys present in the file win over the environment.
func LoadFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Field: "file", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &Error{Field: "file", Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return cfg, nil
}

// Validate checks the settings the client cannot run without
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &Error{Field: "api_key", Reason: "missing; pass an API key or set THEGRAPH_API_KEY"}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &Error{Field: "base_url", Reason: fmt.Sprintf("%q is not an http(s) URL", c.BaseURL)}
	}

	if !types.NetworkID(c.Network).Valid() {
		return &Error{Field: "network", Reason: fmt.Sprintf("unsupported network %q", c.Network)}
	}

	if c.Timeout < 0 {
		return &Error{Field: "timeout", Reason: "must not be negative"}
	}

	if c.MaxRetries < 0 {
		return &Error{Field: "max_retries", Reason: "must not be negative"}
	}

	if c.RetryWaitMin < 0 || c.RetryWaitMax < c.RetryWaitMin {
		return &Error{Field: "retry_wait", Reason: "need 0 <= min <= max"}
	}

	if c.RateLimitRPS < 0 {
		return &Error{Field: "rate_limit_rps", Reason: "must not be negative"}
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return &Error{Field: "rate_limit_burst", Reason: "must be at least 1"}
	}

	return nil
}

// Logger builds a logrus logger from the log settings
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()

	switch strings.ToLower(c.LogFormat) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace":
		logger.SetLevel(logrus.TraceLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	return logger
}
