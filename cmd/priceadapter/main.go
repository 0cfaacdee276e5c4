// Package main runs a Chainlink External Adapter that reports USD prices of
// ETH, SOL and POL derived from DEX trades indexed by The Graph Token API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/tokenapi"
	"github.com/yourorg/tokenapi/internal/security"
	"github.com/yourorg/tokenapi/price"
)

// adapterConfig holds the settings of the adapter itself. The Token API
// client reads its own THEGRAPH_* variables.
type adapterConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"ADAPTER_TIMEOUT" default:"15s"`

	// Inbound rate limit, zero disables it
	RateLimitRPS   float64 `envconfig:"ADAPTER_RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"ADAPTER_RATE_LIMIT_BURST" default:"20"`

	// Quotes are shared through Redis when set
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"tokenapi:price:"`

	SigningEnabled  bool          `envconfig:"SIGNING_ENABLED" default:"false"`
	SigningKey      string        `envconfig:"SIGNING_KEY"`
	SigningValidity time.Duration `envconfig:"SIGNING_VALIDITY" default:"1h"`
}

func main() {
	if err := run(); err != nil {
		logrus.Errorf("Price adapter stopped: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg adapterConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("invalid adapter configuration: %w", err)
	}

	apiCfg, err := tokenapi.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid Token API configuration: %w", err)
	}
	logger := apiCfg.Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := tokenapi.NewFromConfig(apiCfg, tokenapi.WithLogger(logger), tokenapi.WithMetrics(reg))
	if err != nil {
		return fmt.Errorf("failed to create Token API client: %w", err)
	}
	defer client.Close()

	oracleOpts := []price.Option{price.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		store := price.NewRedisStore(rdb, cfg.RedisPrefix)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.HealthCheck(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
		oracleOpts = append(oracleOpts, price.WithStore(store))
	}

	var signer *security.Signer
	if cfg.SigningEnabled {
		signer, err = security.NewSigner(cfg.SigningKey, cfg.SigningValidity)
		if err != nil {
			return fmt.Errorf("failed to initialize signer: %w", err)
		}
		logger.WithField("address", signer.Address().Hex()).Info("Response signing enabled")
	}

	srv := NewServer(cfg, price.New(client, oracleOpts...), client, signer, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
