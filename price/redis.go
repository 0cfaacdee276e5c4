package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/tokenapi/types"
)

const defaultKeyPrefix = "tokenapi:price:"

// RedisStore shares quotes between processes through Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

// NewRedisStore uses client without taking ownership of it. An empty prefix
// means "tokenapi:price:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		log:    logrus.WithField("component", "price_store"),
	}
}

func (s *RedisStore) key(c types.Currency) string { return s.prefix + string(c) }

// Get retrieves a quote from Redis
func (s *RedisStore) Get(ctx context.Context, c types.Currency) (*Quote, error) {
	val, err := s.client.Get(ctx, s.key(c)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var q Quote
	if err := json.Unmarshal(val, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &q, nil
}

// Set stores q with the given TTL
func (s *RedisStore) Set(ctx context.Context, q *Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := s.client.Set(ctx, s.key(q.Currency), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, currencies ...types.Currency) error {
	if len(currencies) == 0 {
		return nil
	}
	keys := make([]string, 0, len(currencies))
	for _, c := range currencies {
		keys = append(keys, s.key(c))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Clear removes every key under the store prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.log.WithError(err).WithField("key", iter.Val()).Warn("Failed to delete cache key")
		}
	}
	return iter.Err()
}

// HealthCheck checks if Redis is reachable
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
