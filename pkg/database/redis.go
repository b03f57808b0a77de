package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lemma-social/lemma-engine/pkg/config"
)

// NewRedisClient builds the client backing the trust cache. Redis is
// optional: with no host configured this returns (nil, nil) and trust
// lookups fall through to Postgres on every read.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return client, nil
}
