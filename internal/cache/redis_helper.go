package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisDialTimeout = 5 * time.Second

// openRedisStore dials redis and confirms the server answers before the
// pipeline relies on it for diffs.
func openRedisStore(ctx context.Context, cfg config.CacheConfig) (*RedisStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis snapshot store %s: %w", opts.Addr, err)
	}

	store := NewRedisStore(client, cfg.RedisKey)
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Str("key", store.key).Msg("redis snapshot store ready")
	return store, nil
}

// buildRedisOptions prefers REDIS_URL. Password and DB set explicitly win
// over whatever the URL carries.
func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{Addr: net.JoinHostPort(host, port)}
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB > 0 {
		opts.DB = cfg.RedisDB
	}
	opts.DialTimeout = redisDialTimeout
	return opts, nil
}
