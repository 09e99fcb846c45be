package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yukikurage/primecode/internal/config"
)

// ConnectRedis returns a client for the rate limiter, or nil when REDIS_ADDR
// is unset. An unreachable server is logged but still returned; the limiter
// lets requests through while Redis is down.
func ConnectRedis(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; auth rate limiting disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable; rate limiting will fail open")
	} else {
		log.WithField("addr", cfg.RedisAddr).Info("redis connection established")
	}
	return rdb
}
