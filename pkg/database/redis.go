package database

import (
	"context"
	"fmt"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// InitRedis connects and fails fast when the server is unreachable, the
// session store cannot run degraded.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Log.Info("Redis connection established")
	return rdb, nil
}
