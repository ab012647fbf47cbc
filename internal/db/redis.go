package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisConnectAttempts = 5

// NewRedisClient connects and pings, retrying with a doubling delay so the
// api and worker can start alongside a Redis container that is still booting.
func NewRedisClient(ctx context.Context, url string, log *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 3 * time.Second
	}
	opts.ClientName = applicationName

	client := redis.NewClient(opts)

	delay := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err = client.Ping(ctx).Err()
		if err == nil {
			break
		}
		if attempt == redisConnectAttempts {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping after %d attempts: %w", attempt, err)
		}
		log.Warn("redis not ready, retrying", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	log.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}
