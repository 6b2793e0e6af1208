package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixembed/fixembed-bot/internal/logger"
)

// RedisOptions configures the Redis client and its startup retry loop.
type RedisOptions struct {
	Addr           string
	User           string
	Password       string
	DB             int
	Prefix         string
	ConnectTimeout time.Duration // total time allowed for connection attempts
	RetryInterval  time.Duration // first wait between attempts, doubles up to MaxWait
	MaxWait        time.Duration
	PingTimeout    time.Duration
}

// ConnectRedis pings the server until it answers or ConnectTimeout passes.
func ConnectRedis(ctx context.Context, opts RedisOptions, log logger.Logger) (*Redis, error) {
	if opts.ConnectTimeout <= 0 || opts.RetryInterval <= 0 || opts.PingTimeout <= 0 {
		return nil, fmt.Errorf("redis: timeouts must be > 0")
	}
	if opts.MaxWait < opts.RetryInterval {
		opts.MaxWait = opts.RetryInterval
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.User,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.String("addr", opts.Addr))
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.String("addr", opts.Addr), logger.Int("attempts", attempt))
			}
			return NewRedis(client, opts.Prefix), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = client.Close()
			return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
			log.Warn("redis connection failed, retrying",
				logger.String("addr", opts.Addr),
				logger.Int("attempt", attempt),
				logger.Duration("next_retry_in", wait),
				logger.Error(err))
			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}
