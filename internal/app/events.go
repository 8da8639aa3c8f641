package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adanyl0v/todos/internal/config"
	"github.com/adanyl0v/todos/internal/events"
)

const redisPingTimeout = 5 * time.Second

var globalBroker events.Broker

// MustInitEventBroker uses Redis when REDIS_ADDR is set so that auth
// events reach clients connected to any instance.
func MustInitEventBroker() {
	cfg := config.Global().Redis
	logger := globalLogger.With().Str("component", "events").Logger()

	if cfg.Addr == "" {
		globalBroker = events.NewMemoryBroker(logger)
		globalLogger.Info().Msg("using in-memory auth event broker")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("failed to ping redis")
		panic(err)
	}

	globalBroker = events.NewRedisBroker(logger, client)
	globalLogger.Info().
		Str("addr", cfg.Addr).
		Msg("using redis auth event broker")
}

func CloseEventBroker() {
	err := globalBroker.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close event broker")
		return
	}
	globalLogger.Info().Msg("closed event broker")
}
