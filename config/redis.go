package config

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"time"
)

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func NewRedisClient(ctx context.Context, cfg *Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	operation := func() (string, error) {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to connect to Redis. Retrying...")
			return "", err
		}
		return pong, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	if _, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3)); err != nil {
		client.Close()
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("addr", cfg.Addr).Msg("Successfully connected to Redis")
	go func() {
		<-ctx.Done()
		if err := client.Close(); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to close Redis connection")
		}
	}()

	return client, nil
}
