package repository

import (
	"context"
	"errors"
	"github.com/redis/go-redis/v9"
	"time"
	"worker-analysis/constant"
)

const promptKeyPrefix = "analysis_prompt:"

// PromptCache keeps recently resolved prompts in Redis.
type PromptCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPromptCache(client *redis.Client, ttl time.Duration) *PromptCache {
	return &PromptCache{client: client, ttl: ttl}
}

func (c *PromptCache) Get(ctx context.Context, category constant.PromptCategory) (string, bool, error) {
	val, err := c.client.Get(ctx, promptKeyPrefix+category.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *PromptCache) Set(ctx context.Context, category constant.PromptCategory, prompt string) error {
	return c.client.Set(ctx, promptKeyPrefix+category.String(), prompt, c.ttl).Err()
}

func (c *PromptCache) Invalidate(ctx context.Context, category constant.PromptCategory) error {
	return c.client.Del(ctx, promptKeyPrefix+category.String()).Err()
}
