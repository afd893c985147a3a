package content

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	cacheKeyPrefix = "aquashop:content:"
	// absentMarker caches misses so fallback chains do not hit Postgres for every absent field.
	absentMarker = "\x00absent"
)

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type cachedRepo struct {
	inner  Repository
	store  cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCached wraps a Repository with a Redis read-through cache. Point lookups are cached
// (including misses); pattern lookups always go to the inner store. Redis failures degrade
// to the inner store.
func NewCached(inner Repository, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) Repository {
	return newCached(inner, client, ttl, logger)
}

func newCached(inner Repository, store cmdable, ttl time.Duration, logger *zerolog.Logger) *cachedRepo {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &cachedRepo{inner: inner, store: store, ttl: ttl, logger: l}
}

func (c *cachedRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if value, hit := c.lookup(ctx, key); hit {
		if value == absentMarker {
			return "", false, nil
		}
		return value, true, nil
	}
	value, ok, err := c.inner.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if ok {
		c.remember(ctx, key, value)
	} else {
		c.remember(ctx, key, absentMarker)
	}
	return value, ok, nil
}

func (c *cachedRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	var misses []string
	for _, key := range keys {
		value, hit := c.lookup(ctx, key)
		switch {
		case !hit:
			misses = append(misses, key)
		case value != absentMarker:
			out[key] = value
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := c.inner.GetMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, key := range misses {
		if value, ok := found[key]; ok {
			out[key] = value
			c.remember(ctx, key, value)
			continue
		}
		c.remember(ctx, key, absentMarker)
	}
	return out, nil
}

func (c *cachedRepo) FindByPattern(ctx context.Context, pattern string) (map[string]string, error) {
	return c.inner.FindByPattern(ctx, pattern)
}

func (c *cachedRepo) Upsert(ctx context.Context, key, value string) error {
	if err := c.inner.Upsert(ctx, key, value); err != nil {
		return err
	}
	if err := c.store.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("content cache: invalidate")
	}
	return nil
}

func (c *cachedRepo) lookup(ctx context.Context, key string) (string, bool) {
	value, err := c.store.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("content cache: get")
		}
		return "", false
	}
	return value, true
}

func (c *cachedRepo) remember(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, cacheKeyPrefix+key, value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("content cache: set")
	}
}
