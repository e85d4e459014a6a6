// Package redis provides the optional cache used for hot nickname
// lookups. Services depend on the CacheService interface; when the cache
// is disabled a nil service is passed around and callers skip it.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"klav_chat_server/internal/config"
	"klav_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// CacheService abstracts the cache operations the services need.
type CacheService interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns "" with a nil error when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// AsyncCacheService adds non-blocking task submission for cache updates
// that must not sit on the request path.
type AsyncCacheService interface {
	CacheService
	SubmitTask(action func())
}

type redisCache struct {
	client *redis.Client
	pool   *workerPool
}

// Init connects to redis and starts the cache worker pool. Returns nil
// when the cache is disabled by configuration.
func Init(cfg *config.RedisConfig) (AsyncCacheService, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.Db,
		PoolSize:     20,
		MinIdleConns: 5,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "redis ping failed")
	}
	return &redisCache{
		client: client,
		pool:   newWorkerPool(4, 1024),
	}, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "set key %s", key)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "get key %s", key)
	}
	return val, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "delete key %s", key)
	}
	return nil
}

// SubmitTask queues an asynchronous cache update, degrading to a
// synchronous call when the queue is full.
func (c *redisCache) SubmitTask(action func()) {
	c.pool.submit(action)
}
