package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TokenCache stores partner API tokens keyed by provider and scope.
// Redis is preferred so tokens survive restarts and are shared between
// replicas; when Redis is unreachable the cache degrades to an
// in-process map and every replica authenticates on its own.
type TokenCache struct {
	client *redis.Client
	logger *logrus.Logger

	memCache map[string]tokenItem
	memMutex sync.RWMutex
}

type tokenItem struct {
	value     string
	expiresAt time.Time
}

// NewTokenCache creates a token cache. client may be nil, in which case
// only the in-memory layer is used.
func NewTokenCache(client *redis.Client, logger *logrus.Logger) *TokenCache {
	return &TokenCache{
		client:   client,
		logger:   logger,
		memCache: make(map[string]tokenItem),
	}
}

// Get retrieves a cached token. Empty string means not cached or
// expired.
func (c *TokenCache) Get(ctx context.Context, key string) (string, error) {
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			c.logger.WithField("key", key).Debug("Token cache hit (Redis)")
			return val, nil
		}
		if err != redis.Nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis get error, falling back to memory cache")
		}
	}

	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	if !exists {
		return "", nil
	}
	if time.Now().After(item.expiresAt) {
		c.memMutex.Lock()
		delete(c.memCache, key)
		c.memMutex.Unlock()
		return "", nil
	}

	c.logger.WithField("key", key).Debug("Token cache hit (memory)")
	return item.value, nil
}

// Set stores a token with an explicit TTL. The TTL should undercut the
// partner's real expiry so a cached token is always still valid when
// read.
func (c *TokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis set error, falling back to memory cache")
		}
	}

	c.memMutex.Lock()
	c.memCache[key] = tokenItem{value: value, expiresAt: time.Now().Add(ttl)}
	c.memMutex.Unlock()
	return nil
}

// Delete drops a token from every layer. Used after a partner rejects
// a token that has not reached its local expiry.
func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}

	c.memMutex.Lock()
	delete(c.memCache, key)
	c.memMutex.Unlock()
	return nil
}

// NewRedisClient builds the go-redis client used by the token cache.
// A nil return means Redis is disabled and callers run memory-only.
func NewRedisClient(addr, password string, db, poolSize int, dialTimeout, readTimeout, writeTimeout time.Duration, logger *logrus.Logger) *redis.Client {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, token cache will run memory-only")
		return nil
	}

	logger.WithField("addr", addr).Info("Redis connection established")
	return client
}
