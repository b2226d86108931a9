package services

import (
	"context"
	"fmt"
	"time"

	"ottbot/pkg/cache"
	"ottbot/pkg/logger"
)

type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Advanced operations
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Increment(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)
	SetExpire(ctx context.Context, key string, expiration time.Duration) error
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Health
	Ping(ctx context.Context) error
}

type cacheService struct {
	redis      *cache.RedisCache
	logger     *logger.Logger
	keyPrefix  string
	defaultTTL time.Duration
}

func NewCacheService(redis *cache.RedisCache, log *logger.Logger, keyPrefix string, defaultTTL time.Duration) CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}

	return &cacheService{
		redis:      redis,
		logger:     log,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Basic cache operations
func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.redis.Get(ctx, s.buildKey(key), dest)
	if err != nil && !cache.IsCacheMiss(err) {
		s.logger.WithError(err).WithField("key", key).Warn("cache get failed")
	}
	return err
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = s.defaultTTL
	}

	if err := s.redis.Set(ctx, s.buildKey(key), value, expiration); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}

	if err := s.redis.Delete(ctx, fullKeys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.redis.Exists(ctx, s.buildKey(key))
}

// Advanced operations
func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if expiration <= 0 {
		expiration = s.defaultTTL
	}
	return s.redis.SetNX(ctx, s.buildKey(key), value, expiration)
}

func (s *cacheService) Increment(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	value, err := s.redis.Increment(ctx, s.buildKey(key), delta)
	if err != nil {
		return 0, fmt.Errorf("failed to increment cache key %s: %w", key, err)
	}

	// First write on this key starts the expiry window.
	if value == delta && expiration > 0 {
		if err := s.redis.Expire(ctx, s.buildKey(key), expiration); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to set expiry on counter")
		}
	}

	return value, nil
}

func (s *cacheService) SetExpire(ctx context.Context, key string, expiration time.Duration) error {
	return s.redis.Expire(ctx, s.buildKey(key), expiration)
}

func (s *cacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return s.redis.TTL(ctx, s.buildKey(key))
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

// IsCacheMiss reports whether an error from Get means the key was absent.
func IsCacheMiss(err error) bool {
	return cache.IsCacheMiss(err)
}
