package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// Misses are never cached, so a code claimed after a miss is visible immediately.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "cache:mapping:",
		ttl:    ttl,
		logger: logger,
	}
}

// TryClaim claims in the underlying store and caches the mapping on success.
func (r *RedisCacheRepository) TryClaim(ctx context.Context, m shortener.Mapping) (shortener.Mapping, bool, error) {
	stored, claimed, err := r.store.TryClaim(ctx, m)
	if err != nil || !claimed {
		return stored, claimed, err
	}

	// Write-through: update cache after successful claim
	r.cacheMapping(ctx, stored)

	return stored, true, nil
}

// Lookup retrieves a mapping by its code, checking cache first.
func (r *RedisCacheRepository) Lookup(ctx context.Context, code shortener.Code) (shortener.Mapping, error) {
	if m, err := r.getFromCache(ctx, code); err == nil {
		return m, nil
	}

	m, err := r.store.Lookup(ctx, code)
	if err != nil {
		return shortener.Mapping{}, err
	}

	r.cacheMapping(ctx, m)

	return m, nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (shortener.Mapping, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return shortener.Mapping{}, err
	}

	if len(result) == 0 {
		return shortener.Mapping{}, errCacheMiss
	}

	return mappingFromHash(result)
}

func (r *RedisCacheRepository) cacheMapping(ctx context.Context, m shortener.Mapping) {
	key := r.prefix + string(m.Code())

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, mappingToHash(m))

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("failed to cache mapping",
			zap.String("code", string(m.Code())),
			zap.Error(err),
		)
	}
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
