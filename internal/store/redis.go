package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// claimScript writes the mapping hash only when the key is absent, in one atomic step.
var claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'code', ARGV[2], 'long_url', ARGV[3], 'short_url', ARGV[4], 'created_at', ARGV[5])
return 1
`)

// RedisStore is a Redis implementation of shortener.Repository.
// Each mapping is a hash at "mapping:<code>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed mapping store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "mapping:",
	}
}

func (r *RedisStore) TryClaim(ctx context.Context, m shortener.Mapping) (shortener.Mapping, bool, error) {
	n, err := claimScript.Run(ctx, r.client, []string{r.prefix + string(m.Code())},
		m.ID().String(),
		string(m.Code()),
		m.LongURL(),
		m.ShortURL(),
		m.CreatedAt().UnixNano(),
	).Int()
	if err != nil {
		return shortener.Mapping{}, false, err
	}

	if n == 0 {
		return shortener.Mapping{}, false, nil
	}

	return m, true, nil
}

func (r *RedisStore) Lookup(ctx context.Context, code shortener.Code) (shortener.Mapping, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return shortener.Mapping{}, err
	}

	if len(fields) == 0 {
		return shortener.Mapping{}, shortener.ErrNotFound
	}

	return mappingFromHash(fields)
}

// mappingFromHash decodes the hash layout shared by RedisStore and RedisCacheRepository.
func mappingFromHash(fields map[string]string) (shortener.Mapping, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return shortener.Mapping{}, err
	}

	nanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return shortener.Mapping{}, err
	}

	return shortener.RestoreMapping(
		id,
		shortener.Code(fields["code"]),
		fields["long_url"],
		fields["short_url"],
		time.Unix(0, nanos).UTC(),
	)
}

func mappingToHash(m shortener.Mapping) map[string]interface{} {
	return map[string]interface{}{
		"id":         m.ID().String(),
		"code":       string(m.Code()),
		"long_url":   m.LongURL(),
		"short_url":  m.ShortURL(),
		"created_at": m.CreatedAt().UnixNano(),
	}
}

// errCacheMiss is internal to the cache decorator.
var errCacheMiss = errors.New("cache miss")

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
