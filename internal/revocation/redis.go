package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:jti:"

// KV is the slice of a key/value cache the Redis-backed store needs.
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// RedisStore shares revocations between replicas and across restarts.
// Entries live until the token would have expired anyway.
type RedisStore struct {
	kv KV
}

func NewRedisStore(kv KV) *RedisStore {
	return &RedisStore{kv: kv}
}

func (s *RedisStore) Add(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err := s.kv.SetNX(ctx, keyPrefix+jti, []byte("1"), ttl)
	return err
}

func (s *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	return s.kv.Exists(ctx, keyPrefix+jti)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisKV adapts a go-redis client to KV.
type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(cfg RedisConfig) *RedisKV {
	return &RedisKV{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (c *RedisKV) SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, val, ttl).Result()
}

func (c *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *RedisKV) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisKV) Close() error {
	return c.rdb.Close()
}
