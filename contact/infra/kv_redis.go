package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/redis/go-redis/v9"
)

// RedisKV implementa domain.KVStore com GET e SET EX.
//
// Observação: o Redis tem INCR atômico, mas o contrato do gateway é get/put;
// o incremento continua sendo read-then-write (ver application.RateLimiter).
type RedisKV struct {
	rdb    redis.Cmdable
	prefix string
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix prefixa todas as chaves (ex.: "portfolio:").
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(s *RedisKV) { s.prefix = strings.TrimSpace(prefix) }
}

func NewRedisKV(rdb redis.Cmdable, opts ...RedisKVOption) *RedisKV {
	s := &RedisKV{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.KVStore = (*RedisKV)(nil)

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	// ttl 0 no go-redis também significa sem expiração
	if err := s.rdb.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
