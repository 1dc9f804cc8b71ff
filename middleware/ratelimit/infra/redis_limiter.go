package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter é um limiter de janela fixa compartilhado entre instâncias.
//
// Cada chave vira um contador "<prefix>:<key>:<janela>" com INCR + EXPIRE na
// mesma transação; passa enquanto o contador não excede o limite da janela.
type RedisLimiter struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

type RedisLimiterOption func(*RedisLimiter)

func WithLimiterPrefix(prefix string) RedisLimiterOption {
	return func(l *RedisLimiter) { l.prefix = strings.Trim(prefix, ":") }
}

func NewRedisLimiter(rdb redis.Cmdable, limit int64, window time.Duration, opts ...RedisLimiterOption) *RedisLimiter {
	l := &RedisLimiter{
		rdb:    rdb,
		prefix: "ratelimit:limiter",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	if l.window <= 0 {
		l.window = time.Minute
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLimiter) bucketKey(key domain.Key) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
}

// Limit implementa domain.Limiter. Erros do Redis voltam para o gateway,
// que decide por fail-open.
func (l *RedisLimiter) Limit(ctx context.Context, key domain.Key) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	k := l.bucketKey(key)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
