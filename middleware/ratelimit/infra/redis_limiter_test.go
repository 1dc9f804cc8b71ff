package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redis/go-redis/v9"
)

func TestRedisLimiter_BucketKeyUsesWindowSlot(t *testing.T) {
	l := NewRedisLimiter(nil, 5, time.Minute, WithLimiterPrefix("rl:"))
	l.now = func() time.Time { return time.Unix(120, 0) }

	assert.Equal(t, "rl:email:a@b.com:2", l.bucketKey("email:a@b.com"))
}

func TestRedisLimiter_ZeroLimitAlwaysAllows(t *testing.T) {
	l := NewRedisLimiter(nil, 0, time.Minute)

	ok, err := l.Limit(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_UnreachableRedisReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	l := NewRedisLimiter(rdb, 5, time.Minute)
	_, err := l.Limit(context.Background(), "ip:1.2.3.4")
	assert.Error(t, err)
}
