package infra

import (
	"context"
	"testing"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisStatsStore_NilIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{}))
}

func TestRedisStatsStore_Options(t *testing.T) {
	s := NewRedisStatsStore(nil,
		WithStatsPrefix(":warden:stats:"),
		WithStatsTTL(time.Hour),
		WithStatsBucket(" NONE "),
		WithStatsTrackKeys(true),
	)

	assert.Equal(t, "warden:stats", s.prefix)
	assert.Equal(t, time.Hour, s.ttl)
	assert.Equal(t, "none", s.bucket)
	assert.True(t, s.trackKeys)
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{}), "nil client is a no-op")
}

func TestRedisStatsStore_UnreachableRedisReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStatsStore(rdb)
	err := s.Record(context.Background(), domain.StatsEvent{Endpoint: "/api/accounts/register", Outcome: domain.OutcomeLimited})
	assert.Error(t, err)
}
