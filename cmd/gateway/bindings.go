package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
)

// buildBindings cria um limiter por nome de binding usado nas políticas.
// Com LIMITER_BACKEND=none nada é registrado e tudo passa (fail-open).
func buildBindings(ctx context.Context, cfg config, policies []domain.Policy, rdb redis.Cmdable) (*infra.Registry, error) {
	limiters := make(map[string]domain.Limiter)
	for _, p := range policies {
		if _, ok := limiters[p.LimiterName]; ok {
			continue
		}
		switch cfg.limiterBackend {
		case "memory":
			store := infra.NewStore(cfg.rateRPS, cfg.rateBurst)
			store.StartJanitor(ctx)
			limiters[p.LimiterName] = store
		case "redis":
			if rdb == nil {
				return nil, fmt.Errorf("limiter %s: redis client not configured", p.LimiterName)
			}
			limiters[p.LimiterName] = infra.NewRedisLimiter(rdb, cfg.limiterLimit, cfg.limiterWindow,
				infra.WithLimiterPrefix(cfg.limiterRedisPrefix+":"+p.LimiterName))
		case "none":
		}
	}
	return infra.NewRegistry(limiters), nil
}

// newRedis conecta e valida com PING antes de o gateway subir.
func newRedis(ctx context.Context, cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.limiterRedisAddr,
		Password: cfg.limiterRedisPassword,
		DB:       cfg.limiterRedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
