package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func runServe(parent context.Context, v *viper.Viper) error {
	cfg, err := readConfig(v)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log, err := newLogger(cfg.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	policies, err := loadPolicies(cfg.policyFile)
	if err != nil {
		return err
	}

	var rdb redis.Cmdable
	if cfg.limiterBackend == "redis" || cfg.rateStatsEnabled {
		client, err := newRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		rdb = client
	}

	bindings, err := buildBindings(ctx, cfg, policies, rdb)
	if err != nil {
		return err
	}

	var stats domain.StatsStore
	if cfg.rateStatsEnabled {
		stats = infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	up := newUpstream(target, cfg.schedulePath, log)
	dispatcher := newDispatcher(cfg, policies, bindings, stats, up, log)
	h := buildHandler(cfg, dispatcher, up, log)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.scheduleEvery > 0 {
		go runScheduler(ctx, dispatcher, cfg.scheduleEvery, cfg.scheduleCron, log)
	}

	log.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()),
		zap.Bool("rate_enabled", cfg.rateEnabled),
		zap.String("limiter_backend", cfg.limiterBackend),
		zap.Strings("bindings", bindings.Names()),
		zap.Int("policies", len(policies)),
		zap.Duration("limiter_timeout", cfg.limiterTimeout),
		zap.Int("concurrency_max", cfg.concurrencyMax))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newDispatcher(cfg config, policies []domain.Policy, bindings domain.Bindings, stats domain.StatsStore, up *upstream, log *zap.Logger) ratelimit.Dispatcher {
	return ratelimit.Dispatcher{
		Decider: ratelimit.NewDecider(ratelimit.Options{
			Bindings:       bindings,
			Policies:       policies,
			Stats:          stats,
			IPHeader:       cfg.clientIPHeader,
			MaxBodyBytes:   cfg.maxBodyBytes,
			LimiterTimeout: cfg.limiterTimeout,
			Logger:         log,
		}),
		Env:        bindings,
		NewBackend: up.factory(),
		Logger:     log,
	}
}

// buildHandler monta a cadeia: request id -> concorrência -> rate limit -> upstream.
func buildHandler(cfg config, dispatcher ratelimit.Dispatcher, up *upstream, log *zap.Logger) http.Handler {
	h := http.Handler(up.proxy)
	if cfg.rateEnabled {
		h = dispatcher
	}
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         log,
	})(h)
	return ratelimit.RequestID(h)
}

// runScheduler dispara o evento periódico direto no backend.
func runScheduler(ctx context.Context, d ratelimit.Dispatcher, every time.Duration, cron string, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-t.C:
			ev := domain.ScheduledEvent{Cron: cron, ScheduledTime: at}
			if err := d.Scheduled(ctx, ev); err != nil {
				log.Error("scheduled event failed", zap.Error(err))
			}
		}
	}
}
