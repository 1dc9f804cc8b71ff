package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit"

	"github.com/spf13/viper"
)

type config struct {
	listenAddr  string
	upstreamURL string
	logLevel    string

	rateEnabled    bool
	clientIPHeader string
	maxBodyBytes   int64
	limiterTimeout time.Duration
	policyFile     string

	limiterBackend string // memory | redis | none
	rateRPS        float64
	rateBurst      int
	limiterLimit   int64
	limiterWindow  time.Duration

	limiterRedisAddr     string
	limiterRedisPassword string
	limiterRedisDB       int
	limiterRedisPrefix   string

	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled   bool
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	scheduleEvery time.Duration
	schedulePath  string
	scheduleCron  string
}

// newViper lê tudo do ambiente; os nomes das variáveis são as próprias chaves.
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_ENABLED", true)
	v.SetDefault("CLIENT_IP_HEADER", ratelimit.DefaultClientIPHeader)
	v.SetDefault("MAX_BODY_BYTES", ratelimit.DefaultMaxBodyBytes)
	v.SetDefault("LIMITER_TIMEOUT", 2*time.Second)

	v.SetDefault("LIMITER_BACKEND", "memory")
	v.SetDefault("RATE_RPS", 0.1)
	v.SetDefault("RATE_BURST", 5)
	v.SetDefault("LIMITER_LIMIT", 10)
	v.SetDefault("LIMITER_WINDOW", time.Minute)
	v.SetDefault("LIMITER_REDIS_DB", 0)
	v.SetDefault("LIMITER_REDIS_PREFIX", "ratelimit:limiter")

	v.SetDefault("CONCURRENCY_MAX", 100)
	v.SetDefault("CONCURRENCY_TIMEOUT", 0)

	v.SetDefault("RATE_STATS_ENABLED", false)
	v.SetDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	v.SetDefault("RATE_STATS_TTL", 24*time.Hour)
	v.SetDefault("RATE_STATS_BUCKET", "minute")
	v.SetDefault("RATE_STATS_TRACK_KEYS", false)

	v.SetDefault("SCHEDULE_EVERY", 0)
	v.SetDefault("SCHEDULE_PATH", "/__scheduled")
	v.SetDefault("SCHEDULE_CRON", "")
	return v
}

func readConfig(v *viper.Viper) (config, error) {
	cfg := config{
		listenAddr:  v.GetString("LISTEN_ADDR"),
		upstreamURL: strings.TrimSpace(v.GetString("UPSTREAM_URL")),
		logLevel:    v.GetString("LOG_LEVEL"),

		rateEnabled:    v.GetBool("RATE_ENABLED"),
		clientIPHeader: v.GetString("CLIENT_IP_HEADER"),
		maxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
		limiterTimeout: v.GetDuration("LIMITER_TIMEOUT"),
		policyFile:     v.GetString("POLICY_FILE"),

		limiterBackend: strings.ToLower(strings.TrimSpace(v.GetString("LIMITER_BACKEND"))),
		rateRPS:        v.GetFloat64("RATE_RPS"),
		rateBurst:      v.GetInt("RATE_BURST"),
		limiterLimit:   v.GetInt64("LIMITER_LIMIT"),
		limiterWindow:  v.GetDuration("LIMITER_WINDOW"),

		limiterRedisAddr:     strings.TrimSpace(v.GetString("LIMITER_REDIS_ADDR")),
		limiterRedisPassword: v.GetString("LIMITER_REDIS_PASSWORD"),
		limiterRedisDB:       v.GetInt("LIMITER_REDIS_DB"),
		limiterRedisPrefix:   v.GetString("LIMITER_REDIS_PREFIX"),

		concurrencyMax:     v.GetInt("CONCURRENCY_MAX"),
		concurrencyTimeout: v.GetDuration("CONCURRENCY_TIMEOUT"),

		rateStatsEnabled:   v.GetBool("RATE_STATS_ENABLED"),
		rateStatsPrefix:    v.GetString("RATE_STATS_PREFIX"),
		rateStatsTTL:       v.GetDuration("RATE_STATS_TTL"),
		rateStatsBucket:    v.GetString("RATE_STATS_BUCKET"),
		rateStatsTrackKeys: v.GetBool("RATE_STATS_TRACK_KEYS"),

		scheduleEvery: v.GetDuration("SCHEDULE_EVERY"),
		schedulePath:  v.GetString("SCHEDULE_PATH"),
		scheduleCron:  v.GetString("SCHEDULE_CRON"),
	}

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if u, err := url.Parse(cfg.upstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		return config{}, fmt.Errorf("invalid UPSTREAM_URL %q", cfg.upstreamURL)
	}

	switch cfg.limiterBackend {
	case "memory":
		if cfg.rateRPS <= 0 {
			return config{}, errors.New("RATE_RPS must be > 0")
		}
		if cfg.rateBurst <= 0 {
			return config{}, errors.New("RATE_BURST must be > 0")
		}
	case "redis":
		if cfg.limiterRedisAddr == "" {
			return config{}, errors.New("LIMITER_REDIS_ADDR is required when LIMITER_BACKEND=redis")
		}
		if cfg.limiterLimit <= 0 {
			return config{}, errors.New("LIMITER_LIMIT must be > 0")
		}
	case "none":
	default:
		return config{}, fmt.Errorf("LIMITER_BACKEND must be memory, redis or none, got %q", cfg.limiterBackend)
	}

	// stats reaproveitam a conexão do limiter
	if cfg.rateStatsEnabled && cfg.limiterRedisAddr == "" {
		return config{}, errors.New("LIMITER_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.maxBodyBytes <= 0 {
		return config{}, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.limiterTimeout < 0 {
		return config{}, errors.New("LIMITER_TIMEOUT must be >= 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.scheduleEvery < 0 {
		return config{}, errors.New("SCHEDULE_EVERY must be >= 0")
	}
	return cfg, nil
}
