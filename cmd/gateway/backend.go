package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

const (
	headerScheduledCron = "X-Scheduled-Cron"
	headerScheduledTime = "X-Scheduled-Time"
)

// upstream guarda o que é compartilhado entre requests (proxy e client são
// seguros para uso concorrente). O backend em si é montado por request.
type upstream struct {
	target       *url.URL
	proxy        *httputil.ReverseProxy
	client       *http.Client
	schedulePath string
	log          *zap.Logger
}

func newUpstream(target *url.URL, schedulePath string, log *zap.Logger) *upstream {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}
	return &upstream{
		target:       target,
		proxy:        proxy,
		client:       &http.Client{Timeout: 30 * time.Second},
		schedulePath: schedulePath,
		log:          log,
	}
}

// backend implementa ratelimit.Backend encaminhando para o serviço de identidade.
type backend struct {
	up  *upstream
	env domain.Bindings
}

func (u *upstream) factory() ratelimit.BackendFactory {
	return func(env domain.Bindings) ratelimit.Backend {
		return backend{up: u, env: env}
	}
}

func (b backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.up.proxy.ServeHTTP(w, r)
}

// Scheduled avisa o upstream via POST no path configurado.
func (b backend) Scheduled(ctx context.Context, ev domain.ScheduledEvent) error {
	u := *b.up.target
	u.Path = singleJoiningSlash(u.Path, b.up.schedulePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build scheduled request: %w", err)
	}
	req.Header.Set(headerScheduledCron, ev.Cron)
	req.Header.Set(headerScheduledTime, ev.ScheduledTime.UTC().Format(time.RFC3339))

	resp, err := b.up.client.Do(req)
	if err != nil {
		return fmt.Errorf("scheduled request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("scheduled request: upstream returned %d", resp.StatusCode)
	}
	return nil
}

func singleJoiningSlash(a, b string) string {
	switch aslash, bslash := len(a) > 0 && a[len(a)-1] == '/', len(b) > 0 && b[0] == '/'; {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
