package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/application"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingLimiter struct {
	mu      sync.Mutex
	success bool
	err     error
	keys    []domain.Key
}

func (l *recordingLimiter) Limit(_ context.Context, key domain.Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return l.success, l.err
}

// stubBackend devolve uma resposta fixa e guarda o body recebido.
type stubBackend struct {
	mu        sync.Mutex
	calls     int
	bodies    []string
	scheduled []domain.ScheduledEvent
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls++
	b.bodies = append(b.bodies, string(body))
	b.mu.Unlock()
	w.Header().Set("X-Backend", "vault")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"ok":true}`)
}

func (b *stubBackend) Scheduled(_ context.Context, ev domain.ScheduledEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled = append(b.scheduled, ev)
	return nil
}

func newDispatcher(lim domain.Limiter, backend *stubBackend, log *zap.Logger) Dispatcher {
	limiters := map[string]domain.Limiter{}
	if lim != nil {
		limiters[application.LoginRateLimiter] = lim
	}
	bindings := infra.NewRegistry(limiters)
	return Dispatcher{
		Decider:    NewDecider(Options{Bindings: bindings, Logger: log}),
		Env:        bindings,
		NewBackend: func(domain.Bindings) Backend { return backend },
		Logger:     log,
	}
}

func tokenRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://vault.example/identity/connect/token", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestDispatcher_UnprotectedPathGoesStraightToBackend(t *testing.T) {
	lim := &recordingLimiter{success: false}
	backend := &stubBackend{}
	d := newDispatcher(lim, backend, nil)

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://vault.example/api/sync", strings.NewReader("payload")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"payload"}, backend.bodies)
	assert.Empty(t, lim.keys, "limiter must not be called for unprotected paths")

	_, ok := d.Decider.Decide(httptest.NewRequest(http.MethodGet, "http://vault.example/api/sync", nil))
	assert.False(t, ok)
}

func TestDispatcher_LimitedReturns429(t *testing.T) {
	lim := &recordingLimiter{success: false}
	backend := &stubBackend{}
	core, logs := observer.New(zapcore.DebugLevel)
	d := newDispatcher(lim, backend, zap.New(core))

	dec, ok := d.Decider.Decide(tokenRequest(`{"email":"User@Example.com","password":"x"}`))
	require.True(t, ok)
	assert.True(t, dec.Limited)

	w := httptest.NewRecorder()
	d.ServeHTTP(w, tokenRequest(`{"email":"User@Example.com","password":"x"}`))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, wantRejection, w.Body.String())
	assert.Equal(t, 0, backend.calls, "limited request must not reach the backend")
	assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())
}

func TestDispatcher_AllowedForwardsBodyIntact(t *testing.T) {
	lim := &recordingLimiter{success: true}
	backend := &stubBackend{}
	d := newDispatcher(lim, backend, nil)

	body := `{"email":"User@Example.com","password":"x"}`
	w := httptest.NewRecorder()
	d.ServeHTTP(w, tokenRequest(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vault", w.Header().Get("X-Backend"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, []string{body}, backend.bodies)
	assert.Equal(t, []domain.Key{"email:user@example.com"}, lim.keys)
}

func TestDispatcher_FormBodyKey(t *testing.T) {
	lim := &recordingLimiter{success: true}
	d := newDispatcher(lim, &stubBackend{}, nil)

	r := httptest.NewRequest(http.MethodPost, "http://vault.example/identity/connect/token", strings.NewReader("username=User@Example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	dec, ok := d.Decider.Decide(r)
	require.True(t, ok)
	assert.Equal(t, domain.Key("email:user@example.com"), dec.Key)
}

func TestDispatcher_MissingBindingFailsOpen(t *testing.T) {
	backend := &stubBackend{}
	core, logs := observer.New(zapcore.DebugLevel)
	d := newDispatcher(nil, backend, zap.New(core))

	r := httptest.NewRequest(http.MethodPost, "http://vault.example/api/accounts/register", nil)
	r.Header.Set("cf-connecting-ip", "1.2.3.4")

	dec, ok := d.Decider.Decide(r)
	require.True(t, ok)
	assert.False(t, dec.Limited)
	assert.Equal(t, domain.Key("ip:1.2.3.4"), dec.Key)
	assert.Equal(t, domain.OutcomeMissingBinding, dec.Outcome)
	assert.GreaterOrEqual(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), 1)

	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, backend.calls)
}

func TestDispatcher_LimiterErrorFailsOpen(t *testing.T) {
	lim := &recordingLimiter{err: errors.New("limiter down")}
	backend := &stubBackend{}
	d := newDispatcher(lim, backend, nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://vault.example/api/accounts/prelogin", strings.NewReader(`{"email":"a@b.com"}`))
	require.NotPanics(t, func() { d.ServeHTTP(w, r) })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, []string{`{"email":"a@b.com"}`}, backend.bodies)
}

func TestDispatcher_RepeatedKeysAreNotCached(t *testing.T) {
	lim := &recordingLimiter{success: true}
	d := newDispatcher(lim, &stubBackend{}, nil)

	body := `{"email":"Same@Example.com"}`
	d.ServeHTTP(httptest.NewRecorder(), tokenRequest(body))
	d.ServeHTTP(httptest.NewRecorder(), tokenRequest(body))

	assert.Equal(t, []domain.Key{"email:same@example.com", "email:same@example.com"}, lim.keys)
}

func TestDispatcher_ScheduledBypassesRateLimit(t *testing.T) {
	lim := &recordingLimiter{success: false}
	backend := &stubBackend{}
	d := newDispatcher(lim, backend, nil)

	ev := domain.ScheduledEvent{Cron: "*/5 * * * *"}
	require.NoError(t, d.Scheduled(context.Background(), ev))

	assert.Equal(t, []domain.ScheduledEvent{ev}, backend.scheduled)
	assert.Empty(t, lim.keys)
}

func TestDispatcher_BuildsBackendPerRequestWithEnv(t *testing.T) {
	bindings := infra.NewRegistry(nil)
	var envs []domain.Bindings
	d := Dispatcher{
		Decider: NewDecider(Options{Bindings: bindings}),
		Env:     bindings,
		NewBackend: func(env domain.Bindings) Backend {
			envs = append(envs, env)
			return &stubBackend{}
		},
	}

	d.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://vault.example/alive", nil))
	d.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://vault.example/alive", nil))

	require.Len(t, envs, 2)
	assert.Same(t, bindings, envs[0])
}
