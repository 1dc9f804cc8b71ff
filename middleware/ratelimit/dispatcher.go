package ratelimit

import (
	"context"
	"net/http"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// Backend é o handler protegido (o backend de autenticação).
type Backend interface {
	http.Handler
	Scheduled(ctx context.Context, ev domain.ScheduledEvent) error
}

// BackendFactory monta o backend para cada invocação, com o ambiente
// (bindings) atual. Não existe instância global compartilhada.
type BackendFactory func(env domain.Bindings) Backend

// HandlerBackend adapta um http.Handler comum para Backend.
type HandlerBackend struct {
	Handler     http.Handler
	OnScheduled func(ctx context.Context, ev domain.ScheduledEvent) error
}

func (b HandlerBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Handler.ServeHTTP(w, r)
}

func (b HandlerBackend) Scheduled(ctx context.Context, ev domain.ScheduledEvent) error {
	if b.OnScheduled == nil {
		return nil
	}
	return b.OnScheduled(ctx, ev)
}

// Dispatcher decide por request: 429 quando limitado, backend em todos os
// outros casos (não limitado, path fora da tabela ou fail-open).
type Dispatcher struct {
	Decider    Decider
	Env        domain.Bindings
	NewBackend BackendFactory
	Logger     *zap.Logger
}

func (d Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if dec, ok := d.Decider.Decide(r); ok && dec.Limited {
		WriteRejection(w, dec, d.logger(),
			zap.String("method", r.Method),
			zap.String("request_id", GetRequestID(r.Context())))
		return
	}
	d.NewBackend(d.Env).ServeHTTP(w, r)
}

// Scheduled repassa disparos periódicos ao backend sem avaliar rate limit.
func (d Dispatcher) Scheduled(ctx context.Context, ev domain.ScheduledEvent) error {
	return d.NewBackend(d.Env).Scheduled(ctx, ev)
}
