package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// Gateway consulta o limiter externo e normaliza qualquer falha para fail-open.
//
// Indisponibilidade do limiter nunca pode virar indisponibilidade do backend:
// binding ausente, erro, panic ou timeout resultam em "não limitado".
type Gateway struct {
	Bindings domain.Bindings
	// Timeout limita a chamada ao limiter. Se <= 0, espera enquanto o ctx permitir.
	Timeout time.Duration
	Logger  *zap.Logger
}

type limitReply struct {
	success bool
	err     error
}

func (g Gateway) Check(ctx context.Context, limiterName string, key domain.Key) domain.LimiterResult {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var lim domain.Limiter
	ok := false
	if g.Bindings != nil {
		lim, ok = g.Bindings.Limiter(limiterName)
	}
	if !ok || lim == nil {
		log.Warn("rate limiter binding not configured, skipping rate limit",
			zap.String("limiter", limiterName))
		return domain.LimiterResult{Outcome: domain.OutcomeMissingBinding}
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	// a chamada roda numa goroutine para que um limiter que ignora ctx
	// não segure o request além do timeout.
	done := make(chan limitReply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- limitReply{err: fmt.Errorf("limiter panic: %v", p)}
			}
		}()
		success, err := lim.Limit(ctx, key)
		done <- limitReply{success: success, err: err}
	}()

	var reply limitReply
	select {
	case reply = <-done:
	case <-ctx.Done():
		reply = limitReply{err: fmt.Errorf("limiter %s: %w", limiterName, ctx.Err())}
	}

	if reply.err != nil {
		log.Error("rate limiter check failed, allowing request",
			zap.String("limiter", limiterName),
			zap.String("key", string(key)),
			zap.Error(reply.err))
		return domain.LimiterResult{Outcome: domain.OutcomeFailed, Err: reply.err}
	}
	if !reply.success {
		return domain.LimiterResult{Outcome: domain.OutcomeLimited}
	}
	return domain.LimiterResult{Outcome: domain.OutcomeAllowed}
}
