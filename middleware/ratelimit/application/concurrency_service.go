package application

import (
	"context"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
)

// ConcurrencyService controla as vagas de requests simultâneos no gateway,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire retorna (release, ok). Com AcquireTimeout <= 0 espera até o ctx
// cancelar; caso contrário desiste após o timeout. Sem pool sempre libera.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}
