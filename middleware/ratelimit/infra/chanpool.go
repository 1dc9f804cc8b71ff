package infra

import (
	"context"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
)

// chanPool é um semáforo baseado em channel com capacidade fixa.
type chanPool struct {
	sem chan struct{}
}

func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
