package infra

import (
	"context"
	"sync"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64
	Limited int64
	// FailOpen conta requests liberados porque o limiter faltou ou falhou.
	FailOpen int64
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeLimited:
		c.Limited++
	case domain.OutcomeAllowed:
		c.Allowed++
	default:
		c.FailOpen++
	}
}

// MemoryStatsStore guarda contadores em memória. Útil para testes e
// desenvolvimento; não expira nada.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byEndpoint map[string]Counters
	byKey      map[domain.Key]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byEndpoint: make(map[string]Counters),
		byKey:      make(map[domain.Key]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)

	c := s.byEndpoint[ev.Endpoint]
	c.add(ev.Outcome)
	s.byEndpoint[ev.Endpoint] = c

	if s.trackKeys {
		k := s.byKey[ev.Key]
		k.add(ev.Outcome)
		s.byKey[ev.Key] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByEndpoint() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byEndpoint))
	for k, v := range s.byEndpoint {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[domain.Key]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
