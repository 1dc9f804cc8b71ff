package domain

import (
	"context"
	"time"
)

// StatsEvent registra uma decisão tomada para um endpoint protegido.
//
// Cuidado com cardinalidade: Key só deve ser gravada quando explicitamente
// habilitado (emails/IPs explodem o número de chaves no Redis).
type StatsEvent struct {
	Key      Key
	Endpoint string
	Method   string
	Outcome  Outcome

	At time.Time
}

// StatsStore persiste estatísticas das decisões.
// Erros são best-effort: nunca derrubam o request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
