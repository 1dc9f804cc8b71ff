package domain

import "context"

// SlotPool limita quantos requests estão em voo ao mesmo tempo no gateway.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; o release
// retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
