package application

import (
	"context"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
)

// KeyFunc deriva a chave para a estratégia da política encontrada.
// Só é chamada quando o path está na tabela.
type KeyFunc func(domain.Strategy) domain.Key

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Policies PolicyTable
	Gateway  Gateway
}

// Decide retorna ok=false quando o path não é protegido; nesse caso nem a
// extração de chave nem o limiter são acionados.
func (s Service) Decide(ctx context.Context, path string, keyFn KeyFunc) (domain.Decision, bool) {
	policy, ok := s.Policies.Lookup(path)
	if !ok {
		return domain.Decision{}, false
	}

	key := keyFn(policy.Strategy)
	res := s.Gateway.Check(ctx, policy.LimiterName, key)

	return domain.Decision{
		Limited:      !res.Allowed(),
		Key:          key,
		EndpointPath: path,
		Outcome:      res.Outcome,
	}, true
}
