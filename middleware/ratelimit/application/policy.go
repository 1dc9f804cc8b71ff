package application

import "github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

const LoginRateLimiter = "LOGIN_RATE_LIMITER"

// DefaultPolicies são os endpoints sensíveis do backend de identidade.
func DefaultPolicies() []domain.Policy {
	return []domain.Policy{
		{Path: "/identity/connect/token", LimiterName: LoginRateLimiter, Strategy: domain.StrategyEmail},
		{Path: "/api/accounts/register", LimiterName: LoginRateLimiter, Strategy: domain.StrategyIP},
		{Path: "/api/accounts/prelogin", LimiterName: LoginRateLimiter, Strategy: domain.StrategyIP},
	}
}

// PolicyTable é a tabela path -> política, imutável depois de criada.
//
// Match exato e case-sensitive: "/api/accounts/register/" não casa com
// "/api/accounts/register".
type PolicyTable struct {
	byPath map[string]domain.Policy
}

// NewPolicyTable copia as entradas; uma entrada repetida sobrescreve a anterior.
func NewPolicyTable(policies []domain.Policy) PolicyTable {
	m := make(map[string]domain.Policy, len(policies))
	for _, p := range policies {
		m[p.Path] = p
	}
	return PolicyTable{byPath: m}
}

func (t PolicyTable) Lookup(path string) (domain.Policy, bool) {
	p, ok := t.byPath[path]
	return p, ok
}

func (t PolicyTable) Len() int { return len(t.byPath) }

// Policies retorna uma cópia das entradas (ordem não definida).
func (t PolicyTable) Policies() []domain.Policy {
	out := make([]domain.Policy, 0, len(t.byPath))
	for _, p := range t.byPath {
		out = append(out, p)
	}
	return out
}
