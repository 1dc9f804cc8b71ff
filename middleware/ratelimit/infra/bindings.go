package infra

import "github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

// Registry liga nomes de binding (ex: LOGIN_RATE_LIMITER) às capacidades de
// limiter. Montado no startup e só lido depois disso.
type Registry struct {
	limiters map[string]domain.Limiter
}

func NewRegistry(limiters map[string]domain.Limiter) *Registry {
	m := make(map[string]domain.Limiter, len(limiters))
	for name, lim := range limiters {
		if lim != nil {
			m[name] = lim
		}
	}
	return &Registry{limiters: m}
}

func (r *Registry) Limiter(name string) (domain.Limiter, bool) {
	if r == nil {
		return nil, false
	}
	lim, ok := r.limiters[name]
	return lim, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		out = append(out, name)
	}
	return out
}
