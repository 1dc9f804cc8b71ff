package ratelimit

import (
	"net/http"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/application"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

type Options struct {
	// Bindings resolve os limiters pelo nome das políticas.
	Bindings domain.Bindings
	// Policies substitui a tabela padrão quando não vazio.
	Policies     []domain.Policy
	Stats        domain.StatsStore
	IPHeader     string
	MaxBodyBytes int64
	// LimiterTimeout limita cada consulta ao limiter (0 = sem limite).
	LimiterTimeout time.Duration
	Logger         *zap.Logger
}

// NewDecider monta extrator, tabela e gateway a partir das opções.
func NewDecider(opts Options) Decider {
	policies := opts.Policies
	if len(policies) == 0 {
		policies = application.DefaultPolicies()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return Decider{
		Service: application.Service{
			Policies: application.NewPolicyTable(policies),
			Gateway: application.Gateway{
				Bindings: opts.Bindings,
				Timeout:  opts.LimiterTimeout,
				Logger:   log,
			},
		},
		Extractor: Extractor{
			IPHeader:     opts.IPHeader,
			MaxBodyBytes: opts.MaxBodyBytes,
			Logger:       log,
		},
		Stats:  opts.Stats,
		Logger: log,
	}
}

// Middleware coloca o rate limit na frente de um http.Handler qualquer.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	decider := NewDecider(opts)
	return func(next http.Handler) http.Handler {
		backend := HandlerBackend{Handler: next}
		return Dispatcher{
			Decider:    decider,
			Env:        opts.Bindings,
			NewBackend: func(domain.Bindings) Backend { return backend },
			Logger:     decider.Logger,
		}
	}
}
