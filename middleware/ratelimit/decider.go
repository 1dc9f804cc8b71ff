package ratelimit

import (
	"net/http"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/application"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// Decider liga a extração de chave (HTTP) à decisão da camada application.
type Decider struct {
	Service   application.Service
	Extractor Extractor
	// Stats é opcional; falhas de gravação não afetam o request.
	Stats  domain.StatsStore
	Logger *zap.Logger
}

// Decide retorna ok=false quando o path não é protegido.
func (d Decider) Decide(r *http.Request) (domain.Decision, bool) {
	dec, ok := d.Service.Decide(r.Context(), r.URL.Path, func(s domain.Strategy) domain.Key {
		return d.Extractor.Extract(r, s)
	})
	if !ok {
		return dec, false
	}

	if d.Stats != nil {
		err := d.Stats.Record(r.Context(), domain.StatsEvent{
			Key:      dec.Key,
			Endpoint: dec.EndpointPath,
			Method:   r.Method,
			Outcome:  dec.Outcome,
			At:       time.Now(),
		})
		if err != nil && d.Logger != nil {
			d.Logger.Debug("rate limit stats not recorded", zap.Error(err))
		}
	}
	return dec, true
}
