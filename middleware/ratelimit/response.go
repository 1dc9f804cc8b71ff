package ratelimit

import (
	"encoding/json"
	"net/http"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

const (
	RetryAfterSeconds = 60
	tooManyMessage    = "Too many requests. Please try again later."
)

// rejectionPayload segue o formato de erro que os clientes do backend já
// entendem (campos OAuth + ErrorModel). A ordem dos campos é fixa.
type rejectionPayload struct {
	Error            string     `json:"error"`
	ErrorDescription string     `json:"error_description"`
	ErrorModel       errorModel `json:"ErrorModel"`
}

type errorModel struct {
	Message string `json:"Message"`
	Object  string `json:"Object"`
}

var rejectionBody = mustMarshal(rejectionPayload{
	Error:            "too_many_requests",
	ErrorDescription: tooManyMessage,
	ErrorModel:       errorModel{Message: tooManyMessage, Object: "error"},
})

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// WriteRejection responde 429 e registra o evento. Esse log é o único
// registro de auditoria de um bloqueio.
func WriteRejection(w http.ResponseWriter, dec domain.Decision, log *zap.Logger, fields ...zap.Field) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("rate limit exceeded",
		append([]zap.Field{
			zap.String("key", string(dec.Key)),
			zap.String("endpoint", dec.EndpointPath),
		}, fields...)...)

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Retry-After", formatInt(RetryAfterSeconds))
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write(rejectionBody)
}
