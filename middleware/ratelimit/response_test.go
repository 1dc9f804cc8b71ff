package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const wantRejection = `{"error":"too_many_requests","error_description":"Too many requests. Please try again later.","ErrorModel":{"Message":"Too many requests. Please try again later.","Object":"error"}}`

func TestWriteRejection(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := httptest.NewRecorder()

	WriteRejection(w, domain.Decision{
		Limited:      true,
		Key:          "email:user@example.com",
		EndpointPath: "/identity/connect/token",
	}, zap.New(core))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, wantRejection, w.Body.String())

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	fields := warns[0].ContextMap()
	assert.Equal(t, "email:user@example.com", fields["key"])
	assert.Equal(t, "/identity/connect/token", fields["endpoint"])
}
