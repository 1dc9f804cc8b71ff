package infra

import (
	"testing"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Lookup(t *testing.T) {
	store := NewStore(1, 1)
	r := NewRegistry(map[string]domain.Limiter{
		"LOGIN_RATE_LIMITER": store,
		"EMPTY":              nil,
	})

	lim, ok := r.Limiter("LOGIN_RATE_LIMITER")
	assert.True(t, ok)
	assert.Same(t, store, lim)

	_, ok = r.Limiter("EMPTY")
	assert.False(t, ok, "nil limiters are not bound")

	_, ok = r.Limiter("OTHER")
	assert.False(t, ok)
	assert.Equal(t, []string{"LOGIN_RATE_LIMITER"}, r.Names())
}

func TestRegistry_NilIsEmpty(t *testing.T) {
	var r *Registry
	_, ok := r.Limiter("LOGIN_RATE_LIMITER")
	assert.False(t, ok)
}
