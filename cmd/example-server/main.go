package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/application"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Exemplo: o dispatcher embutido no próprio servidor (sem proxy), com o
// backend sendo um router chi montado a cada request.
func main() {
	log, _ := zap.NewDevelopment()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewStore(0.2, 3)
	store.StartJanitor(ctx)
	bindings := infra.NewRegistry(map[string]domain.Limiter{application.LoginRateLimiter: store})

	h := ratelimit.RequestID(ratelimit.Dispatcher{
		Decider:    ratelimit.NewDecider(ratelimit.Options{Bindings: bindings, Logger: log}),
		Env:        bindings,
		NewBackend: newBackend(log),
		Logger:     log,
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}

func newBackend(log *zap.Logger) ratelimit.BackendFactory {
	return func(domain.Bindings) ratelimit.Backend {
		r := chi.NewRouter()
		r.Post("/identity/connect/token", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"example","token_type":"Bearer","expires_in":3600}`))
		})
		r.Post("/api/accounts/{action}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"action": chi.URLParam(r, "action")})
		})
		r.Get("/alive", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		return ratelimit.HandlerBackend{
			Handler: r,
			OnScheduled: func(_ context.Context, ev domain.ScheduledEvent) error {
				log.Info("scheduled event", zap.String("cron", ev.Cron))
				return nil
			},
		}
	}
}
