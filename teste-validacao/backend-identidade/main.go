package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Backend falso para validar o gateway na mão: responde os endpoints
// protegidos e loga o body que chegou (confere que o gateway não consome o body).
func main() {
	log, _ := zap.NewDevelopment()
	defer func() { _ = log.Sync() }()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	echo := func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		log.Info("request received",
			zap.String("path", req.URL.Path),
			zap.String("content_type", req.Header.Get("Content-Type")),
			zap.Int("body_bytes", len(body)),
			zap.String("request_id", req.Header.Get("X-Request-ID")))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"path":     req.URL.Path,
			"received": string(body),
			"at":       time.Now().UTC().Format(time.RFC3339),
		})
	}
	r.Post("/identity/connect/token", echo)
	r.Post("/api/accounts/register", echo)
	r.Post("/api/accounts/prelogin", echo)
	r.Post("/__scheduled", func(w http.ResponseWriter, req *http.Request) {
		log.Info("scheduled trigger", zap.String("cron", req.Header.Get("X-Scheduled-Cron")))
		w.WriteHeader(http.StatusNoContent)
	})
	r.NotFound(echo)

	addr := ":8000"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	log.Info("fake identity backend listening", zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
