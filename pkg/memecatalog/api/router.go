package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

// RouterConfig carries the optional pieces of the HTTP surface
type RouterConfig struct {
	Logger         *slog.Logger
	MaxUploadBytes int64
	Metrics        http.Handler    // served on /metrics when set
	Recorder       RequestRecorder // request counters, optional
}

// NewRouter mounts the memes API under /api with health and metrics endpoints
func NewRouter(service memecatalog.Service, cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	if cfg.Recorder != nil {
		r.Use(MetricsMiddleware(cfg.Recorder))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.MaxUploadBytes > 0 {
			r.Use(RequestSizeLimitMiddleware(cfg.MaxUploadBytes))
		}
		r.Mount("/memes", NewMemesHandler(service, logger).Routes())
	})

	return r
}
