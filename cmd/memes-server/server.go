package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/tendant/meme-catalog/pkg/memecatalog"
	"github.com/tendant/meme-catalog/pkg/memecatalog/api"
	"github.com/tendant/meme-catalog/pkg/memecatalog/config"
	"github.com/tendant/meme-catalog/pkg/memecatalog/metrics"
)

// newLogger returns a JSON logger in production and a text logger elsewhere
func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newHandler(cfg *config.ServerConfig, svc memecatalog.Service, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return api.NewRouter(svc, api.RouterConfig{
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Metrics:        m.Handler(),
		Recorder:       m,
	})
}
