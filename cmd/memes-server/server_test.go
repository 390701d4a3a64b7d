package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
	"github.com/tendant/meme-catalog/pkg/memecatalog/config"
	"github.com/tendant/meme-catalog/pkg/memecatalog/metrics"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load(config.WithEnvironment("testing"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	svc, closeStores, err := cfg.BuildService(context.Background(),
		memecatalog.WithLogger(logger),
		memecatalog.WithObserver(m),
	)
	require.NoError(t, err)
	t.Cleanup(closeStores)

	ts := httptest.NewServer(newHandler(cfg, svc, m, logger))
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_CreateAndDownload(t *testing.T) {
	ts := setupServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "cat"))
	part, err := mw.CreateFormFile("image", "cat.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/memes/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/memes/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)
}

func TestServer_MetricsExposeCoordinatorOutcomes(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/memes/404")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(text), `memecatalog_operations_total{op="get",outcome="not_found"} 1`)
	assert.Contains(t, string(text), `memecatalog_http_requests_total{method="GET",route="/api/memes/{id}",status="404"} 1`)
}

func TestServer_Health(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewLogger(t *testing.T) {
	assert.True(t, newLogger("production").Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, newLogger("production").Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, newLogger("development").Enabled(context.Background(), slog.LevelDebug))
}
