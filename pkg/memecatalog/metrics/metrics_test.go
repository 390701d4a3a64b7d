package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordOperation(t *testing.T) {
	m := New()
	m.RecordOperation("create", memecatalog.OutcomeOK, 0.01)
	m.RecordOperation("create", memecatalog.OutcomeOK, 0.02)
	m.RecordOperation("create", memecatalog.OutcomeDuplicate, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", memecatalog.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", memecatalog.OutcomeDuplicate)))

	body := scrape(t, m)
	assert.Contains(t, body, "memecatalog_operation_duration_seconds")
	assert.Contains(t, body, `memecatalog_operations_total{op="create",outcome="ok"} 2`)
}

func TestRecordCompensation(t *testing.T) {
	m := New()
	m.RecordCompensation(memecatalog.CompensationOrphaned)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues(memecatalog.CompensationOrphaned)))
	assert.Contains(t, scrape(t, m), `memecatalog_blob_compensations_total{outcome="orphaned"} 1`)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/api/memes/{id}", http.StatusNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/memes/{id}", "404")))
}

func TestHandlerIncludesRuntimeCollectors(t *testing.T) {
	assert.Contains(t, scrape(t, New()), "go_goroutines")
}
