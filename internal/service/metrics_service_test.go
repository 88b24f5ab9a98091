package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsServiceQueueDepthGauge(t *testing.T) {
	m := NewMetricsService()
	depth := 3
	m.RegisterQueueDepth("imports", func() int { return depth })

	body := scrape(t, m)
	assert.Contains(t, body, `import_queue_depth{queue="imports"} 3`)

	depth = 0
	body = scrape(t, m)
	assert.Contains(t, body, `import_queue_depth{queue="imports"} 0`)
}

func TestMetricsServiceQueueDepthNilSafe(t *testing.T) {
	var m *MetricsService
	m.RegisterQueueDepth("imports", func() int { return 1 })

	svc := NewMetricsService()
	svc.RegisterQueueDepth("imports", nil)
	body := scrape(t, svc)
	assert.NotContains(t, body, "import_queue_depth")
}

func TestMetricsServiceImportCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordImportRows(4, 1)
	m.ImportJobStarted()

	body := scrape(t, m)
	assert.Contains(t, body, `import_rows_total{outcome="success"} 4`)
	assert.Contains(t, body, `import_rows_total{outcome="failed"} 1`)
	assert.Contains(t, body, "import_jobs_active 1")
}
