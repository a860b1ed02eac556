package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/platform/metrics"
)

func TestMetricsRecordsRoutePattern(t *testing.T) {
	collector := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(collector))
	r.Get("/timesheets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timesheets/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timesheets/def", nil))

	routes := collector.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "GET /timesheets/{id}", routes[0].Route)
	assert.Equal(t, uint64(2), routes[0].Requests)
	assert.Equal(t, uint64(2), collector.Snapshot()["clientErrorsTotal"])
}
