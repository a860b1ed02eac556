package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func hit(ctx context.Context, h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil).WithContext(ctx)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)
	ctx := WithUser(context.Background(), auth.UserContext{TenantID: "tenant-1", UserID: "user-1"})

	assert.Equal(t, http.StatusNoContent, hit(ctx, limited, http.MethodPost, "/api/v1/timesheets/ts1/approve", "198.51.100.11:2222").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(ctx, limited, http.MethodPost, "/api/v1/timesheets/ts1/approve", "198.51.100.12:3333").Code)
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)
	ctx := context.Background()

	assert.Equal(t, http.StatusNoContent, hit(ctx, limited, http.MethodPost, "/api/v1/timesheets", "203.0.113.10:4444").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(ctx, limited, http.MethodPost, "/api/v1/timesheets", "203.0.113.10:5555").Code)
	assert.Equal(t, http.StatusNoContent, hit(ctx, limited, http.MethodPost, "/api/v1/timesheets", "203.0.113.11:5555").Code)
}

func TestWindowResetsAndSweeps(t *testing.T) {
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	win := newWindow(1, time.Minute)
	win.now = func() time.Time { return now }

	assert.True(t, win.take("a").allowed)
	v := win.take("a")
	assert.False(t, v.allowed)
	assert.Equal(t, time.Minute, v.resetIn)
	assert.True(t, win.take("b").allowed)
	assert.Equal(t, 2, win.size())

	now = now.Add(time.Minute)
	assert.True(t, win.take("a").allowed)
	assert.Equal(t, 1, win.size(), "expired bucket b should be swept")
}

func TestRateLimitReturnsRetryMetadata(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)
	ctx := context.Background()

	first := hit(ctx, limited, http.MethodPut, "/api/v1/payroll/settings", "192.0.2.30:1234")
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	rec := hit(ctx, limited, http.MethodPut, "/api/v1/payroll/settings", "192.0.2.30:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	for i := 0; i < 6; i++ {
		rec := hit(context.Background(), limited, http.MethodGet, "/api/v1/reports/reconciliation", "198.51.100.40:8888")
		require.Equal(t, http.StatusNoContent, rec.Code, "read %d", i+1)
	}

	ctx := WithUser(context.Background(), auth.UserContext{TenantID: "tenant-1", UserID: "approver-1"})
	for i := 0; i < 2; i++ {
		rec := hit(ctx, limited, http.MethodPost, "/api/v1/timesheets/ts1/approve", "198.51.100.41:9999")
		require.Equal(t, http.StatusNoContent, rec.Code, "transition %d", i+1)
	}
	rec := hit(ctx, limited, http.MethodPost, "/api/v1/timesheets/ts2/reject", "198.51.100.41:9999")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSensitiveMutationMatchesWorkflowRoutes(t *testing.T) {
	cases := map[string]bool{
		"POST /api/v1/timesheets/t1/submit":  true,
		"POST /api/v1/timesheets/t1/approve": true,
		"POST /api/v1/timesheets/t1/reject":  true,
		"POST /api/v1/timesheets/t1/revert":  true,
		"PUT /api/v1/payroll/settings":       true,
		"PUT /api/v1/timesheets/t1/entries":  false,
		"GET /api/v1/timesheets/t1/approve":  false,
		"POST /api/v1/timesheets":            false,
		"GET /api/v1/payroll/settings":       false,
		"DELETE /api/v1/timesheets/t1":       false,
	}
	for route, want := range cases {
		method, path, _ := strings.Cut(route, " ")
		assert.Equal(t, want, isSensitiveMutation(httptest.NewRequest(method, path, nil)), route)
	}
}

func TestClientIPKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5000"
	assert.Equal(t, "192.0.2.7", clientIPKey(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIPKey(req))
}
