package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/audit"
	"timesheets/internal/domain/auth"
	"timesheets/internal/transport/http/middleware"
)

type fakeEvents struct {
	events     []audit.Event
	lastFilter audit.Filter
	lastLimit  int
}

func (f *fakeEvents) Count(_ context.Context, _ string, _ audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeEvents) List(_ context.Context, _ string, filter audit.Filter, _ bool, limit, _ int) ([]audit.Event, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	return f.events, nil
}

func newRouter(svc EventReader, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, auth.StaticPermissions{}).RegisterRoutes(r)
	return r
}

func TestListEventsPassesFilter(t *testing.T) {
	svc := &fakeEvents{events: []audit.Event{{ID: "e1", Action: "timesheet.approve"}}}
	rec := httptest.NewRecorder()
	newRouter(svc, auth.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?action=timesheet.approve&entityId=ts1&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "timesheet.approve", svc.lastFilter.Action)
	assert.Equal(t, "ts1", svc.lastFilter.EntityID)
	assert.Equal(t, 10, svc.lastLimit)
	assert.Contains(t, rec.Body.String(), `"id":"e1"`)
}

func TestListEventsRequiresAuditPermission(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeEvents{}, auth.RoleContractor).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportEventsWritesCSV(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	svc := &fakeEvents{events: []audit.Event{{ID: "e1", ActorID: "u9", Action: "timesheet.submit", EntityType: "timesheet", EntityID: "ts1", RequestID: "r1", IP: "192.0.2.1", CreatedAt: created}}}
	rec := httptest.NewRecorder()
	newRouter(svc, auth.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,actor_user_id,action,entity_type,entity_id,request_id,ip,created_at", lines[0])
	assert.Equal(t, "e1,u9,timesheet.submit,timesheet,ts1,r1,192.0.2.1,2024-03-01T09:30:00Z", lines[1])
	assert.Equal(t, exportLimit, svc.lastLimit)
}

func TestListEventsDateRange(t *testing.T) {
	svc := &fakeEvents{}
	rec := httptest.NewRecorder()
	newRouter(svc, auth.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?from=2024-03-01&to=2024-03-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), svc.lastFilter.Since)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), svc.lastFilter.Until)

	rec = httptest.NewRecorder()
	newRouter(svc, auth.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?from=2024-03-05&to=2024-03-04", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")

	rec = httptest.NewRecorder()
	newRouter(svc, auth.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/export?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
