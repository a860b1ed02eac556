package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/auth"
	"timesheets/internal/requestctx"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "t1", RoleName: auth.RoleContractor, ContractorID: "c1"}, time.Hour)
	require.NoError(t, err)

	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		require.True(t, ok)
		assert.Equal(t, "u1", user.UserID)
		assert.Equal(t, auth.RoleContractor, user.RoleName)
		assert.Equal(t, "c1", user.ContractorID)
		assert.Equal(t, "u1", requestctx.GetActorID(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestAuthMiddlewareMissingOrBadToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetUser(r.Context())
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := WithUser(context.Background(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleAdmin})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermTimesheetApprove, auth.StaticPermissions{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "contractor", user: &auth.UserContext{UserID: "u1", RoleName: auth.RoleContractor}, want: http.StatusForbidden},
		{name: "approver", user: &auth.UserContext{UserID: "u2", RoleName: auth.RoleApprover}, want: http.StatusNoContent},
		{name: "admin", user: &auth.UserContext{UserID: "u3", RoleName: auth.RoleAdmin}, want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

type failingPermissions struct{}

func (failingPermissions) HasPermission(context.Context, string, string) (bool, error) {
	return false, errors.New("role table unavailable")
}

func TestRequirePermissionDetailsAndStoreFailure(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	contractor := auth.UserContext{UserID: "u1", RoleName: auth.RoleContractor}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), contractor))
	rec := httptest.NewRecorder()
	RequirePermission(auth.PermReportsRead, auth.StaticPermissions{})(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"permission":"reports.read"`)

	rec = httptest.NewRecorder()
	RequirePermission(auth.PermReportsRead, failingPermissions{})(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "role table unavailable")
}
