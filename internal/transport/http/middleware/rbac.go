package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"timesheets/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// RequirePermission admits callers whose role grants permission. A
// refusal names the missing permission in the error details.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleName, permission)
			if err != nil {
				slog.ErrorContext(r.Context(), "permission check failed",
					"permission", permission, "role", user.RoleName, "request_id", requestID, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
				return
			}
			if !allowed {
				api.FailWithDetails(w, http.StatusForbidden, "forbidden", "insufficient permissions",
					map[string]string{"permission": permission, "role": user.RoleName}, requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
