package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"timesheets/internal/requestctx"
)

const maxRequestIDLen = 128

// RequestID keeps a well-formed inbound X-Request-ID or assigns a new one,
// and records the client IP for audit attribution.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := requestctx.WithClientIP(requestctx.WithRequestID(r.Context(), id), clientIPKey(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts printable ASCII without spaces so ids are safe to
// echo in headers, logs and audit rows.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
