package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"timesheets/internal/transport/http/api"
)

// window is a fixed-window request counter keyed by caller.
type window struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
	sweepAt time.Time
}

type bucket struct {
	hits  int
	reset time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func newWindow(limit int, period time.Duration) *window {
	return &window{
		limit:   limit,
		period:  period,
		now:     time.Now,
		buckets: map[string]*bucket{},
	}
}

func (win *window) take(key string) verdict {
	now := win.now()
	win.mu.Lock()
	defer win.mu.Unlock()

	if !now.Before(win.sweepAt) {
		win.sweep(now)
	}
	b, ok := win.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &bucket{reset: now.Add(win.period)}
		win.buckets[key] = b
	}
	b.hits++
	return verdict{
		allowed:   b.hits <= win.limit,
		remaining: max(win.limit-b.hits, 0),
		resetIn:   b.reset.Sub(now),
	}
}

// sweep drops expired buckets; callers seen once would otherwise stay
// in the map forever.
func (win *window) sweep(now time.Time) {
	for key, b := range win.buckets {
		if !now.Before(b.reset) {
			delete(win.buckets, key)
		}
	}
	win.sweepAt = now.Add(win.period)
}

func (win *window) size() int {
	win.mu.Lock()
	defer win.mu.Unlock()
	return len(win.buckets)
}

func (win *window) middleware(scope string, applies func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if win.limit <= 0 || (applies != nil && !applies(r)) {
				next.ServeHTTP(w, r)
				return
			}

			key := callerKey(r)
			v := win.take(key)
			resetSec := int(math.Ceil(v.resetIn.Seconds()))
			headers := w.Header()
			headers.Set("X-RateLimit-Limit", strconv.Itoa(win.limit))
			headers.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			headers.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
			if !v.allowed {
				headers.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
				slog.WarnContext(r.Context(), "rate limit exceeded",
					"scope", scope,
					"key", key,
					"method", r.Method,
					"path", r.URL.Path,
					"limit", win.limit,
				)
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit allows each caller limit requests per period.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	return newWindow(limit, period).middleware("api", nil)
}

// SensitiveMutationRateLimit applies half the base budget to timesheet
// workflow transitions and payroll settings changes.
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	return newWindow(max(baseLimit/2, 1), period).middleware("workflow", isSensitiveMutation)
}

// callerKey identifies an authenticated user within their tenant, or the
// client address for anonymous traffic.
func callerKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return "ip:" + clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

var workflowActions = map[string]bool{
	"submit":  true,
	"approve": true,
	"reject":  true,
	"revert":  true,
}

func isSensitiveMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segments) == 2 && segments[0] == "payroll":
		return segments[1] == "settings"
	case len(segments) == 3 && segments[0] == "timesheets":
		return workflowActions[segments[2]]
	}
	return false
}
