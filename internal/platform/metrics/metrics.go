package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps in-process request counters for the /metrics endpoint.
type Collector struct {
	totalRequests   uint64
	clientErrors    uint64
	serverErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	routes map[string]*routeStats
}

type routeStats struct {
	count      uint64
	errors     uint64
	durationMs uint64
}

type RouteSnapshot struct {
	Route         string  `json:"route"`
	Requests      uint64  `json:"requests"`
	Errors        uint64  `json:"errors"`
	AvgDurationMs float64 `json:"avgDurationMs"`
}

func New() *Collector {
	return &Collector{routes: map[string]*routeStats{}}
}

// Record counts one finished request. route is the matched route pattern,
// such as "GET /api/v1/timesheets/{id}".
func (c *Collector) Record(route string, status int, duration time.Duration) {
	ms := uint64(duration.Milliseconds())
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.serverErrors, 1)
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
		atomic.AddUint64(&c.clientErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, ms)

	if route == "" {
		return
	}
	c.mu.Lock()
	stats, ok := c.routes[route]
	if !ok {
		stats = &routeStats{}
		c.routes[route] = stats
	}
	stats.count++
	if status >= 500 {
		stats.errors++
	}
	stats.durationMs += ms
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrors),
		"errorsTotal":       atomic.LoadUint64(&c.serverErrors),
		"rateLimitedTotal":  atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"routes":            c.Routes(),
	}
}

// Routes returns per-route counters sorted by route.
func (c *Collector) Routes() []RouteSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RouteSnapshot, 0, len(c.routes))
	for route, stats := range c.routes {
		avg := float64(0)
		if stats.count > 0 {
			avg = float64(stats.durationMs) / float64(stats.count)
		}
		out = append(out, RouteSnapshot{Route: route, Requests: stats.count, Errors: stats.errors, AvgDurationMs: avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}
