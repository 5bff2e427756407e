package api

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// recentSamples bounds the durations kept per route for percentiles.
const recentSamples = 200

// RouteMetrics aggregates the requests of one route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	P50Time     time.Duration `json:"p50Time"`
	P95Time     time.Duration `json:"p95Time"`
	LastRequest time.Time     `json:"lastRequest"`

	recent []time.Duration
	next   int
}

// Summary totals every route since the collector started.
type Summary struct {
	Since         time.Time `json:"since"`
	TotalRequests int64     `json:"totalRequests"`
	TotalErrors   int64     `json:"totalErrors"`
	ErrorRate     float64   `json:"errorRate"`
	RouteCount    int       `json:"routeCount"`
}

// Metrics collects request metrics per route template.
type Metrics struct {
	mu     sync.RWMutex
	since  time.Time
	routes map[string]*RouteMetrics
	total  int64
	errors int64
}

// NewMetrics returns an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{since: time.Now(), routes: make(map[string]*RouteMetrics)}
}

// Record adds one request. Statuses of 400 and above count as errors.
func (m *Metrics) Record(method, path string, status int, start time.Time, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := method + " " + path
	rm, ok := m.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: d}
		m.routes[key] = rm
	}
	rm.Count++
	rm.TotalTime += d
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	rm.LastRequest = start
	if d < rm.MinTime {
		rm.MinTime = d
	}
	if d > rm.MaxTime {
		rm.MaxTime = d
	}
	if status >= http.StatusBadRequest {
		rm.ErrorCount++
		m.errors++
	}
	m.total++

	if len(rm.recent) < recentSamples {
		rm.recent = append(rm.recent, d)
	} else {
		rm.recent[rm.next] = d
		rm.next = (rm.next + 1) % recentSamples
	}
	rm.P50Time, rm.P95Time = percentiles(rm.recent)
}

func percentiles(samples []time.Duration) (p50, p95 time.Duration) {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)*50/100], sorted[len(sorted)*95/100]
}

// Summary returns the totals.
func (m *Metrics) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		Since:         m.since,
		TotalRequests: m.total,
		TotalErrors:   m.errors,
		RouteCount:    len(m.routes),
	}
	if m.total > 0 {
		s.ErrorRate = float64(m.errors) / float64(m.total)
	}
	return s
}

// SlowestRoutes returns up to limit routes ordered by average time, slowest
// first. A limit of 0 returns all of them.
func (m *Metrics) SlowestRoutes(limit int) []RouteMetrics {
	m.mu.RLock()
	routes := make([]RouteMetrics, 0, len(m.routes))
	for _, rm := range m.routes {
		c := *rm
		c.recent = nil
		routes = append(routes, c)
	}
	m.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].AvgTime != routes[j].AvgTime {
			return routes[i].AvgTime > routes[j].AvgTime
		}
		return routes[i].Method+routes[i].Path < routes[j].Method+routes[j].Path
	})
	if limit > 0 && limit < len(routes) {
		routes = routes[:limit]
	}
	return routes
}

// MetricsMiddleware records every request routed through it under its route
// template, so /drugs/{drug_id} is one route regardless of the id.
func MetricsMiddleware(m *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			m.Record(r.Method, path, wrapped.statusCode, start, time.Since(start))
		})
	}
}
