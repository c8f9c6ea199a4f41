package api

import (
	"context"
	"net/http"
	"time"

	"github.com/clanmetrics/wom-monitor/internal/cache"
	"github.com/clanmetrics/wom-monitor/internal/collector"
)

const healthVersion = "1.0.0"

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports on the collector and the snapshot cache.
// The cache may be nil-backed; it then reports "not_configured".
type HealthChecker struct {
	collector  *collector.Collector
	snaps      *cache.Snapshots
	staleAfter time.Duration
}

// NewHealthChecker creates a HealthChecker. staleAfter bounds how old
// the last successful fetch may be before the collector counts as
// degraded; it should be a small multiple of the polling interval.
func NewHealthChecker(col *collector.Collector, snaps *cache.Snapshots, staleAfter time.Duration) *HealthChecker {
	return &HealthChecker{
		collector:  col,
		snaps:      snaps,
		staleAfter: staleAfter,
	}
}

// HandleHealth returns the health of all components. The collector is
// the critical one: without a roster snapshot the dashboard has nothing
// to show, so a down collector makes the whole service unhealthy, while
// a down cache only degrades it.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"collector": hc.checkCollector(),
		"cache":     hc.checkCache(r.Context()),
	}

	overall := "healthy"
	if checks["cache"].Status == "down" {
		overall = "degraded"
	}
	switch checks["collector"].Status {
	case "degraded":
		overall = "degraded"
	case "down":
		overall = "unhealthy"
	}

	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, HealthStatus{
		Status:  overall,
		Version: healthVersion,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Checks:  checks,
	})
}

func (hc *HealthChecker) checkCollector() ComponentCheck {
	s := hc.collector.GetStatus()

	if s.LastFetch.IsZero() {
		if s.LastError != "" {
			return ComponentCheck{Status: "down", Message: s.LastError}
		}
		return ComponentCheck{Status: "degraded", Message: "no snapshot yet"}
	}

	age := time.Since(s.LastFetch)
	if age > hc.staleAfter {
		return ComponentCheck{
			Status:  "degraded",
			Message: "last fetch " + age.Round(time.Second).String() + " ago",
		}
	}
	if s.LastError != "" {
		return ComponentCheck{Status: "degraded", Message: s.LastError}
	}
	return ComponentCheck{Status: "up"}
}

func (hc *HealthChecker) checkCache(ctx context.Context) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := hc.snaps.Ping(ctx); err != nil {
		if err.Error() == "cache not configured" {
			return ComponentCheck{Status: "not_configured"}
		}
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up", Latency: time.Since(start).Round(time.Millisecond).String()}
}
