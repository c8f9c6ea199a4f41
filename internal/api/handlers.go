package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clanmetrics/wom-monitor/internal/analysis"
	"github.com/clanmetrics/wom-monitor/internal/collector"
	"github.com/clanmetrics/wom-monitor/internal/config"
	"github.com/clanmetrics/wom-monitor/internal/pkg/logger"
	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// WOMClient is the slice of the WOM client the handlers call directly
// for on-demand endpoints not covered by the collector snapshot.
type WOMClient interface {
	GetGroupGains(ctx context.Context, groupID int64, metric, period string) ([]wom.GainsEntry, error)
	GetGroupHiscores(ctx context.Context, groupID int64, metric string) ([]wom.RosterEntry, error)
	GetGroupCompetitions(ctx context.Context, groupID int64) ([]wom.Competition, error)
	GetGroupActivity(ctx context.Context, groupID int64, limit int) ([]wom.ActivityEvent, error)
	UpdatePlayer(ctx context.Context, username string) (*wom.Player, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	collector *collector.Collector
	client    WOMClient
	config    *config.Config
}

// NewHandlers creates a new Handlers instance
func NewHandlers(col *collector.Collector, client WOMClient, cfg *config.Config) *Handlers {
	return &Handlers{
		collector: col,
		client:    client,
		config:    cfg,
	}
}

// summaryResponse is the roster-wide aggregate without the member list,
// for consumers that only render the headline cards.
type summaryResponse struct {
	Counts         map[analysis.Status]int     `json:"counts"`
	Percentages    map[analysis.Status]float64 `json:"percentages"`
	Totals         analysis.Totals             `json:"totals"`
	Averages       analysis.Averages           `json:"averages"`
	HealthScore    float64                     `json:"health_score"`
	TotalMembers   int                         `json:"total_members"`
	TrackedMembers int                         `json:"tracked_members"`
}

func toSummaryResponse(s *analysis.Summary) summaryResponse {
	return summaryResponse{
		Counts:         s.Counts,
		Percentages:    s.Percentages,
		Totals:         s.Totals,
		Averages:       s.Averages,
		HealthScore:    s.HealthScore,
		TotalMembers:   s.TotalMembers,
		TrackedMembers: s.TrackedMembers,
	}
}

// GetDashboard returns everything the dashboard page needs in one call
//
//	GET /api/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.Summary()
	churnMin, churnMax := h.config.ChurnRisk.Window()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"group":        h.collector.Details(),
		"summary":      toSummaryResponse(summary),
		"members":      summary.Members,
		"churn_risk":   analysis.ChurnRisk(summary.Members, churnMin, churnMax),
		"retention":    analysis.RetentionRates(summary.Members, h.config.Retention.Periods),
		"histogram":    analysis.ActivityBuckets(summary.Members),
		"roles":        analysis.GroupByRole(summary.Members),
		"gains":        h.collector.Gains(),
		"achievements": h.collector.Achievements(),
		"status":       h.collector.GetStatus(),
	})
}

// GetSummary returns the roster-wide counts, percentages and health score
//
//	GET /api/summary
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toSummaryResponse(h.collector.Summary()))
}

// GetRoster returns the classified member list in roster order
//
//	GET /api/roster
func (h *Handlers) GetRoster(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.Summary()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"members":       summary.Members,
		"total_members": summary.TotalMembers,
	})
}

// GetChurnRisk returns members inside the churn-risk window, most-stale
// first. min_days and max_days default to the configured window.
//
//	GET /api/churn-risk?min_days=14&max_days=90
func (h *Handlers) GetChurnRisk(w http.ResponseWriter, r *http.Request) {
	defMin, defMax := h.config.ChurnRisk.Window()
	minDays := queryInt(r, "min_days", defMin)
	maxDays := queryInt(r, "max_days", defMax)

	members := analysis.ChurnRisk(h.collector.Summary().Members, minDays, maxDays)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"min_days": minDays,
		"max_days": maxDays,
		"members":  members,
		"count":    len(members),
	})
}

// GetRetention returns the retention-rate table
//
//	GET /api/retention?periods=7,14,30,60,90
func (h *Handlers) GetRetention(w http.ResponseWriter, r *http.Request) {
	periods := queryIntList(r, "periods", h.config.Retention.Periods)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rates": analysis.RetentionRates(h.collector.Summary().Members, periods),
	})
}

// GetHistogram returns the inactivity bucket histogram
//
//	GET /api/histogram
func (h *Handlers) GetHistogram(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"buckets": analysis.ActivityBuckets(h.collector.Summary().Members),
	})
}

// GetRoles returns members grouped by clan role
//
//	GET /api/roles
func (h *Handlers) GetRoles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"roles": analysis.GroupByRole(h.collector.Summary().Members),
	})
}

// GetGroup returns group metadata
//
//	GET /api/group
func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	details := h.collector.Details()
	if details == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// GetGains returns member gains. Without query params it serves the
// collector's snapshot; an explicit metric or period goes upstream.
//
//	GET /api/gains?metric=overall&period=week
func (h *Handlers) GetGains(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	period := r.URL.Query().Get("period")

	if metric == "" && period == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"metric": h.config.Polling.GainsMetric,
			"period": h.config.Polling.GainsPeriod,
			"gains":  emptyIfNilGains(h.collector.Gains()),
		})
		return
	}

	if metric == "" {
		metric = h.config.Polling.GainsMetric
	}
	if period == "" {
		period = h.config.Polling.GainsPeriod
	}

	gains, err := h.client.GetGroupGains(r.Context(), h.config.WOM.GroupID, metric, period)
	if err != nil {
		// Upstream failure renders as "no data", not a 5xx.
		logger.Warn("gains fetch failed", "metric", metric, "period", period, "error", err)
		gains = nil
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metric": metric,
		"period": period,
		"gains":  emptyIfNilGains(gains),
	})
}

// GetHiscores returns the group hiscores for a metric
//
//	GET /api/hiscores?metric=overall
func (h *Handlers) GetHiscores(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "overall"
	}

	entries, err := h.client.GetGroupHiscores(r.Context(), h.config.WOM.GroupID, metric)
	if err != nil {
		logger.Warn("hiscores fetch failed", "metric", metric, "error", err)
		entries = nil
	}
	if entries == nil {
		entries = []wom.RosterEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metric":  metric,
		"entries": entries,
	})
}

// GetAchievements returns recent group achievements
//
//	GET /api/achievements?limit=50
func (h *Handlers) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements := h.collector.Achievements()
	if achievements == nil {
		achievements = []wom.Achievement{}
	}

	limit := queryInt(r, "limit", len(achievements))
	if limit < 0 {
		limit = 0
	}
	if limit < len(achievements) {
		achievements = achievements[:limit]
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": achievements,
	})
}

// GetCompetitions returns group competitions
//
//	GET /api/competitions
func (h *Handlers) GetCompetitions(w http.ResponseWriter, r *http.Request) {
	competitions, err := h.client.GetGroupCompetitions(r.Context(), h.config.WOM.GroupID)
	if err != nil {
		logger.Warn("competitions fetch failed", "error", err)
		competitions = nil
	}
	if competitions == nil {
		competitions = []wom.Competition{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"competitions": competitions,
	})
}

// GetActivityFeed returns the group activity feed
//
//	GET /api/activity?limit=50
func (h *Handlers) GetActivityFeed(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	events, err := h.client.GetGroupActivity(r.Context(), h.config.WOM.GroupID, limit)
	if err != nil {
		logger.Warn("activity feed fetch failed", "error", err)
		events = nil
	}
	if events == nil {
		events = []wom.ActivityEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// TriggerRefresh drops cached snapshots and refetches the group now
//
//	POST /api/refresh
func (h *Handlers) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.New().String()

	if err := h.collector.Refresh(r.Context()); err != nil {
		logger.Warn("manual refresh failed", "job_id", jobID, "error", err)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"job_id": jobID,
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"status": "completed",
	})
}

// UpdatePlayer asks WOM to re-import one player from the hiscores
//
//	POST /api/players/{username}/update
func (h *Handlers) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	player, err := h.client.UpdatePlayer(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusBadGateway, "player update failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, player)
}

func emptyIfNilGains(gains []wom.GainsEntry) []wom.GainsEntry {
	if gains == nil {
		return []wom.GainsEntry{}
	}
	return gains
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// queryInt parses an integer query parameter, falling back to def on
// absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryIntList parses a comma-separated integer query parameter.
// Unparseable elements are skipped; an empty result falls back to def.
func queryIntList(r *http.Request, name string, def []int) []int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// uptime tracking for the health endpoint
var startTime = time.Now()
