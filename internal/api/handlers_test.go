package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clanmetrics/wom-monitor/internal/analysis"
	"github.com/clanmetrics/wom-monitor/internal/cache"
	"github.com/clanmetrics/wom-monitor/internal/collector"
	"github.com/clanmetrics/wom-monitor/internal/config"
	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// fakeWOM backs both the collector and the passthrough handlers.
type fakeWOM struct {
	roster       []wom.RosterEntry
	details      *wom.GroupDetails
	gains        []wom.GainsEntry
	achievements []wom.Achievement
	competitions []wom.Competition
	events       []wom.ActivityEvent

	gainsErr  error
	updateErr error

	lastGainsMetric string
	lastGainsPeriod string
	lastLimit       int
	updatedPlayer   string
}

func (f *fakeWOM) GetGroupRoster(ctx context.Context, groupID int64) ([]wom.RosterEntry, error) {
	return f.roster, nil
}

func (f *fakeWOM) GetGroupDetails(ctx context.Context, groupID int64) (*wom.GroupDetails, error) {
	return f.details, nil
}

func (f *fakeWOM) GetGroupGains(ctx context.Context, groupID int64, metric, period string) ([]wom.GainsEntry, error) {
	f.lastGainsMetric = metric
	f.lastGainsPeriod = period
	if f.gainsErr != nil {
		return nil, f.gainsErr
	}
	return f.gains, nil
}

func (f *fakeWOM) GetGroupAchievements(ctx context.Context, groupID int64, limit int) ([]wom.Achievement, error) {
	return f.achievements, nil
}

func (f *fakeWOM) GetGroupHiscores(ctx context.Context, groupID int64, metric string) ([]wom.RosterEntry, error) {
	return f.roster, nil
}

func (f *fakeWOM) GetGroupCompetitions(ctx context.Context, groupID int64) ([]wom.Competition, error) {
	return f.competitions, nil
}

func (f *fakeWOM) GetGroupActivity(ctx context.Context, groupID int64, limit int) ([]wom.ActivityEvent, error) {
	f.lastLimit = limit
	return f.events, nil
}

func (f *fakeWOM) UpdatePlayer(ctx context.Context, username string) (*wom.Player, error) {
	f.updatedPlayer = username
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &wom.Player{Username: username}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		WOM: config.WOMConfig{GroupID: 139},
		Polling: config.PollingConfig{
			IntervalSeconds:   300,
			GainsMetric:       "overall",
			GainsPeriod:       "week",
			AchievementsLimit: 50,
		},
		Thresholds: analysis.DefaultThresholds(),
		Retention:  config.RetentionConfig{Periods: []int{7, 14, 30, 60, 90}},
	}
}

func rosterEntry(id int64, username string, daysAgo int) wom.RosterEntry {
	xp := int64(1_000_000)
	return wom.RosterEntry{
		Player: wom.Player{
			ID:            id,
			Username:      username,
			Exp:           &xp,
			LastChangedAt: time.Now().UTC().AddDate(0, 0, -daysAgo).Format(time.RFC3339),
		},
		Role: "member",
	}
}

// newTestRouter wires a real router against a fake WOM backend with a
// populated collector snapshot.
func newTestRouter(t *testing.T, fake *fakeWOM) http.Handler {
	t.Helper()

	cfg := testConfig()
	snaps := cache.New(nil, config.CacheConfig{})
	col := collector.New(fake, snaps, cfg)
	require.NoError(t, col.Refresh(context.Background()))

	h := NewHandlers(col, fake, cfg)
	hc := NewHealthChecker(col, snaps, 15*time.Minute)
	return SetupRoutes(h, hc)
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestGetSummary(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{
			rosterEntry(1, "alpha", 2),
			rosterEntry(2, "bravo", 20),
			rosterEntry(3, "charlie", 200),
		},
	}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.EqualValues(t, 3, body["total_members"])
	assert.EqualValues(t, 3, body["tracked_members"])
	assert.InDelta(t, 50.0, body["health_score"].(float64), 0.001)

	counts := body["counts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["active"])
	assert.EqualValues(t, 1, counts["at_risk"])
	assert.EqualValues(t, 1, counts["churned"])
}

func TestGetRoster(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2), rosterEntry(2, "bravo", 45)},
	}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/roster")
	assert.Equal(t, http.StatusOK, rec.Code)

	members := body["members"].([]interface{})
	require.Len(t, members, 2)
	first := members[0].(map[string]interface{})
	assert.Equal(t, "alpha", first["username"])
	assert.Equal(t, "active", first["status"])
}

func TestGetChurnRisk_QueryOverrides(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{
			rosterEntry(1, "alpha", 2),
			rosterEntry(2, "bravo", 20),
			rosterEntry(3, "charlie", 75),
		},
	}
	router := newTestRouter(t, fake)

	// Default window: 14..90 matches bravo and charlie
	rec, body := doGet(t, router, "/api/churn-risk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 14, body["min_days"])
	assert.EqualValues(t, 90, body["max_days"])

	// Narrowed window keeps only charlie
	_, body = doGet(t, router, "/api/churn-risk?min_days=60&max_days=90")
	assert.EqualValues(t, 1, body["count"])
	members := body["members"].([]interface{})
	assert.Equal(t, "charlie", members[0].(map[string]interface{})["username"])

	// Garbage params fall back to the configured window
	_, body = doGet(t, router, "/api/churn-risk?min_days=banana")
	assert.EqualValues(t, 14, body["min_days"])
}

func TestGetRetention_PeriodsParam(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2), rosterEntry(2, "bravo", 20)},
	}
	router := newTestRouter(t, fake)

	_, body := doGet(t, router, "/api/retention?periods=7,30")
	rates := body["rates"].([]interface{})
	require.Len(t, rates, 2)

	first := rates[0].(map[string]interface{})
	assert.EqualValues(t, 7, first["days"])
	assert.InDelta(t, 50.0, first["rate"].(float64), 0.001)

	second := rates[1].(map[string]interface{})
	assert.EqualValues(t, 30, second["days"])
	assert.InDelta(t, 100.0, second["rate"].(float64), 0.001)
}

func TestGetHistogram(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2), rosterEntry(2, "bravo", 45)},
	}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/histogram")
	assert.Equal(t, http.StatusOK, rec.Code)

	buckets := body["buckets"].([]interface{})
	require.Len(t, buckets, 8)
	first := buckets[0].(map[string]interface{})
	assert.Equal(t, "0-7d", first["label"])
	assert.EqualValues(t, 1, first["count"])
}

func TestGetRoles(t *testing.T) {
	owner := rosterEntry(1, "alpha", 2)
	owner.Role = "owner"
	fake := &fakeWOM{
		roster: []wom.RosterEntry{owner, rosterEntry(2, "bravo", 3)},
	}
	router := newTestRouter(t, fake)

	_, body := doGet(t, router, "/api/roles")
	roles := body["roles"].(map[string]interface{})
	assert.Len(t, roles["owner"], 1)
	assert.Len(t, roles["member"], 1)
}

func TestGetDashboard(t *testing.T) {
	fake := &fakeWOM{
		roster:       []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		details:      &wom.GroupDetails{ID: 139, Name: "Test Clan"},
		gains:        []wom.GainsEntry{{Player: wom.Player{Username: "alpha"}}},
		achievements: []wom.Achievement{{PlayerID: 1, Name: "99 Slayer"}},
	}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, key := range []string{"group", "summary", "members", "churn_risk", "retention", "histogram", "roles", "gains", "achievements", "status"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, "Test Clan", body["group"].(map[string]interface{})["name"])
}

func TestGetGains_SnapshotAndUpstream(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		gains:  []wom.GainsEntry{{Player: wom.Player{Username: "alpha"}, Data: wom.GainsData{Gained: 42}}},
	}
	router := newTestRouter(t, fake)

	// No params: served from the collector snapshot
	_, body := doGet(t, router, "/api/gains")
	assert.Equal(t, "overall", body["metric"])
	assert.Equal(t, "week", body["period"])
	assert.Len(t, body["gains"], 1)

	// Explicit metric goes upstream
	_, body = doGet(t, router, "/api/gains?metric=slayer&period=month")
	assert.Equal(t, "slayer", fake.lastGainsMetric)
	assert.Equal(t, "month", fake.lastGainsPeriod)
	assert.Equal(t, "slayer", body["metric"])
}

func TestGetGains_UpstreamErrorDegradesToEmpty(t *testing.T) {
	fake := &fakeWOM{
		roster:   []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		gainsErr: errors.New("rate limited"),
	}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/gains?metric=slayer")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["gains"])
}

func TestGetActivityFeed_LimitParam(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		events: []wom.ActivityEvent{{PlayerID: 1, Type: "joined"}},
	}
	router := newTestRouter(t, fake)

	_, body := doGet(t, router, "/api/activity?limit=10")
	assert.Equal(t, 10, fake.lastLimit)
	assert.Len(t, body["events"], 1)
}

func TestGetAchievements_LimitClamped(t *testing.T) {
	fake := &fakeWOM{
		roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		achievements: []wom.Achievement{
			{PlayerID: 1, Name: "99 Slayer"},
			{PlayerID: 2, Name: "99 Agility"},
		},
	}
	router := newTestRouter(t, fake)

	// Negative limit degrades to an empty list, never a 5xx
	rec, body := doGet(t, router, "/api/achievements?limit=-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["achievements"])

	// Oversized limit returns everything
	rec, body = doGet(t, router, "/api/achievements?limit=500")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["achievements"], 2)

	_, body = doGet(t, router, "/api/achievements?limit=1")
	achievements := body["achievements"].([]interface{})
	require.Len(t, achievements, 1)
	assert.Equal(t, "99 Slayer", achievements[0].(map[string]interface{})["name"])
}

func TestTriggerRefresh(t *testing.T) {
	fake := &fakeWOM{roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)}}
	router := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["job_id"])
}

func TestUpdatePlayerEndpoint(t *testing.T) {
	fake := &fakeWOM{roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)}}
	router := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/players/zezima/update", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zezima", fake.updatedPlayer)
}

func TestUpdatePlayerEndpoint_UpstreamFailure(t *testing.T) {
	fake := &fakeWOM{
		roster:    []wom.RosterEntry{rosterEntry(1, "alpha", 2)},
		updateErr: errors.New("rate limited"),
	}
	router := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/players/zezima/update", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "rate limited")
}

func TestHealthEndpoint(t *testing.T) {
	fake := &fakeWOM{roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)}}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "up", checks["collector"].(map[string]interface{})["status"])
	assert.Equal(t, "not_configured", checks["cache"].(map[string]interface{})["status"])
}

func TestHealthEndpoint_NoSnapshotYet(t *testing.T) {
	cfg := testConfig()
	snaps := cache.New(nil, config.CacheConfig{})
	fake := &fakeWOM{}
	col := collector.New(fake, snaps, cfg)

	h := NewHandlers(col, fake, cfg)
	hc := NewHealthChecker(col, snaps, 15*time.Minute)
	router := SetupRoutes(h, hc)

	rec, body := doGet(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestGetGroup_EmptyBeforeFetch(t *testing.T) {
	fake := &fakeWOM{roster: []wom.RosterEntry{rosterEntry(1, "alpha", 2)}}
	router := newTestRouter(t, fake)

	rec, body := doGet(t, router, "/api/group")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body)
}
