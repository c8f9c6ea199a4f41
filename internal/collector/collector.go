// Package collector polls the WOM API for one clan and holds the latest
// snapshot for handlers to read.
package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clanmetrics/wom-monitor/internal/analysis"
	"github.com/clanmetrics/wom-monitor/internal/cache"
	"github.com/clanmetrics/wom-monitor/internal/config"
	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// API is the slice of the WOM client the collector needs.
type API interface {
	GetGroupRoster(ctx context.Context, groupID int64) ([]wom.RosterEntry, error)
	GetGroupDetails(ctx context.Context, groupID int64) (*wom.GroupDetails, error)
	GetGroupGains(ctx context.Context, groupID int64, metric, period string) ([]wom.GainsEntry, error)
	GetGroupAchievements(ctx context.Context, groupID int64, limit int) ([]wom.Achievement, error)
}

// Collector periodically fetches roster, details, gains and achievements
// for the configured group. It keeps only raw API snapshots; activity
// classification is recomputed from the roster on every Summary call so
// that status always reflects elapsed real time, not fetch time.
type Collector struct {
	client API
	snaps  *cache.Snapshots
	cfg    *config.Config

	mu           sync.RWMutex
	roster       []wom.RosterEntry
	details      *wom.GroupDetails
	gains        []wom.GainsEntry
	achievements []wom.Achievement
	lastFetch    time.Time
	lastErr      error
	isRunning    bool
}

// New creates a collector for the configured group.
func New(client API, snaps *cache.Snapshots, cfg *config.Config) *Collector {
	return &Collector{
		client: client,
		snaps:  snaps,
		cfg:    cfg,
	}
}

// Start begins the polling loop and blocks until ctx is canceled.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	log.Printf("Starting roster collector for group %d (interval %s)", c.cfg.WOM.GroupID, c.cfg.Polling.Interval())

	// Initial fetch
	c.fetchAll(ctx)

	ticker := time.NewTicker(c.cfg.Polling.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping roster collector...")
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.fetchAll(ctx)
		}
	}
}

// Refresh drops cached snapshots and refetches everything immediately.
func (c *Collector) Refresh(ctx context.Context) error {
	c.snaps.Invalidate(ctx, c.cfg.WOM.GroupID, c.cfg.Polling.GainsMetric, c.cfg.Polling.GainsPeriod)
	c.fetchAll(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// fetchAll fetches the group snapshot, going through the TTL cache for
// roster, gains and details. The roster fetch is the load-bearing one:
// its failure is recorded and the previous snapshot stays in place so
// the dashboard keeps rendering stale-but-real data.
func (c *Collector) fetchAll(ctx context.Context) {
	groupID := c.cfg.WOM.GroupID
	metric := c.cfg.Polling.GainsMetric
	period := c.cfg.Polling.GainsPeriod

	start := time.Now()

	var wg sync.WaitGroup
	var rosterErr error
	var roster []wom.RosterEntry
	var details *wom.GroupDetails
	var gains []wom.GainsEntry
	var achievements []wom.Achievement

	wg.Add(4)

	go func() {
		defer wg.Done()
		if cached, ok := c.snaps.GetRoster(ctx, groupID); ok {
			roster = cached
			return
		}
		fetched, err := c.client.GetGroupRoster(ctx, groupID)
		if err != nil {
			rosterErr = err
			log.Printf("Error fetching roster for group %d: %v", groupID, err)
			return
		}
		roster = fetched
		c.snaps.SetRoster(ctx, groupID, fetched)
	}()

	go func() {
		defer wg.Done()
		if cached, ok := c.snaps.GetDetails(ctx, groupID); ok {
			details = cached
			return
		}
		fetched, err := c.client.GetGroupDetails(ctx, groupID)
		if err != nil {
			log.Printf("Error fetching group details for group %d: %v", groupID, err)
			return
		}
		details = fetched
		c.snaps.SetDetails(ctx, groupID, fetched)
	}()

	go func() {
		defer wg.Done()
		if cached, ok := c.snaps.GetGains(ctx, groupID, metric, period); ok {
			gains = cached
			return
		}
		fetched, err := c.client.GetGroupGains(ctx, groupID, metric, period)
		if err != nil {
			log.Printf("Error fetching gains for group %d: %v", groupID, err)
			return
		}
		gains = fetched
		c.snaps.SetGains(ctx, groupID, metric, period, fetched)
	}()

	go func() {
		defer wg.Done()
		fetched, err := c.client.GetGroupAchievements(ctx, groupID, c.cfg.Polling.AchievementsLimit)
		if err != nil {
			log.Printf("Error fetching achievements for group %d: %v", groupID, err)
			return
		}
		achievements = fetched
	}()

	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastErr = rosterErr
	if rosterErr == nil {
		c.roster = roster
		c.lastFetch = time.Now()
	}
	if details != nil {
		c.details = details
	}
	if gains != nil {
		c.gains = gains
	}
	if achievements != nil {
		c.achievements = achievements
	}

	log.Printf("Snapshot fetch for group %d completed in %s (%d members)", groupID, time.Since(start).Round(time.Millisecond), len(c.roster))
}

// Summary classifies the held roster against the current wall clock.
func (c *Collector) Summary() *analysis.Summary {
	return c.SummaryAt(time.Now().UTC())
}

// SummaryAt classifies the held roster against an explicit instant.
func (c *Collector) SummaryAt(now time.Time) *analysis.Summary {
	c.mu.RLock()
	roster := c.roster
	c.mu.RUnlock()

	return analysis.Analyze(roster, c.cfg.Thresholds, c.cfg.ColorMap(), now)
}

// Details returns the latest group details snapshot, possibly nil.
func (c *Collector) Details() *wom.GroupDetails {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.details
}

// Gains returns the latest gains snapshot for the configured metric and
// period.
func (c *Collector) Gains() []wom.GainsEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gains
}

// Achievements returns the latest achievements snapshot.
func (c *Collector) Achievements() []wom.Achievement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.achievements
}

// Status reports the collector's fetch state for health checks.
type Status struct {
	Running   bool      `json:"running"`
	LastFetch time.Time `json:"last_fetch"`
	LastError string    `json:"last_error,omitempty"`
	Members   int       `json:"members"`
}

// GetStatus returns the current fetch state.
func (c *Collector) GetStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		Running:   c.isRunning,
		LastFetch: c.lastFetch,
		Members:   len(c.roster),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
