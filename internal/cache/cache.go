// Package cache provides a Redis-backed TTL cache for WOM API
// snapshots, so concurrent page loads within a TTL window share one
// upstream fetch. The cache is strictly optional: a nil client turns
// every lookup into a miss and every store into a no-op, and Redis
// outages degrade to live fetches rather than errors.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clanmetrics/wom-monitor/internal/config"
	"github.com/clanmetrics/wom-monitor/internal/pkg/logger"
	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// Snapshots caches raw WOM responses keyed by group.
type Snapshots struct {
	rdb  *redis.Client
	ttls config.CacheConfig
}

// New creates a snapshot cache. rdb may be nil to disable caching.
func New(rdb *redis.Client, ttls config.CacheConfig) *Snapshots {
	return &Snapshots{rdb: rdb, ttls: ttls}
}

func rosterKey(groupID int64) string {
	return fmt.Sprintf("wom:roster:%d", groupID)
}

func gainsKey(groupID int64, metric, period string) string {
	return fmt.Sprintf("wom:gains:%d:%s:%s", groupID, metric, period)
}

func detailsKey(groupID int64) string {
	return fmt.Sprintf("wom:details:%d", groupID)
}

// GetRoster returns the cached roster snapshot for a group, if present.
func (s *Snapshots) GetRoster(ctx context.Context, groupID int64) ([]wom.RosterEntry, bool) {
	var roster []wom.RosterEntry
	if !s.get(ctx, rosterKey(groupID), &roster) {
		return nil, false
	}
	return roster, true
}

// SetRoster stores a roster snapshot under the configured roster TTL.
func (s *Snapshots) SetRoster(ctx context.Context, groupID int64, roster []wom.RosterEntry) {
	s.set(ctx, rosterKey(groupID), roster, s.ttls.RosterTTL())
}

// GetGains returns the cached gains snapshot for a group/metric/period.
func (s *Snapshots) GetGains(ctx context.Context, groupID int64, metric, period string) ([]wom.GainsEntry, bool) {
	var gains []wom.GainsEntry
	if !s.get(ctx, gainsKey(groupID, metric, period), &gains) {
		return nil, false
	}
	return gains, true
}

// SetGains stores a gains snapshot under the configured gains TTL.
func (s *Snapshots) SetGains(ctx context.Context, groupID int64, metric, period string, gains []wom.GainsEntry) {
	s.set(ctx, gainsKey(groupID, metric, period), gains, s.ttls.GainsTTL())
}

// GetDetails returns the cached group details, if present.
func (s *Snapshots) GetDetails(ctx context.Context, groupID int64) (*wom.GroupDetails, bool) {
	var details wom.GroupDetails
	if !s.get(ctx, detailsKey(groupID), &details) {
		return nil, false
	}
	return &details, true
}

// SetDetails stores group details under the configured details TTL.
func (s *Snapshots) SetDetails(ctx context.Context, groupID int64, details *wom.GroupDetails) {
	if details == nil {
		return
	}
	s.set(ctx, detailsKey(groupID), details, s.ttls.DetailsTTL())
}

// Invalidate drops every cached snapshot for a group. Used by the
// refresh endpoint so the next fetch goes upstream.
func (s *Snapshots) Invalidate(ctx context.Context, groupID int64, metric, period string) {
	if s == nil || s.rdb == nil {
		return
	}
	keys := []string{rosterKey(groupID), gainsKey(groupID, metric, period), detailsKey(groupID)}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("cache invalidate failed", "group_id", groupID, "error", err)
	}
}

// Ping reports whether the cache backend is reachable.
func (s *Snapshots) Ping(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("cache not configured")
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Snapshots) get(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warn("cache entry corrupt, discarding", "key", key, "error", err)
		s.rdb.Del(ctx, key)
		return false
	}
	return true
}

func (s *Snapshots) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s == nil || s.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}
}
