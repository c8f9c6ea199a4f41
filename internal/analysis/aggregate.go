package analysis

import (
	"time"

	"github.com/clanmetrics/wom-monitor/internal/wom"
)

// Member is one roster entry enriched with its computed classification.
// Members are built fresh on every Analyze call and never mutated after.
type Member struct {
	Username     string     `json:"username"`
	PlayerID     int64      `json:"player_id"`
	Role         string     `json:"role"`
	XP           int64      `json:"xp"`
	EHP          float64    `json:"ehp"`
	EHB          float64    `json:"ehb"`
	Type         string     `json:"type"`
	Build        string     `json:"build"`
	Status       Status     `json:"status"`
	DaysInactive int        `json:"days_inactive"`
	Color        string     `json:"color"`
	LastChanged  *time.Time `json:"last_changed"`
}

// Totals holds summed progress metrics over tracked members.
type Totals struct {
	XP  int64   `json:"xp"`
	EHP float64 `json:"ehp"`
	EHB float64 `json:"ehb"`
}

// Averages holds per-tracked-member averages of the progress metrics.
type Averages struct {
	XP  float64 `json:"xp"`
	EHP float64 `json:"ehp"`
	EHB float64 `json:"ehb"`
}

// Summary is the aggregated activity picture for one roster snapshot.
type Summary struct {
	Members        []Member           `json:"members"`
	Counts         map[Status]int     `json:"counts"`
	Percentages    map[Status]float64 `json:"percentages"`
	Totals         Totals             `json:"totals"`
	Averages       Averages           `json:"averages"`
	HealthScore    float64            `json:"health_score"`
	TotalMembers   int                `json:"total_members"`
	TrackedMembers int                `json:"tracked_members"`
}

// Analyze classifies every member of a roster snapshot and aggregates
// clan-wide counts, totals and a weighted health score.
//
// Untracked members (flagged by the source, or carrying no experience
// value) bypass day-based classification, contribute zero to all sums,
// and are excluded from the average and health-score denominators.
// Output member order matches input roster order; consumers sort or
// filter as they need.
func Analyze(roster []wom.RosterEntry, thresholds Thresholds, colors ColorMap, now time.Time) *Summary {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}

	members := make([]Member, 0, len(roster))
	var totals Totals

	for _, entry := range roster {
		player := entry.Player

		if player.Untracked() {
			members = append(members, Member{
				Username:     displayName(player),
				PlayerID:     player.ID,
				Role:         fallback(entry.Role, "member"),
				Type:         fallback(player.Type, "unknown"),
				Build:        fallback(player.Build, "unknown"),
				Status:       StatusUntracked,
				DaysInactive: sentinelDays,
				Color:        colors.Color(StatusUntracked),
			})
			counts[StatusUntracked]++
			continue
		}

		var lastChanged *time.Time
		if t, ok := ParseTimestamp(player.LastChangedAt); ok {
			lastChanged = &t
		}
		status := Classify(lastChanged, now, thresholds, colors)
		counts[status.Status]++

		xp := *player.Exp
		ehp := floatOrZero(player.EHP)
		ehb := floatOrZero(player.EHB)
		totals.XP += xp
		totals.EHP += ehp
		totals.EHB += ehb

		members = append(members, Member{
			Username:     displayName(player),
			PlayerID:     player.ID,
			Role:         fallback(entry.Role, "member"),
			XP:           xp,
			EHP:          ehp,
			EHB:          ehb,
			Type:         fallback(player.Type, "regular"),
			Build:        fallback(player.Build, "main"),
			Status:       status.Status,
			DaysInactive: status.DaysInactive,
			Color:        status.Color,
			LastChanged:  lastChanged,
		})
	}

	total := len(members)
	tracked := total - counts[StatusUntracked]

	percentages := make(map[Status]float64, len(AllStatuses))
	for _, s := range AllStatuses {
		if total > 0 {
			percentages[s] = float64(counts[s]) / float64(total) * 100
		} else {
			percentages[s] = 0
		}
	}

	var health float64
	var averages Averages
	if tracked > 0 {
		var score float64
		for status, weight := range healthWeights {
			score += float64(counts[status]) * weight
		}
		health = score / float64(tracked)
		averages = Averages{
			XP:  float64(totals.XP) / float64(tracked),
			EHP: totals.EHP / float64(tracked),
			EHB: totals.EHB / float64(tracked),
		}
	}

	return &Summary{
		Members:        members,
		Counts:         counts,
		Percentages:    percentages,
		Totals:         totals,
		Averages:       averages,
		HealthScore:    health,
		TotalMembers:   total,
		TrackedMembers: tracked,
	}
}

// displayName resolves a player's display name with the documented
// fallback chain: displayName, then username, then "Unknown".
func displayName(p wom.Player) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Username != "" {
		return p.Username
	}
	return "Unknown"
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
