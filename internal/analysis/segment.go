package analysis

import "sort"

// Default churn-risk window: long enough inactive to be worth a nudge,
// not so long that the member is already gone.
const (
	DefaultChurnMinDays = 14
	DefaultChurnMaxDays = 90
)

// DefaultRetentionPeriods are the day thresholds shown on the retention
// table when the caller does not supply their own.
var DefaultRetentionPeriods = []int{7, 14, 30, 60, 90}

// ChurnRisk returns the members whose days inactive fall inside
// [minDays, maxDays], most-stale first. Ties keep input roster order.
// Members with the -1 sentinel never match.
func ChurnRisk(members []Member, minDays, maxDays int) []Member {
	out := make([]Member, 0)
	for _, m := range members {
		if m.DaysInactive >= minDays && m.DaysInactive <= maxDays {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysInactive > out[j].DaysInactive
	})
	return out
}

// RetentionRate is the share of members still active within a day
// threshold.
type RetentionRate struct {
	Days int     `json:"days"`
	Rate float64 `json:"rate"`
}

// RetentionRates reports, for each requested threshold, the percentage
// of all members whose days inactive fall in [0, threshold]. The
// denominator is the full member list, untracked included; members with
// the -1 sentinel count there but can never satisfy the numerator, so
// rates stay below 100% whenever untracked members exist.
func RetentionRates(members []Member, periods []int) []RetentionRate {
	total := len(members)
	if total == 0 {
		total = 1
	}

	rates := make([]RetentionRate, 0, len(periods))
	for _, days := range periods {
		count := 0
		for _, m := range members {
			if m.DaysInactive >= 0 && m.DaysInactive <= days {
				count++
			}
		}
		rates = append(rates, RetentionRate{
			Days: days,
			Rate: float64(count) / float64(total) * 100,
		})
	}
	return rates
}

// Bucket is one bar of the inactivity histogram.
type Bucket struct {
	Label   string  `json:"label"`
	MinDays int     `json:"min_days"`
	MaxDays int     `json:"max_days"`
	Count   int     `json:"count"`
	Percent float64 `json:"pct"`
}

// bucketBounds are the fixed histogram boundaries, in days.
var bucketBounds = []struct {
	min, max int
	label    string
}{
	{0, 7, "0-7d"},
	{8, 14, "8-14d"},
	{15, 30, "15-30d"},
	{31, 60, "31-60d"},
	{61, 90, "61-90d"},
	{91, 180, "91-180d"},
	{181, 365, "181-365d"},
	{366, 9999, "1y+"},
}

// ActivityBuckets groups members by inactivity period for the histogram.
// Each bucket reports its raw count and its percentage of the full
// member list. The -1 sentinel sits below every bucket's lower bound,
// so unknown and untracked members land in no bucket.
func ActivityBuckets(members []Member) []Bucket {
	total := len(members)
	if total == 0 {
		total = 1
	}

	buckets := make([]Bucket, 0, len(bucketBounds))
	for _, b := range bucketBounds {
		count := 0
		for _, m := range members {
			if m.DaysInactive >= b.min && m.DaysInactive <= b.max {
				count++
			}
		}
		buckets = append(buckets, Bucket{
			Label:   b.label,
			MinDays: b.min,
			MaxDays: b.max,
			Count:   count,
			Percent: float64(count) / float64(total) * 100,
		})
	}
	return buckets
}

// GroupByRole partitions members into a role to member-list mapping,
// preserving roster order within each group. Roles with no members get
// no entry.
func GroupByRole(members []Member) map[string][]Member {
	roles := make(map[string][]Member)
	for _, m := range members {
		roles[m.Role] = append(roles[m.Role], m)
	}
	return roles
}
