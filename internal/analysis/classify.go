package analysis

import (
	"strings"
	"time"
)

// sentinelDays marks a member with no usable activity timestamp.
const sentinelDays = -1

// ParseTimestamp parses a timestamp string from the WOM API into a UTC
// instant. The API uses ISO-8601 with either a literal Z suffix or a
// numeric offset. Empty, null-ish, or malformed input returns ok=false
// rather than an error: upstream data quality is not guaranteed, and a
// bad timestamp must degrade to an unknown classification instead of
// failing the whole roster analysis.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MemberStatus is the result of classifying a single member.
type MemberStatus struct {
	Status       Status
	DaysInactive int
	Color        string
}

// Classify maps a member's last activity instant to an activity status.
// lastChanged may be nil for members with no recorded activity, which
// classifies as unknown with the -1 day sentinel.
//
// Thresholds apply in ascending order with inclusive upper bounds.
// Elapsed days use whole-day truncation against the supplied now, so the
// same timestamp classifies differently as real time passes; callers
// inject now explicitly to keep tests deterministic. A future timestamp
// (clock skew) yields negative days and classifies as active.
func Classify(lastChanged *time.Time, now time.Time, thresholds Thresholds, colors ColorMap) MemberStatus {
	if lastChanged == nil {
		return MemberStatus{
			Status:       StatusUnknown,
			DaysInactive: sentinelDays,
			Color:        colors.Color(StatusUnknown),
		}
	}

	days := int(now.UTC().Sub(lastChanged.UTC()) / (24 * time.Hour))

	var status Status
	switch {
	case days <= thresholds.ActiveDays:
		status = StatusActive
	case days <= thresholds.AtRiskDays:
		status = StatusAtRisk
	case days <= thresholds.InactiveDays:
		status = StatusInactive
	default:
		status = StatusChurned
	}

	return MemberStatus{
		Status:       status,
		DaysInactive: days,
		Color:        colors.Color(status),
	}
}
