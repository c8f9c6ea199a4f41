package analysis

import "fmt"

// Status represents a member's activity classification.
type Status string

const (
	StatusActive    Status = "active"
	StatusAtRisk    Status = "at_risk"
	StatusInactive  Status = "inactive"
	StatusChurned   Status = "churned"
	StatusUnknown   Status = "unknown"
	StatusUntracked Status = "untracked"
)

// AllStatuses lists every status in ascending-staleness order.
// Aggregation output always carries a zero-filled count for each of these.
var AllStatuses = []Status{
	StatusActive,
	StatusAtRisk,
	StatusInactive,
	StatusChurned,
	StatusUnknown,
	StatusUntracked,
}

// healthWeights maps each status to its contribution to the clan health
// score. Untracked members are excluded from the score entirely, so they
// carry no weight here.
var healthWeights = map[Status]float64{
	StatusActive:   100,
	StatusAtRisk:   50,
	StatusInactive: 20,
	StatusChurned:  0,
	StatusUnknown:  25,
}

// Thresholds holds the day boundaries used to classify activity.
// A member is active at or below ActiveDays, at risk at or below
// AtRiskDays, inactive at or below InactiveDays, and churned beyond that.
type Thresholds struct {
	ActiveDays   int `yaml:"active"`
	AtRiskDays   int `yaml:"at_risk"`
	InactiveDays int `yaml:"inactive"`
}

// DefaultThresholds returns the standard 7/30/90 day boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{ActiveDays: 7, AtRiskDays: 30, InactiveDays: 90}
}

// Validate checks that the thresholds are non-negative and strictly
// increasing. Non-increasing thresholds would make the classification
// ordering meaningless, so this is checked once at config load rather
// than per record.
func (t Thresholds) Validate() error {
	if t.ActiveDays < 0 {
		return fmt.Errorf("active threshold must be >= 0, got %d", t.ActiveDays)
	}
	if t.AtRiskDays <= t.ActiveDays {
		return fmt.Errorf("at_risk threshold (%d) must be greater than active threshold (%d)", t.AtRiskDays, t.ActiveDays)
	}
	if t.InactiveDays <= t.AtRiskDays {
		return fmt.Errorf("inactive threshold (%d) must be greater than at_risk threshold (%d)", t.InactiveDays, t.AtRiskDays)
	}
	return nil
}

// fallbackColor is used for any status missing from the color map.
const fallbackColor = "#95a5a6"

// ColorMap maps a status to its display color.
type ColorMap map[Status]string

// DefaultColors returns the standard status palette.
func DefaultColors() ColorMap {
	return ColorMap{
		StatusActive:    "#2ecc71",
		StatusAtRisk:    "#f1c40f",
		StatusInactive:  "#e67e22",
		StatusChurned:   "#e74c3c",
		StatusUnknown:   "#95a5a6",
		StatusUntracked: "#6c757d",
	}
}

// Color returns the display color for the given status, falling back to
// a neutral gray for statuses without a configured color.
func (c ColorMap) Color(s Status) string {
	if color, ok := c[s]; ok && color != "" {
		return color
	}
	return fallbackColor
}
