// Package format holds pure display formatters for dashboard values.
// Nothing here touches roster state or has side effects.
package format

import (
	"fmt"
	"strings"
	"time"
)

// XP formats an experience value with a K/M/B suffix.
func XP(value float64) string {
	switch {
	case value >= 1e9:
		return fmt.Sprintf("%.2fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("%.2fM", value/1e6)
	case value >= 1e3:
		return fmt.Sprintf("%.1fK", value/1e3)
	default:
		return Number(int64(value))
	}
}

// Number formats an integer with thousand separators.
func Number(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	s := fmt.Sprintf("%d", value)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// Hours formats an EHP/EHB hours value.
func Hours(hours float64) string {
	switch {
	case hours >= 1000:
		return fmt.Sprintf("%.1fK hrs", hours/1000)
	case hours >= 1:
		return fmt.Sprintf("%.1f hrs", hours)
	default:
		return fmt.Sprintf("%.0f min", hours*60)
	}
}

// Percent formats a percentage with the given decimal places.
func Percent(value float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, value)
}

// TimeAgo formats an instant as a relative time string. A nil instant
// renders as "Never".
func TimeAgo(t *time.Time, now time.Time) string {
	if t == nil {
		return "Never"
	}

	delta := now.Sub(t.UTC())
	if delta < 0 {
		delta = 0
	}

	days := int(delta / (24 * time.Hour))
	hours := int(delta/time.Hour) % 24
	minutes := int(delta/time.Minute) % 60

	switch {
	case days > 365:
		return fmt.Sprintf("%dy ago", days/365)
	case days > 30:
		return fmt.Sprintf("%dmo ago", days/30)
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh ago", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm ago", minutes)
	default:
		return "Just now"
	}
}

// Date formats an instant for display. A nil instant renders as "N/A".
func Date(t *time.Time, includeTime bool) string {
	if t == nil {
		return "N/A"
	}
	if includeTime {
		return t.Format("Jan 02, 2006 15:04")
	}
	return t.Format("Jan 02, 2006")
}

// TruncateUsername shortens long usernames with an ellipsis.
func TruncateUsername(username string, maxLen int) string {
	runes := []rune(username)
	if len(runes) <= maxLen {
		return username
	}
	return string(runes[:maxLen-1]) + "…"
}

// roleOverrides covers the roles whose display name is not a plain
// title-casing of the API value.
var roleOverrides = map[string]string{
	"administrator": "Admin",
	"deputy_owner":  "Deputy Owner",
}

// RoleDisplayName converts an API role label to its display form:
// underscores become spaces and each word is title-cased.
func RoleDisplayName(role string) string {
	if role == "" {
		return "Member"
	}
	if display, ok := roleOverrides[strings.ToLower(role)]; ok {
		return display
	}
	words := strings.Split(strings.ToLower(role), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
