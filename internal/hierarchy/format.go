package hierarchy

import "strings"

var stateLabels = map[string]string{
	"draft":     "Draft",
	"confirmed": "Confirmed",
	"progress":  "In Progress",
	"to_close":  "To Close",
	"done":      "Done",
	"cancel":    "Cancelled",
}

var stateColors = map[string]string{
	"draft":       "info",
	"confirmed":   "warning",
	"progress":    "primary",
	"to_close":    "success",
	"done":        "success",
	"cancel":      "danger",
	"to_order":    "warning",
	"unavailable": "danger",
}

var badgeClasses = map[string]string{
	"done":      "badge-success",
	"draft":     "badge-info",
	"waiting":   "badge-warning",
	"confirmed": "badge-warning",
	"assigned":  "badge-primary",
	"cancel":    "badge-danger",
}

// FormatProductName prefixes the internal reference, as in "[AA-065] Thinner".
func FormatProductName(name, ref string) string {
	if ref = strings.TrimSpace(ref); ref != "" {
		return "[" + ref + "] " + name
	}
	return name
}

// FormatState returns the display label of a state, or the state itself when unknown.
func FormatState(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}

// StatusColor returns the contextual color name for a state.
func StatusColor(state string) string {
	if c, ok := stateColors[state]; ok {
		return c
	}
	return "secondary"
}

// StatusBadgeClass returns the CSS classes of a delivery state badge.
func StatusBadgeClass(state string) string {
	class, ok := badgeClasses[state]
	if !ok {
		class = "badge-secondary"
	}
	return "badge badge-pill " + class
}
