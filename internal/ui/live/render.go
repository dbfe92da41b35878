package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the sweep header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Sweep"
	if len(state.SweepKey) >= 12 {
		line += " " + state.SweepKey[:12]
	}
	if state.Variant != "" {
		line += " | " + state.Variant
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + formatDuration(now.Sub(state.StartedAt))
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the features and completed steps.
func renderSummary(state State, noColor bool) string {
	done, total := Summary(state)
	line := "Features: " + formatFeatures(state.Features) +
		" | Steps: " + strconv.Itoa(done) + "/" + strconv.Itoa(total)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
