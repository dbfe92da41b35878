package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// formatStrength renders a strength with a sign, baseline shown as 0.
func formatStrength(strength float64) string {
	if strength == 0 {
		return "0 (baseline)"
	}
	text := strconv.FormatFloat(strength, 'f', -1, 64)
	if strength > 0 {
		return "+" + text
	}
	return text
}

// formatProgress renders done/total.
func formatProgress(row StepRow) string {
	if row.Total == 0 {
		return "-"
	}
	return strconv.Itoa(row.Done) + "/" + strconv.Itoa(row.Total)
}

// formatRowDuration renders how long a row has run.
func formatRowDuration(row StepRow, now time.Time) string {
	if row.StartedAt.IsZero() {
		return "-"
	}
	end := row.FinishedAt
	if end.IsZero() {
		end = now
	}
	return formatDuration(end.Sub(row.StartedAt))
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}

// formatFeatures joins feature labels for the header.
func formatFeatures(features []string) string {
	if len(features) == 0 {
		return "none"
	}
	text := strings.Join(features, ", ")
	const limit = 80
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}

// stylizeStatus colors a status cell.
func stylizeStatus(status StepStatus, noColor bool) string {
	text := string(status)
	if noColor {
		return text
	}
	switch status {
	case StepRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(text)
	case StepDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(text)
	case StepResumed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(text)
	default:
		return text
	}
}
