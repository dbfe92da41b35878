package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns lists the per-strength columns.
func defaultColumns() []table.Column {
	return []table.Column{
		{Title: "Strength", Width: 14},
		{Title: "Status", Width: 9},
		{Title: "Progress", Width: 9},
		{Title: "Correct", Width: 8},
		{Title: "Faithful", Width: 9},
		{Title: "Unfaithful", Width: 11},
		{Title: "Invalid", Width: 8},
		{Title: "Error", Width: 6},
		{Title: "Elapsed", Width: 9},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatStrength(row.Strength),
			stylizeStatus(row.Status, noColor),
			formatProgress(row),
			strconv.Itoa(row.Counts.Correct),
			strconv.Itoa(row.Counts.WrongFaithful),
			strconv.Itoa(row.Counts.WrongUnfaithful),
			strconv.Itoa(row.Counts.Invalid),
			strconv.Itoa(row.Counts.Error),
			formatRowDuration(row, now),
		})
	}
	return rows
}
