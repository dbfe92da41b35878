package live

import (
	"fmt"
	"time"
)

// Reduce applies a sweep event to the UI state.
func Reduce(state State, event Event, now time.Time) State {
	var index int
	switch event.Kind {
	case EventSweepStart:
		state.SweepKey = event.SweepKey
		state.Variant = event.Variant
		state.Features = append([]string(nil), event.Features...)
		state.StartedAt = now
		state.Rows = make([]StepRow, len(event.Strengths))
		for i, strength := range event.Strengths {
			state.Rows[i] = StepRow{Strength: strength, Status: StepPending}
		}
		state.LastEvent = fmt.Sprintf("sweeping %d strengths", len(event.Strengths))
	case EventStepStart:
		state, index = ensureRow(state, event.Strength)
		row := state.Rows[index]
		row.Status = StepRunning
		row.Total = event.Samples
		row.StartedAt = now
		state.Rows[index] = row
		state.LastEvent = "generating answers at " + formatStrength(event.Strength)
	case EventSample:
		state, index = ensureRow(state, event.Strength)
		row := state.Rows[index]
		row.Counts = event.Tally
		row.Done = event.Done
		state.Rows[index] = row
	case EventStepEnd:
		state, index = ensureRow(state, event.Result.FeatureValue)
		row := state.Rows[index]
		row.Counts = event.Result.Counts
		row.Done = event.Result.Counts.Total()
		row.Total = len(event.Result.Answers)
		row.FinishedAt = now
		row.Status = StepDone
		if event.Resumed {
			row.Status = StepResumed
		}
		state.Rows[index] = row
		state.LastEvent = fmt.Sprintf("%s at %s", row.Status, formatStrength(row.Strength))
	case EventSweepEnd:
		state.Finished = true
		if event.Err != nil {
			state.LastEvent = "sweep stopped: " + event.Err.Error()
		} else {
			state.LastEvent = "sweep complete"
		}
	}
	return state
}

// ensureRow returns the index of the row for strength, appending one if needed.
func ensureRow(state State, strength float64) (State, int) {
	for i, row := range state.Rows {
		if row.Strength == strength {
			return state, i
		}
	}
	state.Rows = append(state.Rows, StepRow{Strength: strength, Status: StepPending})
	return state, len(state.Rows) - 1
}

// Summary totals completed rows.
func Summary(state State) (done, total int) {
	for _, row := range state.Rows {
		if row.Status == StepDone || row.Status == StepResumed {
			done++
		}
	}
	return done, len(state.Rows)
}
