package live

import (
	"time"

	"cotfaith/internal/classify"
)

// StepStatus is the lifecycle of one strength row.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepResumed StepStatus = "resumed"
)

// StepRow holds UI state for one strength.
type StepRow struct {
	Strength   float64
	Status     StepStatus
	Counts     classify.Tally
	Done       int
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// State captures the live UI state for a sweep.
type State struct {
	SweepKey  string
	Variant   string
	Features  []string
	StartedAt time.Time
	Rows      []StepRow
	LastEvent string
	Finished  bool
}
