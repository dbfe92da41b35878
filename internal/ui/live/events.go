package live

import (
	"cotfaith/internal/classify"
	"cotfaith/internal/sweep"
)

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventSweepStart announces the sweep and its strengths.
	EventSweepStart EventKind = iota
	// EventStepStart signals sampling began for one strength.
	EventStepStart
	// EventSample delivers the live tally after one scored sample.
	EventSample
	// EventStepEnd delivers a finished or resumed strength.
	EventStepEnd
	// EventSweepEnd signals the sweep is over.
	EventSweepEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind      EventKind
	SweepKey  string
	Variant   string
	Features  []string
	Strengths []float64
	Strength  float64
	Samples   int
	Tally     classify.Tally
	Done      int
	Result    sweep.Result
	Resumed   bool
	Err       error
}
