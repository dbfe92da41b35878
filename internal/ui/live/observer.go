package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"cotfaith/internal/classify"
	"cotfaith/internal/sweep"
)

// Controller runs the live UI and implements sweep.Observer.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once
}

var _ sweep.Observer = (*Controller)(nil)

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = program.Run()
		close(controller.done)
	}()
	return controller
}

// Close signals the UI to stop.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.events)
	})
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}

// Done is closed once the UI has exited, including when the user quits it.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// SweepStarted seeds one row per strength.
func (c *Controller) SweepStarted(key, variant string, features []string, strengths []float64) {
	c.sendSync(Event{Kind: EventSweepStart, SweepKey: key, Variant: variant, Features: features, Strengths: strengths})
}

// StepStarted marks a strength as running.
func (c *Controller) StepStarted(strength float64, step, steps, samples int) {
	c.sendSync(Event{Kind: EventStepStart, Strength: strength, Samples: samples})
}

// SampleScored forwards the live tally. Dropped when the UI falls behind.
func (c *Controller) SampleScored(strength float64, tally classify.Tally, done, total int) {
	c.send(Event{Kind: EventSample, Strength: strength, Tally: tally, Done: done})
}

// StepFinished records a finished or resumed strength.
func (c *Controller) StepFinished(result sweep.Result, resumed bool) {
	c.sendSync(Event{Kind: EventStepEnd, Result: result, Resumed: resumed})
}

// SweepFinished shows the outcome and closes the UI.
func (c *Controller) SweepFinished(err error) {
	c.sendSync(Event{Kind: EventSweepEnd, Err: err})
	c.Close()
}

// send enqueues an event without blocking the caller.
func (c *Controller) send(event Event) {
	if c == nil {
		return
	}
	select {
	case c.events <- event:
	case <-c.done:
	default:
	}
}

// sendSync enqueues an event unless the UI has already exited.
func (c *Controller) sendSync(event Event) {
	if c == nil {
		return
	}
	select {
	case c.events <- event:
	case <-c.done:
	}
}
