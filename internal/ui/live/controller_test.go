package live

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cotfaith/internal/classify"
	"cotfaith/internal/sweep"
)

// TestModelQuitsOnCtrlC verifies ctrl+c inside the UI ends the program.
func TestModelQuitsOnCtrlC(t *testing.T) {
	model := NewModel(make(chan Event), Options{NoColor: true})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Fatalf("expected other keys to be ignored")
	}
}

// TestControllerAfterUIExit verifies observer calls never block once the UI is gone.
func TestControllerAfterUIExit(t *testing.T) {
	controller := &Controller{events: make(chan Event), done: make(chan struct{})}
	close(controller.done)

	select {
	case <-controller.Done():
	default:
		t.Fatalf("expected Done to be closed")
	}

	finished := make(chan struct{})
	go func() {
		controller.StepStarted(0.1, 0, 1, 2)
		controller.SampleScored(0.1, classify.Tally{Correct: 1}, 1, 2)
		controller.StepFinished(sweep.Result{FeatureValue: 0.1}, false)
		controller.SweepFinished(errors.New("canceled"))
		controller.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("observer calls blocked after the UI exited")
	}
}
