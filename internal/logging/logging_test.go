package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesPlainConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{})
	logger.Info("sampling progress", zap.Int("done", 10))
	logger.Debug("hidden")
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "sampling progress") || !strings.Contains(out, `"done": 10`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug suppressed without verbose")
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color for non-terminal writer")
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Verbose: true})
	logger.Debug("shown")
	_ = logger.Sync()
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}

func TestUseColorRespectsEnvironment(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if UseColor(&bytes.Buffer{}) {
		t.Fatalf("expected no color")
	}
}
