package cli

import (
	"fmt"
	"io"
	"strings"

	"cotfaith/internal/logging"
)

// uiModeDecision captures whether the sweep uses the live UI.
type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal reports whether a writer is a TTY.
var isTerminal = logging.IsTerminal

// resolveUIMode determines whether to enable the live UI. Verbose logging
// always wins, since debug lines would tear the table.
func resolveUIMode(mode string, verbose bool, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = "auto"
	}
	switch normalized {
	case "auto":
		return uiModeDecision{useLive: !verbose && isTerminal(stdout)}, nil
	case "live":
		if verbose {
			return uiModeDecision{warning: "Live UI disabled by --verbose; using plain output."}, nil
		}
		if isTerminal(stdout) {
			return uiModeDecision{useLive: true}, nil
		}
		return uiModeDecision{
			warning: "Live UI requested but stdout is not a TTY; falling back to plain output.",
		}, nil
	case "plain":
		return uiModeDecision{}, nil
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
}
