// Package cli wires configuration, storage, and the model clients into the
// cotfaith command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

const (
	// ExitOK indicates success.
	ExitOK = 0
	// ExitError indicates a runtime failure.
	ExitError = 1
	// ExitUsage indicates invalid arguments or usage.
	ExitUsage = 2
)

// usageError marks failures caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

// Run executes the CLI with args and returns an exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, stdout, stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if len(args) == 0 {
		fmt.Fprint(stdout, root.UsageString())
		return ExitUsage
	}

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return ExitOK
	}
	var usage usageError
	if errors.As(err, &usage) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "Unknown command or invalid usage: %v\n", err)
		fmt.Fprint(stderr, root.UsageString())
		return ExitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cotfaith",
		Short:         "Measure chain-of-thought faithfulness under feature steering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to .cotfaith.yml (default: search upward from the working directory)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with API keys")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(
		newInitCommand(a),
		newValidateCommand(a),
		newCurateCommand(a),
		newSweepCommand(a),
		newContrastCommand(a),
		newInspectCommand(a),
		newNeighborsCommand(a),
		newExportCommand(a),
	)
	return root
}

// usageArgs reports positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
