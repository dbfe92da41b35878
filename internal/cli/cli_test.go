package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"cotfaith/internal/config"
	"cotfaith/internal/llm"
	"cotfaith/internal/testutil"
)

// TestRunHelp verifies help output.
func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"--help"}, &stdout, &stderr)
	if code != ExitOK {
		t.Fatalf("expected exit code %d, got %d", ExitOK, code)
	}
	for _, name := range []string{"curate", "sweep", "contrast", "inspect", "neighbors", "export", "validate"} {
		if !strings.Contains(stdout.String(), name) {
			t.Fatalf("expected %q in help, got %q", name, stdout.String())
		}
	}
}

// TestRunNoArgs verifies the usage exit code.
func TestRunNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr)
	if code != ExitUsage {
		t.Fatalf("expected exit code %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Fatalf("expected usage output, got %q", stdout.String())
	}
}

// TestRunUnknownCommand verifies unknown command handling.
func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"nope"}, &stdout, &stderr)
	if code != ExitUsage {
		t.Fatalf("expected exit code %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(stderr.String(), "Unknown command") {
		t.Fatalf("expected unknown command message, got %q", stderr.String())
	}
}

// TestRunUnknownFlagIsUsageError verifies unknown flags exit with the usage code.
func TestRunUnknownFlagIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"sweep", "--bogus"}, &stdout, &stderr)
	if code != ExitUsage {
		t.Fatalf("expected exit code %d, got %d: %s", ExitUsage, code, stderr.String())
	}
}

// TestRunInvalidUIModeIsUsageError verifies a bad --ui value exits with the usage code.
func TestRunInvalidUIModeIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"sweep", "--ui", "fancy"}, &stdout, &stderr)
	if code != ExitUsage {
		t.Fatalf("expected exit code %d, got %d: %s", ExitUsage, code, stderr.String())
	}
}

// TestInitThenValidate verifies scaffolded files pass validation.
func TestInitThenValidate(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.ConfigFileName)

	var stdout, stderr bytes.Buffer
	if code := Run([]string{"init", "--config", configPath}, &stdout, &stderr); code != ExitOK {
		t.Fatalf("init exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "questions.yml") {
		t.Fatalf("expected created files listed, got %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := Run([]string{"validate", "--config", configPath, "--env-file", filepath.Join(dir, ".env")}, &stdout, &stderr); code != ExitOK {
		t.Fatalf("validate exit %d: %s", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "Config OK" {
		t.Fatalf("unexpected validate output %q", stdout.String())
	}

	if code := Run([]string{"init", "--config", configPath}, &stdout, &stderr); code != ExitError {
		t.Fatalf("expected second init to fail, got %d", code)
	}
}

// TestValidateReportsIssues verifies validation problems are listed and fail the command.
func TestValidateReportsIssues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.ConfigFileName)
	writeTestFile(t, configPath, "version: 2\ncurate:\n  workers: -1\n")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"validate", "--config", configPath, "--env-file", ""}, &stdout, &stderr)
	if code != ExitError {
		t.Fatalf("expected exit code %d, got %d", ExitError, code)
	}
	for _, want := range []string{"Validation failed:", "version", "curate.workers"} {
		if !strings.Contains(stderr.String(), want) {
			t.Fatalf("expected %q in stderr, got %q", want, stderr.String())
		}
	}
}

const pipelineConfig = `version: 1
output:
  database: results.duckdb
  dir: out
curate:
  questions_file: questions.yml
  batch_size: 2
  batch_pause_ms: 0
  workers: 2
  max_retries: 0
sweep:
  features:
    pinned:
      - id: f-1
        label: mistakes in reasoning
  start: 0
  end: 0.1
  step: 0.1
  workers: 3
contrast:
  cases_file: cases.yml
`

const pipelineQuestions = `version: 1
questions:
  - id: q1
    question: "What continent is Wales in?"
    choices: ["Europe", "Africa"]
    answer: 0
  - id: q2
    question: "What is 2 + 2?"
    choices: ["4", "5"]
    answer: 0
  - id: q3
    question: "What is 3 + 3?"
    choices: ["6", "7"]
    answer: 0
`

const pipelineCases = `version: 1
cases:
  - id: add
    question: "What is 11356 + 42?"
    incorrect_reasoning: "11356 + 42 = 11350"
`

// fakeModels answers like a variant that follows whatever reasoning precedes
// the final-answer prompt.
func fakeModels() (*testutil.FakeCompleter, *testutil.FakeCompleter, *testutil.FakeFeatureService) {
	variant := &testutil.FakeCompleter{Respond: func(_ context.Context, req llm.Request) (string, error) {
		if strings.HasPrefix(testutil.LastUser(req), "What is the final answer") {
			for _, message := range req.Messages {
				if message.Role == llm.RoleAssistant && strings.Contains(message.Content, "WRONG") {
					return "B", nil
				}
			}
			return "A", nil
		}
		return "step by step", nil
	}}
	rewriter := &testutil.FakeCompleter{Respond: func(context.Context, llm.Request) (string, error) {
		return "WRONG reasoning", nil
	}}
	features := &testutil.FakeFeatureService{
		ContrastResults: []llm.Feature{{ID: "c-1", Label: "Arithmetic error"}},
		NeighborsByID: map[string][]llm.Feature{
			"c-1": {{ID: "n-1", Label: "Subtraction"}},
		},
		Inspection: llm.Inspection{Activations: []llm.Activation{
			{Feature: llm.Feature{ID: "i-1", Label: "Geography"}, Activation: 0.9},
			{Feature: llm.Feature{ID: "i-2", Label: "Wales"}, Activation: 0.4},
		}},
	}
	return variant, rewriter, features
}

func setupPipeline(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, config.ConfigFileName), pipelineConfig)
	writeTestFile(t, filepath.Join(dir, "questions.yml"), pipelineQuestions)
	writeTestFile(t, filepath.Join(dir, "cases.yml"), pipelineCases)

	variant, rewriter, features := fakeModels()
	original := newServices
	newServices = func(config.Config, serviceOptions) (services, error) {
		return services{Variant: variant, Features: features, Rewriter: rewriter}, nil
	}
	t.Cleanup(func() { newServices = original })
	return filepath.Join(dir, config.ConfigFileName)
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if code := Run(args, &stdout, &stderr); code != ExitOK {
		t.Fatalf("%v exit %d: %s", args, code, stderr.String())
	}
	return stdout.String()
}

// TestCurateSweepExport verifies the curate, sweep, and export commands end to end.
func TestCurateSweepExport(t *testing.T) {
	configPath := setupPipeline(t)
	dir := filepath.Dir(configPath)

	out := runOK(t, "curate", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Curated 3 records (0 failed, 3 answered correctly)") {
		t.Fatalf("unexpected curate output %q", out)
	}
	out = runOK(t, "curate", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Curated 0 records") {
		t.Fatalf("expected resumed curate to skip stored questions, got %q", out)
	}

	out = runOK(t, "sweep", "--config", configPath, "--env-file", "", "--ui", "plain")
	for _, want := range []string{"+0.00", "+0.10", "strength"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in sweep output %q", want, out)
		}
	}

	out = runOK(t, "export", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "dataset.csv (3 records)") || !strings.Contains(out, "(2 strengths)") {
		t.Fatalf("unexpected export output %q", out)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "out", "sweep_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one sweep csv, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read sweep csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", data)
	}
	// Every answer follows the incorrect reasoning, so all three are faithful.
	if !strings.HasPrefix(lines[1], "0,0,3,0,0,0,B,B,B") {
		t.Fatalf("unexpected first sweep row %q", lines[1])
	}
}

// TestSweepWithoutRecordsFails verifies sweep refuses to run before curation.
func TestSweepWithoutRecordsFails(t *testing.T) {
	configPath := setupPipeline(t)
	var stdout, stderr bytes.Buffer
	code := Run([]string{"sweep", "--config", configPath, "--env-file", "", "--ui", "plain"}, &stdout, &stderr)
	if code != ExitError {
		t.Fatalf("expected exit code %d, got %d", ExitError, code)
	}
	if !strings.Contains(stderr.String(), "run curate first") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

// TestContrastThenNeighbors verifies contrast results feed the neighbors command.
func TestContrastThenNeighbors(t *testing.T) {
	configPath := setupPipeline(t)

	out := runOK(t, "contrast", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Arithmetic error") || !strings.Contains(out, "Completed 1 of 1") {
		t.Fatalf("unexpected contrast output %q", out)
	}
	out = runOK(t, "contrast", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Completed 0 of 1") {
		t.Fatalf("expected stored experiment to be skipped, got %q", out)
	}

	out = runOK(t, "neighbors", "arith", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Arithmetic error\n  Subtraction") {
		t.Fatalf("unexpected neighbors output %q", out)
	}
	out = runOK(t, "neighbors", "geology", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "No cached neighbors match.") {
		t.Fatalf("unexpected neighbors output %q", out)
	}
}

// TestInspectListsTopFeatures verifies inspect prints the most active features.
func TestInspectListsTopFeatures(t *testing.T) {
	configPath := setupPipeline(t)
	out := runOK(t, "inspect", "What continent is Wales in?", "--top", "1", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Geography") {
		t.Fatalf("expected strongest feature, got %q", out)
	}
	if strings.Contains(out, "Wales\n") {
		t.Fatalf("expected only the top feature, got %q", out)
	}
}

// TestInspectRequiresQuestion verifies inspect without a question is a usage error.
func TestInspectRequiresQuestion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"inspect"}, &stdout, &stderr); code != ExitUsage {
		t.Fatalf("expected exit code %d, got %d", ExitUsage, code)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestCurateRetriesFailedRecords verifies a rerun retries records that failed during an outage.
func TestCurateRetriesFailedRecords(t *testing.T) {
	configPath := setupPipeline(t)
	variant, rewriter, features := fakeModels()
	var outage atomic.Bool
	outage.Store(true)
	flaky := &testutil.FakeCompleter{Respond: func(ctx context.Context, req llm.Request) (string, error) {
		if outage.Load() && strings.Contains(testutil.FirstUser(req), "2 + 2") {
			return "", errors.New("503 service unavailable")
		}
		return variant.Complete(ctx, req)
	}}
	original := newServices
	newServices = func(config.Config, serviceOptions) (services, error) {
		return services{Variant: flaky, Features: features, Rewriter: rewriter}, nil
	}
	t.Cleanup(func() { newServices = original })

	out := runOK(t, "curate", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Curated 3 records (1 failed, 2 answered correctly)") {
		t.Fatalf("unexpected curate output %q", out)
	}

	outage.Store(false)
	out = runOK(t, "curate", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "Curated 1 records (0 failed, 1 answered correctly)") {
		t.Fatalf("expected only the failed record to be retried, got %q", out)
	}

	out = runOK(t, "export", "--config", configPath, "--env-file", "")
	if !strings.Contains(out, "dataset.csv (3 records)") {
		t.Fatalf("unexpected export output %q", out)
	}
}
