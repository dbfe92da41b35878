package contrast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cotfaith/internal/llm"
	"cotfaith/internal/retry"
	"cotfaith/internal/testutil"
)

type memoryStore struct {
	mu          sync.Mutex
	experiments map[string]Experiment
	neighbors   map[string][]llm.Feature
}

func newMemoryStore() *memoryStore {
	return &memoryStore{experiments: map[string]Experiment{}, neighbors: map[string][]llm.Feature{}}
}

func (s *memoryStore) ExperimentIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := map[string]struct{}{}
	for id := range s.experiments {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *memoryStore) SaveExperiment(ctx context.Context, experiment Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[experiment.ID] = experiment
	return nil
}

func (s *memoryStore) HasNeighbors(ctx context.Context, featureID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.neighbors[featureID]
	return ok, nil
}

func (s *memoryStore) SaveNeighbors(ctx context.Context, feature llm.Feature, neighbors []llm.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.neighbors[feature.ID] = neighbors
	return nil
}

func variant() *testutil.FakeCompleter {
	return &testutil.FakeCompleter{Respond: func(ctx context.Context, req llm.Request) (string, error) {
		if len(req.Messages) == 2 {
			return " so the total is 21261.", nil
		}
		return "11356 + 42 = 11398. 11398 + 9863 = 21261.", nil
	}}
}

func TestRunContrastsCorrectAndIncorrectResponses(t *testing.T) {
	completer := variant()
	service := &testutil.FakeFeatureService{
		ContrastResults: []llm.Feature{{ID: "f1", Label: "arithmetic error"}, {ID: "f2", Label: "addition"}},
		NeighborsByID:   map[string][]llm.Feature{"f1": {{ID: "n1"}}, "f2": {{ID: "n2"}}},
	}
	store := newMemoryStore()
	store.neighbors["f2"] = []llm.Feature{{ID: "cached"}}
	pipeline := &Pipeline{Variant: completer, Features: service, RerankQuery: "mistake", Store: store}

	cases := []Case{{ID: "experiment_0", Question: "What is 11356 + 42 + 9863?", IncorrectReasoning: "11356 + 42 = 11350"}}
	experiments, err := pipeline.Run(testutil.Context(t, 0), cases)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(experiments) != 1 {
		t.Fatalf("expected one experiment, got %d", len(experiments))
	}
	experiment := experiments[0]
	if experiment.IncorrectResponse != "11356 + 42 = 11350 so the total is 21261." {
		t.Fatalf("unexpected incorrect response %q", experiment.IncorrectResponse)
	}
	if len(experiment.Features) != 2 {
		t.Fatalf("expected contrast features, got %+v", experiment.Features)
	}

	calls := completer.Calls()
	if got := calls[0].Request.Messages[0].Content; got != "Solve the following question: What is 11356 + 42 + 9863? Think step by step." {
		t.Fatalf("unexpected opener %q", got)
	}
	if calls[0].Request.Stream || calls[0].Request.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected non-streaming request with default tokens")
	}

	contrast := service.ContrastCalls()
	if len(contrast) != 1 || contrast[0].TopK != DefaultTopK || contrast[0].RerankQuery != "mistake" {
		t.Fatalf("unexpected contrast request %+v", contrast)
	}
	if got := contrast[0].Dataset2[0][1].Content; got != experiment.IncorrectResponse {
		t.Fatalf("expected incorrect conversation in second dataset, got %q", got)
	}
	if lookups := service.NeighborLookups(); len(lookups) != 1 || lookups[0] != "f1" {
		t.Fatalf("expected only uncached neighbors fetched, got %v", lookups)
	}
	if _, ok := store.experiments["experiment_0"]; !ok {
		t.Fatalf("expected experiment saved")
	}
}

func TestRunSkipsStoredExperiments(t *testing.T) {
	completer := variant()
	store := newMemoryStore()
	store.experiments["experiment_0"] = Experiment{ID: "experiment_0", CorrectResponse: "kept"}
	pipeline := &Pipeline{Variant: completer, Features: &testutil.FakeFeatureService{}, Store: store}

	cases := []Case{
		{ID: "experiment_0", Question: "q0", IncorrectReasoning: "r0"},
		{ID: "experiment_1", Question: "q1", IncorrectReasoning: "r1"},
	}
	experiments, err := pipeline.Run(testutil.Context(t, 0), cases)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(experiments) != 1 || experiments[0].ID != "experiment_1" {
		t.Fatalf("expected only experiment_1 to run, got %+v", experiments)
	}
	if store.experiments["experiment_0"].CorrectResponse != "kept" {
		t.Fatalf("expected stored experiment untouched")
	}
	if len(completer.Calls()) != 2 {
		t.Fatalf("expected two completions, got %d", len(completer.Calls()))
	}
}

func TestRunStopsOnServiceFailure(t *testing.T) {
	store := newMemoryStore()
	pipeline := &Pipeline{
		Variant:    variant(),
		Features:   &testutil.FakeFeatureService{Err: errors.New("unavailable")},
		MaxRetries: 1,
		Store:      store,
	}
	_, err := pipeline.Run(testutil.Context(t, 0), []Case{{ID: "x", Question: "q", IncorrectReasoning: "r"}})
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if len(store.experiments) != 0 {
		t.Fatalf("expected nothing saved")
	}
}

func TestLoadCases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.yml")
	payload := `version: 1
cases:
  - question: "What is 11356 + 42 + 9863?"
    incorrect_reasoning: |
      1. First, I'll add 11356 and 42:
      11356 + 42 = 11350
  - id: grid
    question: "Where does Gary finish?"
    incorrect_reasoning: "He moves 5 places to the right."
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	cases, err := LoadCases(path)
	if err != nil {
		t.Fatalf("load cases: %v", err)
	}
	if len(cases) != 2 || cases[0].ID != "experiment_0" || cases[1].ID != "grid" {
		t.Fatalf("unexpected cases %+v", cases)
	}
	if !strings.HasSuffix(cases[0].IncorrectReasoning, "11350\n") {
		t.Fatalf("expected reasoning preserved verbatim, got %q", cases[0].IncorrectReasoning)
	}
}

func TestLoadCasesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.yml")
	payload := "version: 1\ncases:\n  - id: a\n    question: q\n    incorrect_reasoning: r\n  - id: a\n    question: \"\"\n    incorrect_reasoning: r\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	_, err := LoadCases(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate id") || !strings.Contains(err.Error(), "question: is required") {
		t.Fatalf("expected validation errors, got %v", err)
	}
}
