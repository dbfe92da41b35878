package curate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cotfaith/internal/llm"
	"cotfaith/internal/pool"
	"cotfaith/internal/question"
	"cotfaith/internal/testutil"
)

const mistaken = "mistaken reasoning"

func makeQuestions(n int) []question.Question {
	questions := make([]question.Question, n)
	for i := range questions {
		questions[i] = question.Question{
			ID:      fmt.Sprintf("q%02d", i),
			Prompt:  fmt.Sprintf("question %d?", i),
			Choices: []string{"yes", "no", "maybe"},
			Answer:  0,
		}
	}
	return questions
}

// fakeVariant reasons about a question, answers A after its own reasoning, and
// B after rewritten reasoning.
func fakeVariant(fail func(req llm.Request) bool) *testutil.FakeCompleter {
	return &testutil.FakeCompleter{Respond: func(ctx context.Context, req llm.Request) (string, error) {
		if fail != nil && fail(req) {
			return "", errors.New("service unavailable")
		}
		switch len(req.Messages) {
		case 1:
			return "reasoning for" + req.Messages[0].Content, nil
		case 3:
			if req.Messages[1].Content == mistaken {
				return "B", nil
			}
			return "A", nil
		default:
			return "", fmt.Errorf("unexpected conversation of %d turns", len(req.Messages))
		}
	}}
}

func fakeRewriter() *testutil.FakeCompleter {
	return &testutil.FakeCompleter{Respond: func(ctx context.Context, req llm.Request) (string, error) {
		content := testutil.FirstUser(req)
		marker := "Original reasoning: "
		at := strings.LastIndex(content, marker)
		if at < 0 {
			return "", errors.New("rewrite prompt missing reasoning")
		}
		reasoning := strings.TrimSuffix(content[at+len(marker):], "\nMistaken reasoning:")
		if !strings.HasPrefix(reasoning, "reasoning for") {
			return "", fmt.Errorf("rewrite dispatched before correct reasoning: %q", reasoning)
		}
		return mistaken, nil
	}}
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]Record{}}
}

func (s *memoryStore) RecordIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(s.records))
	for id := range s.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *memoryStore) SaveRecords(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	for _, record := range records {
		s.records[record.ID] = record
	}
	return nil
}

// TestBuildRunsStagesInOrder verifies each record passes through every stage in order.
func TestBuildRunsStagesInOrder(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(0, 0))
	variant := fakeVariant(nil)
	rewriter := fakeRewriter()
	store := newMemoryStore()
	builder := &Builder{
		Variant:    variant,
		Rewriter:   rewriter,
		Pool:       pool.New(10),
		BatchSize:  10,
		BatchPause: 10 * time.Second,
		MaxRetries: 2,
		Store:      store,
		Sleep:      clock.Sleep,
	}

	records, err := builder.Build(testutil.Context(t, 0), makeQuestions(25))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(records) != 25 {
		t.Fatalf("expected 25 records, got %d", len(records))
	}
	for i, record := range records {
		if record.ID != fmt.Sprintf("q%02d", i) {
			t.Fatalf("expected question order, got %q at %d", record.ID, i)
		}
		if record.Failed() {
			t.Fatalf("unexpected failure: %+v", record)
		}
		if record.CorrectAnswer != "A" || record.IncorrectAnswer != "B" || record.IncorrectReasoning != mistaken {
			t.Fatalf("unexpected record: %+v", record)
		}
		if !strings.HasPrefix(record.CorrectReasoning, "reasoning for") {
			t.Fatalf("unexpected reasoning %q", record.CorrectReasoning)
		}
	}
	if got := clock.Sleeps(); len(got) != 2 || got[0] != 10*time.Second {
		t.Fatalf("expected two pauses of 10s, got %v", got)
	}
	if store.saves != 3 {
		t.Fatalf("expected one save per batch, got %d", store.saves)
	}
	if calls := len(rewriter.Calls()); calls != 25 {
		t.Fatalf("expected 25 rewrite calls, got %d", calls)
	}
	for _, call := range variant.Calls() {
		if !call.Request.Stream || call.Request.MaxTokens != DefaultMaxTokens {
			t.Fatalf("expected streamed request with default tokens, got %+v", call.Request)
		}
	}
}

// TestBuildMarksFailedRowsAndSkipsLaterStages verifies a failed row records its stage and skips the rest.
func TestBuildMarksFailedRowsAndSkipsLaterStages(t *testing.T) {
	variant := fakeVariant(func(req llm.Request) bool {
		return len(req.Messages) == 1 && strings.Contains(req.Messages[0].Content, "question 3?")
	})
	rewriter := fakeRewriter()
	builder := &Builder{
		Variant:    variant,
		Rewriter:   rewriter,
		Pool:       pool.New(4),
		MaxRetries: 2,
		Sleep:      testutil.NewFakeClock(time.Unix(0, 0)).Sleep,
	}

	records, err := builder.Build(testutil.Context(t, 0), makeQuestions(5))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	failed := records[3]
	if failed.FailedStage != StageCorrectReasoning || failed.Failure == "" {
		t.Fatalf("expected stage failure on record 3, got %+v", failed)
	}
	if !strings.Contains(failed.Failure, "max retries exceeded after 3 attempts") {
		t.Fatalf("expected exhausted retries, got %q", failed.Failure)
	}
	if calls := len(rewriter.Calls()); calls != 4 {
		t.Fatalf("expected failed row to skip rewrite, got %d calls", calls)
	}
	if kept := FilterCorrect(records); len(kept) != 4 {
		t.Fatalf("expected 4 kept records, got %d", len(kept))
	}
}

// TestBuildHaltsWhenStageFailsForWholeBatch verifies a stage that fails every row stops the build.
func TestBuildHaltsWhenStageFailsForWholeBatch(t *testing.T) {
	builder := &Builder{
		Variant: fakeVariant(nil),
		Rewriter: &testutil.FakeCompleter{Respond: func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("quota exceeded")
		}},
		Pool:      pool.New(2),
		BatchSize: 2,
		Sleep:     testutil.NewFakeClock(time.Unix(0, 0)).Sleep,
	}

	records, err := builder.Build(testutil.Context(t, 0), makeQuestions(4))
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if stageErr.Stage != StageIncorrectReasoning || stageErr.Batch != 0 {
		t.Fatalf("unexpected stage error: %+v", stageErr)
	}
	if len(records) != 0 {
		t.Fatalf("expected no completed records, got %d", len(records))
	}
}

// TestBuildSkipsStoredRecords verifies records already stored are not rebuilt.
func TestBuildSkipsStoredRecords(t *testing.T) {
	store := newMemoryStore()
	stored := Record{ID: "q01", Answer: "A", CorrectAnswer: "A", CorrectReasoning: "kept"}
	store.records["q01"] = stored
	variant := fakeVariant(nil)
	builder := &Builder{
		Variant:  variant,
		Rewriter: fakeRewriter(),
		Pool:     pool.New(2),
		Store:    store,
		Sleep:    testutil.NewFakeClock(time.Unix(0, 0)).Sleep,
	}

	records, err := builder.Build(testutil.Context(t, 0), makeQuestions(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(records) != 2 || records[0].ID != "q00" || records[1].ID != "q02" {
		t.Fatalf("expected q01 to be skipped, got %+v", records)
	}
	if got := store.records["q01"]; got.CorrectReasoning != "kept" {
		t.Fatalf("expected stored record untouched, got %+v", got)
	}
	for _, call := range variant.Calls() {
		if strings.Contains(testutil.FirstUser(call.Request), "question 1?") {
			t.Fatalf("expected no calls for stored question")
		}
	}
}

// TestBuildStopsOnCanceledPause verifies cancellation during the pause between stages ends the build.
func TestBuildStopsOnCanceledPause(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	builder := &Builder{
		Variant:   fakeVariant(nil),
		Rewriter:  fakeRewriter(),
		Pool:      pool.New(2),
		BatchSize: 1,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	records, err := builder.Build(ctx, makeQuestions(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the first batch to finish, got %d", len(records))
	}
}

// TestFilterCorrect verifies only answered, correct records are kept.
func TestFilterCorrect(t *testing.T) {
	records := []Record{
		{ID: "a", Answer: "A", CorrectAnswer: "A"},
		{ID: "b", Answer: "A", CorrectAnswer: "C"},
		{ID: "c", Answer: "B", CorrectAnswer: "B", FailedStage: StageIncorrectAnswer},
	}
	kept := FilterCorrect(records)
	if len(kept) != 1 || kept[0].ID != "a" {
		t.Fatalf("unexpected filter result %+v", kept)
	}
}
