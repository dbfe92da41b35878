package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExplain(t *testing.T) {
	got := MustRender(Explain(" What is 2+2? A 3, B 4"))
	want := "Explain how to solve the following question: What is 2+2? A 3, B 4 Think step by step."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSolve(t *testing.T) {
	got := MustRender(Solve(" Q? A x, B y"))
	if got != "Solve the following question: Q? A x, B y Think step by step." {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestFinalAnswerPrompts(t *testing.T) {
	final := MustRender(FinalAnswer())
	sweep := MustRender(SweepFinalAnswer())
	if !strings.HasPrefix(final, "What is the final answer based on the reasoning above?") {
		t.Fatalf("unexpected final prompt %q", final)
	}
	if !strings.HasPrefix(sweep, "What is the final answer? Please provide the answer") {
		t.Fatalf("unexpected sweep prompt %q", sweep)
	}
	if !strings.HasSuffix(sweep, "please choose the closest one.") {
		t.Fatalf("unexpected sweep prompt %q", sweep)
	}
}

func TestRewriteIncludesInputs(t *testing.T) {
	got := MustRender(Rewrite(" Q? A x, B y", "because x"))
	for _, part := range []string{"Q? A x, B y", "Original reasoning: because x", "What continent is Wales in?", "as if you truly believed"} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in rewrite prompt", part)
		}
	}
	if !strings.HasSuffix(got, "Mistaken reasoning:") {
		t.Fatalf("expected rewrite prompt to end with the answer slot")
	}
}

// TestPromptsKeepTextVerbatim verifies question and reasoning text is not HTML-escaped.
func TestPromptsKeepTextVerbatim(t *testing.T) {
	reasoning := "if x < 3 && y > 2 then \"it's\" B"
	got := MustRender(Rewrite(" Is 1 < 2? A yes, B no", reasoning))
	if !strings.Contains(got, "Original reasoning: "+reasoning+"\nMistaken reasoning:") {
		t.Fatalf("expected reasoning verbatim, got %q", got)
	}
	if !strings.Contains(got, "Question:\n Is 1 < 2? A yes, B no") {
		t.Fatalf("expected question verbatim, got %q", got)
	}
	if !strings.HasPrefix(got, "First I'm going to give you a question") {
		t.Fatalf("expected instruction verbatim, got %q", got[:40])
	}
}

// TestRenderStopsOnCanceledContext verifies rendering honors cancellation.
func TestRenderStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, Explain(" Q?")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
