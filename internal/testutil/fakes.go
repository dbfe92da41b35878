package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cotfaith/internal/llm"
)

// Call is a recorded completion request.
type Call struct {
	Request llm.Request
}

// FakeCompleter answers completions with Respond and records every request.
type FakeCompleter struct {
	Respond func(ctx context.Context, req llm.Request) (string, error)

	mu    sync.Mutex
	calls []Call
}

// Complete records the request and delegates to Respond.
func (f *FakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Request: req})
	f.mu.Unlock()
	if f.Respond == nil {
		return "", fmt.Errorf("fake completer: no response configured")
	}
	return f.Respond(ctx, req)
}

// Calls returns a snapshot of recorded requests.
func (f *FakeCompleter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastUser returns the content of the last user turn in a request.
func LastUser(req llm.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

// FirstUser returns the content of the first user turn in a request.
func FirstUser(req llm.Request) string {
	for _, message := range req.Messages {
		if message.Role == llm.RoleUser {
			return message.Content
		}
	}
	return ""
}

// HasPrefix reports whether the first user turn starts with prefix.
func HasPrefix(req llm.Request, prefix string) bool {
	return strings.HasPrefix(FirstUser(req), prefix)
}

// FakeFeatureService serves canned feature lookups.
type FakeFeatureService struct {
	SearchResults   []llm.Feature
	ContrastResults []llm.Feature
	Inspection      llm.Inspection
	NeighborsByID   map[string][]llm.Feature
	Err             error

	mu             sync.Mutex
	contrastCalls  []llm.ContrastRequest
	neighborLookup []string
}

// Search returns up to topK canned features.
func (f *FakeFeatureService) Search(ctx context.Context, query string, topK int) ([]llm.Feature, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if topK > len(f.SearchResults) {
		topK = len(f.SearchResults)
	}
	return append([]llm.Feature(nil), f.SearchResults[:topK]...), nil
}

// Contrast records the request and returns the canned second-dataset features.
func (f *FakeFeatureService) Contrast(ctx context.Context, req llm.ContrastRequest) ([]llm.Feature, []llm.Feature, error) {
	f.mu.Lock()
	f.contrastCalls = append(f.contrastCalls, req)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, nil, f.Err
	}
	return nil, append([]llm.Feature(nil), f.ContrastResults...), nil
}

// Inspect returns the canned inspection.
func (f *FakeFeatureService) Inspect(ctx context.Context, conversation []llm.Message) (llm.Inspection, error) {
	if f.Err != nil {
		return llm.Inspection{}, f.Err
	}
	return f.Inspection, nil
}

// Neighbors records the lookup and returns canned neighbors.
func (f *FakeFeatureService) Neighbors(ctx context.Context, feature llm.Feature, topK int) ([]llm.Feature, error) {
	f.mu.Lock()
	f.neighborLookup = append(f.neighborLookup, feature.ID)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]llm.Feature(nil), f.NeighborsByID[feature.ID]...), nil
}

// ContrastCalls returns recorded contrast requests.
func (f *FakeFeatureService) ContrastCalls() []llm.ContrastRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.ContrastRequest(nil), f.contrastCalls...)
}

// NeighborLookups returns the feature ids passed to Neighbors.
func (f *FakeFeatureService) NeighborLookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.neighborLookup...)
}
