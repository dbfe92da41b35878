package llm

import (
	"context"
	"errors"
	"sort"
)

// ErrInterventionUnsupported is returned by completers that cannot steer features.
var ErrInterventionUnsupported = errors.New("intervention not supported by this model")

// Role tags a chat turn.
type Role string

const (
	// RoleUser is a user turn.
	RoleUser Role = "user"
	// RoleAssistant is an assistant turn.
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat turn.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// User builds a user turn.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant turn.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Feature is an opaque model-internal concept identifier. Identity is ID.
type Feature struct {
	ID         string `json:"uuid"`
	Label      string `json:"label"`
	IndexInSAE int    `json:"index_in_sae"`
}

// Request is a single chat completion call.
type Request struct {
	Messages     []Message
	MaxTokens    int
	Stream       bool
	Intervention Intervention
}

// Completer produces a full response for a conversation.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ContrastRequest asks for features separating two sets of conversations.
type ContrastRequest struct {
	Dataset1    [][]Message
	Dataset2    [][]Message
	TopK        int
	RerankQuery string
}

// Activation is a feature with its activation strength in a conversation.
type Activation struct {
	Feature    Feature `json:"feature"`
	Activation float64 `json:"activation"`
}

// Inspection holds the feature activations of a conversation.
type Inspection struct {
	Activations []Activation `json:"features"`
}

// Top returns the k most active features, strongest first.
func (i Inspection) Top(k int) []Activation {
	sorted := make([]Activation, len(i.Activations))
	copy(sorted, i.Activations)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Activation > sorted[b].Activation
	})
	if k >= 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// FeatureService exposes feature lookup operations of the interpretability API.
type FeatureService interface {
	Search(ctx context.Context, query string, topK int) ([]Feature, error)
	Contrast(ctx context.Context, req ContrastRequest) (dataset1, dataset2 []Feature, err error)
	Inspect(ctx context.Context, conversation []Message) (Inspection, error)
	Neighbors(ctx context.Context, feature Feature, topK int) ([]Feature, error)
}
