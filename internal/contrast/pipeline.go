// Package contrast finds the features that separate a correct response from one
// continued after incorrect reasoning.
package contrast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cotfaith/internal/llm"
	"cotfaith/internal/prompt"
	"cotfaith/internal/retry"
)

const (
	// DefaultTopK is the number of contrast features and neighbors requested.
	DefaultTopK = 10
	// DefaultMaxTokens caps both generated responses.
	DefaultMaxTokens = 5000
)

// Experiment is a finished contrast case.
type Experiment struct {
	ID                 string
	Question           string
	CorrectResponse    string
	IncorrectResponse  string
	IncorrectReasoning string
	Features           []llm.Feature
}

// Store persists experiments and the feature neighbor cache.
type Store interface {
	ExperimentIDs(ctx context.Context) (map[string]struct{}, error)
	SaveExperiment(ctx context.Context, experiment Experiment) error
	HasNeighbors(ctx context.Context, featureID string) (bool, error)
	SaveNeighbors(ctx context.Context, feature llm.Feature, neighbors []llm.Feature) error
}

// Pipeline runs contrast cases one at a time.
type Pipeline struct {
	Variant     llm.Completer
	Features    llm.FeatureService
	TopK        int
	RerankQuery string
	MaxTokens   int
	MaxRetries  int
	Store       Store
	Logger      *zap.Logger
}

// Run processes cases in order, skipping ids already stored. Each case is
// saved before the next starts.
func (p *Pipeline) Run(ctx context.Context, cases []Case) ([]Experiment, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	done := map[string]struct{}{}
	if p.Store != nil {
		ids, err := p.Store.ExperimentIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load experiment ids: %w", err)
		}
		done = ids
	}

	var out []Experiment
	for _, c := range cases {
		if _, ok := done[c.ID]; ok {
			logger.Info("skipping completed experiment", zap.String("experiment", c.ID))
			continue
		}
		experiment, err := p.runCase(ctx, c)
		if err != nil {
			return out, fmt.Errorf("experiment %s: %w", c.ID, err)
		}
		if err := p.cacheNeighbors(ctx, experiment.Features); err != nil {
			return out, fmt.Errorf("experiment %s: %w", c.ID, err)
		}
		if p.Store != nil {
			if err := p.Store.SaveExperiment(ctx, experiment); err != nil {
				return out, fmt.Errorf("save experiment %s: %w", c.ID, err)
			}
		}
		out = append(out, experiment)
		logger.Info("experiment completed",
			zap.String("experiment", c.ID),
			zap.Int("features", len(experiment.Features)))
	}
	return out, nil
}

func (p *Pipeline) runCase(ctx context.Context, c Case) (Experiment, error) {
	solve, err := prompt.Render(ctx, prompt.Solve(" "+c.Question))
	if err != nil {
		return Experiment{}, err
	}
	opener := llm.User(solve)

	correct, err := p.complete(ctx, "correct response", []llm.Message{opener})
	if err != nil {
		return Experiment{}, err
	}
	continuation, err := p.complete(ctx, "incorrect continuation", []llm.Message{opener, llm.Assistant(c.IncorrectReasoning)})
	if err != nil {
		return Experiment{}, err
	}
	incorrect := c.IncorrectReasoning + continuation

	features, err := retry.Do(ctx, "contrast", p.MaxRetries, func(ctx context.Context) ([]llm.Feature, error) {
		_, second, err := p.Features.Contrast(ctx, llm.ContrastRequest{
			Dataset1:    [][]llm.Message{{opener, llm.Assistant(correct)}},
			Dataset2:    [][]llm.Message{{opener, llm.Assistant(incorrect)}},
			TopK:        p.topK(),
			RerankQuery: p.RerankQuery,
		})
		return second, err
	})
	if err != nil {
		return Experiment{}, err
	}
	return Experiment{
		ID:                 c.ID,
		Question:           c.Question,
		CorrectResponse:    correct,
		IncorrectResponse:  incorrect,
		IncorrectReasoning: c.IncorrectReasoning,
		Features:           features,
	}, nil
}

func (p *Pipeline) complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return retry.Do(ctx, op, p.MaxRetries, func(ctx context.Context) (string, error) {
		return p.Variant.Complete(ctx, llm.Request{Messages: messages, MaxTokens: maxTokens})
	})
}

// cacheNeighbors fetches neighbors for features missing from the cache.
func (p *Pipeline) cacheNeighbors(ctx context.Context, features []llm.Feature) error {
	if p.Store == nil {
		return nil
	}
	for _, feature := range features {
		cached, err := p.Store.HasNeighbors(ctx, feature.ID)
		if err != nil {
			return fmt.Errorf("check neighbors %s: %w", feature.ID, err)
		}
		if cached {
			continue
		}
		neighbors, err := retry.Do(ctx, "neighbors", p.MaxRetries, func(ctx context.Context) ([]llm.Feature, error) {
			return p.Features.Neighbors(ctx, feature, p.topK())
		})
		if err != nil {
			return err
		}
		if err := p.Store.SaveNeighbors(ctx, feature, neighbors); err != nil {
			return fmt.Errorf("save neighbors %s: %w", feature.ID, err)
		}
	}
	return nil
}

func (p *Pipeline) topK() int {
	if p.TopK <= 0 {
		return DefaultTopK
	}
	return p.TopK
}
