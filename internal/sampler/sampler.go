// Package sampler runs batches of independent completions on a bounded pool.
package sampler

import (
	"context"

	"go.uber.org/zap"

	"cotfaith/internal/classify"
	"cotfaith/internal/llm"
	"cotfaith/internal/pool"
	"cotfaith/internal/retry"
)

// DefaultMaxTokens caps each sampled response.
const DefaultMaxTokens = 200

// progressEvery is how often completions are logged.
const progressEvery = 10

// Sample is the outcome of one prompt. Err is set when the call failed.
type Sample struct {
	Index int
	Text  string
	Err   error
}

// Answer returns the text to classify; failed samples read as classify.ErrorToken.
func (s Sample) Answer() string {
	if s.Err != nil {
		return classify.ErrorToken
	}
	return s.Text
}

// Runner streams one completion per prompt and keeps per-sample failures local.
type Runner struct {
	Completer  llm.Completer
	Pool       *pool.Pool
	MaxTokens  int
	MaxRetries int
	Logger     *zap.Logger
	// OnSample observes completions one at a time, in completion order.
	OnSample func(sample Sample, done, total int)
}

// Run samples every prompt under intervention and returns results in prompt order.
func (r *Runner) Run(ctx context.Context, prompts [][]llm.Message, intervention llm.Intervention) []Sample {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	sample := func(ctx context.Context, index int) (string, error) {
		req := llm.Request{
			Messages:     prompts[index],
			MaxTokens:    maxTokens,
			Stream:       true,
			Intervention: intervention,
		}
		return retry.Do(ctx, "sample", r.MaxRetries, func(ctx context.Context) (string, error) {
			return r.Completer.Complete(ctx, req)
		})
	}

	progress := func(result pool.Result[string], done, total int) {
		if result.Err != nil {
			logger.Warn("sample failed", zap.Int("index", result.Index), zap.Error(result.Err))
		}
		if done%progressEvery == 0 || done == total {
			logger.Info("sampling progress",
				zap.Int("done", done),
				zap.Int("total", total),
				zap.Stringer("intervention", intervention))
		}
		if r.OnSample != nil {
			r.OnSample(Sample{Index: result.Index, Text: result.Value, Err: result.Err}, done, total)
		}
	}

	results := pool.Map(ctx, r.Pool, len(prompts), sample, progress)
	samples := make([]Sample, len(results))
	for i, result := range results {
		samples[i] = Sample{Index: result.Index, Text: result.Value, Err: result.Err}
	}
	return samples
}

// Answers returns the classifiable answer of every sample, in order.
func Answers(samples []Sample) []string {
	answers := make([]string, len(samples))
	for i, sample := range samples {
		answers[i] = sample.Answer()
	}
	return answers
}
