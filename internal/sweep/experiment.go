// Package sweep steers a fixed feature set across a strength range and scores
// the final answers the variant gives after incorrect reasoning.
package sweep

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"cotfaith/internal/classify"
	"cotfaith/internal/curate"
	"cotfaith/internal/fingerprint"
	"cotfaith/internal/llm"
	"cotfaith/internal/sampler"
)

const progressEvery = 10

// Store persists one row per (sweep key, strength).
type Store interface {
	SweepResult(ctx context.Context, key string, strength float64) (Result, bool, error)
	SaveSweepResult(ctx context.Context, result Result) error
}

// StepError reports a strength at which every sample failed. The step is not
// saved, so a rerun samples it again.
type StepError struct {
	Strength float64
	Samples  int
	Err      error
}

func (err *StepError) Error() string {
	return fmt.Sprintf("all %d samples failed at strength %v: %v", err.Samples, err.Strength, err.Err)
}

func (err *StepError) Unwrap() error {
	return err.Err
}

// Observer follows a sweep. Calls arrive from one goroutine at a time.
type Observer interface {
	StepStarted(strength float64, step, steps, samples int)
	SampleScored(strength float64, tally classify.Tally, done, total int)
	StepFinished(result Result, resumed bool)
}

// Experiment is one feature sweep over a curated dataset.
type Experiment struct {
	Variant  string
	Features []llm.Feature
	Start    float64
	End      float64
	Step     float64
	Runner   *sampler.Runner
	Store    Store
	Observer Observer
	Logger   *zap.Logger
}

// Key identifies the sweep by variant, steered features, and dataset content.
func (e *Experiment) Key(records []curate.Record) (string, error) {
	ids := make([]string, 0, len(e.Features))
	for _, feature := range e.Features {
		ids = append(ids, feature.ID)
	}
	sort.Strings(ids)
	rows := make([]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{record.ID, record.Answer, record.IncorrectReasoning, record.IncorrectAnswer})
	}
	key, err := fingerprint.Of(map[string]any{
		"variant":  e.Variant,
		"features": ids,
		"dataset":  rows,
	})
	if err != nil {
		return "", fmt.Errorf("sweep key: %w", err)
	}
	return key, nil
}

// Run evaluates every strength in order. Strengths already in the store are
// returned as stored without sampling. A strength at which every sample fails
// halts the run with a *StepError.
func (e *Experiment) Run(ctx context.Context, records []curate.Record) ([]Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	strengths, err := Strengths(e.Start, e.End, e.Step)
	if err != nil {
		return nil, err
	}
	key, err := e.Key(records)
	if err != nil {
		return nil, err
	}
	prompts := Prompts(records)
	logger = logger.With(zap.String("sweep", key[:12]))

	results := make([]Result, 0, len(strengths))
	for step, strength := range strengths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if e.Store != nil {
			stored, ok, err := e.Store.SweepResult(ctx, key, strength)
			if err != nil {
				return results, fmt.Errorf("load sweep result %v: %w", strength, err)
			}
			if ok {
				logger.Info("strength already evaluated", zap.Float64("feature_value", strength))
				results = append(results, stored)
				e.finished(stored, true)
				continue
			}
		}

		if e.Observer != nil {
			e.Observer.StepStarted(strength, step, len(strengths), len(records))
		}
		logger.Info("generating answers", zap.Float64("feature_value", strength))
		result, stepErr := e.runStep(ctx, logger, key, strength, records, prompts)
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if stepErr != nil {
			logger.Error("every sample failed", zap.Float64("feature_value", strength), zap.Error(stepErr))
			return results, stepErr
		}
		if e.Store != nil {
			if err := e.Store.SaveSweepResult(ctx, result); err != nil {
				return results, fmt.Errorf("save sweep result %v: %w", strength, err)
			}
		}
		results = append(results, result)
		e.finished(result, false)
	}
	return results, nil
}

func (e *Experiment) runStep(ctx context.Context, logger *zap.Logger, key string, strength float64, records []curate.Record, prompts [][]llm.Message) (Result, error) {
	runner := *e.Runner
	var live classify.Tally
	runner.OnSample = func(sample sampler.Sample, done, total int) {
		record := records[sample.Index]
		live.Add(classify.Classify(sample.Answer(), record.Answer, record.IncorrectAnswer))
		if done%progressEvery == 0 || done == total {
			logger.Info(live.String(), zap.Float64("feature_value", strength))
		}
		if e.Observer != nil {
			e.Observer.SampleScored(strength, live, done, total)
		}
	}

	samples := runner.Run(ctx, prompts, llm.NewIntervention(e.Features, strength))
	answers := sampler.Answers(samples)
	result := Result{
		SweepKey:     key,
		FeatureValue: strength,
		Counts:       Score(records, answers),
		Answers:      answers,
	}
	if err := allFailed(samples); err != nil {
		return result, &StepError{Strength: strength, Samples: len(samples), Err: err}
	}
	return result, nil
}

// allFailed returns the first sample error when no sample succeeded.
func allFailed(samples []sampler.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	for _, sample := range samples {
		if sample.Err == nil {
			return nil
		}
	}
	return samples[0].Err
}

func (e *Experiment) finished(result Result, resumed bool) {
	if e.Observer != nil {
		e.Observer.StepFinished(result, resumed)
	}
}
