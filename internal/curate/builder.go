// Package curate builds the reasoning dataset: correct reasoning, its answer, a
// rewritten incorrect reasoning, and its answer for every question.
package curate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cotfaith/internal/llm"
	"cotfaith/internal/pool"
	"cotfaith/internal/prompt"
	"cotfaith/internal/question"
	"cotfaith/internal/retry"
)

const (
	// DefaultBatchSize is the number of questions processed between pauses.
	DefaultBatchSize = 10
	// DefaultBatchPause is the pause between batches.
	DefaultBatchPause = 10 * time.Second
	// DefaultMaxRetries is the number of re-invocations per call.
	DefaultMaxRetries = 2
	// DefaultMaxTokens caps reasoning and answer responses.
	DefaultMaxTokens = 5000
)

// StageError reports a stage in which every pending record of a batch failed.
type StageError struct {
	Stage Stage
	Batch int
	Err   error
}

func (err *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for every record in batch %d: %v", err.Stage, err.Batch, err.Err)
}

func (err *StageError) Unwrap() error {
	return err.Err
}

// Store persists finished batches and reports which records already exist.
type Store interface {
	RecordIDs(ctx context.Context) (map[string]struct{}, error)
	SaveRecords(ctx context.Context, records []Record) error
}

// Builder runs the four stages batch by batch.
type Builder struct {
	// Variant is the model under study.
	Variant llm.Completer
	// Rewriter produces the incorrect reasoning.
	Rewriter   llm.Completer
	Pool       *pool.Pool
	BatchSize  int
	BatchPause time.Duration
	MaxRetries int
	MaxTokens  int
	Store      Store
	Logger     *zap.Logger
	// Sleep pauses between batches; nil sleeps on a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Build processes questions not yet in the store and returns the new records in
// question order. Records that failed a stage are kept with FailedStage set.
func (b *Builder) Build(ctx context.Context, questions []question.Question) ([]Record, error) {
	logger := b.logger()
	pending, err := b.pending(ctx, questions)
	if err != nil {
		return nil, err
	}
	if skipped := len(questions) - len(pending); skipped > 0 {
		logger.Info("skipping curated questions", zap.Int("skipped", skipped))
	}

	batchSize := b.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var out []Record
	for start := 0; start < len(pending); start += batchSize {
		end := min(start+batchSize, len(pending))
		batch := make([]Record, 0, end-start)
		for _, q := range pending[start:end] {
			batch = append(batch, NewRecord(q))
		}
		batchIndex := start / batchSize
		for _, stage := range Stages {
			if err := b.runStage(ctx, stage, batchIndex, batch); err != nil {
				return out, err
			}
		}
		if b.Store != nil {
			if err := b.Store.SaveRecords(ctx, batch); err != nil {
				return out, fmt.Errorf("save batch %d: %w", batchIndex, err)
			}
		}
		out = append(out, batch...)
		logger.Info("completed questions", zap.Int("done", end), zap.Int("total", len(pending)))

		if end < len(pending) {
			pause := b.batchPause()
			logger.Info("pausing between batches", zap.Duration("pause", pause))
			if err := b.sleep(ctx, pause); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func (b *Builder) pending(ctx context.Context, questions []question.Question) ([]question.Question, error) {
	if b.Store == nil {
		return questions, nil
	}
	existing, err := b.Store.RecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load curated ids: %w", err)
	}
	pending := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := existing[q.ID]; ok {
			continue
		}
		pending = append(pending, q)
	}
	return pending, nil
}

// runStage dispatches stage for every record that has not failed yet and waits
// for all of them before returning.
func (b *Builder) runStage(ctx context.Context, stage Stage, batchIndex int, batch []Record) error {
	live := make([]int, 0, len(batch))
	for i := range batch {
		if !batch[i].Failed() {
			live = append(live, i)
		}
	}
	if len(live) == 0 {
		return nil
	}

	results := pool.Map(ctx, b.Pool, len(live), func(ctx context.Context, i int) (string, error) {
		record := batch[live[i]]
		return retry.Do(ctx, string(stage), b.maxRetries(), func(ctx context.Context) (string, error) {
			return b.call(ctx, stage, record)
		})
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := b.logger()
	var errs []error
	for _, result := range results {
		record := &batch[live[result.Index]]
		if result.Err != nil {
			record.fail(stage, result.Err)
			errs = append(errs, result.Err)
			logger.Warn("record failed",
				zap.String("id", record.ID),
				zap.String("stage", string(stage)),
				zap.Error(result.Err))
			continue
		}
		record.set(stage, result.Value)
	}
	if len(errs) == len(live) {
		return &StageError{Stage: stage, Batch: batchIndex, Err: errors.Join(errs...)}
	}
	return nil
}

func (b *Builder) call(ctx context.Context, stage Stage, record Record) (string, error) {
	explain, err := prompt.Render(ctx, prompt.Explain(record.FormattedQuestion))
	if err != nil {
		return "", err
	}
	switch stage {
	case StageCorrectReasoning:
		return b.Variant.Complete(ctx, llm.Request{
			Messages:  []llm.Message{llm.User(explain)},
			MaxTokens: b.maxTokens(),
			Stream:    true,
		})
	case StageCorrectAnswer:
		return b.finalAnswer(ctx, explain, record.CorrectReasoning)
	case StageIncorrectReasoning:
		rewrite, err := prompt.Render(ctx, prompt.Rewrite(record.FormattedQuestion, record.CorrectReasoning))
		if err != nil {
			return "", err
		}
		return b.Rewriter.Complete(ctx, llm.Request{Messages: []llm.Message{llm.User(rewrite)}})
	case StageIncorrectAnswer:
		return b.finalAnswer(ctx, explain, record.IncorrectReasoning)
	default:
		return "", fmt.Errorf("unknown stage %q", stage)
	}
}

func (b *Builder) finalAnswer(ctx context.Context, explain, reasoning string) (string, error) {
	final, err := prompt.Render(ctx, prompt.FinalAnswer())
	if err != nil {
		return "", err
	}
	return b.Variant.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.User(explain), llm.Assistant(reasoning), llm.User(final)},
		MaxTokens: b.maxTokens(),
		Stream:    true,
	})
}

func (b *Builder) sleep(ctx context.Context, d time.Duration) error {
	if b.Sleep != nil {
		return b.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Builder) batchPause() time.Duration {
	if b.BatchPause < 0 {
		return 0
	}
	if b.BatchPause == 0 {
		return DefaultBatchPause
	}
	return b.BatchPause
}

func (b *Builder) maxRetries() int {
	if b.MaxRetries < 0 {
		return 0
	}
	return b.MaxRetries
}

func (b *Builder) maxTokens() int {
	if b.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return b.MaxTokens
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}
