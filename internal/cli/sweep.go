package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cotfaith/internal/config"
	"cotfaith/internal/curate"
	"cotfaith/internal/llm"
	"cotfaith/internal/pool"
	"cotfaith/internal/sampler"
	"cotfaith/internal/store"
	"cotfaith/internal/sweep"
	"cotfaith/internal/ui/live"
)

// errNoRecords is returned when a sweep has nothing to sample.
var errNoRecords = errors.New("no correctly answered records in the store; run curate first")

func newSweepCommand(a *app) *cobra.Command {
	var (
		uiMode string
		search string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Steer features across a strength range and score the answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return usageError{err: fmt.Errorf("--limit must be zero or positive")}
			}
			decision, err := resolveUIMode(uiMode, a.verbose, a.stdout)
			if err != nil {
				return usageError{err: err}
			}
			if decision.warning != "" {
				fmt.Fprintln(a.stderr, decision.warning)
			}
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			if search != "" {
				cfg.Sweep.Features.Search = search
				cfg.Sweep.Features.Pinned = nil
			}
			logger := a.log(decision.useLive)

			svc, err := newServices(cfg, serviceOptions{Burst: cfg.Sweep.Workers})
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			stored, err := st.Records(ctx)
			if err != nil {
				return err
			}
			records := curate.FilterCorrect(stored)
			if limit > 0 && limit < len(records) {
				records = records[:limit]
			}
			if len(records) == 0 {
				return errNoRecords
			}
			features, err := resolveFeatures(ctx, cfg.Sweep.Features, svc.Features)
			if err != nil {
				return err
			}

			start, end, step := cfg.Sweep.Range()
			strengths, err := sweep.Strengths(start, end, step)
			if err != nil {
				return err
			}
			experiment := &sweep.Experiment{
				Variant:  cfg.Models.Variant,
				Features: features,
				Start:    start,
				End:      end,
				Step:     step,
				Runner: &sampler.Runner{
					Completer:  svc.Variant,
					Pool:       pool.New(cfg.Sweep.Workers),
					MaxTokens:  cfg.Sweep.MaxTokens,
					MaxRetries: cfg.Sweep.MaxRetries,
					Logger:     logger,
				},
				Store:  st,
				Logger: logger.With(zap.String("run_id", st.RunID())),
			}
			key, err := experiment.Key(records)
			if err != nil {
				return err
			}
			if err := st.SaveSweep(ctx, store.Sweep{Key: key, Variant: cfg.Models.Variant, Features: features}); err != nil {
				return err
			}
			logger.Info("starting sweep",
				zap.String("sweep_key", key),
				zap.Int("records", len(records)),
				zap.Int("strengths", len(strengths)),
				zap.Strings("features", featureLabels(features)))

			var results []sweep.Result
			if decision.useLive {
				controller := live.Start(a.stdout, live.Options{NoColor: a.noColor})
				runCtx, cancel := cancelOnExit(ctx, controller.Done())
				experiment.Observer = controller
				controller.SweepStarted(key, cfg.Models.Variant, featureLabels(features), strengths)
				results, err = experiment.Run(runCtx, records)
				quit := runCtx.Err() != nil && ctx.Err() == nil
				cancel()
				controller.SweepFinished(err)
				controller.Wait()
				if quit {
					err = fmt.Errorf("sweep stopped from the live UI; rerun to resume: %w", err)
				}
			} else {
				results, err = experiment.Run(ctx, records)
			}
			printSweep(a.stdout, key, results)
			return err
		},
	}
	cmd.Flags().StringVar(&uiMode, "ui", "auto", "ui mode: auto|live|plain")
	cmd.Flags().StringVar(&search, "search", "", "pick features by search query instead of the config")
	cmd.Flags().IntVar(&limit, "limit", 0, "only sample the first N records")
	return cmd
}

// cancelOnExit derives a context that is canceled when done closes. The live UI
// owns the terminal in raw mode, so ctrl+c reaches it as a key press rather than
// a signal.
func cancelOnExit(ctx context.Context, done <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// resolveFeatures returns pinned features, or searches for them.
func resolveFeatures(ctx context.Context, selection config.FeatureSelection, service llm.FeatureService) ([]llm.Feature, error) {
	if len(selection.Pinned) > 0 {
		features := make([]llm.Feature, 0, len(selection.Pinned))
		for _, ref := range selection.Pinned {
			features = append(features, llm.Feature{ID: ref.ID, Label: ref.Label, IndexInSAE: ref.IndexInSAE})
		}
		return features, nil
	}
	if selection.Search == "" {
		return nil, fmt.Errorf("sweep.features: set search or pinned")
	}
	features, err := service.Search(ctx, selection.Search, selection.TopK)
	if err != nil {
		return nil, fmt.Errorf("search features %q: %w", selection.Search, err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("search features %q: no matches", selection.Search)
	}
	return features, nil
}

func featureLabels(features []llm.Feature) []string {
	labels := make([]string, 0, len(features))
	for _, feature := range features {
		labels = append(labels, feature.Label)
	}
	return labels
}

func printSweep(w io.Writer, key string, results []sweep.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(w, "Sweep %s\n", shortKey(key))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "strength\tcorrect\twrong_faithful\twrong_unfaithful\tinvalid\terror")
	for _, result := range results {
		counts := result.Counts
		fmt.Fprintf(tw, "%+.2f\t%d\t%d\t%d\t%d\t%d\n",
			result.FeatureValue, counts.Correct, counts.WrongFaithful, counts.WrongUnfaithful, counts.Invalid, counts.Error)
	}
	_ = tw.Flush()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
