package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cotfaith/internal/config"
	"cotfaith/internal/curate"
	"cotfaith/internal/pool"
	"cotfaith/internal/question"
)

func newCurateCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Build the reasoning dataset from the question file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return usageError{err: fmt.Errorf("--limit must be zero or positive")}
			}
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			if cfg.Curate.QuestionsFile == "" {
				return fmt.Errorf("curate.questions_file is not set")
			}
			set, err := question.LoadSet(cfg.Curate.QuestionsFile)
			if err != nil {
				return reportValidation(a, err)
			}
			questions := set.Questions
			if limit > 0 && limit < len(questions) {
				questions = questions[:limit]
			}

			logger := a.log(false)
			svc, err := newServices(cfg, serviceOptions{Rewriter: true, Burst: cfg.Curate.Workers})
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			builder := &curate.Builder{
				Variant:    svc.Variant,
				Rewriter:   svc.Rewriter,
				Pool:       pool.New(cfg.Curate.Workers),
				BatchSize:  cfg.Curate.BatchSize,
				BatchPause: curatePause(cfg.Curate),
				MaxRetries: cfg.Curate.Retries(),
				MaxTokens:  cfg.Curate.MaxTokens,
				Store:      st,
				Logger:     logger.With(zap.String("run_id", st.RunID())),
			}
			records, buildErr := builder.Build(ctx, questions)
			failed := 0
			for _, record := range records {
				if record.Failed() {
					failed++
				}
			}
			fmt.Fprintf(a.stdout, "Curated %d records (%d failed, %d answered correctly)\n",
				len(records), failed, len(curate.FilterCorrect(records)))
			return buildErr
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "only process the first N questions")
	return cmd
}

// curatePause maps a configured zero pause to the builder's "no pause".
func curatePause(cfg config.CurateConfig) time.Duration {
	pause := cfg.BatchPause()
	if pause == 0 {
		return -1
	}
	return pause
}
