package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cotfaith/internal/contrast"
)

func newContrastCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contrast",
		Short: "Contrast features of correct and incorrect-reasoning responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			if cfg.Contrast.CasesFile == "" {
				return fmt.Errorf("contrast.cases_file is not set")
			}
			cases, err := contrast.LoadCases(cfg.Contrast.CasesFile)
			if err != nil {
				return err
			}
			logger := a.log(false)
			svc, err := newServices(cfg, serviceOptions{Burst: 1})
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			pipeline := &contrast.Pipeline{
				Variant:     svc.Variant,
				Features:    svc.Features,
				TopK:        cfg.Contrast.TopK,
				RerankQuery: cfg.Contrast.RerankQuery,
				MaxTokens:   cfg.Contrast.MaxTokens,
				MaxRetries:  cfg.Contrast.Retries(),
				Store:       st,
				Logger:      logger.With(zap.String("run_id", st.RunID())),
			}
			experiments, runErr := pipeline.Run(ctx, cases)
			for _, experiment := range experiments {
				fmt.Fprintf(a.stdout, "%s\n", experiment.ID)
				for _, feature := range experiment.Features {
					fmt.Fprintf(a.stdout, "  %s\n", feature.Label)
				}
			}
			fmt.Fprintf(a.stdout, "Completed %d of %d experiments\n", len(experiments), len(cases))
			return runErr
		},
	}
}
