package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cotfaith/internal/config"
	"cotfaith/internal/contrast"
	"cotfaith/internal/question"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and the data files it names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			if cfg.Curate.QuestionsFile != "" {
				if _, err := question.LoadSet(cfg.Curate.QuestionsFile); err != nil {
					return reportValidation(a, err)
				}
			}
			if cfg.Contrast.CasesFile != "" {
				if _, err := contrast.LoadCases(cfg.Contrast.CasesFile); err != nil {
					return reportValidation(a, err)
				}
			}
			fmt.Fprintln(a.stdout, "Config OK")
			return nil
		},
	}
}

// reportValidation prints issue lists before returning the error.
func reportValidation(a *app, err error) error {
	var configErr *config.ValidationError
	var questionErr *question.ValidationError
	switch {
	case errors.As(err, &configErr):
		fmt.Fprintln(a.stderr, "Validation failed:")
		for _, issue := range configErr.Issues {
			fmt.Fprintf(a.stderr, "- %s: %s\n", issue.Field, issue.Message)
		}
	case errors.As(err, &questionErr):
		fmt.Fprintln(a.stderr, "Validation failed:")
		for _, issue := range questionErr.Issues {
			fmt.Fprintf(a.stderr, "- %s: %s\n", issue.Field, issue.Message)
		}
	}
	return err
}
