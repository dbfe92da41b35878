package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cotfaith/internal/llm"
	"cotfaith/internal/prompt"
	"cotfaith/internal/retry"
)

func newInspectCommand(a *app) *cobra.Command {
	var (
		top       int
		maxTokens int
	)
	cmd := &cobra.Command{
		Use:   "inspect <question>",
		Short: "Answer a question and list the most active features",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top <= 0 {
				return usageError{err: fmt.Errorf("--top must be positive")}
			}
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			svc, err := newServices(cfg, serviceOptions{Burst: 1})
			if err != nil {
				return err
			}
			solve, err := prompt.Render(ctx, prompt.Solve(" "+strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			conversation := []llm.Message{llm.User(solve)}
			response, err := retry.Do(ctx, "inspect response", cfg.Contrast.Retries(), func(ctx context.Context) (string, error) {
				return svc.Variant.Complete(ctx, llm.Request{Messages: conversation, MaxTokens: maxTokens, Stream: true})
			})
			if err != nil {
				return err
			}
			conversation = append(conversation, llm.Assistant(response))
			inspection, err := retry.Do(ctx, "inspect", cfg.Contrast.Retries(), func(ctx context.Context) (llm.Inspection, error) {
				return svc.Features.Inspect(ctx, conversation)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, response)
			fmt.Fprintln(a.stdout)
			for _, activation := range inspection.Top(top) {
				fmt.Fprintf(a.stdout, "%8.4f  %s\n", activation.Activation, activation.Feature.Label)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of features to list")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 500, "response token cap")
	return cmd
}
