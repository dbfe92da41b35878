package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNeighborsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors [label-substring]",
		Short: "Print cached neighbors of contrast features",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			substr := ""
			if len(args) == 1 {
				substr = args[0]
			}
			sets, err := st.NeighborsMatching(ctx, substr)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				fmt.Fprintln(a.stdout, "No cached neighbors match.")
				return nil
			}
			for _, set := range sets {
				fmt.Fprintln(a.stdout, set.Feature.Label)
				for _, neighbor := range set.Neighbors {
					fmt.Fprintf(a.stdout, "  %s\n", neighbor.Label)
				}
			}
			return nil
		},
	}
}
