package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cotfaith/internal/store"
)

// DatasetFileName is the exported curated dataset.
const DatasetFileName = "dataset.csv"

func newExportCommand(a *app) *cobra.Command {
	var (
		dir string
		all bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dataset and sweep results as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.load()
			if err != nil {
				return reportValidation(a, err)
			}
			if dir == "" {
				dir = cfg.Output.Dir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, DatasetFileName)
			count, err := writeFile(path, func(f *os.File) (int, error) {
				return st.ExportRecords(ctx, f, !all)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s (%d records)\n", path, count)

			sweeps, err := st.Sweeps(ctx)
			if err != nil {
				return err
			}
			for _, info := range sweeps {
				path := filepath.Join(dir, sweepFileName(info))
				count, err := writeFile(path, func(f *os.File) (int, error) {
					return st.ExportSweep(ctx, f, info.Key)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Wrote %s (%d strengths)\n", path, count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: output.dir)")
	cmd.Flags().BoolVar(&all, "all", false, "include records whose correct reasoning missed the answer")
	return cmd
}

func sweepFileName(info store.Sweep) string {
	return fmt.Sprintf("sweep_%s.csv", shortKey(info.Key))
}

func writeFile(path string, write func(f *os.File) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	count, err := write(f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", path, closeErr)
	}
	return count, err
}
