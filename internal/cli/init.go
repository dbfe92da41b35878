package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cotfaith/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config with sample questions and contrast cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.ConfigFileName
			}
			written, err := config.Scaffold(path)
			if err != nil {
				return err
			}
			for _, file := range written {
				fmt.Fprintf(a.stdout, "Created %s\n", filepath.ToSlash(file))
			}
			return nil
		},
	}
}
