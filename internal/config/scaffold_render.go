package config

import (
	"context"
	"strings"
)

// renderScaffoldConfig builds the scaffold YAML via the compiled template.
func renderScaffoldConfig(questionsFile, casesFile string) (string, error) {
	var builder strings.Builder
	if err := ScaffoldConfig(questionsFile, casesFile).Render(context.Background(), &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}
