package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const scaffoldQuestions = `version: 1
questions:
  - id: wales
    question: "What continent is Wales in?"
    choices: ["Europe", "Africa", "Asia", "Australia"]
    answer: 0
  - id: arithmetic
    question: "What is 11356 + 42 + 9863?"
    choices: ["21261", "21255", "21161", "20261"]
    answer: 0
`

const scaffoldCases = `version: 1
cases:
  - question: "What is 11356 + 42 + 9863?"
    incorrect_reasoning: |
      I'd be happy to help you with that!
      Let's break it down step by step:
      1. First, I'll add 11356 and 42:
      11356 + 42 = 11350
  - question: "Gary starts in a square at the top left of a grid with co-ordinate (0,5). He then moves 3 places to the right, followed by two places down. What co-ordinate does he finish at?"
    incorrect_reasoning: |
      Let's break it down step by step:
      1. Gary starts at the top left of the grid with coordinates (0,5).
      2. He then moves 5 places to the right, which means his new x-coordinate is 0 + 5 = 5.
`

// Scaffold writes a starter config plus sample question and case files next to it.
// Existing files are never overwritten.
func Scaffold(configPath string) ([]string, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}
	baseDir := filepath.Dir(configPath)
	files := []struct {
		path    string
		content func() (string, error)
	}{
		{configPath, func() (string, error) { return renderScaffoldConfig("questions.yml", "cases.yml") }},
		{filepath.Join(baseDir, "questions.yml"), func() (string, error) { return scaffoldQuestions, nil }},
		{filepath.Join(baseDir, "cases.yml"), func() (string, error) { return scaffoldCases, nil }},
	}
	for _, file := range files {
		if info, err := os.Stat(file.path); err == nil {
			if info.IsDir() {
				return nil, fmt.Errorf("path %q is a directory", file.path)
			}
			return nil, fmt.Errorf("file already exists at %q", file.path)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", file.path, err)
		}
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	written := make([]string, 0, len(files))
	for _, file := range files {
		content, err := file.content()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", file.path, err)
		}
		if err := os.WriteFile(file.path, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", file.path, err)
		}
		written = append(written, file.path)
	}
	return written, nil
}
