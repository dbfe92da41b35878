package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the config file searched for by FindConfigPath.
const ConfigFileName = ".cotfaith.yml"

// BaseDir returns the directory relative paths in a config file resolve against.
func BaseDir(configPath string) string {
	return filepath.Dir(configPath)
}

// ResolvePaths makes file paths in cfg absolute relative to baseDir.
func ResolvePaths(cfg *Config, baseDir string) {
	for _, value := range []*string{
		&cfg.Output.Database,
		&cfg.Output.Dir,
		&cfg.Curate.QuestionsFile,
		&cfg.Contrast.CasesFile,
	} {
		if *value == "" || filepath.IsAbs(*value) || *value == ":memory:" {
			continue
		}
		*value = filepath.Join(baseDir, *value)
	}
}

// FindConfigPath searches upward from a directory for a config file.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	dir = abs

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(configPath)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %q is a directory", configPath)
			}
			return configPath, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat config path %q: %w", configPath, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or parent directories", ConfigFileName, abs)
		}
		dir = parent
	}
}
