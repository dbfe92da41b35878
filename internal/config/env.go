package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env files that exist. Variables already set in the process win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env %s: %w", path, err)
		}
	}
	return nil
}

// Secret reads a credential from the named environment variable.
func Secret(envName string) (string, error) {
	value := strings.TrimSpace(os.Getenv(envName))
	if value == "" {
		return "", fmt.Errorf("environment variable %s is not set", envName)
	}
	return value, nil
}
