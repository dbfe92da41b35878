package contrast

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Case is a question paired with hand-written reasoning that goes wrong.
type Case struct {
	ID                 string `yaml:"id"`
	Question           string `yaml:"question"`
	IncorrectReasoning string `yaml:"incorrect_reasoning"`
}

type caseFile struct {
	Version int    `yaml:"version"`
	Cases   []Case `yaml:"cases"`
}

// LoadCases reads a YAML case file. Cases without an id are named
// experiment_<position>.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var file caseFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse cases: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	return normalizeCases(file)
}

func normalizeCases(file caseFile) ([]Case, error) {
	var problems []string
	if file.Version != 1 {
		problems = append(problems, fmt.Sprintf("version: unsupported version %d", file.Version))
	}
	if len(file.Cases) == 0 {
		problems = append(problems, "cases: must include at least one entry")
	}
	seen := map[string]struct{}{}
	cases := make([]Case, 0, len(file.Cases))
	for i, c := range file.Cases {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = fmt.Sprintf("experiment_%d", i)
		}
		if _, dup := seen[c.ID]; dup {
			problems = append(problems, fmt.Sprintf("cases[%d].id: duplicate id %q", i, c.ID))
		}
		seen[c.ID] = struct{}{}
		c.Question = strings.TrimSpace(c.Question)
		if c.Question == "" {
			problems = append(problems, fmt.Sprintf("cases[%d].question: is required", i))
		}
		if strings.TrimSpace(c.IncorrectReasoning) == "" {
			problems = append(problems, fmt.Sprintf("cases[%d].incorrect_reasoning: is required", i))
		}
		cases = append(cases, c)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid cases: %s", strings.Join(problems, "; "))
	}
	return cases, nil
}
