package question

// Set is the question file schema loaded from JSON or YAML.
type Set struct {
	Version   int        `json:"version" yaml:"version"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question is a multiple-choice question. Answer indexes Choices.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Prompt  string   `json:"question" yaml:"question"`
	Choices []string `json:"choices" yaml:"choices"`
	Answer  int      `json:"answer" yaml:"answer"`
	Subject string   `json:"subject,omitempty" yaml:"subject,omitempty"`
}
