package config

import "time"

// Config is the .cotfaith.yml schema.
type Config struct {
	Version  int            `yaml:"version"`
	Output   OutputConfig   `yaml:"output"`
	Service  ServiceConfig  `yaml:"service"`
	Models   ModelsConfig   `yaml:"models"`
	Curate   CurateConfig   `yaml:"curate"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Contrast ContrastConfig `yaml:"contrast"`
}

// OutputConfig locates the result database and CSV exports.
type OutputConfig struct {
	Database string `yaml:"database"`
	Dir      string `yaml:"dir"`
}

// ServiceConfig configures the feature-steering inference service.
type ServiceConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	RequestTimeoutMs  int     `yaml:"request_timeout_ms"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RequestTimeout returns the per-request HTTP timeout.
func (s ServiceConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMs) * time.Millisecond
}

// ModelsConfig names the steered variant and the rewrite model.
type ModelsConfig struct {
	Variant         string `yaml:"variant"`
	RewriteModel    string `yaml:"rewrite_model"`
	RewriteBaseURL  string `yaml:"rewrite_base_url"`
	OpenAIAPIKeyEnv string `yaml:"openai_api_key_env"`
}

// CurateConfig drives the reasoning dataset builder.
type CurateConfig struct {
	QuestionsFile string `yaml:"questions_file"`
	BatchSize     int    `yaml:"batch_size"`
	BatchPauseMs  *int   `yaml:"batch_pause_ms"`
	Workers       int    `yaml:"workers"`
	MaxRetries    *int   `yaml:"max_retries"`
	MaxTokens     int    `yaml:"max_tokens"`
}

// BatchPause returns the pause between batches.
func (c CurateConfig) BatchPause() time.Duration {
	return time.Duration(deref(c.BatchPauseMs)) * time.Millisecond
}

// Retries returns the re-invocation count per call.
func (c CurateConfig) Retries() int {
	return deref(c.MaxRetries)
}

// FeatureSelection picks the steered features, by search or explicitly.
type FeatureSelection struct {
	Search string       `yaml:"search"`
	TopK   int          `yaml:"top_k"`
	Pinned []FeatureRef `yaml:"pinned"`
}

// FeatureRef is an explicitly configured feature.
type FeatureRef struct {
	ID         string `yaml:"id"`
	Label      string `yaml:"label"`
	IndexInSAE int    `yaml:"index_in_sae"`
}

// SweepConfig drives the feature sweep.
type SweepConfig struct {
	Features   FeatureSelection `yaml:"features"`
	Start      *float64         `yaml:"start"`
	End        *float64         `yaml:"end"`
	Step       *float64         `yaml:"step"`
	Workers    int              `yaml:"workers"`
	MaxTokens  int              `yaml:"max_tokens"`
	MaxRetries int              `yaml:"max_retries"`
}

// Range returns start, end, and step.
func (s SweepConfig) Range() (float64, float64, float64) {
	return deref(s.Start), deref(s.End), deref(s.Step)
}

// ContrastConfig drives contrast experiments.
type ContrastConfig struct {
	CasesFile   string `yaml:"cases_file"`
	TopK        int    `yaml:"top_k"`
	RerankQuery string `yaml:"rerank_query"`
	MaxTokens   int    `yaml:"max_tokens"`
	MaxRetries  *int   `yaml:"max_retries"`
}

// Retries returns the re-invocation count per call.
func (c ContrastConfig) Retries() int {
	return deref(c.MaxRetries)
}

func deref[T any](value *T) T {
	var zero T
	if value == nil {
		return zero
	}
	return *value
}
