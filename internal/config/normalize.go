package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultDatabase          = "cotfaith.duckdb"
	DefaultExportDir         = "results"
	DefaultAPIKeyEnv         = "GOODFIRE_API_KEY"
	DefaultOpenAIAPIKeyEnv   = "OPENAI_API_KEY"
	DefaultVariant           = "meta-llama/Meta-Llama-3.1-70B-Instruct"
	DefaultRewriteModel      = "gpt-4o"
	DefaultRequestTimeoutMs  = 120000
	DefaultCurateBatchSize   = 10
	DefaultCurateBatchPause  = 10000
	DefaultCurateWorkers     = 10
	DefaultCurateMaxRetries  = 2
	DefaultCurateMaxTokens   = 5000
	DefaultSweepTopK         = 5
	DefaultSweepStart        = -0.3
	DefaultSweepEnd          = 0.3
	DefaultSweepStep         = 0.1
	DefaultSweepWorkers      = 20
	DefaultSweepMaxTokens    = 200
	DefaultContrastTopK      = 10
	DefaultContrastMaxTokens = 5000
)

// Normalize trims strings and fills defaults for omitted fields.
func Normalize(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	setString(&cfg.Output.Database, DefaultDatabase)
	setString(&cfg.Output.Dir, DefaultExportDir)

	cfg.Service.BaseURL = strings.TrimSpace(cfg.Service.BaseURL)
	setString(&cfg.Service.APIKeyEnv, DefaultAPIKeyEnv)
	setInt(&cfg.Service.RequestTimeoutMs, DefaultRequestTimeoutMs)

	setString(&cfg.Models.Variant, DefaultVariant)
	setString(&cfg.Models.RewriteModel, DefaultRewriteModel)
	cfg.Models.RewriteBaseURL = strings.TrimSpace(cfg.Models.RewriteBaseURL)
	setString(&cfg.Models.OpenAIAPIKeyEnv, DefaultOpenAIAPIKeyEnv)

	cfg.Curate.QuestionsFile = strings.TrimSpace(cfg.Curate.QuestionsFile)
	setInt(&cfg.Curate.BatchSize, DefaultCurateBatchSize)
	setIntPtr(&cfg.Curate.BatchPauseMs, DefaultCurateBatchPause)
	setInt(&cfg.Curate.Workers, DefaultCurateWorkers)
	setIntPtr(&cfg.Curate.MaxRetries, DefaultCurateMaxRetries)
	setInt(&cfg.Curate.MaxTokens, DefaultCurateMaxTokens)

	cfg.Sweep.Features.Search = strings.TrimSpace(cfg.Sweep.Features.Search)
	setInt(&cfg.Sweep.Features.TopK, DefaultSweepTopK)
	for i := range cfg.Sweep.Features.Pinned {
		cfg.Sweep.Features.Pinned[i].ID = strings.TrimSpace(cfg.Sweep.Features.Pinned[i].ID)
		cfg.Sweep.Features.Pinned[i].Label = strings.TrimSpace(cfg.Sweep.Features.Pinned[i].Label)
	}
	setFloatPtr(&cfg.Sweep.Start, DefaultSweepStart)
	setFloatPtr(&cfg.Sweep.End, DefaultSweepEnd)
	setFloatPtr(&cfg.Sweep.Step, DefaultSweepStep)
	setInt(&cfg.Sweep.Workers, DefaultSweepWorkers)
	setInt(&cfg.Sweep.MaxTokens, DefaultSweepMaxTokens)

	cfg.Contrast.CasesFile = strings.TrimSpace(cfg.Contrast.CasesFile)
	cfg.Contrast.RerankQuery = strings.TrimSpace(cfg.Contrast.RerankQuery)
	setInt(&cfg.Contrast.TopK, DefaultContrastTopK)
	setInt(&cfg.Contrast.MaxTokens, DefaultContrastMaxTokens)
	setIntPtr(&cfg.Contrast.MaxRetries, DefaultCurateMaxRetries)
}

func setString(value *string, fallback string) {
	*value = strings.TrimSpace(*value)
	if *value == "" {
		*value = fallback
	}
}

func setInt(value *int, fallback int) {
	if *value == 0 {
		*value = fallback
	}
}

func setIntPtr(value **int, fallback int) {
	if *value == nil {
		v := fallback
		*value = &v
	}
}

func setFloatPtr(value **float64, fallback float64) {
	if *value == nil {
		v := fallback
		*value = &v
	}
}
