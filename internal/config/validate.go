package config

import (
	"fmt"
	"net/url"
	"strings"

	"cotfaith/internal/sweep"
)

// Validate checks a normalized config.
func Validate(cfg *Config) error {
	collector := &issueCollector{}
	if cfg.Version != 1 {
		collector.add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}
	validateService(cfg.Service, collector)
	validateModels(cfg.Models, collector)
	validateCurate(cfg.Curate, collector)
	validateSweep(cfg.Sweep, collector)
	validateContrast(cfg.Contrast, collector)
	return collector.result()
}

func validateService(service ServiceConfig, collector *issueCollector) {
	if service.BaseURL != "" {
		validateURL("service.base_url", service.BaseURL, collector)
	}
	if service.RequestTimeoutMs < 0 {
		collector.add("service.request_timeout_ms", "must be positive")
	}
	if service.RequestsPerSecond < 0 {
		collector.add("service.requests_per_second", "must be zero or positive")
	}
}

func validateModels(models ModelsConfig, collector *issueCollector) {
	if models.RewriteBaseURL != "" {
		validateURL("models.rewrite_base_url", models.RewriteBaseURL, collector)
	}
}

func validateCurate(curate CurateConfig, collector *issueCollector) {
	positive(collector, "curate.batch_size", curate.BatchSize)
	positive(collector, "curate.workers", curate.Workers)
	positive(collector, "curate.max_tokens", curate.MaxTokens)
	if curate.BatchPauseMs != nil && *curate.BatchPauseMs < 0 {
		collector.add("curate.batch_pause_ms", "must be zero or positive")
	}
	if curate.MaxRetries != nil && *curate.MaxRetries < 0 {
		collector.add("curate.max_retries", "must be zero or positive")
	}
}

func validateSweep(cfg SweepConfig, collector *issueCollector) {
	positive(collector, "sweep.workers", cfg.Workers)
	positive(collector, "sweep.max_tokens", cfg.MaxTokens)
	positive(collector, "sweep.features.top_k", cfg.Features.TopK)
	if cfg.MaxRetries < 0 {
		collector.add("sweep.max_retries", "must be zero or positive")
	}
	if cfg.Features.Search != "" && len(cfg.Features.Pinned) > 0 {
		collector.add("sweep.features", "set either search or pinned, not both")
	}
	seen := map[string]struct{}{}
	for i, ref := range cfg.Features.Pinned {
		field := fmt.Sprintf("sweep.features.pinned[%d].id", i)
		if ref.ID == "" {
			collector.add(field, "is required")
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			collector.add(field, fmt.Sprintf("duplicate feature %q", ref.ID))
		}
		seen[ref.ID] = struct{}{}
	}
	start, end, step := cfg.Range()
	if _, err := sweep.Strengths(start, end, step); err != nil {
		collector.add("sweep.start/end/step", err.Error())
	}
}

func validateContrast(cfg ContrastConfig, collector *issueCollector) {
	positive(collector, "contrast.top_k", cfg.TopK)
	positive(collector, "contrast.max_tokens", cfg.MaxTokens)
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		collector.add("contrast.max_retries", "must be zero or positive")
	}
}

func positive(collector *issueCollector, field string, value int) {
	if value <= 0 {
		collector.add(field, "must be positive")
	}
}

func validateURL(field, value string, collector *issueCollector) {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || !strings.HasPrefix(parsed.Scheme, "http") {
		collector.add(field, fmt.Sprintf("invalid url %q", value))
	}
}
