package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"cotfaith/internal/config"
	"cotfaith/internal/llm"
	"cotfaith/internal/llm/goodfire"
	"cotfaith/internal/llm/openai"
	"cotfaith/internal/logging"
	"cotfaith/internal/store"
)

// services are the model clients a command talks to.
type services struct {
	Variant  llm.Completer
	Features llm.FeatureService
	Rewriter llm.Completer
}

// serviceOptions selects which clients to build.
type serviceOptions struct {
	Rewriter bool
	Burst    int
}

// newServices builds the model clients. Tests replace it with fakes.
var newServices = defaultServices

func defaultServices(cfg config.Config, opts serviceOptions) (services, error) {
	apiKey, err := config.Secret(cfg.Service.APIKeyEnv)
	if err != nil {
		return services{}, err
	}
	client, err := goodfire.New(cfg.Models.Variant, apiKey, cfg.Service.BaseURL, cfg.Service.RequestTimeout(), nil)
	if err != nil {
		return services{}, err
	}
	limiter := llm.NewLimiter(cfg.Service.RequestsPerSecond, opts.Burst)
	out := services{
		Variant:  llm.RateLimited(client, limiter),
		Features: llm.RateLimitedFeatures(client, limiter),
	}
	if !opts.Rewriter {
		return out, nil
	}
	openaiKey, err := config.Secret(cfg.Models.OpenAIAPIKeyEnv)
	if err != nil {
		return services{}, err
	}
	rewriter, err := openai.New(cfg.Models.RewriteModel, openaiKey, cfg.Models.RewriteBaseURL)
	if err != nil {
		return services{}, err
	}
	out.Rewriter = rewriter
	return out, nil
}

// app carries global flags and the resources opened by a command.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	envFile    string
	verbose    bool
	noColor    bool

	logger *zap.Logger
	store  *store.Store
}

// load reads .env and the config file.
func (a *app) load() (config.Config, error) {
	if err := config.LoadEnv(a.envFile); err != nil {
		return config.Config{}, err
	}
	path, err := a.resolveConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

func (a *app) resolveConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return config.FindConfigPath(cwd)
}

// log returns the command logger. Quiet discards everything, for the live UI.
func (a *app) log(quiet bool) *zap.Logger {
	if a.logger != nil {
		return a.logger
	}
	if quiet {
		a.logger = zap.NewNop()
	} else {
		a.logger = logging.New(a.stderr, logging.Options{Verbose: a.verbose, NoColor: a.noColor})
	}
	return a.logger
}

// openStore opens the result database named in the config.
func (a *app) openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(ctx, cfg.Output.Database)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
