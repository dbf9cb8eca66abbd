package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"career-backend/internal/analyses"
	"career-backend/internal/extract"
	"career-backend/internal/llm"
	anthropicllm "career-backend/internal/llm/anthropic"
	openai "career-backend/internal/llm/openai"
	"career-backend/internal/services/health"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/server"
	"career-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	LLM             llm.Client
	Extractor       *extract.Extractor
	AnalysesService *analyses.Service
	AnalysisHandler *analyses.Handler
	HealthService   *health.Service
}

// Build wires the model client, the analysis pipeline and the router.
func Build(cfg config.Config) (*App, error) {
	client, err := BuildLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	extractor := extract.NewExtractor()
	svc := analyses.NewService(extractor, client, cfg.PromptTruncateChars)
	app := &App{
		Config:          cfg,
		LLM:             client,
		Extractor:       extractor,
		AnalysesService: svc,
		AnalysisHandler: analyses.NewHandler(svc, cfg.MaxUploadBytes),
		HealthService:   health.NewService(nil),
	}
	app.Router = server.NewRouter(cfg, server.Deps{
		Analysis: app.AnalysisHandler,
		Health:   app.HealthService,
	})
	return app, nil
}

// BuildLLMClient selects the model client for cfg. Without an API key the
// fixture client is used so the service stays usable offline.
func BuildLLMClient(cfg config.Config) (llm.Client, error) {
	if cfg.MockMode() {
		telemetry.Warn("llm.mock_mode", map[string]any{
			"provider": cfg.LLMProvider,
			"reason":   mockReason(cfg),
		})
		return llm.NewFixtureClient(), nil
	}

	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		client, err = anthropicllm.NewClient(anthropicllm.Options{
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		})
	case config.ProviderDeepSeek, config.ProviderOpenAI:
		client, err = openai.NewClient(openai.Options{
			Provider:    cfg.LLMProvider,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
			ReplyPath:   cfg.LLMReplyPath,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s client: %w", cfg.LLMProvider, err)
	}

	telemetry.Info("llm.client", map[string]any{
		"provider":    cfg.LLMProvider,
		"model":       cfg.LLMModel,
		"max_retries": cfg.LLMMaxRetries,
		"timeout_ms":  cfg.LLMTimeout.Milliseconds(),
	})
	return llm.WithRetry(client, cfg.LLMMaxRetries), nil
}

func mockReason(cfg config.Config) string {
	if cfg.LLMProvider == config.ProviderMock {
		return "provider"
	}
	return "missing_api_key"
}
