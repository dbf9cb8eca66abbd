package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds application configuration.
type Config struct {
	Port            string   `validate:"required"`
	Env             string   `validate:"oneof=dev local staging production"`
	CORSAllowOrigin []string `validate:"dive,required"`

	LLMProvider    string  `validate:"oneof=deepseek openai anthropic mock"`
	LLMAPIKey      string
	LLMModel       string  `validate:"required"`
	LLMBaseURL     string  `validate:"omitempty,url"`
	LLMMaxTokens   int     `validate:"gt=0"`
	LLMTemperature float64 `validate:"gte=0,lte=2"`
	LLMTimeout     time.Duration
	LLMMaxRetries  int    `validate:"gte=0,lte=5"`
	LLMReplyPath   string `validate:"required"`

	PromptTruncateChars int   `validate:"gt=0"`
	MaxUploadBytes      int64 `validate:"gt=0"`
	RateLimitRPS        float64
	RateLimitBurst      int
	LogLevel            string
}

// MockMode reports whether the fixture client should stand in for a live
// model API. An empty key is a recognized offline/dev state, not an error.
func (c Config) MockMode() bool {
	return c.LLMProvider == ProviderMock || strings.TrimSpace(c.LLMAPIKey) == ""
}

var providerDefaults = map[string]struct {
	model   string
	baseURL string
	keyEnv  string
}{
	ProviderDeepSeek:  {model: "deepseek-chat", baseURL: "https://api.deepseek.com/v1/chat/completions", keyEnv: "DEEPSEEK_API_KEY"},
	ProviderOpenAI:    {model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1/chat/completions", keyEnv: "OPENAI_API_KEY"},
	ProviderAnthropic: {model: "claude-sonnet-4-20250514", baseURL: "", keyEnv: "ANTHROPIC_API_KEY"},
	ProviderMock:      {model: "fixture", baseURL: ""},
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	provider := normalizeProvider(v.GetString("LLM_PROVIDER"))
	defaults := providerDefaults[provider]

	apiKey := strings.TrimSpace(v.GetString("LLM_API_KEY"))
	if apiKey == "" && defaults.keyEnv != "" {
		apiKey = strings.TrimSpace(v.GetString(defaults.keyEnv))
	}

	cfg := Config{
		Port:                v.GetString("PORT"),
		Env:                 normalizeEnv(v.GetString("ENV")),
		CORSAllowOrigin:     splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		LLMProvider:         provider,
		LLMAPIKey:           apiKey,
		LLMModel:            getOr(v.GetString("LLM_MODEL"), defaults.model),
		LLMBaseURL:          getOr(v.GetString("LLM_BASE_URL"), defaults.baseURL),
		LLMMaxTokens:        v.GetInt("LLM_MAX_TOKENS"),
		LLMTemperature:      v.GetFloat64("LLM_TEMPERATURE"),
		LLMTimeout:          time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		LLMMaxRetries:       v.GetInt("LLM_MAX_RETRIES"),
		LLMReplyPath:        v.GetString("LLM_REPLY_PATH"),
		PromptTruncateChars: v.GetInt("PROMPT_TRUNCATE_CHARS"),
		MaxUploadBytes:      v.GetInt64("MAX_UPLOAD_BYTES"),
		RateLimitRPS:        v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:      v.GetInt("RATE_LIMIT_BURST"),
		LogLevel:            v.GetString("LOG_LEVEL"),
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:3002")
	v.SetDefault("LLM_PROVIDER", ProviderDeepSeek)
	v.SetDefault("LLM_MAX_TOKENS", 4000)
	v.SetDefault("LLM_TEMPERATURE", 0.7)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("LLM_MAX_RETRIES", 0)
	v.SetDefault("LLM_REPLY_PATH", "choices.0.message.content")
	v.SetDefault("PROMPT_TRUNCATE_CHARS", 5000)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("RATE_LIMIT_RPS", 1)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("LOG_LEVEL", "info")
}

func getOr(val, def string) string {
	if trimmed := strings.TrimSpace(val); trimmed != "" {
		return trimmed
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return ProviderOpenAI
	case "anthropic", "claude":
		return ProviderAnthropic
	case "mock", "fixture", "offline":
		return ProviderMock
	default:
		return ProviderDeepSeek
	}
}
