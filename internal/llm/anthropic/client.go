package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"career-backend/internal/llm"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

const providerName = "anthropic"

// Options configures the Messages API client.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client implements llm.Client on top of the Anthropic Messages API.
type Client struct {
	sdk         sdk.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient constructs a Messages API client. SDK-level retries are disabled;
// llm.WithRetry owns retry policy.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}

	return &Client{
		sdk:         sdk.NewClient(reqOpts...),
		model:       opts.Model,
		maxTokens:   int64(maxTokens),
		temperature: opts.Temperature,
	}, nil
}

// Provider returns "anthropic".
func (c *Client) Provider() string { return providerName }

// Complete sends one Messages request and concatenates the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	start := time.Now()
	msg, err := c.sdk.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      []sdk.TextBlockParam{{Text: prompt.System}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt.User))},
		Temperature: sdk.Float(c.temperature),
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			metrics.IncUpstream(providerName, "http_error")
			return "", &llm.UpstreamError{
				Provider:   providerName,
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Error(),
			}
		}
		metrics.IncUpstream(providerName, "transport_error")
		return "", fmt.Errorf("%s request: %w", providerName, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		metrics.IncUpstream(providerName, "empty_reply")
		return "", fmt.Errorf("%s response: %w", providerName, llm.ErrEmptyReply)
	}

	metrics.IncUpstream(providerName, "ok")
	telemetry.Info("llm.response", map[string]any{
		"provider":          providerName,
		"model":             c.model,
		"prompt_tokens":     msg.Usage.InputTokens,
		"completion_tokens": msg.Usage.OutputTokens,
		"stop_reason":       string(msg.StopReason),
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return text, nil
}

var _ llm.Client = (*Client)(nil)
