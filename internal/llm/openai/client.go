package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"career-backend/internal/llm"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/shared/util"
)

const (
	defaultURL       = "https://api.deepseek.com/v1/chat/completions"
	defaultReplyPath = "choices.0.message.content"
	maxErrorBody     = 2048
)

// Options configures a chat-completions client. Any OpenAI-compatible
// endpoint works (DeepSeek, OpenAI, local gateways).
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// ReplyPath is a gjson path locating the reply text in the response envelope.
	ReplyPath string
}

// Client implements llm.Client using the Chat Completions wire format.
type Client struct {
	provider    string
	url         string
	model       string
	maxTokens   int
	temperature float64
	replyPath   string
	httpClient  *http.Client
}

// NewClient constructs a new chat-completions client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = "openai"
	}
	url := strings.TrimSpace(opts.BaseURL)
	if url == "" {
		url = defaultURL
	}
	replyPath := strings.TrimSpace(opts.ReplyPath)
	if replyPath == "" {
		replyPath = defaultReplyPath
	}

	// oauth2.Transport attaches "Authorization: Bearer <key>" to every request.
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey, TokenType: "Bearer"})
	return &Client{
		provider:    provider,
		url:         url,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		replyPath:   replyPath,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport},
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.provider }

// Complete sends one chat-completion request and returns the reply text.
// If the model rejects the temperature parameter, the request is repeated
// once without it.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	withTemp := !isGPT5(c.model)
	reply, err := c.completeOnce(ctx, prompt, withTemp)
	if err != nil && withTemp && isTemperatureUnsupported(err) {
		telemetry.Warn("llm.temperature_unsupported", map[string]any{
			"provider": c.provider,
			"model":    c.model,
		})
		reply, err = c.completeOnce(ctx, prompt, false)
	}
	return reply, err
}

func (c *Client) completeOnce(ctx context.Context, prompt llm.Prompt, withTemp bool) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if withTemp {
		temp := c.temperature
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncUpstream(c.provider, "transport_error")
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%s request timeout: %w", c.provider, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncUpstream(c.provider, "transport_error")
		return "", fmt.Errorf("%s response read: %w", c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncUpstream(c.provider, "http_error")
		return "", &llm.UpstreamError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}
	if !gjson.ValidBytes(body) {
		metrics.IncUpstream(c.provider, "invalid_envelope")
		return "", fmt.Errorf("%s response parse: invalid JSON envelope", c.provider)
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		metrics.IncUpstream(c.provider, "api_error")
		return "", fmt.Errorf("%s error: %s (%s)", c.provider, msg.String(), gjson.GetBytes(body, "error.type").String())
	}

	reply := gjson.GetBytes(body, c.replyPath)
	if !reply.Exists() {
		metrics.IncUpstream(c.provider, "invalid_envelope")
		return "", fmt.Errorf("%s response missing reply at %q", c.provider, c.replyPath)
	}
	content := strings.TrimSpace(reply.String())
	if content == "" {
		metrics.IncUpstream(c.provider, "empty_reply")
		return "", fmt.Errorf("%s response: %w", c.provider, llm.ErrEmptyReply)
	}

	metrics.IncUpstream(c.provider, "ok")
	logUsage(c.provider, c.model, body, prompt, time.Since(start))
	return content, nil
}

func logUsage(provider, model string, body []byte, prompt llm.Prompt, elapsed time.Duration) {
	usage := gjson.GetManyBytes(body, "usage.prompt_tokens", "usage.completion_tokens", "usage.total_tokens")
	telemetry.Info("llm.response", map[string]any{
		"provider":          provider,
		"model":             model,
		"prompt_hash":       util.Fingerprint(prompt.System + "\n\n" + prompt.User),
		"prompt_tokens":     usage[0].Int(),
		"completion_tokens": usage[1].Int(),
		"total_tokens":      usage[2].Int(),
		"duration_ms":       elapsed.Milliseconds(),
	})
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isTemperatureUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		msg = strings.ToLower(upstream.Body)
	}
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

var _ llm.Client = (*Client)(nil)
