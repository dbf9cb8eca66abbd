package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"career-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base       Client
	maxRetries int
	baseDelay  time.Duration
}

// WithRetry wraps base so transient upstream failures are retried up to
// maxRetries times with linear backoff. maxRetries <= 0 returns base unchanged.
func WithRetry(base Client, maxRetries int) Client {
	if base == nil || maxRetries <= 0 {
		return base
	}
	return retryingClient{base: base, maxRetries: maxRetries, baseDelay: retryBaseDelay}
}

func (r retryingClient) Provider() string { return r.base.Provider() }

func (r retryingClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	reply, err := r.base.Complete(ctx, prompt)
	for attempt := 1; attempt <= r.maxRetries && err != nil && shouldRetry(err); attempt++ {
		telemetry.Warn("llm.retry", map[string]any{
			"provider": r.base.Provider(),
			"attempt":  attempt,
			"err":      err.Error(),
		})
		select {
		case <-time.After(time.Duration(attempt) * r.baseDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		reply, err = r.base.Complete(ctx, prompt)
	}
	return reply, err
}

func shouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode == 429 || upstream.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}
