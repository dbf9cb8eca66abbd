package llm

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

// Client abstracts chat-completion providers. Implementations return the
// model's raw reply text; interpreting it is the caller's job.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Provider() string
}

// Prompt is a fully assembled request to a model.
type Prompt struct {
	System string
	User   string
}

// ErrEmptyReply is returned when a provider answers successfully with no text.
var ErrEmptyReply = errors.New("empty model reply")

// UpstreamError reports a non-success response from a model API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.Provider, e.StatusCode)
}

//go:embed fixtures/career_analysis.json
var fixtureReply string

// FixtureClient returns a canned analysis without calling any API. It is
// selected at startup when no API key is configured.
type FixtureClient struct {
	Reply string
}

// NewFixtureClient returns a FixtureClient serving the bundled sample analysis.
func NewFixtureClient() FixtureClient {
	return FixtureClient{Reply: fixtureReply}
}

// Complete returns the fixture reply.
func (f FixtureClient) Complete(ctx context.Context, _ Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Reply == "" {
		return fixtureReply, nil
	}
	return f.Reply, nil
}

// Provider names the fixture strategy in logs and metrics.
func (FixtureClient) Provider() string { return "mock" }
