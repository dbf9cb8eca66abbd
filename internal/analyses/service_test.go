package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-backend/internal/extract"
	"career-backend/internal/llm"
)

type stubClient struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []llm.Prompt
}

func (s *stubClient) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.reply, s.err
}

func (s *stubClient) Provider() string { return "stub" }

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newStubService(client *stubClient) *Service {
	return NewService(extract.NewExtractor(), client, 0)
}

func txtUpload(name, text string) *extract.UploadedDocument {
	return &extract.UploadedDocument{Filename: name, Data: []byte(text), DeclaredSizeBytes: int64(len(text))}
}

func TestAnalyzeNoInputSkipsModel(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{name: "nothing", in: Input{}},
		{name: "whitespace text", in: Input{ResumeText: "  \n\t", TranscriptText: " "}},
		{name: "unsupported file", in: Input{Resume: &extract.UploadedDocument{Filename: "cv.png", Data: []byte{0x89, 'P', 'N', 'G'}}}},
		{name: "corrupt pdf", in: Input{Transcript: &extract.UploadedDocument{Filename: "t.pdf", Data: []byte("not a pdf")}}},
		{name: "empty txt", in: Input{Resume: txtUpload("cv.txt", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{reply: minimalReply}
			_, err := newStubService(client).Analyze(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrNoInput)
			assert.Zero(t, client.calls(), "model must not be called without input")
		})
	}
}

func TestAnalyzeTextResumeEndToEnd(t *testing.T) {
	client := &stubClient{reply: "```json\n" + minimalReply + "\n```"}
	res, err := newStubService(client).Analyze(context.Background(), Input{
		Resume: txtUpload("cv.txt", "Jane Doe\nSQL, Python, 3 years analyst"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, client.calls())

	user := client.prompts[0].User
	assert.Contains(t, user, "RESUME:\nJane Doe\nSQL, Python, 3 years analyst")
	assert.Contains(t, user, "TRANSCRIPT:\nNot provided")
	assert.NotEmpty(t, client.prompts[0].System)

	assert.Equal(t, Text("Analyst"), res.Analysis.CurrentProfile.CurrentRole)
	assert.Equal(t, Years(3), res.Analysis.CurrentProfile.YearsExperience)
	assert.Equal(t, "stub", res.Provider)
	assert.Equal(t, extract.FormatText, res.Resume.Format)
}

func TestAnalyzeTranscriptOnly(t *testing.T) {
	client := &stubClient{reply: minimalReply}
	_, err := newStubService(client).Analyze(context.Background(), Input{TranscriptText: "CS101 A"})
	require.NoError(t, err)
	user := client.prompts[0].User
	assert.Contains(t, user, "RESUME:\nNot provided")
	assert.Contains(t, user, "TRANSCRIPT:\nCS101 A")
}

func TestAnalyzeFileTextWinsOverPasted(t *testing.T) {
	client := &stubClient{reply: minimalReply}
	_, err := newStubService(client).Analyze(context.Background(), Input{
		Resume:     txtUpload("cv.txt", "from file"),
		ResumeText: "from paste",
	})
	require.NoError(t, err)
	user := client.prompts[0].User
	assert.Contains(t, user, "from file")
	assert.NotContains(t, user, "from paste")
}

func TestAnalyzePastedTextUsedWhenFileEmpty(t *testing.T) {
	client := &stubClient{reply: minimalReply}
	res, err := newStubService(client).Analyze(context.Background(), Input{
		Resume:     &extract.UploadedDocument{Filename: "cv.png", Data: []byte("png")},
		ResumeText: "from paste",
	})
	require.NoError(t, err)
	assert.Contains(t, client.prompts[0].User, "from paste")
	assert.NotEmpty(t, res.Resume.Warning)
}

func TestAnalyzeTruncatesEachSection(t *testing.T) {
	client := &stubClient{reply: minimalReply}
	long := strings.Repeat("é", 10000)
	res, err := NewService(nil, client, 4000).Analyze(context.Background(), Input{
		ResumeText:     long,
		TranscriptText: long,
	})
	require.NoError(t, err)

	user := client.prompts[0].User
	assert.Equal(t, 8000, strings.Count(user, "é"))
	assert.Equal(t, 4000, res.Resume.TruncatedLength)
	assert.Equal(t, 4000, res.Transcript.TruncatedLength)
}

func TestAnalyzeDefaultTruncation(t *testing.T) {
	svc := NewService(nil, &stubClient{}, 0)
	assert.Equal(t, DefaultTruncateChars, svc.TruncateChars)
}

func TestAnalyzePropagatesUpstreamError(t *testing.T) {
	client := &stubClient{err: &llm.UpstreamError{Provider: "deepseek", StatusCode: 503}}
	_, err := newStubService(client).Analyze(context.Background(), Input{ResumeText: "x"})
	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 503, upstream.StatusCode)
}

func TestAnalyzeMalformedReply(t *testing.T) {
	client := &stubClient{reply: "Sorry, I cannot do that."}
	_, err := newStubService(client).Analyze(context.Background(), Input{ResumeText: "x"})
	require.ErrorIs(t, err, ErrMalformedOutput)
}

func TestAnalyzeEmptyReplyIsMalformed(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("deepseek response: %w", llm.ErrEmptyReply)}
	_, err := newStubService(client).Analyze(context.Background(), Input{ResumeText: "x"})
	require.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, "malformed_output", failureReason(err))
}

func TestAnalyzeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &stubClient{reply: minimalReply}
	_, err := newStubService(client).Analyze(ctx, Input{Resume: txtUpload("cv.txt", "x")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.calls())
}

func TestAnalyzeWithFixtureClient(t *testing.T) {
	res, err := NewService(nil, llm.NewFixtureClient(), 0).Analyze(context.Background(), Input{ResumeText: "anything"})
	require.NoError(t, err)
	assert.Len(t, res.Analysis.CareerPaths, 3)
	assert.Equal(t, "mock", res.Provider)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "no_input", failureReason(ErrNoInput))
	assert.Equal(t, "malformed_output", failureReason(malformed("x", "bad", nil)))
	assert.Equal(t, "upstream_status", failureReason(&llm.UpstreamError{StatusCode: 500}))
	assert.Equal(t, "timeout", failureReason(context.DeadlineExceeded))
	assert.Equal(t, "internal", failureReason(errors.New("boom")))
}
