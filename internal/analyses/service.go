package analyses

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"career-backend/internal/extract"
	"career-backend/internal/llm"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

const DefaultTruncateChars = 5000

// Input is one analysis request. A file upload takes precedence over the
// pasted text for the same slot unless the file yields no text.
type Input struct {
	Resume         *extract.UploadedDocument
	Transcript     *extract.UploadedDocument
	ResumeText     string
	TranscriptText string
	RequestID      string
}

// Result is a completed analysis plus the extraction details behind it.
type Result struct {
	Analysis   CareerAnalysis
	Resume     extract.ExtractedText
	Transcript extract.ExtractedText
	Provider   string
}

// Service runs the extract, prompt, complete, normalize pipeline. It holds
// no per-request state.
type Service struct {
	Extractor     *extract.Extractor
	Client        llm.Client
	TruncateChars int
}

// NewService constructs a Service. A non-positive truncateChars selects the default.
func NewService(extractor *extract.Extractor, client llm.Client, truncateChars int) *Service {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	if truncateChars <= 0 {
		truncateChars = DefaultTruncateChars
	}
	return &Service{Extractor: extractor, Client: client, TruncateChars: truncateChars}
}

// Analyze produces a CareerAnalysis for in. It returns ErrNoInput before
// any model call when both sources are empty.
func (s *Service) Analyze(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	metrics.IncAnalysisStarted()

	res, err := s.analyze(ctx, in)
	metrics.ObserveAnalysisDuration(time.Since(start))

	fields := map[string]any{
		"request_id":     in.RequestID,
		"provider":       s.Client.Provider(),
		"resume_len":     res.Resume.TruncatedLength,
		"transcript_len": res.Transcript.TruncatedLength,
		"duration_ms":    time.Since(start).Milliseconds(),
	}
	if err != nil {
		reason := failureReason(err)
		metrics.IncAnalysisFailed(reason)
		fields["reason"] = reason
		fields["error"] = err
		var mal *MalformedOutputError
		if errors.As(err, &mal) {
			fields["raw_len"] = len(mal.Raw)
			fields["raw_head"] = head(mal.Raw, 200)
		}
		telemetry.Error("analysis.failed", fields)
		return res, err
	}

	metrics.IncAnalysisCompleted()
	fields["career_paths"] = len(res.Analysis.CareerPaths)
	telemetry.Info("analysis.completed", fields)
	return res, nil
}

func (s *Service) analyze(ctx context.Context, in Input) (Result, error) {
	res := Result{Provider: s.Client.Provider()}

	// Each goroutine writes only its own slot; Wait orders the writes
	// before the reads below.
	g, gctx := errgroup.WithContext(ctx)
	var resumeDoc, transcriptDoc extract.ExtractedText
	if in.Resume != nil {
		doc := *in.Resume
		doc.Kind = extract.Resume
		g.Go(func() error {
			resumeDoc = s.Extractor.Extract(gctx, doc)
			return nil
		})
	}
	if in.Transcript != nil {
		doc := *in.Transcript
		doc.Kind = extract.Transcript
		g.Go(func() error {
			transcriptDoc = s.Extractor.Extract(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Resume = pickText(resumeDoc, in.ResumeText, extract.Resume, s.TruncateChars)
	res.Transcript = pickText(transcriptDoc, in.TranscriptText, extract.Transcript, s.TruncateChars)

	if strings.TrimSpace(res.Resume.Text) == "" && strings.TrimSpace(res.Transcript.Text) == "" {
		return res, ErrNoInput
	}

	prompt := llm.BuildPrompt(res.Resume.Text, res.Transcript.Text, s.TruncateChars)
	raw, err := s.Client.Complete(ctx, prompt)
	if errors.Is(err, llm.ErrEmptyReply) {
		return res, malformed("", "empty reply", err)
	}
	if err != nil {
		return res, err
	}

	analysis, err := Normalize(raw)
	if err != nil {
		return res, err
	}
	res.Analysis = analysis
	return res, nil
}

// pickText returns the extracted file text, or the pasted text when the
// file is absent or yielded nothing.
func pickText(fromFile extract.ExtractedText, pasted string, kind extract.DocumentKind, limit int) extract.ExtractedText {
	out := fromFile
	if strings.TrimSpace(out.Text) == "" && strings.TrimSpace(pasted) != "" {
		out = extract.ExtractedText{
			SourceKind: kind,
			Format:     extract.FormatText,
			Text:       pasted,
			Warning:    fromFile.Warning,
		}
	}
	out.SourceKind = kind
	out.TruncatedLength = utf8.RuneCountInString(extract.Truncate(out.Text, limit))
	return out
}

func failureReason(err error) string {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, ErrNoInput):
		return "no_input"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	case errors.As(err, &upstream):
		return "upstream_status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return extract.Truncate(s, n) + "..."
}
