package extract

import (
	"context"
	"errors"

	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/shared/util"
)

// DocumentKind is the role an upload plays in an analysis.
type DocumentKind string

const (
	Resume     DocumentKind = "resume"
	Transcript DocumentKind = "transcript"
)

// UploadedDocument is a single request-scoped upload. It is never persisted.
type UploadedDocument struct {
	Kind              DocumentKind
	Filename          string
	Data              []byte
	DeclaredSizeBytes int64
}

// ExtractedText is the plain text derived from an UploadedDocument.
// Warning is set when extraction degraded to empty text.
type ExtractedText struct {
	SourceKind      DocumentKind
	Filename        string
	Format          Format
	Text            string
	TruncatedLength int
	Warning         string
}

// Extractor converts uploads to text. Decoder failures never escape Extract;
// they degrade to empty text plus a logged warning.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs a single extraction attempt for doc.
func (e *Extractor) Extract(ctx context.Context, doc UploadedDocument) ExtractedText {
	format := FormatFromName(doc.Filename)
	out := ExtractedText{
		SourceKind: doc.Kind,
		Filename:   doc.Filename,
		Format:     format,
	}

	text, err := ExtractTextFromBytes(ctx, doc.Data, doc.Filename)
	fields := map[string]any{
		"filename":       logName(doc.Filename),
		"kind":           string(format),
		"source":         string(doc.Kind),
		"declared_bytes": doc.DeclaredSizeBytes,
		"bytes":          len(doc.Data),
	}
	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrUnsupportedFormat) {
			outcome = "unsupported"
		}
		out.Warning = err.Error()
		fields["err"] = err.Error()
		fields["outcome"] = outcome
		telemetry.Warn("extract.warning", fields)
		metrics.IncExtraction(string(format), outcome)
		return out
	}

	out.Text = text
	fields["chars"] = len([]rune(text))
	telemetry.Info("extract.document", fields)
	if text == "" {
		metrics.IncExtraction(string(format), "empty")
	} else {
		metrics.IncExtraction(string(format), "ok")
	}
	return out
}

func logName(name string) string {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "(invalid)"
	}
	return clean
}
