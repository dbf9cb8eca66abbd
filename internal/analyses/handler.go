package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"career-backend/internal/extract"
	"career-backend/internal/llm"
	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
)

const (
	fieldResume         = "resume"
	fieldTranscript     = "transcript"
	fieldResumeText     = "resumeText"
	fieldTranscriptText = "transcriptText"

	multipartMemory = 8 << 20
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(mw)+1)
	handlers = append(handlers, mw...)
	rg.POST("/analyze", append(handlers, h.analyze)...)
}

type analyzeJSON struct {
	ResumeText     string `json:"resumeText"`
	TranscriptText string `json:"transcriptText"`
}

func (h *Handler) analyze(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	in, err := h.readInput(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge,
				fmt.Sprintf("Upload exceeds the %d byte limit", maxErr.Limit))
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidInput, err.Error())
		return
	}
	in.RequestID = middleware.RequestIDFromContext(c)

	res, err := h.Svc.Analyze(c.Request.Context(), in)
	middleware.SetLogField(c, "provider", res.Provider)
	middleware.SetLogField(c, "resume_chars", res.Resume.TruncatedLength)
	middleware.SetLogField(c, "transcript_chars", res.Transcript.TruncatedLength)
	if err != nil {
		status, code, message := classify(err)
		respond.Error(c, status, code, message)
		return
	}
	respond.OK(c, res.Analysis)
}

func (h *Handler) readInput(c *gin.Context) (Input, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body analyzeJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return Input{}, err
			}
			return Input{}, fmt.Errorf("invalid JSON body")
		}
		return Input{ResumeText: body.ResumeText, TranscriptText: body.TranscriptText}, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Input{}, err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return Input{}, fmt.Errorf("expected multipart/form-data or application/json")
		}
		return Input{}, fmt.Errorf("invalid multipart form")
	}

	in := Input{
		ResumeText:     c.Request.FormValue(fieldResumeText),
		TranscriptText: c.Request.FormValue(fieldTranscriptText),
	}
	var err error
	if in.Resume, err = readUpload(c, fieldResume, extract.Resume); err != nil {
		return Input{}, err
	}
	if in.Transcript, err = readUpload(c, fieldTranscript, extract.Transcript); err != nil {
		return Input{}, err
	}
	return in, nil
}

// readUpload returns nil when the field is absent.
func readUpload(c *gin.Context, field string, kind extract.DocumentKind) (*extract.UploadedDocument, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload", field)
	}
	return &extract.UploadedDocument{
		Kind:              kind,
		Filename:          fh.Filename,
		Data:              data,
		DeclaredSizeBytes: fh.Size,
	}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// classify maps a pipeline error to status, code and client message.
// Raw model output never reaches the client.
func classify(err error) (int, string, string) {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, ErrNoInput):
		return http.StatusBadRequest, ErrorCodeInvalidInput, "Please upload a resume or provide transcript text"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, ErrorCodeUpstream, fmt.Sprintf("Model API error: status %d", upstream.StatusCode)
	case isTimeout(err):
		return http.StatusGatewayTimeout, ErrorCodeUpstreamTimeout, "Model API timed out"
	case errors.Is(err, ErrMalformedOutput):
		return http.StatusBadGateway, ErrorCodeMalformedOutput, "Model returned an unreadable analysis, please retry"
	default:
		return http.StatusInternalServerError, ErrorCodeInternal, "Failed to analyze documents"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
