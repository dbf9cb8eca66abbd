package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is the decoder selected for an upload, derived from its extension.
type Format string

const (
	FormatText    Format = "txt"
	FormatDOCX    Format = "docx"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat is returned by ExtractTextFromBytes for unrecognized extensions.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// FormatFromName maps a filename to a decoder. Content is never sniffed.
func FormatFromName(fileName string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".txt":
		return FormatText
	case ".docx", ".doc":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// ExtractTextFromBytes extracts text from an in-memory payload.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
// Decoder panics on malformed input are returned as errors.
func ExtractTextFromBytes(ctx context.Context, data []byte, fileName string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format := FormatFromName(fileName)

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%s decoder panic: %v", format, rec)
		}
	}()

	switch format {
	case FormatText:
		return string(data), nil
	case FormatDOCX:
		return extractDOCX(data)
	case FormatPDF:
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func extractPDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(buf.String())
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
