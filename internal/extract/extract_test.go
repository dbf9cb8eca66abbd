package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"unicode/utf8"
)

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": documentRels,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestFormatFromName(t *testing.T) {
	cases := map[string]Format{
		"resume.txt":      FormatText,
		"Resume.TXT":      FormatText,
		"cv.docx":         FormatDOCX,
		"legacy.doc":      FormatDOCX,
		"transcript.pdf":  FormatPDF,
		"photo.png":       FormatUnknown,
		"no-extension":    FormatUnknown,
		"archive.pdf.zip": FormatUnknown,
	}
	for name, want := range cases {
		if got := FormatFromName(name); got != want {
			t.Fatalf("FormatFromName(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestExtractTextFromBytes_TextRoundTrip(t *testing.T) {
	inputs := []string{
		"5 years Python backend engineer",
		"  leading and trailing whitespace\n\n",
		"Ünïcödé résumé — 日本語 ✓",
		"",
	}
	for _, in := range inputs {
		got, err := ExtractTextFromBytes(context.Background(), []byte(in), "resume.txt")
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != in {
			t.Fatalf("round trip mismatch: got %q want %q", got, in)
		}
	}
}

func TestExtractTextFromBytes_Docx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Data Analyst</w:t><w:tab/><w:t>2019</w:t></w:r></w:p>`)

	got, err := ExtractTextFromBytes(context.Background(), data, "cv.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if got != "Jane Doe\nData Analyst\t2019" {
		t.Fatalf("unexpected docx text: %q", got)
	}
}

func TestExtractTextFromBytes_PDF(t *testing.T) {
	data, err := os.ReadFile("testdata/transcript.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	got, err := ExtractTextFromBytes(context.Background(), data, "transcript.pdf")
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	if got != "Jane Doe\nCS101 Intro to Programming A" {
		t.Fatalf("unexpected pdf text: %q", got)
	}
}

func TestExtractorPDF(t *testing.T) {
	data, err := os.ReadFile("testdata/transcript.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	got := NewExtractor().Extract(context.Background(), UploadedDocument{
		Kind:     Transcript,
		Filename: "Transcript.PDF",
		Data:     data,
	})
	if got.Format != FormatPDF || got.Warning != "" {
		t.Fatalf("unexpected extraction: %+v", got)
	}
	if !strings.Contains(got.Text, "CS101 Intro to Programming A") {
		t.Fatalf("expected course line in text, got %q", got.Text)
	}
}

func TestExtractTextFromBytes_UnsupportedExtension(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("hello"), "notes.rtf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextFromBytes_CorruptInputs(t *testing.T) {
	cases := map[string][]byte{
		"broken.pdf":  []byte("%PDF-1.4 this is not really a pdf"),
		"broken.docx": []byte("PK not a zip"),
		"legacy.doc":  {0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
		"empty.pdf":   nil,
	}
	for name, data := range cases {
		if _, err := ExtractTextFromBytes(context.Background(), data, name); err == nil {
			t.Fatalf("expected error for %s", name)
		}
	}
}

func TestExtractTextFromBytes_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractTextFromBytes(ctx, []byte("x"), "a.txt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractorAbsorbsFailures(t *testing.T) {
	e := NewExtractor()

	got := e.Extract(context.Background(), UploadedDocument{
		Kind:     Transcript,
		Filename: "transcript.pdf",
		Data:     []byte("garbage"),
	})
	if got.Text != "" {
		t.Fatalf("expected empty text for corrupt pdf, got %q", got.Text)
	}
	if got.Warning == "" {
		t.Fatalf("expected warning to be recorded")
	}
	if got.SourceKind != Transcript || got.Format != FormatPDF {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	unknown := e.Extract(context.Background(), UploadedDocument{
		Kind:     Resume,
		Filename: "resume.pages",
		Data:     []byte("anything"),
	})
	if unknown.Text != "" || unknown.Format != FormatUnknown {
		t.Fatalf("expected empty unknown extraction, got %+v", unknown)
	}
}

func TestExtractorText(t *testing.T) {
	got := NewExtractor().Extract(context.Background(), UploadedDocument{
		Kind:     Resume,
		Filename: "resume.txt",
		Data:     []byte("5 years Python backend engineer"),
	})
	if got.Text != "5 years Python backend engineer" || got.Warning != "" {
		t.Fatalf("unexpected extraction: %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := Truncate("abcdef", 0); got != "abcdef" {
		t.Fatalf("expected zero limit to disable truncation, got %q", got)
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("é", 9999) + "日"
	for _, limit := range []int{1, 4000, 5000, 9999, 10000} {
		got := Truncate(text, limit)
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d produced invalid UTF-8", limit)
		}
		if n := utf8.RuneCountInString(got); n != limit {
			t.Fatalf("limit %d produced %d runes", limit, n)
		}
	}
}
