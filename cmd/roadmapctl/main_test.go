package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractCommandPrintsText(t *testing.T) {
	path := writeFile(t, "cv.txt", "Jane Doe\nData Analyst")
	out, _, err := run(t, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nData Analyst\n", out)
}

func TestExtractCommandLimit(t *testing.T) {
	path := writeFile(t, "cv.txt", "abcdef")
	out, _, err := run(t, "extract", "--limit", "3", path)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)
}

func TestExtractCommandUnsupportedWarns(t *testing.T) {
	path := writeFile(t, "photo.png", "png")
	out, errOut, err := run(t, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
	assert.Contains(t, errOut, "warning:")
}

func TestExtractCommandRequiresArg(t *testing.T) {
	_, _, err := run(t, "extract")
	require.Error(t, err)
}

func TestPromptCommand(t *testing.T) {
	path := writeFile(t, "cv.txt", "SQL analyst")
	out, _, err := run(t, "prompt", "--resume", path, "--transcript-text", "CS101")
	require.NoError(t, err)
	assert.Contains(t, out, "=== SYSTEM ===")
	assert.Contains(t, out, "RESUME:\nSQL analyst")
	assert.Contains(t, out, "TRANSCRIPT:\nCS101")
}

func TestAnalyzeCommandMockMode(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("LLM_API_KEY", "")
	outPath := filepath.Join(t.TempDir(), "analysis.json")

	_, _, err := run(t, "analyze", "-q", "--resume-text", "SQL analyst", "--out", outPath)
	require.NoError(t, err)

	payload, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Contains(t, got, "currentProfile")
	assert.Contains(t, got, "careerPaths")
}

func TestAnalyzeCommandNoInput(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	_, _, err := run(t, "analyze", "-q")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "resume"), err.Error())
}
