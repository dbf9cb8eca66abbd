package llm

import (
	_ "embed"
	"strings"

	"career-backend/internal/extract"
)

const notProvided = "Not provided"

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/analysis.txt
	analysisTemplate string
)

// BuildPrompt assembles the system instruction and the user message. Each
// text block is cut to limit characters on a rune boundary; empty blocks
// become the literal "Not provided".
func BuildPrompt(resumeText, transcriptText string, limit int) Prompt {
	replacer := strings.NewReplacer(
		"{{RESUME}}", section(resumeText, limit),
		"{{TRANSCRIPT}}", section(transcriptText, limit),
	)
	return Prompt{
		System: strings.TrimSpace(systemPrompt),
		User:   replacer.Replace(strings.TrimRight(analysisTemplate, "\r\n")),
	}
}

func section(text string, limit int) string {
	truncated := extract.Truncate(text, limit)
	if strings.TrimSpace(truncated) == "" {
		return notProvided
	}
	return truncated
}
