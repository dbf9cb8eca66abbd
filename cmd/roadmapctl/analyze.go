package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"career-backend/internal/analyses"
	"career-backend/internal/bootstrap"
	"career-backend/internal/extract"
	"career-backend/internal/llm"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/telemetry"
)

type inputFlags struct {
	resumePath     string
	transcriptPath string
	resumeText     string
	transcriptText string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.resumePath, "resume", "r", "", "Path to resume file (.txt, .docx, .pdf)")
	cmd.Flags().StringVarP(&f.transcriptPath, "transcript", "t", "", "Path to transcript file (.txt, .docx, .pdf)")
	cmd.Flags().StringVar(&f.resumeText, "resume-text", "", "Resume text used when no resume file is given")
	cmd.Flags().StringVar(&f.transcriptText, "transcript-text", "", "Transcript text used when no transcript file is given")
}

func (f *inputFlags) input() (analyses.Input, error) {
	resume, err := readDocument(f.resumePath, extract.Resume)
	if err != nil {
		return analyses.Input{}, err
	}
	transcript, err := readDocument(f.transcriptPath, extract.Transcript)
	if err != nil {
		return analyses.Input{}, err
	}
	return analyses.Input{
		Resume:         resume,
		Transcript:     transcript,
		ResumeText:     f.resumeText,
		TranscriptText: f.transcriptText,
	}, nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		flags   inputFlags
		outPath string
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a full career analysis and print the normalized JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if quiet {
				telemetry.SetLevel("error")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, err := bootstrap.BuildLLMClient(cfg)
			if err != nil {
				return err
			}
			in, err := flags.input()
			if err != nil {
				return err
			}

			svc := analyses.NewService(extract.NewExtractor(), client, cfg.PromptTruncateChars)
			res, err := svc.Analyze(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			payload, err := json.MarshalIndent(res.Analysis, "", "  ")
			if err != nil {
				return err
			}
			if outPath != "" {
				return os.WriteFile(outPath, payload, 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the analysis JSON to this file instead of stdout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	return cmd
}

func newPromptCmd() *cobra.Command {
	var (
		flags inputFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the assembled model prompt without calling any API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}
			extractor := extract.NewExtractor()
			resume, transcript := in.ResumeText, in.TranscriptText
			if in.Resume != nil {
				if text := extractor.Extract(cmd.Context(), *in.Resume).Text; text != "" {
					resume = text
				}
			}
			if in.Transcript != nil {
				if text := extractor.Extract(cmd.Context(), *in.Transcript).Text; text != "" {
					transcript = text
				}
			}
			prompt := llm.BuildPrompt(resume, transcript, limit)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== SYSTEM ===")
			fmt.Fprintln(out, prompt.System)
			fmt.Fprintln(out, "=== USER ===")
			fmt.Fprintln(out, prompt.User)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", analyses.DefaultTruncateChars, "Per-section character limit")
	return cmd
}
