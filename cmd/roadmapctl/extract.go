package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"career-backend/internal/extract"
)

func newExtractCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a .txt, .docx or .pdf file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0], extract.Resume)
			if err != nil {
				return err
			}
			res := extract.NewExtractor().Extract(cmd.Context(), *doc)
			if res.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Warning)
			}
			fmt.Fprintln(cmd.OutOrStdout(), extract.Truncate(res.Text, limit))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Truncate output to this many characters (0 = no limit)")
	return cmd
}

// readDocument loads path as an upload. An empty path returns nil.
func readDocument(path string, kind extract.DocumentKind) (*extract.UploadedDocument, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return &extract.UploadedDocument{
		Kind:              kind,
		Filename:          filepath.Base(path),
		Data:              data,
		DeclaredSizeBytes: int64(len(data)),
	}, nil
}
