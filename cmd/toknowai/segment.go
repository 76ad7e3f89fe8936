package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Narevka/toknowai/pkg/caption"
)

func newSegmentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "segment <raw-transcript.json>",
		Short: "Segment a raw transcript file and print the captions as JSON",
		Long: `Reads a raw Mux word-level transcript file ("-" for stdin), runs the
segmenter over it, and prints the resulting caption segments as JSON on
stdout. Runs fully offline; no configuration is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd.OutOrStdout(), args[0])
		},
	}
}

func runSegment(out io.Writer, path string) error {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("segment: read %q: %w", path, err)
	}

	segments, err := caption.FromRaw(raw)
	if err != nil {
		return fmt.Errorf("segment: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(segments); err != nil {
		return fmt.Errorf("segment: encode output: %w", err)
	}
	return nil
}
