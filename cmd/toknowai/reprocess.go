package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Narevka/toknowai/internal/source"
	"github.com/Narevka/toknowai/internal/store/postgres"
	"github.com/Narevka/toknowai/internal/transcripts"
)

func newReprocessCommand() *cobra.Command {
	var sourceFile string

	cmd := &cobra.Command{
		Use:   "reprocess <playback-id>",
		Short: "Recompute a stored transcript from its raw source",
		Long: `Fetches the raw transcript for the given Mux playback ID, segments it
again, and replaces whatever the store holds. Use after the source file was
corrected or the segmentation rules changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.PostgresDSN == "" {
				return errors.New("reprocess: storage.postgres_dsn is required")
			}
			if cfg.Source.BaseURL == "" {
				return errors.New("reprocess: source.base_url is required")
			}

			ctx := cmd.Context()
			st, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("reprocess: open store: %w", err)
			}
			defer st.Close()

			var fetchOpts []source.Option
			if d := cfg.Source.Timeout.Std(); d > 0 {
				fetchOpts = append(fetchOpts, source.WithTimeout(d))
			}
			fetcher, err := source.New(cfg.Source.BaseURL, fetchOpts...)
			if err != nil {
				return fmt.Errorf("reprocess: build fetcher: %w", err)
			}

			playbackID := args[0]
			resolver := transcripts.NewResolver(st, fetcher, slog.Default(), nil)
			segments := resolver.Recompute(ctx, playbackID, sourceFile)
			if len(segments) == 0 {
				return fmt.Errorf("reprocess: no segments produced for %q (see logs)", playbackID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %d segments for %s\n", len(segments), playbackID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFile, "source", "", "raw transcript source file (e.g. 2.json)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
