package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Narevka/toknowai/internal/config"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "toknowai",
		Short: "Course transcript service for the ToKnowAI platform",
		Long: `ToKnowAI segments raw Mux word-level transcripts into displayable
captions, caches them in postgres, and serves them alongside the course
catalog over HTTP.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newSegmentCommand())
	root.AddCommand(newReprocessCommand())
	return root
}

// loadConfig reads the configured YAML file and installs the default logger
// at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	return cfg, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
