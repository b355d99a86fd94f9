// Package cli defines the quizroom command line.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quizroom/internal/config"
	"quizroom/internal/logger"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quizroom",
		Short:         "Multiplayer quiz rooms with a shared question bank",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config (optional)")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newSweepCmd(&configPath))
	cmd.AddCommand(newIndexesCmd(&configPath))
	return cmd
}

// load reads the configuration and builds the root logger from it
func load(path string) (config.Config, *zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger.New(cfg.Log), nil
}
