// Package cmd holds the acodelab maintenance CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/acodelab/backend/acodelab"
	"github.com/acodelab/backend/acodelab/logger"
)

var (
	cfgPath string
	app     *acodelab.App

	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          "acodelab",
	Short:        "AcodeLab gamification engine maintenance tool",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.toml", "path to config")
}

// Execute runs the CLI.
func Execute(v, c string) error {
	version, commit = v, c
	return rootCmd.Execute()
}

// setup loads the config and assembles the application. Commands that
// touch the database call it first.
func setup(ctx context.Context) error {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	cfg, err := acodelab.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	app = acodelab.New(*cfg, version, commit)
	start := time.Now()
	if err := app.Setup(ctx); err != nil {
		return err
	}
	slog.Info("Setup complete", slog.Duration("took", time.Since(start)))
	return nil
}

func teardown(ctx context.Context) {
	if app != nil {
		if err := app.Close(ctx); err != nil {
			slog.Error("Shutdown error", slog.Any("error", err))
		}
	}
}
