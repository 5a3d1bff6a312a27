package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/civic-issues/internal/bootstrap"
	"github.com/kirillkom/civic-issues/internal/config"
	"github.com/kirillkom/civic-issues/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "issuectl",
		Short:         "Operate the civic issue reporter from the command line",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), "issuectl", logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	root.AddCommand(newExtractCmd(), newImportCmd(), newUserCmd())
	return root
}

func openApp(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.New(ctx, config.Load(), bootstrap.Options{Service: "issuectl"})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
