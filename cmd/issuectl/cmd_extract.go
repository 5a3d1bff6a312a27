package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/civic-issues/internal/bootstrap"
	"github.com/kirillkom/civic-issues/internal/config"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image>",
		Short: "Read GPS coordinates and timestamp from a watermarked photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := bootstrap.NewExtractor(cmd.Context(), config.Load(), nil)
			if err != nil {
				return err
			}
			result, err := extractor.ExtractWatermarkData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
