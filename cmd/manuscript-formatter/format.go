// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/internal/container"
	"github.com/pdiddy/manuscript-formatter/internal/history"
	"github.com/pdiddy/manuscript-formatter/internal/manuscript"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

var formatCmd = &cobra.Command{
	Use:   "format [manuscripts...]",
	Short: "Format manuscripts to the journal template",
	Long: `Format reads each manuscript, reflows its figures and tables next to
their first citation, and writes formatted_<name> next to the input in the
same format. With one input, --output names the output file and its
extension selects the output format. With several inputs, --output is a
directory and the manuscripts are formatted in parallel.

Existing outputs are skipped unless --force is set.`,
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().StringP("output", "o", "", "output file (one input) or directory (several inputs)")
	formatCmd.Flags().Int("font-size", 0, "body font size in points: 10, 11 or 12")
	formatCmd.Flags().String("line-spacing", "", `body line spacing: "Single", "1.5 lines" or "Double"`)
	formatCmd.Flags().Float64("figure-width", 0, "figure width in inches, 3.0 to 7.0")
	formatCmd.Flags().Bool("pdf", false, "also write a PDF proof")
	formatCmd.Flags().Int("jobs", 0, "manuscripts formatted in parallel")
	formatCmd.Flags().Bool("force", false, "overwrite existing outputs")
	formatCmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	_ = viper.BindPFlag("format.font_size", formatCmd.Flags().Lookup("font-size"))
	_ = viper.BindPFlag("format.line_spacing", formatCmd.Flags().Lookup("line-spacing"))
	_ = viper.BindPFlag("format.figure_width", formatCmd.Flags().Lookup("figure-width"))
	_ = viper.BindPFlag("output.pdf_proof", formatCmd.Flags().Lookup("pdf"))
	_ = viper.BindPFlag("batch.jobs", formatCmd.Flags().Lookup("jobs"))

	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more manuscripts (.docx or .md)")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.Format.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	opts := manuscript.Options{
		Format:        cfg.Format,
		MaxInputBytes: int64(cfg.Source.MaxSizeMB) << 20,
		PDFProof:      cfg.Output.PDFProof,
		Force:         force,
		Log:           logger,
	}

	if cfg.Legacy.Enabled {
		conv, err := legacyConverter(ctx, cfg.Legacy)
		if err != nil {
			return err
		}
		opts.Legacy = conv
	}

	if cfg.History.Enabled && !noHistory {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			logger.Warn("run history disabled", zap.String("path", cfg.History.DBPath), zap.Error(err))
		} else {
			defer store.Close()
			opts.History = store
		}
	}

	if len(args) == 1 {
		opts.OutputPath = output
		res, err := manuscript.FormatFile(ctx, args[0], opts)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), res)
		return nil
	}

	opts.OutputDir = output
	result := manuscript.FormatBatch(ctx, args, cfg.Batch.Jobs, opts, cmd.ErrOrStderr())
	for _, f := range result.Files {
		if f.Status == types.RunFormatted {
			printSummary(cmd.OutOrStdout(), f)
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d manuscript(s) failed formatting", result.Failed)
	}
	return nil
}

// legacyConverter connects to the local container runtime for .doc inputs.
func legacyConverter(ctx context.Context, cfg types.LegacyConfig) (manuscript.LegacyConverter, error) {
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return nil, fmt.Errorf("legacy conversion enabled: %w", err)
	}
	conv, err := container.NewSofficeConverter(ctx, rt, cfg.Image, logger)
	if err != nil {
		return nil, fmt.Errorf("legacy conversion enabled: %w", err)
	}
	return conv, nil
}
