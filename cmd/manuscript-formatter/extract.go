// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/internal/manuscript"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// extraction is the dump written by the extract command. Image bytes are
// never included.
type extraction struct {
	Source    string              `json:"source" yaml:"source"`
	Model     *types.ContentModel `json:"model" yaml:"model"`
	Citations []types.Citation    `json:"citations" yaml:"citations"`
	Report    *types.RunReport    `json:"report" yaml:"report"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <manuscript>",
	Short: "Dump the content model and citations of a manuscript",
	Long: `Extract reads a manuscript and prints what the formatter found: title,
authors, abstract, body paragraphs, references, figures (without image
bytes), tables and the figure and table citations in the body.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var citationsCmd = &cobra.Command{
	Use:   "citations <manuscript>",
	Short: "List the figure and table citations in a manuscript",
	Args:  cobra.ExactArgs(1),
	RunE:  runCitations,
}

func init() {
	extractCmd.Flags().String("format", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(citationsCmd)
}

func analyze(cmd *cobra.Command, path string) (*extraction, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	opts := manuscript.Options{
		MaxInputBytes: int64(cfg.Source.MaxSizeMB) << 20,
		Log:           logger,
	}
	loaded, err := manuscript.Load(cmd.Context(), path, opts)
	if err != nil {
		return nil, err
	}
	defer loaded.Doc.Close()

	model, citations, report, err := extract.Analyze(loaded.Doc, logger)
	if err != nil {
		return nil, err
	}
	return &extraction{Source: path, Model: model, Citations: citations, Report: report}, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	ex, err := analyze(cmd, args[0])
	if err != nil {
		return err
	}
	return writeExtraction(cmd.OutOrStdout(), ex, format)
}

func writeExtraction(w io.Writer, ex *extraction, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ex)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ex); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func runCitations(cmd *cobra.Command, args []string) error {
	ex, err := analyze(cmd, args[0])
	if err != nil {
		return err
	}
	writeCitations(cmd.OutOrStdout(), ex.Citations)
	return nil
}

func writeCitations(w io.Writer, citations []types.Citation) {
	if len(citations) == 0 {
		fmt.Fprintln(w, "No citations found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-9s  %s\n", "#", "Citation", "Paragraph", "Context")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, c := range citations {
		snippet := c.Context
		if len(snippet) > 50 {
			snippet = snippet[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-9d  %s\n", i+1, c.Label(), c.Position, snippet)
	}
	fmt.Fprintf(w, "\n%d citations\n", len(citations))
}
