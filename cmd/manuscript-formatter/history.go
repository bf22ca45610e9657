// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manuscript-formatter/internal/history"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past formatting runs",
	Long: `History lists the most recent formatting runs recorded in the history
database, newest first. Given a run id, it prints that run's report and
citations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		run, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		writeRun(cmd.OutOrStdout(), run)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	writeRuns(cmd.OutOrStdout(), runs)
	return nil
}

func writeRuns(w io.Writer, runs []types.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-9s  %-30s  %s\n", "ID", "Started", "Status", "Input", "Fig/Tab/Cit")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		input := filepath.Base(r.InputPath)
		if len(input) > 30 {
			input = input[:27] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-9s  %-30s  %d/%d/%d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status, input,
			r.Report.Figures, r.Report.Tables, r.Report.Citations)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

func writeRun(w io.Writer, r *types.RunRecord) {
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Input:    %s\n", r.InputPath)
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Output:   %s\n", r.OutputPath)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}
	fmt.Fprintf(w, "Template: %dpt, %s, figures %.1fin\n",
		r.Config.FontSize, r.Config.LineSpacing, r.Config.FigureWidth)
	fmt.Fprintf(w, "Found:    %d figures, %d tables, %d citations\n",
		r.Report.Figures, r.Report.Tables, r.Report.Citations)
	fmt.Fprintf(w, "Placed:   %d figures, %d tables, %d placeholders, %d missing\n",
		r.Report.PlacedFigures, r.Report.PlacedTables, r.Report.Placeholders, r.Report.SkippedCitations)
	for _, warning := range r.Report.Warnings {
		fmt.Fprintf(w, "Warning:  %s\n", warning)
	}
	if len(r.Citations) > 0 {
		fmt.Fprintln(w)
		writeCitations(w, r.Citations)
	}
}
