// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/manuscript-formatter/internal/manuscript"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	skippedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// printSummary renders the outcome of one formatted manuscript as a box:
// paths, what was found, what was placed, and any warnings.
func printSummary(w io.Writer, res *manuscript.FileResult) {
	fmt.Fprintln(w, summaryBoxStyle.Render(summaryContent(res)))
}

func summaryContent(res *manuscript.FileResult) string {
	var b strings.Builder
	if res.Status == types.RunSkipped {
		b.WriteString(skippedStyle.Render("Skipped"))
		fmt.Fprintf(&b, "\n%s %s\n%s %s already exists",
			labelStyle.Render("Input: "), res.Input,
			labelStyle.Render("Output:"), res.Output)
		return b.String()
	}

	b.WriteString(successStyle.Render("Formatted"))
	fmt.Fprintf(&b, "\n%s %s\n%s %s",
		labelStyle.Render("Input: "), res.Input,
		labelStyle.Render("Output:"), res.Output)
	if res.ProofPath != "" {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Proof: "), res.ProofPath)
	}

	if r := res.Report; r != nil {
		fmt.Fprintf(&b, "\n\n%s %d  %s %d  %s %d",
			labelStyle.Render("Figures found:"), r.Figures,
			labelStyle.Render("Tables found:"), r.Tables,
			labelStyle.Render("Citations:"), r.Citations)
		fmt.Fprintf(&b, "\n%s %d figures, %d tables",
			labelStyle.Render("Placed:"), r.PlacedFigures, r.PlacedTables)
		if r.Placeholders > 0 || r.SkippedCitations > 0 {
			fmt.Fprintf(&b, "\n%s %d  %s %d",
				labelStyle.Render("Placeholders:"), r.Placeholders,
				labelStyle.Render("Missing assets:"), r.SkippedCitations)
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "\n%s %s", warnStyle.Render("!"), warning)
		}
	}
	if res.RunID != "" {
		fmt.Fprintf(&b, "\n\n%s %s", labelStyle.Render("Run:"), res.RunID)
	}
	return b.String()
}
