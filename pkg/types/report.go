// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// RunReport summarises one pipeline run: what was found, what was placed,
// and every non-fatal problem encountered along the way.
type RunReport struct {
	Paragraphs     int `json:"paragraphs" yaml:"paragraphs"`
	BodyParagraphs int `json:"body_paragraphs" yaml:"body_paragraphs"`
	Figures        int `json:"figures" yaml:"figures"`
	Tables         int `json:"tables" yaml:"tables"`
	Citations      int `json:"citations" yaml:"citations"`

	PlacedFigures int `json:"placed_figures" yaml:"placed_figures"`
	PlacedTables  int `json:"placed_tables" yaml:"placed_tables"`
	Placeholders  int `json:"placeholders" yaml:"placeholders"`

	// SkippedCitations counts citations whose asset was never extracted.
	// They produce no block and no placeholder.
	SkippedCitations int `json:"skipped_citations" yaml:"skipped_citations"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Warn records a non-fatal problem.
func (r *RunReport) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// HasWarnings reports whether any non-fatal problem was recorded.
func (r *RunReport) HasWarnings() bool {
	return len(r.Warnings) > 0
}
