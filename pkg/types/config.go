package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FontFamily is the fixed typeface of the output template.
	FontFamily = "Times New Roman"

	// MarginInches is applied to all four page margins.
	MarginInches = 1.0

	// MaxFigureWidth caps the emitted figure width regardless of configuration.
	MaxFigureWidth = 6.5

	// MinFigureWidthSetting and MaxFigureWidthSetting bound FormatConfig.FigureWidth.
	MinFigureWidthSetting = 3.0
	MaxFigureWidthSetting = 7.0
)

// Line spacing labels accepted in configuration.
const (
	SpacingSingle      = "Single"
	SpacingOneAndAHalf = "1.5 lines"
	SpacingDouble      = "Double"
)

var lineSpacingLabels = map[string]float64{
	SpacingSingle:      1.0,
	SpacingOneAndAHalf: 1.5,
	SpacingDouble:      2.0,
}

// ErrInvalidConfig is returned by FormatConfig.Validate.
var ErrInvalidConfig = errors.New("invalid format configuration")

// ParseLineSpacing maps a spacing label ("Single", "1.5 lines", "Double")
// to its multiple. Matching is case-insensitive.
func ParseLineSpacing(label string) (float64, error) {
	for name, v := range lineSpacingLabels {
		if strings.EqualFold(strings.TrimSpace(label), name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown line spacing %q (want %q, %q or %q)",
		ErrInvalidConfig, label, SpacingSingle, SpacingOneAndAHalf, SpacingDouble)
}

// FormatConfig holds the template settings the renderer consumes. The core
// passes it through unchanged apart from figure sizing.
type FormatConfig struct {
	// FontSize is the body font size in points: 10, 11 or 12.
	FontSize int `json:"font_size" yaml:"font_size" mapstructure:"font_size"`

	// LineSpacing is the body line spacing label: Single, 1.5 lines or Double.
	LineSpacing string `json:"line_spacing" yaml:"line_spacing" mapstructure:"line_spacing"`

	// FigureWidth is the requested figure width in inches, 3.0 to 7.0.
	FigureWidth float64 `json:"figure_width" yaml:"figure_width" mapstructure:"figure_width"`
}

// DefaultFormatConfig returns the journal defaults: 12pt, double spacing, 6in figures.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		FontSize:    12,
		LineSpacing: SpacingDouble,
		FigureWidth: 6.0,
	}
}

// Validate checks every setting against its allowed range.
func (c FormatConfig) Validate() error {
	switch c.FontSize {
	case 10, 11, 12:
	default:
		return fmt.Errorf("%w: font size %d (want 10, 11 or 12)", ErrInvalidConfig, c.FontSize)
	}
	if _, err := ParseLineSpacing(c.LineSpacing); err != nil {
		return err
	}
	if c.FigureWidth < MinFigureWidthSetting || c.FigureWidth > MaxFigureWidthSetting {
		return fmt.Errorf("%w: figure width %.2f (want %.1f-%.1f inches)",
			ErrInvalidConfig, c.FigureWidth, MinFigureWidthSetting, MaxFigureWidthSetting)
	}
	return nil
}

// LineSpacingMultiple returns the numeric spacing, defaulting to double
// spacing for an unknown label.
func (c FormatConfig) LineSpacingMultiple() float64 {
	v, err := ParseLineSpacing(c.LineSpacing)
	if err != nil {
		return 2.0
	}
	return v
}

// SourceConfig holds input policy settings.
type SourceConfig struct {
	// MaxSizeMB is the largest accepted input file (default 50).
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	// PDFProof writes a PDF proof next to the formatted document.
	PDFProof bool `json:"pdf_proof" yaml:"pdf_proof" mapstructure:"pdf_proof"`
}

// HistoryConfig holds settings for the run history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// BatchConfig holds settings for multi-document runs.
type BatchConfig struct {
	// Jobs is the number of documents formatted in parallel (default 4).
	Jobs int `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
}

// LegacyConfig controls conversion of legacy Word (.doc) files through a
// LibreOffice container image.
type LegacyConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Image   string `json:"image" yaml:"image" mapstructure:"image"`
}

// AppConfig groups all settings of the formatter.
type AppConfig struct {
	Format  FormatConfig  `json:"format" yaml:"format" mapstructure:"format"`
	Source  SourceConfig  `json:"source" yaml:"source" mapstructure:"source"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
	Legacy  LegacyConfig  `json:"legacy" yaml:"legacy" mapstructure:"legacy"`
}
