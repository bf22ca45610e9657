// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-formatter/internal/manuscript"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultFormatConfig(), cfg.Format)
	assert.Equal(t, 50, cfg.Source.MaxSizeMB)
	assert.Equal(t, 4, cfg.Batch.Jobs)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.Legacy.Enabled)
	assert.Equal(t, "manuscript-formatter/soffice:latest", cfg.Legacy.Image)
	assert.True(t, filepath.IsAbs(cfg.History.DBPath), cfg.History.DBPath)
	assert.Equal(t, "history.db", filepath.Base(cfg.History.DBPath))
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manuscript-formatter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
format:
  font_size: 11
  line_spacing: 1.5 lines
batch:
  jobs: 2
history:
  db_path: /tmp/runs.db
`), 0o644))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Format.FontSize)
	assert.Equal(t, types.SpacingOneAndAHalf, cfg.Format.LineSpacing)
	assert.Equal(t, 6.0, cfg.Format.FigureWidth)
	assert.Equal(t, 2, cfg.Batch.Jobs)
	assert.Equal(t, "/tmp/runs.db", cfg.History.DBPath)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MANUSCRIPT_FORMATTER_FORMAT_FONT_SIZE", "10")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MANUSCRIPT_FORMATTER")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Format.FontSize)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/data/history.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "history.db"), got)

	got, err = expandHome("/abs/history.db")
	require.NoError(t, err)
	assert.Equal(t, "/abs/history.db", got)

	got, err = expandHome("~other/history.db")
	require.NoError(t, err)
	assert.Equal(t, "~other/history.db", got)
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "manuscript-formatter.yaml")
	require.NoError(t, configInitCmd.Flags().Set("path", path))
	t.Cleanup(func() { _ = configInitCmd.Flags().Set("path", configFileName) })

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	require.NoError(t, runConfigInit(configInitCmd, nil))
	assert.Contains(t, out.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg types.AppConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.DefaultFormatConfig(), cfg.Format)
	assert.Equal(t, 4, cfg.Batch.Jobs)

	err = runConfigInit(configInitCmd, nil)
	assert.ErrorContains(t, err, "already exists")
}

func TestWriteCitations(t *testing.T) {
	var buf bytes.Buffer
	writeCitations(&buf, []types.Citation{
		{Kind: types.CitationFigure, Number: "1A", Position: 0, Context: "as shown in Figure 1A the cells"},
		{Kind: types.CitationTable, Number: "2", Position: 3, Context: "Table 2"},
	})
	out := buf.String()
	assert.Contains(t, out, "Figure 1A")
	assert.Contains(t, out, "Table 2")
	assert.Contains(t, out, "2 citations")

	buf.Reset()
	writeCitations(&buf, nil)
	assert.Equal(t, "No citations found.\n", buf.String())
}

func TestWriteExtractionOmitsImageBytes(t *testing.T) {
	model := types.NewContentModel()
	model.Title = "Cell Growth"
	model.Figures[1] = &types.Figure{Number: 1, Data: []byte("RAWIMAGEBYTES"), Format: "png", Size: 13, Caption: "Curve"}
	ex := &extraction{Source: "paper.md", Model: model, Report: &types.RunReport{Figures: 1}}

	for _, format := range []string{"yaml", "json"} {
		var buf bytes.Buffer
		require.NoError(t, writeExtraction(&buf, ex, format))
		assert.Contains(t, buf.String(), "Cell Growth", format)
		assert.Contains(t, buf.String(), "Curve", format)
		assert.NotContains(t, buf.String(), "RAWIMAGEBYTES", format)
	}
}

func TestSummaryContent(t *testing.T) {
	res := &manuscript.FileResult{
		Input:     "paper.docx",
		Output:    "formatted_paper.docx",
		ProofPath: "formatted_paper.pdf",
		Status:    types.RunFormatted,
		Report: &types.RunReport{
			Figures: 2, Tables: 1, Citations: 4,
			PlacedFigures: 2, PlacedTables: 1, Placeholders: 1,
			Warnings: []string{"figure 3: insertion failed"},
		},
		RunID: "run-1",
	}
	got := summaryContent(res)
	for _, want := range []string{"Formatted", "paper.docx", "formatted_paper.pdf", "figure 3: insertion failed", "run-1"} {
		assert.Contains(t, got, want)
	}

	skipped := summaryContent(&manuscript.FileResult{Input: "a.md", Output: "formatted_a.md", Status: types.RunSkipped})
	assert.Contains(t, skipped, "Skipped")
	assert.Contains(t, skipped, "already exists")
}

func TestWriteRuns(t *testing.T) {
	var buf bytes.Buffer
	writeRuns(&buf, []types.RunRecord{{ID: "abc", InputPath: "/tmp/paper.docx", Status: types.RunFormatted, Report: types.RunReport{Figures: 1, Tables: 2, Citations: 3}}})
	assert.Contains(t, buf.String(), "paper.docx")
	assert.Contains(t, buf.String(), "1/2/3")
	assert.Contains(t, buf.String(), "1 runs")
}
