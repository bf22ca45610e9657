// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

func TestBuildCaptionIndex(t *testing.T) {
	idx := BuildCaptionIndex(paragraphs(
		"Figure 1: Growth over time.",
		"**Figure 2. Cell counts",
		"figure 12) Twelve",
		"Figure 1: A later duplicate",
		"Table 1 - dashes are kept",
		"TABLE 2: Summary statistics",
		"Figure 3",
	))

	assert.Equal(t, "Growth over time.", idx.Figure(1))
	assert.Equal(t, "Cell counts", idx.Figure(2))
	assert.Equal(t, "Twelve", idx.Figure(12))
	assert.Equal(t, "Figure 3", idx.Figure(3), "label without caption text")
	assert.Equal(t, "Figure 4", idx.Figure(4))

	assert.Equal(t, "- dashes are kept", idx.Table(1))
	assert.Equal(t, "Summary statistics", idx.Table(2))
	assert.Equal(t, "Table 9", idx.Table(9))
}

func TestExtractFiguresSkipsFailures(t *testing.T) {
	img := pngBytes(t, 4, 3)
	doc := source.NewMemory("Figure 2: Second good image").
		AddImage("media/a.png", img, nil).
		AddImage("media/broken.png", nil, errors.New("corrupt part")).
		AddImage("media/b.png", img, nil)

	log, logs := observedLogger()
	report := &types.RunReport{}
	figures := ExtractFigures(doc.Images(), BuildCaptionIndex(doc.Paragraphs()), report, log)

	require.Len(t, figures, 2)
	assert.Equal(t, "media/a.png", figures[1].Name)
	assert.Equal(t, "Figure 1", figures[1].Caption)
	assert.Equal(t, "png", figures[1].Format)
	assert.Equal(t, len(img), figures[1].Size)

	assert.Equal(t, "media/b.png", figures[2].Name, "numbering counts successful images only")
	assert.Equal(t, "Second good image", figures[2].Caption)

	assert.Equal(t, 1, logs.FilterMessage("could not extract image").Len())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "corrupt part")
}

func TestExtractTablesNumbersByIndex(t *testing.T) {
	doc := source.NewMemory("Table 3: Third").
		AddTable([][]string{{" a ", "b"}, {"c"}}, nil).
		AddTable(nil, errors.New("bad table")).
		AddTable([][]string{{"x"}}, nil)

	log, logs := observedLogger()
	report := &types.RunReport{}
	tables := ExtractTables(doc.Tables(), BuildCaptionIndex(doc.Paragraphs()), report, log)

	require.Len(t, tables, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, tables[1].Rows)
	assert.Equal(t, "Table 1", tables[1].Caption)
	assert.Nil(t, tables[2])
	assert.Equal(t, "Third", tables[3].Caption)

	assert.Equal(t, 1, logs.FilterMessage("could not extract table").Len())
	assert.Len(t, report.Warnings, 1)
}
