// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var sampleGrid = [][]string{
	{"Group", "N", "Mean"},
	{"A", "10", "1.5"},
	{"B", "12", "2.5"},
}

func sampleLayout(t *testing.T) *types.Layout {
	t.Helper()
	return &types.Layout{
		Title: "Cell Growth",
		Blocks: []types.Block{
			{Kind: types.BlockParagraph, Text: "Cell Growth", Style: types.BlockStyle{Bold: true, Alignment: types.AlignCenter, FontSize: 16}},
			{Kind: types.BlockParagraph, Text: "Jane Doe1, John Roe2", Style: types.BlockStyle{Alignment: types.AlignCenter, FontSize: 11}},
			types.PageBreak(),
			{Kind: types.BlockHeading, Text: "Introduction", Style: types.BlockStyle{Bold: true, FontSize: 14, HeadingLevel: 1}},
			{Kind: types.BlockParagraph, Text: "Growth is shown in Figure 1 and Table 1.", Style: types.BlockStyle{LineSpacing: true}},
			{
				Kind:  types.BlockImage,
				Style: types.BlockStyle{Alignment: types.AlignCenter, SpaceBefore: 12},
				Image: &types.ImageBlock{FigureNumber: 1, Data: pngBytes(t, 40, 20), Format: "png", WidthInches: 6, HeightInches: 3},
			},
			{Kind: types.BlockCaption, Text: "Figure 1: Growth curve", Style: types.BlockStyle{Bold: true, Alignment: types.AlignCenter, FontSize: 10, SpaceAfter: 12}},
			{Kind: types.BlockCaption, Text: "Table 1: Counts", Style: types.BlockStyle{Bold: true, Alignment: types.AlignCenter, FontSize: 10, SpaceBefore: 12}},
			{
				Kind:  types.BlockTable,
				Style: types.BlockStyle{Alignment: types.AlignCenter, SpaceAfter: 12},
				Table: &types.TableBlock{TableNumber: 1, Rows: sampleGrid, Cols: 3, HeaderBold: true, FontSize: 10},
			},
			types.PageBreak(),
			{Kind: types.BlockParagraph, Text: "[1] Doe J. Growth. 2020.", Style: types.BlockStyle{FontSize: 10, HangingIndent: 0.5}},
		},
	}
}

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Renderer
	}{
		{".docx", DOCX{}},
		{"DOCX", DOCX{}},
		{".md", Markdown{}},
		{"markdown", Markdown{}},
		{".pdf", PDF{}},
	}
	for _, tt := range tests {
		r, err := ForExtension(tt.ext)
		require.NoError(t, err, tt.ext)
		assert.IsType(t, tt.want, r, tt.ext)
	}

	_, err := ForExtension(".odt")
	assert.ErrorIs(t, err, ErrUnsupportedOutput)
}

func TestFontSizeFallbacks(t *testing.T) {
	cfg := types.FormatConfig{FontSize: 11}
	assert.Equal(t, float64(14), fontSize(types.BlockStyle{FontSize: 14}, cfg))
	assert.Equal(t, float64(11), fontSize(types.BlockStyle{}, cfg))
	assert.Equal(t, float64(12), fontSize(types.BlockStyle{}, types.FormatConfig{}))
}

func TestLineMultiple(t *testing.T) {
	cfg := types.FormatConfig{LineSpacing: types.SpacingOneAndAHalf}
	assert.Equal(t, 1.0, lineMultiple(types.BlockStyle{}, cfg))
	assert.Equal(t, 1.5, lineMultiple(types.BlockStyle{LineSpacing: true}, cfg))
}

func TestToPNG(t *testing.T) {
	out, err := toPNG(pngBytes(t, 3, 2))
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)

	_, err = toPNG([]byte("nope"))
	assert.Error(t, err)
}
