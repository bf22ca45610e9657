// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func TestLayoutFullDocument(t *testing.T) {
	model := testModel(t, "Introduction", "See Figure 1.")
	model.Body[0].IsHeading = true
	model.Title = "Cell Growth"
	model.Authors = []string{"Jane Doe1,", "jane@example.org"}
	model.Abstract = "We measured growth."
	model.References = []string{"[1] Doe J. 2020.", "[2] Roe J. 2021."}
	model.Figures[1] = &types.Figure{Number: 1, Data: pngBytes(t, 40, 20), Caption: "Curve"}

	cfg := types.FormatConfig{FontSize: 11, LineSpacing: types.SpacingOneAndAHalf, FigureWidth: 5}
	layout, stats := Layout(model, extract.LocateCitations(model.Body), cfg, nil)

	assert.Equal(t, "Cell Growth", layout.Title)
	assert.Equal(t, []types.BlockKind{
		types.BlockParagraph, // title
		types.BlockParagraph, // author
		types.BlockParagraph, // author
		types.BlockPageBreak,
		types.BlockParagraph, // Abstract label
		types.BlockParagraph, // abstract text
		types.BlockPageBreak,
		types.BlockHeading,
		types.BlockParagraph,
		types.BlockImage,
		types.BlockCaption,
		types.BlockPageBreak,
		types.BlockParagraph, // References label
		types.BlockParagraph,
		types.BlockParagraph,
	}, kinds(layout.Blocks))

	title := layout.Blocks[0]
	assert.True(t, title.Style.Bold)
	assert.Equal(t, types.AlignCenter, title.Style.Alignment)
	assert.Equal(t, float64(16), title.Style.FontSize)

	assert.Equal(t, float64(11), layout.Blocks[1].Style.FontSize)
	assert.Equal(t, "Abstract", layout.Blocks[4].Text)
	assert.Equal(t, float64(14), layout.Blocks[4].Style.FontSize)
	assert.True(t, layout.Blocks[5].Style.LineSpacing)
	assert.Equal(t, float64(11), layout.Blocks[5].Style.FontSize)

	assert.InDelta(t, 5.0, layout.Blocks[9].Image.WidthInches, 1e-9)
	assert.InDelta(t, 2.5, layout.Blocks[9].Image.HeightInches, 1e-9)

	ref := layout.Blocks[13]
	assert.Equal(t, "[1] Doe J. 2020.", ref.Text)
	assert.Equal(t, float64(10), ref.Style.FontSize)
	assert.Equal(t, 0.5, ref.Style.HangingIndent)

	assert.Equal(t, 3, layout.Count(types.BlockPageBreak))
	assert.Equal(t, 1, stats.PlacedFigures)
}

func TestLayoutMinimalDocument(t *testing.T) {
	model := testModel(t, "Introduction text.")

	layout, _ := Layout(model, nil, types.DefaultFormatConfig(), nil)

	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, types.BlockPageBreak, layout.Blocks[0].Kind)
	assert.Equal(t, "Introduction text.", layout.Blocks[1].Text)
}

func TestLayoutEmptyModel(t *testing.T) {
	layout, stats := Layout(types.NewContentModel(), nil, types.DefaultFormatConfig(), nil)
	assert.Equal(t, 1, layout.Count(types.BlockPageBreak))
	assert.Len(t, layout.Blocks, 1)
	assert.Zero(t, stats.PlacedFigures)
}
