// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func TestPDFRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, sampleLayout(t), types.DefaultFormatConfig()))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 3, bytes.Count(out, []byte("/Type /Page\n")), "two page breaks give three pages")
}

func TestPDFUndecodableImage(t *testing.T) {
	layout := &types.Layout{Blocks: []types.Block{{
		Kind:  types.BlockImage,
		Image: &types.ImageBlock{FigureNumber: 2, Data: []byte("junk"), WidthInches: 2, HeightInches: 1},
	}}}

	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, layout, types.DefaultFormatConfig()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFEmptyLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, &types.Layout{}, types.DefaultFormatConfig()))
	assert.NotZero(t, buf.Len())
}

func TestFitCell(t *testing.T) {
	pdf := gofpdf.New("P", "in", "Letter", "")
	pdf.SetFont(pdfFont, "", 10)

	assert.Equal(t, "short", fitCell(pdf, "short", 1))

	long := fitCell(pdf, "a considerably longer cell value that cannot fit", 1)
	assert.LessOrEqual(t, pdf.GetStringWidth(long), 1.0)
	assert.Contains(t, long, "...")
}

func TestLineHeight(t *testing.T) {
	assert.InDelta(t, 12*1.2*2/72.0, lineHeight(12, 2), 1e-9)
}
