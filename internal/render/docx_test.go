// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func renderDOCX(t *testing.T, layout *types.Layout, cfg types.FormatConfig) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, DOCX{}.Render(&buf, layout, cfg))
	return buf.Bytes()
}

func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestDOCXRoundTrip(t *testing.T) {
	layout := sampleLayout(t)
	pkg := renderDOCX(t, layout, types.DefaultFormatConfig())

	doc, err := source.OpenDOCX(pkg)
	require.NoError(t, err)
	defer doc.Close()

	var texts []string
	styles := make(map[string]string)
	bold := make(map[string]bool)
	for _, p := range doc.Paragraphs() {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		styles[text] = p.StyleName
		bold[text] = p.BoldFirstRun
	}
	assert.Equal(t, []string{
		"Cell Growth",
		"Jane Doe1, John Roe2",
		"Introduction",
		"Growth is shown in Figure 1 and Table 1.",
		"Figure 1: Growth curve",
		"Table 1: Counts",
		"[1] Doe J. Growth. 2020.",
	}, texts)
	assert.Equal(t, "Title", styles["Cell Growth"])
	assert.Equal(t, "Heading 1", styles["Introduction"])
	assert.Equal(t, "Caption", styles["Figure 1: Growth curve"])
	assert.Equal(t, "Normal", styles["Growth is shown in Figure 1 and Table 1."])
	assert.True(t, bold["Introduction"])
	assert.False(t, bold["Jane Doe1, John Roe2"])

	require.Len(t, doc.Tables(), 1)
	rows, err := doc.Tables()[0].Rows()
	require.NoError(t, err)
	assert.Equal(t, sampleGrid, rows)

	require.Len(t, doc.Images(), 1)
	data, err := doc.Images()[0].Bytes()
	require.NoError(t, err)
	assert.Equal(t, layout.Blocks[5].Image.Data, data)
	assert.Equal(t, "word/media/image1.png", doc.Images()[0].Name())
}

func TestDOCXFormatting(t *testing.T) {
	cfg := types.FormatConfig{FontSize: 11, LineSpacing: types.SpacingDouble, FigureWidth: 6}
	pkg := renderDOCX(t, sampleLayout(t), cfg)
	document := readPart(t, pkg, "word/document.xml")

	assert.Contains(t, document, `<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"`)
	assert.Contains(t, document, `w:line="480"`, "double spacing on body text")
	assert.Contains(t, document, `<w:ind w:left="720" w:hanging="720"/>`)
	assert.Equal(t, 2, strings.Count(document, `<w:br w:type="page"/>`))
	assert.Contains(t, document, `<wp:extent cx="5486400" cy="2743200"/>`)
	assert.Contains(t, document, `<w:tblHeader/>`)
	assert.Contains(t, document, `w:ascii="Times New Roman"`)
	assert.Contains(t, document, `<w:sz w:val="20"/>`, "10pt table cells and captions")

	styles := readPart(t, pkg, "word/styles.xml")
	assert.Contains(t, styles, `<w:sz w:val="22"/>`, "11pt body default")
	assert.Contains(t, styles, `w:styleId="TableGrid"`)

	contentTypes := readPart(t, pkg, "[Content_Types].xml")
	assert.Contains(t, contentTypes, `Extension="png"`)
}

func TestDOCXSharesMediaPerFigure(t *testing.T) {
	layout := sampleLayout(t)
	img := layout.Blocks[5]
	layout.Blocks = append(layout.Blocks, img)

	doc, err := source.OpenDOCX(renderDOCX(t, layout, types.DefaultFormatConfig()))
	require.NoError(t, err)
	assert.Len(t, doc.Images(), 1)
}

func TestDOCXUndecodableImageBecomesPlaceholder(t *testing.T) {
	layout := &types.Layout{Blocks: []types.Block{{
		Kind:  types.BlockImage,
		Image: &types.ImageBlock{FigureNumber: 4, Data: []byte("junk"), WidthInches: 2, HeightInches: 1},
	}}}

	doc, err := source.OpenDOCX(renderDOCX(t, layout, types.DefaultFormatConfig()))
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs(), 1)
	assert.Equal(t, "[Figure 4 - insertion failed]", doc.Paragraphs()[0].Text)
	assert.Empty(t, doc.Images())
}

func TestDOCXCoreProperties(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	defer func() { now = orig }()

	core := readPart(t, renderDOCX(t, &types.Layout{Title: "A & B"}, types.DefaultFormatConfig()), "docProps/core.xml")
	assert.Contains(t, core, "<dc:title>A &amp; B</dc:title>")
	assert.Contains(t, core, "2026-03-01T09:00:00Z")
}

func TestDOCXTextEscapingAndBreaks(t *testing.T) {
	layout := &types.Layout{Blocks: []types.Block{{
		Kind: types.BlockParagraph,
		Text: "a < b\tc\nd",
	}}}
	doc, err := source.OpenDOCX(renderDOCX(t, layout, types.DefaultFormatConfig()))
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs(), 1)
	assert.Equal(t, "a < b\tc\nd", doc.Paragraphs()[0].Text)
}
