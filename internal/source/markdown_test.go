// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fig1.png"), []byte("png-bytes"), 0o644))

	inline := base64.StdEncoding.EncodeToString([]byte("inline-bytes"))
	src := "# A Study of Things\n\n" +
		"**Jane Doe**, University\n\n" +
		"## Introduction\n\n" +
		"Growth is shown in Figure 1\nand more.\n\n" +
		"![chart](fig1.png)\n\n" +
		"![inline](data:image/png;base64," + inline + ")\n\n" +
		"| A | B |\n|---|---|\n| 1 | 2 |\n\n" +
		"- item one\n- item two\n"

	doc, err := OpenMarkdown([]byte(src), dir)
	require.NoError(t, err)
	defer doc.Close()

	paras := doc.Paragraphs()
	require.GreaterOrEqual(t, len(paras), 6)

	assert.Equal(t, "A Study of Things", paras[0].Text)
	assert.Equal(t, "Title", paras[0].StyleName)

	assert.Equal(t, "Jane Doe, University", paras[1].Text)
	assert.True(t, paras[1].BoldFirstRun)

	assert.Equal(t, "Introduction", paras[2].Text)
	assert.Equal(t, "Heading 2", paras[2].StyleName)

	assert.Equal(t, "Growth is shown in Figure 1 and more.", paras[3].Text)
	assert.False(t, paras[3].BoldFirstRun)

	last := paras[len(paras)-1]
	assert.Equal(t, "item two", last.Text)

	images := doc.Images()
	require.Len(t, images, 2)
	data, err := images[0].Bytes()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "data:image/png", images[1].Name())
	data, err = images[1].Bytes()
	require.NoError(t, err)
	assert.Equal(t, "inline-bytes", string(data))

	tables := doc.Tables()
	require.Len(t, tables, 1)
	rows, err := tables[0].Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, rows)
}

func TestMarkdownImageErrors(t *testing.T) {
	dir := t.TempDir()
	src := "![missing](nope.png)\n\n![remote](https://example.com/x.png)\n"

	doc, err := OpenMarkdown([]byte(src), dir)
	require.NoError(t, err)

	images := doc.Images()
	require.Len(t, images, 2)
	_, err = images[0].Bytes()
	assert.Error(t, err)
	_, err = images[1].Bytes()
	assert.ErrorContains(t, err, "remote images")
}

func TestMarkdownTitleOnlyWhenFirst(t *testing.T) {
	doc, err := OpenMarkdown([]byte("Intro text\n\n# Results\n"), "")
	require.NoError(t, err)

	paras := doc.Paragraphs()
	require.Len(t, paras, 2)
	assert.Equal(t, "Heading 1", paras[1].StyleName)
}
