// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Markdown renders a layout as GitHub-flavoured Markdown. Images are
// embedded as data URIs so the output is self-contained. Font sizes and
// spacing have no Markdown equivalent and are dropped.
type Markdown struct{}

// blockStartRe matches line starts that Markdown would read as structure.
var blockStartRe = regexp.MustCompile(`^(#|>|[-+*=]|\d+[.)])`)

// Render writes the document to w.
func (Markdown) Render(w io.Writer, layout *types.Layout, cfg types.FormatConfig) error {
	bw := bufio.NewWriter(w)
	for i, b := range layout.Blocks {
		if i > 0 {
			bw.WriteString("\n")
		}
		switch b.Kind {
		case types.BlockPageBreak:
			bw.WriteString("---\n")
		case types.BlockHeading:
			fmt.Fprintf(bw, "%s %s\n", strings.Repeat("#", headingLevel(b.Style.HeadingLevel)+1), inlineText(b.Text))
		case types.BlockImage:
			writeMarkdownImage(bw, b.Image)
		case types.BlockTable:
			writeMarkdownTable(bw, b.Table)
		default:
			if isTitleBlock(layout, i) {
				fmt.Fprintf(bw, "# %s\n", inlineText(b.Text))
				continue
			}
			bw.WriteString(emphasis(escapeBlockStart(inlineText(b.Text)), b.Style))
			bw.WriteString("\n")
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

// inlineText folds a paragraph onto one line.
func inlineText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// escapeBlockStart backslash-escapes the last character of a leading
// block marker ("#", "-", the "." of "2.").
func escapeBlockStart(text string) string {
	loc := blockStartRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	i := loc[1] - 1
	return text[:i] + `\` + text[i:]
}

func emphasis(text string, style types.BlockStyle) string {
	if text == "" {
		return text
	}
	switch {
	case style.Bold && style.Italic:
		return "***" + text + "***"
	case style.Bold:
		return "**" + text + "**"
	case style.Italic:
		return "*" + text + "*"
	}
	return text
}

func writeMarkdownImage(w *bufio.Writer, img *types.ImageBlock) {
	if img == nil {
		return
	}
	format := img.Format
	if format == "" {
		format = extract.SniffFormat(img.Data)
	}
	fmt.Fprintf(w, "![Figure %d](data:image/%s;base64,%s)\n",
		img.FigureNumber, format, base64.StdEncoding.EncodeToString(img.Data))
}

func writeMarkdownTable(w *bufio.Writer, t *types.TableBlock) {
	if t == nil || len(t.Rows) == 0 || t.Cols == 0 {
		return
	}
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cell = strings.ReplaceAll(inlineText(cell), "|", `\|`)
			if i == 0 && t.HeaderBold && cell != "" {
				cell = "**" + cell + "**"
			}
			cells[j] = cell
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
		if i == 0 {
			sep := make([]string, t.Cols)
			for j := range sep {
				sep[j] = ":---:"
			}
			fmt.Fprintf(w, "| %s |\n", strings.Join(sep, " | "))
		}
	}
}
