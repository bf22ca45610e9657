// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Caption lines: optional bold markers, the label word, the number, then
// punctuation or whitespace before the caption text.
var (
	figureCaptionRe = regexp.MustCompile(`(?i)^\*{0,2}figure\s+(\d+)[.):\s]+(.+)`)
	tableCaptionRe  = regexp.MustCompile(`(?i)^\*{0,2}table\s+(\d+)[.):\s]+(.+)`)
)

type captionKey struct {
	kind   types.CitationKind
	number int
}

// CaptionIndex maps (kind, number) to the first caption line found for it.
type CaptionIndex map[captionKey]string

// BuildCaptionIndex scans the raw paragraphs once for figure and table
// caption lines. The first caption for a given number wins.
func BuildCaptionIndex(paragraphs []types.RawParagraph) CaptionIndex {
	idx := make(CaptionIndex)
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.Text)
		idx.add(types.CitationFigure, figureCaptionRe, text)
		idx.add(types.CitationTable, tableCaptionRe, text)
	}
	return idx
}

func (idx CaptionIndex) add(kind types.CitationKind, re *regexp.Regexp, text string) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	key := captionKey{kind: kind, number: n}
	if _, ok := idx[key]; !ok {
		idx[key] = strings.TrimSpace(m[2])
	}
}

// Figure returns the caption for figure n, or "Figure n".
func (idx CaptionIndex) Figure(n int) string {
	if c, ok := idx[captionKey{kind: types.CitationFigure, number: n}]; ok {
		return c
	}
	return fmt.Sprintf("Figure %d", n)
}

// Table returns the caption for table n, or "Table n".
func (idx CaptionIndex) Table(n int) string {
	if c, ok := idx[captionKey{kind: types.CitationTable, number: n}]; ok {
		return c
	}
	return fmt.Sprintf("Table %d", n)
}

// ExtractFigures loads every embedded image in container order. Images that
// cannot be loaded are logged, recorded in the report and skipped; the
// remaining images are numbered 1..n without gaps.
func ExtractFigures(images []source.ImageRef, captions CaptionIndex, report *types.RunReport, log *zap.Logger) map[int]*types.Figure {
	figures := make(map[int]*types.Figure)
	for _, ref := range images {
		next := len(figures) + 1
		data, err := ref.Bytes()
		if err != nil {
			log.Warn("could not extract image",
				zap.Int("figure", next),
				zap.String("name", ref.Name()),
				zap.Error(err))
			report.Warn("could not extract image %d (%s): %v", next, ref.Name(), err)
			continue
		}
		figures[next] = &types.Figure{
			Number:  next,
			Data:    data,
			Format:  SniffFormat(data),
			Name:    ref.Name(),
			Size:    len(data),
			Caption: captions.Figure(next),
		}
	}
	return figures
}

// ExtractTables reads every table in document order. Tables are numbered by
// their document index, so a table that fails to decode leaves a gap.
func ExtractTables(tables []source.TableRef, captions CaptionIndex, report *types.RunReport, log *zap.Logger) map[int]*types.Table {
	out := make(map[int]*types.Table)
	for i, ref := range tables {
		n := i + 1
		rows, err := ref.Rows()
		if err != nil {
			log.Warn("could not extract table", zap.Int("table", n), zap.Error(err))
			report.Warn("could not extract table %d: %v", n, err)
			continue
		}
		grid := make([][]string, len(rows))
		for r, row := range rows {
			cells := make([]string, len(row))
			for c, cell := range row {
				cells[c] = strings.TrimSpace(cell)
			}
			grid[r] = cells
		}
		out[n] = &types.Table{
			Number:  n,
			Rows:    grid,
			Caption: captions.Table(n),
		}
	}
	return out
}
