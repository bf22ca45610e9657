// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reflow turns a content model and its citations into the linear
// block stream a renderer consumes. Figures and tables are placed directly
// after the body paragraph that first cites them.
package reflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Fixed typography of inserted assets, in points.
const (
	captionFontSize   = 10
	tableCellFontSize = 10
	headingFontSize   = 14
	assetSpacing      = 12
)

// PlacementMap groups citations by the body position they were found in.
// Each group keeps citation order.
type PlacementMap map[int][]types.Citation

// BuildPlacementMap groups citations by position.
func BuildPlacementMap(citations []types.Citation) PlacementMap {
	m := make(PlacementMap)
	for _, c := range citations {
		m[c.Position] = append(m[c.Position], c)
	}
	return m
}

// PlacementStats counts what the placement pass inserted or skipped.
type PlacementStats struct {
	PlacedFigures  int
	PlacedTables   int
	Placeholders   int
	SkippedMissing int
	Warnings       []string
}

// Apply adds the stats to a run report.
func (s PlacementStats) Apply(r *types.RunReport) {
	r.PlacedFigures += s.PlacedFigures
	r.PlacedTables += s.PlacedTables
	r.Placeholders += s.Placeholders
	r.SkippedCitations += s.SkippedMissing
	r.Warnings = append(r.Warnings, s.Warnings...)
}

type placer struct {
	model *types.ContentModel
	cfg   types.FormatConfig
	log   *zap.Logger
	stats PlacementStats
}

// PlaceBody emits the body paragraphs in order and, after each paragraph,
// the figures and tables cited in it. A cited asset that was never
// extracted is skipped without a block; an asset that cannot be placed
// becomes an italic placeholder.
func PlaceBody(model *types.ContentModel, citations []types.Citation, cfg types.FormatConfig, log *zap.Logger) ([]types.Block, PlacementStats) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &placer{model: model, cfg: cfg, log: log}
	placements := BuildPlacementMap(citations)

	blocks := make([]types.Block, 0, len(model.Body)+2*len(citations))
	for _, para := range model.Body {
		blocks = append(blocks, p.paragraphBlock(para))

		inserted := make(map[string]bool)
		for _, c := range placements[para.Position] {
			switch c.Kind {
			case types.CitationFigure:
				blocks = append(blocks, p.placeFigure(c, inserted)...)
			case types.CitationTable:
				blocks = append(blocks, p.placeTable(c, inserted)...)
			}
		}
	}

	log.Debug("placed body",
		zap.Int("paragraphs", len(model.Body)),
		zap.Int("figures", p.stats.PlacedFigures),
		zap.Int("tables", p.stats.PlacedTables),
		zap.Int("placeholders", p.stats.Placeholders),
		zap.Int("skipped", p.stats.SkippedMissing))

	return blocks, p.stats
}

func (p *placer) paragraphBlock(para types.BodyParagraph) types.Block {
	if para.IsHeading {
		return types.Block{
			Kind: types.BlockHeading,
			Text: para.Text,
			Style: types.BlockStyle{
				Bold:         true,
				FontSize:     headingFontSize,
				HeadingLevel: 1,
				SpaceBefore:  assetSpacing,
				SpaceAfter:   6,
			},
		}
	}
	return types.Block{
		Kind: types.BlockParagraph,
		Text: para.Text,
		Style: types.BlockStyle{
			FontSize:    float64(p.cfg.FontSize),
			LineSpacing: true,
		},
	}
}

// FigureID strips a trailing sub-panel suffix ("1A" -> 1).
func FigureID(number string) (int, error) {
	base := strings.TrimRight(number, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	id, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("figure number %q: %w", number, err)
	}
	return id, nil
}

func (p *placer) placeFigure(c types.Citation, inserted map[string]bool) []types.Block {
	id, err := FigureID(c.Number)
	if err != nil {
		return p.placeholder(c, err)
	}
	fig := p.model.Figure(id)
	if fig == nil {
		p.stats.SkippedMissing++
		p.log.Debug("cited figure not extracted", zap.String("number", c.Number), zap.Int("position", c.Position))
		return nil
	}
	key := fmt.Sprintf("figure|%d", id)
	if inserted[key] {
		return nil
	}

	width, height, sizeErr := FigureSize(fig.Data, p.cfg.FigureWidth)
	if sizeErr != nil {
		width = effectiveWidth(p.cfg.FigureWidth)
		height = width * extract.FallbackHeight / extract.FallbackWidth
	}
	// The renderers embed the bytes as they are, so a blob that only looks
	// like an image must not get this far.
	if err := extract.VerifyImage(fig.Data); err != nil {
		return p.placeholder(c, err)
	}
	if sizeErr != nil {
		p.log.Warn("figure size unknown, using default aspect",
			zap.Int("figure", id), zap.Error(sizeErr))
		p.stats.Warnings = append(p.stats.Warnings,
			fmt.Sprintf("figure %d: size unknown, inserted at default aspect ratio: %v", id, sizeErr))
	}

	inserted[key] = true
	p.stats.PlacedFigures++
	return []types.Block{
		{
			Kind:  types.BlockImage,
			Style: types.BlockStyle{Alignment: types.AlignCenter, SpaceBefore: assetSpacing},
			Image: &types.ImageBlock{
				FigureNumber: id,
				Data:         fig.Data,
				Format:       fig.Format,
				WidthInches:  width,
				HeightInches: height,
			},
		},
		captionBlock(fmt.Sprintf("Figure %d: %s", id, fig.Caption), 0, assetSpacing),
	}
}

// FigureSize returns the display size in inches of an image requested at
// the given width: the width is capped at 6.5 inches and the height keeps
// the image's aspect ratio.
func FigureSize(data []byte, requestedWidth float64) (float64, float64, error) {
	w, h, err := extract.DecodeImageSize(data)
	if err != nil {
		return 0, 0, err
	}
	width := effectiveWidth(requestedWidth)
	return width, width * float64(h) / float64(w), nil
}

func effectiveWidth(requested float64) float64 {
	return math.Min(requested, types.MaxFigureWidth)
}

func (p *placer) placeTable(c types.Citation, inserted map[string]bool) []types.Block {
	n, err := strconv.Atoi(c.Number)
	if err != nil {
		return p.placeholder(c, fmt.Errorf("table number %q: %w", c.Number, err))
	}
	tbl := p.model.Table(n)
	if tbl == nil {
		p.stats.SkippedMissing++
		p.log.Debug("cited table not extracted", zap.String("number", c.Number), zap.Int("position", c.Position))
		return nil
	}
	key := fmt.Sprintf("table|%d", n)
	if inserted[key] || tbl.IsEmpty() {
		return nil
	}

	inserted[key] = true
	p.stats.PlacedTables++
	return []types.Block{
		captionBlock(fmt.Sprintf("Table %d: %s", n, tbl.Caption), assetSpacing, 0),
		{
			Kind:  types.BlockTable,
			Style: types.BlockStyle{Alignment: types.AlignCenter, SpaceAfter: assetSpacing},
			Table: gridBlock(tbl),
		},
	}
}

// gridBlock pads or truncates every row to the table's column count.
func gridBlock(tbl *types.Table) *types.TableBlock {
	cols := tbl.Cols()
	rows := make([][]string, len(tbl.Rows))
	for i, row := range tbl.Rows {
		cells := make([]string, cols)
		copy(cells, row)
		rows[i] = cells
	}
	return &types.TableBlock{
		TableNumber: tbl.Number,
		Rows:        rows,
		Cols:        cols,
		HeaderBold:  true,
		FontSize:    tableCellFontSize,
	}
}

func captionBlock(text string, before, after float64) types.Block {
	return types.Block{
		Kind: types.BlockCaption,
		Text: text,
		Style: types.BlockStyle{
			Bold:        true,
			Alignment:   types.AlignCenter,
			FontSize:    captionFontSize,
			SpaceBefore: before,
			SpaceAfter:  after,
		},
	}
}

func (p *placer) placeholder(c types.Citation, cause error) []types.Block {
	label := "Figure"
	if c.Kind == types.CitationTable {
		label = "Table"
	}
	p.stats.Placeholders++
	p.log.Warn("asset insertion failed",
		zap.String("kind", string(c.Kind)),
		zap.String("number", c.Number),
		zap.Error(cause))
	p.stats.Warnings = append(p.stats.Warnings,
		fmt.Sprintf("%s %s: insertion failed: %v", strings.ToLower(label), c.Number, cause))
	return []types.Block{{
		Kind: types.BlockParagraph,
		Text: fmt.Sprintf("[%s %s - insertion failed]", label, c.Number),
		Style: types.BlockStyle{
			Italic:   true,
			FontSize: float64(p.cfg.FontSize),
		},
	}}
}
