// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reflow

import (
	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

const (
	titleFontSize     = 16
	authorFontSize    = 11
	referenceFontSize = 10

	// referenceHangingIndent is in inches.
	referenceHangingIndent = 0.5
)

// Layout builds the complete block stream for one manuscript: a title page
// with the authors, the abstract on its own page, the reflowed body and,
// when present, the references after a page break.
func Layout(model *types.ContentModel, citations []types.Citation, cfg types.FormatConfig, log *zap.Logger) (*types.Layout, PlacementStats) {
	var blocks []types.Block

	if model.Title != "" {
		blocks = append(blocks, types.Block{
			Kind: types.BlockParagraph,
			Text: model.Title,
			Style: types.BlockStyle{
				Bold:       true,
				Alignment:  types.AlignCenter,
				FontSize:   titleFontSize,
				SpaceAfter: 24,
			},
		})
	}
	for _, author := range model.Authors {
		blocks = append(blocks, types.Block{
			Kind: types.BlockParagraph,
			Text: author,
			Style: types.BlockStyle{
				Alignment:  types.AlignCenter,
				FontSize:   authorFontSize,
				SpaceAfter: 6,
			},
		})
	}
	blocks = append(blocks, types.PageBreak())

	if model.Abstract != "" {
		blocks = append(blocks,
			sectionHeading("Abstract"),
			types.Block{
				Kind: types.BlockParagraph,
				Text: model.Abstract,
				Style: types.BlockStyle{
					FontSize:    float64(cfg.FontSize),
					LineSpacing: true,
					SpaceAfter:  assetSpacing,
				},
			},
			types.PageBreak(),
		)
	}

	body, stats := PlaceBody(model, citations, cfg, log)
	blocks = append(blocks, body...)

	if len(model.References) > 0 {
		blocks = append(blocks, types.PageBreak(), sectionHeading("References"))
		for _, ref := range model.References {
			blocks = append(blocks, types.Block{
				Kind: types.BlockParagraph,
				Text: ref,
				Style: types.BlockStyle{
					FontSize:      referenceFontSize,
					SpaceAfter:    6,
					HangingIndent: referenceHangingIndent,
				},
			})
		}
	}

	return &types.Layout{Title: model.Title, Blocks: blocks}, stats
}

// sectionHeading is a bold 14pt label paragraph for the front and back
// matter sections.
func sectionHeading(text string) types.Block {
	return types.Block{
		Kind: types.BlockParagraph,
		Text: text,
		Style: types.BlockStyle{
			Bold:       true,
			FontSize:   headingFontSize,
			SpaceAfter: assetSpacing,
		},
	}
}
