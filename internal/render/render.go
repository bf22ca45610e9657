// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes a layout as an output document. Each renderer
// consumes the same linear block stream produced by the reflow package.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// ErrUnsupportedOutput is returned for an output extension without a
// renderer.
var ErrUnsupportedOutput = errors.New("unsupported output format")

// Renderer writes a complete document for a layout. Margins are applied
// before any content; page breaks arrive as blocks.
type Renderer interface {
	Render(w io.Writer, layout *types.Layout, cfg types.FormatConfig) error
}

// ForExtension returns the renderer for an output file extension, with or
// without the leading dot.
func ForExtension(ext string) (Renderer, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "docx":
		return DOCX{}, nil
	case "md", "markdown":
		return Markdown{}, nil
	case "pdf":
		return PDF{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedOutput, ext)
}

// fontSize resolves a block's font size against the configured body size.
func fontSize(style types.BlockStyle, cfg types.FormatConfig) float64 {
	if style.FontSize > 0 {
		return style.FontSize
	}
	if cfg.FontSize > 0 {
		return float64(cfg.FontSize)
	}
	return float64(types.DefaultFormatConfig().FontSize)
}

// lineMultiple is the line spacing multiple applied to a block.
func lineMultiple(style types.BlockStyle, cfg types.FormatConfig) float64 {
	if !style.LineSpacing {
		return 1.0
	}
	return cfg.LineSpacingMultiple()
}

// isTitleBlock reports whether block i is the document title paragraph.
func isTitleBlock(layout *types.Layout, i int) bool {
	return i == 0 && layout.Title != "" &&
		layout.Blocks[0].Kind == types.BlockParagraph && layout.Blocks[0].Text == layout.Title
}
