// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BlockKind identifies the type of a renderable block.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockImage     BlockKind = "image"
	BlockTable     BlockKind = "table"
	BlockCaption   BlockKind = "caption"
	BlockPageBreak BlockKind = "page-break"
)

// Alignment is the horizontal alignment of a block.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
)

// BlockStyle carries the formatting a renderer applies to a block.
type BlockStyle struct {
	Bold      bool      `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic    bool      `json:"italic,omitempty" yaml:"italic,omitempty"`
	Alignment Alignment `json:"alignment,omitempty" yaml:"alignment,omitempty"`

	// FontSize is in points; zero means the configured body size.
	FontSize float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`

	// SpaceBefore and SpaceAfter are in points.
	SpaceBefore float64 `json:"space_before,omitempty" yaml:"space_before,omitempty"`
	SpaceAfter  float64 `json:"space_after,omitempty" yaml:"space_after,omitempty"`

	// HangingIndent is in inches (0.5 for references).
	HangingIndent float64 `json:"hanging_indent,omitempty" yaml:"hanging_indent,omitempty"`

	// LineSpacing applies the configured line spacing multiple.
	LineSpacing bool `json:"line_spacing,omitempty" yaml:"line_spacing,omitempty"`

	// HeadingLevel is 1-based for heading blocks.
	HeadingLevel int `json:"heading_level,omitempty" yaml:"heading_level,omitempty"`
}

// ImageBlock is the payload of an image block.
type ImageBlock struct {
	FigureNumber int     `json:"figure_number" yaml:"figure_number"`
	Data         []byte  `json:"-" yaml:"-"`
	Format       string  `json:"format" yaml:"format"`
	WidthInches  float64 `json:"width_inches" yaml:"width_inches"`
	HeightInches float64 `json:"height_inches" yaml:"height_inches"`
}

// TableBlock is the payload of a table block. Rows are already padded or
// truncated to Cols.
type TableBlock struct {
	TableNumber int        `json:"table_number" yaml:"table_number"`
	Rows        [][]string `json:"rows" yaml:"rows"`
	Cols        int        `json:"cols" yaml:"cols"`
	HeaderBold  bool       `json:"header_bold" yaml:"header_bold"`

	// FontSize is the uniform cell font size in points.
	FontSize float64 `json:"font_size" yaml:"font_size"`
}

// Block is one element of the linear stream handed to a renderer.
type Block struct {
	Kind  BlockKind   `json:"kind" yaml:"kind"`
	Text  string      `json:"text,omitempty" yaml:"text,omitempty"`
	Style BlockStyle  `json:"style" yaml:"style"`
	Image *ImageBlock `json:"image,omitempty" yaml:"image,omitempty"`
	Table *TableBlock `json:"table,omitempty" yaml:"table,omitempty"`
}

// PageBreak returns a page-break block.
func PageBreak() Block {
	return Block{Kind: BlockPageBreak}
}

// Layout is the complete, ordered block stream for one output document.
type Layout struct {
	Title  string  `json:"title" yaml:"title"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// Count returns the number of blocks of the given kind.
func (l *Layout) Count(kind BlockKind) int {
	n := 0
	for _, b := range l.Blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}
