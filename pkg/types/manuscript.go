// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
)

// RawParagraph is one paragraph as read from the source container, in
// document order. It is never modified after the reader produces it.
type RawParagraph struct {
	// Index is the zero-based position of the paragraph in the source.
	Index int `json:"index" yaml:"index"`

	// Text is the concatenated run text, untrimmed.
	Text string `json:"text" yaml:"text"`

	// StyleName is the display name of the paragraph style (e.g. "Heading 1").
	StyleName string `json:"style_name,omitempty" yaml:"style_name,omitempty"`

	// BoldFirstRun reports whether the first text run is bold.
	BoldFirstRun bool `json:"bold_first_run,omitempty" yaml:"bold_first_run,omitempty"`
}

// BodyParagraph is a paragraph retained by the classifier as body text.
type BodyParagraph struct {
	// Position is the index within ContentModel.Body. Citations and the
	// placement map are keyed by it.
	Position int `json:"position" yaml:"position"`

	// SourceIndex is the RawParagraph.Index the paragraph came from.
	SourceIndex int `json:"source_index" yaml:"source_index"`

	Text      string `json:"text" yaml:"text"`
	StyleName string `json:"style_name,omitempty" yaml:"style_name,omitempty"`
	IsHeading bool   `json:"is_heading" yaml:"is_heading"`
}

// Figure is an embedded image extracted from the manuscript.
type Figure struct {
	// Number is the 1-based sequence number among successfully extracted images.
	Number int `json:"number" yaml:"number"`

	// Data holds the raw image bytes. It is shared, not copied, during placement.
	Data []byte `json:"-" yaml:"-"`

	// Format is the sniffed image format (png, jpeg, gif, bmp, tiff, webp),
	// empty when the header is not recognised.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Name is the container part the image was read from (e.g. "word/media/image1.png").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Size is the blob length in bytes.
	Size int `json:"size" yaml:"size"`

	Caption string `json:"caption" yaml:"caption"`
}

// Table is a tabular grid extracted from the manuscript. Rows may have
// uneven lengths; renderers pad or truncate to Cols().
type Table struct {
	Number  int        `json:"number" yaml:"number"`
	Rows    [][]string `json:"rows" yaml:"rows"`
	Caption string     `json:"caption" yaml:"caption"`
}

// Cols returns the width of the widest row.
func (t *Table) Cols() int {
	cols := 0
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// IsEmpty reports whether the table has no cells at all.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0 || t.Cols() == 0
}

// ContentModel is the structured representation of one manuscript, built
// once per pipeline run and discarded after rendering.
type ContentModel struct {
	Title      string          `json:"title" yaml:"title"`
	Authors    []string        `json:"authors" yaml:"authors"`
	Abstract   string          `json:"abstract" yaml:"abstract"`
	Body       []BodyParagraph `json:"body" yaml:"body"`
	References []string        `json:"references" yaml:"references"`
	Figures    map[int]*Figure `json:"figures" yaml:"figures"`
	Tables     map[int]*Table  `json:"tables" yaml:"tables"`
}

// NewContentModel returns an empty model with initialised asset maps.
func NewContentModel() *ContentModel {
	return &ContentModel{
		Figures: make(map[int]*Figure),
		Tables:  make(map[int]*Table),
	}
}

// Figure returns the figure numbered n, or nil.
func (m *ContentModel) Figure(n int) *Figure {
	return m.Figures[n]
}

// Table returns the table numbered n, or nil.
func (m *ContentModel) Table(n int) *Table {
	return m.Tables[n]
}

// FigureNumbers returns the extracted figure numbers in ascending order.
func (m *ContentModel) FigureNumbers() []int {
	nums := make([]int, 0, len(m.Figures))
	for n := range m.Figures {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// TableNumbers returns the extracted table numbers in ascending order.
func (m *ContentModel) TableNumbers() []int {
	nums := make([]int, 0, len(m.Tables))
	for n := range m.Tables {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// CitationKind distinguishes figure citations from table citations.
type CitationKind string

const (
	CitationFigure CitationKind = "figure"
	CitationTable  CitationKind = "table"
)

// Citation is an in-text mention of a figure or table found in a body paragraph.
type Citation struct {
	Kind CitationKind `json:"kind" yaml:"kind"`

	// Number is the cited label as written; figure numbers may carry a
	// trailing uppercase panel suffix ("1A").
	Number string `json:"number" yaml:"number"`

	// Position is the BodyParagraph.Position the mention was found in.
	Position int `json:"position" yaml:"position"`

	// MatchedText is the exact text the pattern matched.
	MatchedText string `json:"matched_text" yaml:"matched_text"`

	// Context is a short snippet of the paragraph around the match.
	Context string `json:"context" yaml:"context"`
}

// Key returns the de-duplication key (kind, number, position).
func (c Citation) Key() string {
	return fmt.Sprintf("%s|%s|%d", c.Kind, c.Number, c.Position)
}

// Label renders the citation the way it is shown to users, e.g. "Figure 1A".
func (c Citation) Label() string {
	if c.Kind == CitationTable {
		return "Table " + c.Number
	}
	return "Figure " + c.Number
}
