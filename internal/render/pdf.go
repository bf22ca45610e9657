// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

const (
	pointsPerInch = 72.0

	// leading is the single-spaced line height as a multiple of the font
	// size.
	leading = 1.2

	// pdfFont is the core-font equivalent of Times New Roman.
	pdfFont = "Times"
)

// PDF renders a proof of the layout on US Letter pages. It uses the core
// Times font with a cp1252 translation, so characters outside that code
// page are approximated.
type PDF struct{}

type pdfWriter struct {
	pdf     *gofpdf.Fpdf
	cfg     types.FormatConfig
	tr      func(string) string
	images  map[int]string
	imageID int
}

// Render writes the PDF to w.
func (PDF) Render(w io.Writer, layout *types.Layout, cfg types.FormatConfig) error {
	pdf := gofpdf.New("P", "in", "Letter", "")
	pdf.SetMargins(types.MarginInches, types.MarginInches, types.MarginInches)
	pdf.SetAutoPageBreak(true, types.MarginInches)
	pdf.SetTitle(layout.Title, true)
	pdf.SetCreator("manuscript-formatter", true)
	pdf.AddPage()

	pw := &pdfWriter{
		pdf:    pdf,
		cfg:    cfg,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		images: make(map[int]string),
	}
	for _, b := range layout.Blocks {
		switch b.Kind {
		case types.BlockPageBreak:
			pdf.AddPage()
		case types.BlockImage:
			pw.image(b)
		case types.BlockTable:
			pw.table(b)
		default:
			pw.paragraph(b)
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("rendering %s block: %w", b.Kind, err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func fontStyle(bold, italic bool) string {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	return style
}

// lineHeight is in inches.
func lineHeight(size, multiple float64) float64 {
	return size * leading * multiple / pointsPerInch
}

func (pw *pdfWriter) textWidth() float64 {
	pageW, _ := pw.pdf.GetPageSize()
	left, _, right, _ := pw.pdf.GetMargins()
	return pageW - left - right
}

func (pw *pdfWriter) paragraph(b types.Block) {
	size := fontSize(b.Style, pw.cfg)
	pw.pdf.SetFont(pdfFont, fontStyle(b.Style.Bold, b.Style.Italic), size)
	h := lineHeight(size, lineMultiple(b.Style, pw.cfg))

	pw.pdf.Ln(b.Style.SpaceBefore / pointsPerInch)
	align := "L"
	if b.Style.Alignment == types.AlignCenter {
		align = "C"
	}
	text := pw.tr(strings.Join(strings.Fields(b.Text), " "))

	if b.Style.HangingIndent > 0 {
		pw.hanging(text, h, b.Style.HangingIndent)
	} else {
		pw.pdf.MultiCell(0, h, text, "", align, false)
	}
	pw.pdf.Ln(b.Style.SpaceAfter / pointsPerInch)
}

// hanging writes the first line at the margin and the remaining lines
// indented.
func (pw *pdfWriter) hanging(text string, h, indent float64) {
	left, _, _, _ := pw.pdf.GetMargins()
	width := pw.textWidth()

	lines := pw.pdf.SplitLines([]byte(text), width)
	if len(lines) == 0 {
		pw.pdf.Ln(h)
		return
	}
	pw.pdf.SetX(left)
	pw.pdf.CellFormat(width, h, string(lines[0]), "", 1, "L", false, 0, "")

	rest := strings.TrimSpace(strings.TrimPrefix(text, string(lines[0])))
	if rest == "" {
		return
	}
	pw.pdf.SetLeftMargin(left + indent)
	pw.pdf.SetX(left + indent)
	pw.pdf.MultiCell(width-indent, h, rest, "", "L", false)
	pw.pdf.SetLeftMargin(left)
	pw.pdf.SetX(left)
}

// registerImage adds the figure to the document once and returns its name.
// Everything but JPEG is re-encoded as 8-bit PNG, which gofpdf reads
// reliably.
func (pw *pdfWriter) registerImage(img *types.ImageBlock) (string, error) {
	if name, ok := pw.images[img.FigureNumber]; ok && img.FigureNumber > 0 {
		return name, nil
	}
	data, imageType := img.Data, "JPG"
	format := img.Format
	if format == "" {
		format = extract.SniffFormat(data)
	}
	if format != "jpeg" {
		converted, err := toPNG(data)
		if err != nil {
			return "", err
		}
		data, imageType = converted, "PNG"
	}

	pw.imageID++
	name := fmt.Sprintf("figure-%d", pw.imageID)
	pw.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := pw.pdf.Error(); err != nil {
		return "", err
	}
	if img.FigureNumber > 0 {
		pw.images[img.FigureNumber] = name
	}
	return name, nil
}

func (pw *pdfWriter) image(b types.Block) {
	img := b.Image
	if img == nil {
		return
	}
	name, err := pw.registerImage(img)
	if err != nil {
		// Only a decode failure reaches here; gofpdf errors are sticky and
		// surface from Render.
		if pw.pdf.Error() == nil {
			pw.paragraph(types.Block{
				Kind:  types.BlockParagraph,
				Text:  fmt.Sprintf("[Figure %d - insertion failed]", img.FigureNumber),
				Style: types.BlockStyle{Italic: true, Alignment: types.AlignCenter},
			})
		}
		return
	}

	pw.pdf.Ln(b.Style.SpaceBefore / pointsPerInch)
	_, pageH := pw.pdf.GetPageSize()
	_, _, _, bottom := pw.pdf.GetMargins()
	if pw.pdf.GetY()+img.HeightInches > pageH-bottom {
		pw.pdf.AddPage()
	}
	left, _, _, _ := pw.pdf.GetMargins()
	x := left
	if b.Style.Alignment == types.AlignCenter {
		x = left + (pw.textWidth()-img.WidthInches)/2
	}
	pw.pdf.ImageOptions(name, x, pw.pdf.GetY(), img.WidthInches, img.HeightInches,
		true, gofpdf.ImageOptions{}, 0, "")
	pw.pdf.Ln(b.Style.SpaceAfter / pointsPerInch)
}

func (pw *pdfWriter) table(b types.Block) {
	t := b.Table
	if t == nil || t.Cols == 0 {
		return
	}
	size := t.FontSize
	if size <= 0 {
		size = fontSize(types.BlockStyle{}, pw.cfg)
	}
	h := lineHeight(size, 1.0) + 0.06
	colW := pw.textWidth() / float64(t.Cols)
	left, _, _, _ := pw.pdf.GetMargins()

	pw.pdf.SetDrawColor(0, 0, 0)
	pw.pdf.SetLineWidth(0.01)
	for i, row := range t.Rows {
		header := i == 0 && t.HeaderBold
		align := "L"
		if header {
			align = "C"
		}
		pw.pdf.SetFont(pdfFont, fontStyle(header, false), size)
		pw.pdf.SetX(left)
		for _, cell := range row {
			text := pw.tr(fitCell(pw.pdf, strings.Join(strings.Fields(cell), " "), colW-0.1))
			pw.pdf.CellFormat(colW, h, text, "1", 0, align, false, 0, "")
		}
		pw.pdf.Ln(h)
	}
	pw.pdf.Ln(b.Style.SpaceAfter / pointsPerInch)
}

// fitCell truncates text with an ellipsis to the given width.
func fitCell(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
