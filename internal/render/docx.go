// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// OOXML unit conversions.
const (
	twipsPerInch  = 1440
	twipsPerPoint = 20
	emuPerInch    = 914400

	// textWidthTwips is a US Letter page less two one-inch margins.
	textWidthTwips = (8.5 - 2*types.MarginInches) * twipsPerInch
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	relStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relImage  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// docxMediaTypes are the image formats Word embeds without conversion.
var docxMediaTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// DOCX renders a layout as a WordprocessingML package.
type DOCX struct{}

type mediaPart struct {
	relID string
	name  string
	data  []byte
}

type docxWriter struct {
	cfg     types.FormatConfig
	body    bytes.Buffer
	media   []mediaPart
	figures map[int]string
	nextRel int
	docPrID int
}

// Render writes the package to w.
func (DOCX) Render(w io.Writer, layout *types.Layout, cfg types.FormatConfig) error {
	dw := &docxWriter{cfg: cfg, figures: make(map[int]string), nextRel: 2}

	for i, b := range layout.Blocks {
		switch b.Kind {
		case types.BlockPageBreak:
			dw.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		case types.BlockImage:
			dw.image(b)
		case types.BlockTable:
			dw.table(b)
		default:
			dw.paragraph(b, isTitleBlock(layout, i))
		}
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", dw.contentTypes()},
		{"_rels/.rels", []byte(packageRels)},
		{"docProps/core.xml", coreProps(layout.Title)},
		{"word/document.xml", dw.document()},
		{"word/styles.xml", stylesPart(cfg)},
		{"word/_rels/document.xml.rels", dw.documentRels()},
	}
	for _, m := range dw.media {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/" + m.name, m.data})
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing package: %w", err)
	}
	return nil
}

func (dw *docxWriter) paragraph(b types.Block, title bool) {
	dw.body.WriteString(`<w:p><w:pPr>`)
	switch {
	case title:
		dw.body.WriteString(`<w:pStyle w:val="Title"/>`)
	case b.Kind == types.BlockHeading:
		fmt.Fprintf(&dw.body, `<w:pStyle w:val="Heading%d"/><w:keepNext/>`, headingLevel(b.Style.HeadingLevel))
	case b.Kind == types.BlockCaption:
		dw.body.WriteString(`<w:pStyle w:val="Caption"/>`)
	}
	dw.paragraphProps(b.Style)
	dw.body.WriteString(`</w:pPr>`)
	dw.run(b.Text, b.Style.Bold, b.Style.Italic, fontSize(b.Style, dw.cfg))
	dw.body.WriteString(`</w:p>`)
}

func headingLevel(level int) int {
	return max(1, min(level, 3))
}

func (dw *docxWriter) paragraphProps(s types.BlockStyle) {
	if s.Alignment == types.AlignCenter {
		dw.body.WriteString(`<w:jc w:val="center"/>`)
	}
	fmt.Fprintf(&dw.body, `<w:spacing w:before="%d" w:after="%d" w:line="%d" w:lineRule="auto"/>`,
		twips(s.SpaceBefore, twipsPerPoint),
		twips(s.SpaceAfter, twipsPerPoint),
		twips(lineMultiple(s, dw.cfg), 240))
	if s.HangingIndent > 0 {
		indent := twips(s.HangingIndent, twipsPerInch)
		fmt.Fprintf(&dw.body, `<w:ind w:left="%d" w:hanging="%d"/>`, indent, indent)
	}
}

func twips(v, factor float64) int {
	return int(math.Round(v * factor))
}

// run writes one text run. Newlines become breaks and tabs become tab
// characters.
func (dw *docxWriter) run(text string, bold, italic bool, size float64) {
	dw.body.WriteString(`<w:r><w:rPr>`)
	fmt.Fprintf(&dw.body, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`, types.FontFamily)
	if bold {
		dw.body.WriteString(`<w:b/>`)
	}
	if italic {
		dw.body.WriteString(`<w:i/>`)
	}
	halfPoints := int(math.Round(size * 2))
	fmt.Fprintf(&dw.body, `<w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr>`, halfPoints, halfPoints)

	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			dw.body.WriteString(`<w:br/>`)
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				dw.body.WriteString(`<w:tab/>`)
			}
			if seg == "" {
				continue
			}
			dw.body.WriteString(`<w:t xml:space="preserve">`)
			xml.EscapeText(&dw.body, []byte(seg))
			dw.body.WriteString(`</w:t>`)
		}
	}
	dw.body.WriteString(`</w:r>`)
}

// addMedia stores an image part once per figure and returns its
// relationship id.
func (dw *docxWriter) addMedia(img *types.ImageBlock) (string, error) {
	if id, ok := dw.figures[img.FigureNumber]; ok && img.FigureNumber > 0 {
		return id, nil
	}
	data := img.Data
	format := img.Format
	if format == "" {
		format = extract.SniffFormat(data)
	}
	if _, ok := docxMediaTypes[format]; !ok {
		converted, err := toPNG(data)
		if err != nil {
			return "", err
		}
		data, format = converted, "png"
	}

	id := fmt.Sprintf("rId%d", dw.nextRel)
	dw.nextRel++
	dw.media = append(dw.media, mediaPart{
		relID: id,
		name:  fmt.Sprintf("image%d.%s", len(dw.media)+1, format),
		data:  data,
	})
	if img.FigureNumber > 0 {
		dw.figures[img.FigureNumber] = id
	}
	return id, nil
}

func (dw *docxWriter) image(b types.Block) {
	img := b.Image
	relID, err := dw.addMedia(img)
	if err != nil {
		dw.paragraph(types.Block{
			Kind:  types.BlockParagraph,
			Text:  fmt.Sprintf("[Figure %d - insertion failed]", img.FigureNumber),
			Style: types.BlockStyle{Italic: true},
		}, false)
		return
	}

	dw.docPrID++
	cx := int64(math.Round(img.WidthInches * emuPerInch))
	cy := int64(math.Round(img.HeightInches * emuPerInch))
	name := fmt.Sprintf("Figure %d", img.FigureNumber)

	dw.body.WriteString(`<w:p><w:pPr>`)
	dw.paragraphProps(b.Style)
	dw.body.WriteString(`</w:pPr><w:r><w:drawing>`)
	fmt.Fprintf(&dw.body, `<wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[1]d" cy="%[2]d"/>`+
		`<wp:docPr id="%[3]d" name="%[4]s"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic><a:graphicData uri="%[5]s"><pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%[6]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline>`,
		cx, cy, dw.docPrID, name, nsPic, relID)
	dw.body.WriteString(`</w:drawing></w:r></w:p>`)
}

const tableBorders = `<w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`<w:left w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`<w:right w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="000000"/>` +
	`</w:tblBorders>`

func (dw *docxWriter) table(b types.Block) {
	t := b.Table
	if t == nil || t.Cols == 0 {
		return
	}
	colWidth := int(textWidthTwips) / t.Cols

	dw.body.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/>`)
	if b.Style.Alignment == types.AlignCenter {
		dw.body.WriteString(`<w:jc w:val="center"/>`)
	}
	dw.body.WriteString(tableBorders)
	dw.body.WriteString(`</w:tblPr><w:tblGrid>`)
	for range t.Cols {
		fmt.Fprintf(&dw.body, `<w:gridCol w:w="%d"/>`, colWidth)
	}
	dw.body.WriteString(`</w:tblGrid>`)

	for i, row := range t.Rows {
		header := i == 0 && t.HeaderBold
		dw.body.WriteString(`<w:tr>`)
		if header {
			dw.body.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
		}
		for _, cell := range row {
			fmt.Fprintf(&dw.body, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p><w:pPr>`, colWidth)
			if header {
				dw.body.WriteString(`<w:jc w:val="center"/>`)
			}
			dw.body.WriteString(`<w:spacing w:before="0" w:after="0"/></w:pPr>`)
			dw.run(cell, header, false, t.FontSize)
			dw.body.WriteString(`</w:p></w:tc>`)
		}
		dw.body.WriteString(`</w:tr>`)
	}
	dw.body.WriteString(`</w:tbl>`)

	// The spacer paragraph also keeps a table from being the last element
	// before the section properties.
	fmt.Fprintf(&dw.body, `<w:p><w:pPr><w:spacing w:before="0" w:after="%d"/></w:pPr></w:p>`,
		twips(b.Style.SpaceAfter, twipsPerPoint))
}

func (dw *docxWriter) document() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s"><w:body>`,
		nsW, nsR, nsWP, nsA, nsPic)
	buf.Write(dw.body.Bytes())
	margin := twips(types.MarginInches, twipsPerInch)
	fmt.Fprintf(&buf, `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>`+
		`<w:pgMar w:top="%[1]d" w:right="%[1]d" w:bottom="%[1]d" w:left="%[1]d" w:header="720" w:footer="720" w:gutter="0"/>`+
		`</w:sectPr></w:body></w:document>`, margin)
	return buf.Bytes()
}

func (dw *docxWriter) documentRels() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	fmt.Fprintf(&buf, `<Relationship Id="rId1" Type="%s" Target="styles.xml"/>`, relStyles)
	for _, m := range dw.media {
		fmt.Fprintf(&buf, `<Relationship Id="%s" Type="%s" Target="media/%s"/>`, m.relID, relImage, m.name)
	}
	buf.WriteString(`</Relationships>`)
	return buf.Bytes()
}

func (dw *docxWriter) contentTypes() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	buf.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	buf.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := make(map[string]bool)
	for _, m := range dw.media {
		ext := m.name[strings.LastIndexByte(m.name, '.')+1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		fmt.Fprintf(&buf, `<Default Extension="%s" ContentType="%s"/>`, ext, docxMediaTypes[ext])
	}
	buf.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	buf.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	buf.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	buf.WriteString(`</Types>`)
	return buf.Bytes()
}

const packageRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

// now is overridden in tests.
var now = time.Now

func coreProps(title string) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	buf.WriteString(`<dc:title>`)
	xml.EscapeText(&buf, []byte(title))
	buf.WriteString(`</dc:title><dc:creator>manuscript-formatter</dc:creator>`)
	fmt.Fprintf(&buf, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`,
		now().UTC().Format(time.RFC3339))
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes()
}

// stylesPart declares the document defaults (Times New Roman at the body
// size), the title, heading and caption paragraph styles and a bordered table
// style.
func stylesPart(cfg types.FormatConfig) []byte {
	body := int(math.Round(fontSize(types.BlockStyle{}, cfg) * 2))

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<w:styles xmlns:w="%s">`, nsW)
	fmt.Fprintf(&buf, `<w:docDefaults><w:rPrDefault><w:rPr>`+
		`<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:eastAsia="%[1]s" w:cs="%[1]s"/>`+
		`<w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/><w:lang w:val="en-US"/>`+
		`</w:rPr></w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:pPrDefault>`+
		`</w:docDefaults>`, types.FontFamily, body)
	buf.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	for level := 1; level <= 3; level++ {
		fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="Heading%[1]d"><w:name w:val="heading %[1]d"/>`+
			`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`+
			`<w:pPr><w:keepNext/><w:outlineLvl w:val="%[2]d"/></w:pPr><w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style>`,
			level, level-1)
	}
	buf.WriteString(`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/>` +
		`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>`)
	buf.WriteString(`<w:style w:type="paragraph" w:styleId="Caption"><w:name w:val="caption"/>` +
		`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:rPr><w:b/><w:sz w:val="20"/></w:rPr></w:style>`)
	buf.WriteString(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/>` +
		`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar>` +
		`<w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/>` +
		`<w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/>` +
		`</w:tblCellMar></w:tblPr></w:style>`)
	buf.WriteString(`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/>` +
		`<w:basedOn w:val="TableNormal"/><w:tblPr>` + tableBorders + `</w:tblPr></w:style>`)
	buf.WriteString(`</w:styles>`)
	return buf.Bytes()
}
