// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

const (
	packageRelsPart     = "_rels/.rels"
	defaultMainPart     = "word/document.xml"
	relTypeOfficeDoc    = "/officeDocument"
	relTypeStyles       = "/styles"
	targetModeExternal  = "External"
	defaultParagraphSty = "Normal"
)

// DOCX is a Document backed by an OOXML WordprocessingML package.
type DOCX struct {
	zr         *zip.Reader
	files      map[string]*zip.File
	paragraphs []types.RawParagraph
	images     []ImageRef
	tables     []TableRef
}

// relationshipsXML represents a *.rels part.
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// stylesXML represents word/styles.xml.
type stylesXML struct {
	Styles []styleXML `xml:"style"`
}

type styleXML struct {
	Type    string   `xml:"type,attr"`
	StyleID string   `xml:"styleId,attr"`
	Default string   `xml:"default,attr"`
	Name    valueXML `xml:"name"`
}

type valueXML struct {
	Val string `xml:"val,attr"`
}

// documentXML represents word/document.xml. Only direct children of the
// body are collected, so paragraphs inside table cells are not body
// paragraphs.
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []rawTableXML  `xml:"tbl"`
	} `xml:"body"`
}

// rawTableXML keeps a table undecoded until its rows are requested.
type rawTableXML struct {
	Inner []byte `xml:",innerxml"`
}

type paragraphPropsXML struct {
	Style valueXML `xml:"pStyle"`
}

type runPropsXML struct {
	Bold boolXML `xml:"b"`
}

// boolXML is an OOXML on/off property: present without val means on.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

func (b boolXML) on() bool {
	if b.XMLName.Local == "" {
		return false
	}
	switch strings.ToLower(b.Val) {
	case "0", "false", "off":
		return false
	}
	return true
}

// paragraphXML is decoded token by token so run text keeps document order
// across runs, hyperlinks and tracked insertions.
type paragraphXML struct {
	StyleID      string
	Text         string
	BoldFirstRun bool
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text strings.Builder
	sawRun := false
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				var props paragraphPropsXML
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				p.StyleID = props.Style.Val
			case "r":
				var r runXML
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				if !sawRun {
					p.BoldFirstRun = r.Bold
					sawRun = true
				}
				text.WriteString(r.Text)
			case "hyperlink", "ins", "smartTag", "fldSimple":
				var c runContainerXML
				if err := d.DecodeElement(&c, &t); err != nil {
					return err
				}
				for _, r := range c.Runs {
					text.WriteString(r.Text)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			p.Text = text.String()
			return nil
		}
	}
}

type runContainerXML struct {
	Runs []runXML `xml:"r"`
}

// runXML is a text run (<w:r>). Tabs and breaks become whitespace.
type runXML struct {
	Bold bool
	Text string
}

func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				var props runPropsXML
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				r.Bold = props.Bold.on()
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				text.WriteString(s)
			case "tab":
				text.WriteByte('\t')
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				text.WriteByte('\n')
				if err := d.Skip(); err != nil {
					return err
				}
			case "noBreakHyphen":
				text.WriteByte('-')
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			r.Text = text.String()
			return nil
		}
	}
}

type tableXML struct {
	Grid struct {
		Cols []struct{} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []struct {
		Cells []struct {
			Props struct {
				GridSpan valueXML `xml:"gridSpan"`
				VMerge   *struct {
					Val string `xml:"val,attr"`
				} `xml:"vMerge"`
			} `xml:"tcPr"`
			Paragraphs []paragraphXML `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

// OpenDOCX parses an in-memory DOCX package.
func OpenDOCX(data []byte) (*DOCX, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening ZIP archive: %v", ErrUnsupportedFormat, err)
	}

	d := &DOCX{zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		d.files[f.Name] = f
	}

	mainPart := d.mainDocumentPart()
	if d.files[mainPart] == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnsupportedFormat, mainPart)
	}

	rels, err := d.partRelationships(mainPart)
	if err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}

	styleNames := d.styleNames(mainPart, rels)

	raw, err := d.read(mainPart)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mainPart, err)
	}
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mainPart, err)
	}

	d.paragraphs = make([]types.RawParagraph, 0, len(doc.Body.Paragraphs))
	for i, p := range doc.Body.Paragraphs {
		d.paragraphs = append(d.paragraphs, types.RawParagraph{
			Index:        i,
			Text:         norm.NFC.String(p.Text),
			StyleName:    styleNames.resolve(p.StyleID),
			BoldFirstRun: p.BoldFirstRun,
		})
	}

	for _, t := range doc.Body.Tables {
		d.tables = append(d.tables, &docxTable{inner: t.Inner})
	}

	d.images = d.imageRefs(mainPart, rels)
	return d, nil
}

func (d *DOCX) Paragraphs() []types.RawParagraph { return d.paragraphs }
func (d *DOCX) Images() []ImageRef               { return d.images }
func (d *DOCX) Tables() []TableRef               { return d.tables }

// Close releases the package. The reader works over memory, so only
// references are dropped.
func (d *DOCX) Close() error {
	d.zr = nil
	d.files = nil
	return nil
}

func (d *DOCX) read(name string) ([]byte, error) {
	f := d.files[name]
	if f == nil {
		return nil, fmt.Errorf("part not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// mainDocumentPart resolves the officeDocument relationship of the package,
// defaulting to word/document.xml.
func (d *DOCX) mainDocumentPart() string {
	raw, err := d.read(packageRelsPart)
	if err != nil {
		return defaultMainPart
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(raw, &rels); err != nil {
		return defaultMainPart
	}
	for _, r := range rels.Relationships {
		if strings.HasSuffix(r.Type, relTypeOfficeDoc) {
			return resolveTarget("", r.Target)
		}
	}
	return defaultMainPart
}

// partRelationships reads the .rels part that belongs to part. A missing
// .rels part yields no relationships.
func (d *DOCX) partRelationships(part string) ([]relationshipXML, error) {
	relsPart := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if d.files[relsPart] == nil {
		return nil, nil
	}
	raw, err := d.read(relsPart)
	if err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(raw, &rels); err != nil {
		return nil, err
	}
	return rels.Relationships, nil
}

// styleTable maps style ids to display names.
type styleTable struct {
	names        map[string]string
	defaultStyle string
}

func (s styleTable) resolve(id string) string {
	if name, ok := s.names[id]; ok && id != "" {
		return name
	}
	return s.defaultStyle
}

func (d *DOCX) styleNames(mainPart string, rels []relationshipXML) styleTable {
	table := styleTable{names: map[string]string{}, defaultStyle: defaultParagraphSty}

	stylesPart := path.Join(path.Dir(mainPart), "styles.xml")
	for _, r := range rels {
		if strings.HasSuffix(r.Type, relTypeStyles) {
			stylesPart = resolveTarget(path.Dir(mainPart), r.Target)
		}
	}
	raw, err := d.read(stylesPart)
	if err != nil {
		return table
	}
	var styles stylesXML
	if err := xml.Unmarshal(raw, &styles); err != nil {
		return table
	}
	for _, s := range styles.Styles {
		if s.Type != "" && s.Type != "paragraph" {
			continue
		}
		name := uiStyleName(s.Name.Val)
		if name == "" {
			name = s.StyleID
		}
		table.names[s.StyleID] = name
		if s.Default == "1" || strings.EqualFold(s.Default, "true") {
			table.defaultStyle = name
		}
	}
	return table
}

var builtinHeadingRe = regexp.MustCompile(`^heading (\d)$`)

// builtinStyleNames maps the lowercase names Word stores for built-in
// styles to the names shown in its UI.
var builtinStyleNames = map[string]string{
	"normal":         "Normal",
	"title":          "Title",
	"subtitle":       "Subtitle",
	"caption":        "Caption",
	"body text":      "Body Text",
	"list paragraph": "List Paragraph",
	"header":         "Header",
	"footer":         "Footer",
}

func uiStyleName(name string) string {
	if m := builtinHeadingRe.FindStringSubmatch(name); m != nil {
		return "Heading " + m[1]
	}
	if ui, ok := builtinStyleNames[name]; ok {
		return ui
	}
	return name
}

// imageRefs returns the image relationships of the main part ordered by the
// numeric suffix of their ids (rId2 before rId10).
func (d *DOCX) imageRefs(mainPart string, rels []relationshipXML) []ImageRef {
	var imageRels []relationshipXML
	for _, r := range rels {
		if strings.Contains(r.Target, "image") {
			imageRels = append(imageRels, r)
		}
	}
	sort.SliceStable(imageRels, func(i, j int) bool {
		return relIDLess(imageRels[i].ID, imageRels[j].ID)
	})

	refs := make([]ImageRef, 0, len(imageRels))
	for _, r := range imageRels {
		ref := &docxImage{doc: d, relID: r.ID}
		if r.TargetMode == targetModeExternal {
			ref.external = r.Target
		} else {
			ref.part = resolveTarget(path.Dir(mainPart), r.Target)
		}
		refs = append(refs, ref)
	}
	return refs
}

var relIDSuffixRe = regexp.MustCompile(`(\d+)$`)

func relIDLess(a, b string) bool {
	na, oka := relIDNumber(a)
	nb, okb := relIDNumber(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

func relIDNumber(id string) (int, bool) {
	m := relIDSuffixRe.FindString(id)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// resolveTarget resolves a relationship target against the directory of
// the source part. Absolute targets are package-rooted.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(baseDir, target)), "/")
}

type docxImage struct {
	doc      *DOCX
	relID    string
	part     string
	external string
}

func (i *docxImage) Name() string {
	if i.part != "" {
		return i.part
	}
	return i.external
}

func (i *docxImage) Bytes() ([]byte, error) {
	if i.external != "" {
		return nil, fmt.Errorf("image %s is linked externally (%s)", i.relID, i.external)
	}
	if i.doc.files == nil {
		return nil, fmt.Errorf("image %s: document closed", i.relID)
	}
	data, err := i.doc.read(i.part)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", i.relID, err)
	}
	return data, nil
}

type docxTable struct {
	inner []byte
}

// maxTableColumns is the widest table Word can author.
const maxTableColumns = 63

// Rows decodes the table grid. A cell spanning several grid columns is
// repeated for each column; a vertically merged continuation cell repeats
// the text of the cell above it. Spans are clamped to the declared grid,
// and a row wider than maxTableColumns is an error.
func (t *docxTable) Rows() ([][]string, error) {
	var tbl tableXML
	raw := make([]byte, 0, len(t.inner)+len("<tbl></tbl>"))
	raw = append(raw, "<tbl>"...)
	raw = append(raw, t.inner...)
	raw = append(raw, "</tbl>"...)
	if err := xml.Unmarshal(raw, &tbl); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}

	gridCols := len(tbl.Grid.Cols)
	rows := make([][]string, 0, len(tbl.Rows))
	var prev []string
	for i, tr := range tbl.Rows {
		var row []string
		for _, tc := range tr.Cells {
			span := 1
			if n, err := strconv.Atoi(tc.Props.GridSpan.Val); err == nil && n > 1 {
				span = n
			}
			if gridCols > 0 && span > gridCols {
				span = gridCols
			}
			if len(row)+span > maxTableColumns {
				return nil, fmt.Errorf("table row %d is wider than %d columns", i+1, maxTableColumns)
			}

			texts := make([]string, 0, len(tc.Paragraphs))
			for _, p := range tc.Paragraphs {
				texts = append(texts, p.Text)
			}
			cell := strings.TrimSpace(norm.NFC.String(strings.Join(texts, "\n")))

			continued := tc.Props.VMerge != nil && tc.Props.VMerge.Val != "restart"
			for k := 0; k < span; k++ {
				col := len(row)
				if continued && col < len(prev) {
					row = append(row, prev[col])
					continue
				}
				row = append(row, cell)
			}
		}
		rows = append(rows, row)
		prev = row
	}
	return rows, nil
}
