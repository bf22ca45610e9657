// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Markdown is a Document parsed from a Markdown manuscript. Headings carry
// "Heading N" style names; a level-1 heading that opens the document is the
// "Title". Images are read relative to the manuscript's directory or decoded
// from data URIs.
type Markdown struct {
	paragraphs []types.RawParagraph
	images     []ImageRef
	tables     []TableRef
}

// OpenMarkdown parses src. baseDir resolves relative image destinations.
func OpenMarkdown(src []byte, baseDir string) (*Markdown, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	m := &Markdown{}
	err := ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			style := fmt.Sprintf("Heading %d", n.Level)
			if n.Level == 1 && n.PreviousSibling() == nil && n.Parent() == root {
				style = "Title"
			}
			m.addParagraph(n, src, style)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			m.addParagraph(n, src, "Normal")
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			m.addCodeBlock(n, src)
			return ast.WalkSkipChildren, nil
		case *east.Table:
			m.tables = append(m.tables, markdownTable{rows: tableRows(n, src)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown: %w", err)
	}

	// Images are collected in a second pass so inline images inside
	// paragraphs, headings and tables are all found in document order.
	err = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := node.(*ast.Image); ok && entering {
			m.images = append(m.images, &markdownImage{
				dest:    string(img.Destination),
				baseDir: baseDir,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown images: %w", err)
	}
	return m, nil
}

func (m *Markdown) Paragraphs() []types.RawParagraph { return m.paragraphs }
func (m *Markdown) Images() []ImageRef               { return m.images }
func (m *Markdown) Tables() []TableRef               { return m.tables }
func (m *Markdown) Close() error                     { return nil }

func (m *Markdown) addParagraph(n ast.Node, src []byte, style string) {
	bold := false
	if first := n.FirstChild(); first != nil {
		if em, ok := first.(*ast.Emphasis); ok && em.Level == 2 {
			bold = true
		}
	}
	m.paragraphs = append(m.paragraphs, types.RawParagraph{
		Index:        len(m.paragraphs),
		Text:         norm.NFC.String(inlineText(n, src)),
		StyleName:    style,
		BoldFirstRun: bold,
	})
}

func (m *Markdown) addCodeBlock(n ast.Node, src []byte) {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	m.paragraphs = append(m.paragraphs, types.RawParagraph{
		Index:     len(m.paragraphs),
		Text:      norm.NFC.String(strings.TrimRight(b.String(), "\n")),
		StyleName: "Normal",
	})
}

// inlineText concatenates the text of n's inline descendants. Images
// contribute nothing; line breaks become spaces.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(t.Value)
			case *ast.AutoLink:
				b.Write(t.URL(src))
			case *ast.Image, *ast.RawHTML:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimRight(b.String(), " ")
}

func tableRows(tbl *east.Table, src []byte) [][]string {
	var rows [][]string
	for r := tbl.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				row = append(row, strings.TrimSpace(norm.NFC.String(inlineText(c, src))))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

type markdownTable struct {
	rows [][]string
}

func (t markdownTable) Rows() ([][]string, error) { return t.rows, nil }

type markdownImage struct {
	dest    string
	baseDir string
}

func (i *markdownImage) Name() string {
	if strings.HasPrefix(i.dest, "data:") {
		if semi := strings.IndexAny(i.dest, ";,"); semi > 0 {
			return i.dest[:semi]
		}
		return "data:"
	}
	return i.dest
}

func (i *markdownImage) Bytes() ([]byte, error) {
	if strings.HasPrefix(i.dest, "data:") {
		return decodeDataURI(i.dest)
	}
	u, err := url.Parse(i.dest)
	if err == nil && u.Scheme != "" && u.Scheme != "file" {
		return nil, fmt.Errorf("image %s: remote images are not fetched", i.dest)
	}
	p := i.dest
	if err == nil && u.Scheme == "file" {
		p = u.Path
	} else if unescaped, uerr := url.PathUnescape(p); uerr == nil {
		p = unescaped
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(i.baseDir, filepath.FromSlash(p))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", i.dest, err)
	}
	return data, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URI: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(s), nil
}
