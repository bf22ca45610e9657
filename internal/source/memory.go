// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import "github.com/pdiddy/manuscript-formatter/pkg/types"

// Memory is an in-memory Document, used by tests and by callers that build
// manuscripts programmatically.
type Memory struct {
	paragraphs []types.RawParagraph
	images     []ImageRef
	tables     []TableRef
	closed     bool
}

// NewMemory returns a Memory document holding one plain paragraph per line.
func NewMemory(lines ...string) *Memory {
	m := &Memory{}
	for _, l := range lines {
		m.AddParagraph(l, "Normal", false)
	}
	return m
}

// AddParagraph appends a paragraph with the given style and first-run weight.
func (m *Memory) AddParagraph(text, style string, boldFirstRun bool) *Memory {
	m.paragraphs = append(m.paragraphs, types.RawParagraph{
		Index:        len(m.paragraphs),
		Text:         text,
		StyleName:    style,
		BoldFirstRun: boldFirstRun,
	})
	return m
}

// AddImage appends an image. A non-nil err is returned by its Bytes method.
func (m *Memory) AddImage(name string, data []byte, err error) *Memory {
	m.images = append(m.images, MemoryImage{ImageName: name, Data: data, Err: err})
	return m
}

// AddTable appends a table. A non-nil err is returned by its Rows method.
func (m *Memory) AddTable(rows [][]string, err error) *Memory {
	m.tables = append(m.tables, MemoryTable{Grid: rows, Err: err})
	return m
}

func (m *Memory) Paragraphs() []types.RawParagraph { return m.paragraphs }
func (m *Memory) Images() []ImageRef               { return m.images }
func (m *Memory) Tables() []TableRef               { return m.tables }

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool { return m.closed }

// MemoryImage is an ImageRef over a byte slice.
type MemoryImage struct {
	ImageName string
	Data      []byte
	Err       error
}

func (i MemoryImage) Name() string { return i.ImageName }

func (i MemoryImage) Bytes() ([]byte, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	return i.Data, nil
}

// MemoryTable is a TableRef over a fixed grid.
type MemoryTable struct {
	Grid [][]string
	Err  error
}

func (t MemoryTable) Rows() ([][]string, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	return t.Grid, nil
}
