// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads manuscript containers into raw paragraphs, image
// references and table references. It knows nothing about manuscript
// structure; classification happens in package extract.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Load errors. All are fatal for a pipeline run.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEncrypted         = errors.New("document is encrypted")
	ErrLegacyWord        = errors.New("legacy Word (.doc) document")
)

// Document is an opened manuscript container.
type Document interface {
	// Paragraphs returns the top-level paragraphs in document order.
	Paragraphs() []types.RawParagraph

	// Images returns the embedded image references in container order.
	Images() []ImageRef

	// Tables returns the top-level tables in document order.
	Tables() []TableRef

	Close() error
}

// ImageRef is a lazily loaded embedded image.
type ImageRef interface {
	// Name identifies the image inside the container.
	Name() string

	// Bytes loads the image blob.
	Bytes() ([]byte, error)
}

// TableRef is a lazily decoded table.
type TableRef interface {
	// Rows returns the trimmed cell text, row-major. Rows may differ in length.
	Rows() ([][]string, error)
}

// Load opens data in the given format. baseDir resolves relative image
// paths for Markdown sources and is ignored otherwise.
func Load(format Format, data []byte, baseDir string) (Document, error) {
	switch format {
	case FormatDOCX:
		return OpenDOCX(data)
	case FormatMarkdown:
		return OpenMarkdown(data, baseDir)
	case FormatLegacyWord:
		return nil, ErrLegacyWord
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Open reads the file at path, detects its format and opens it.
func Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	format, err := DetectFormat(path, data)
	if err != nil {
		return nil, fmt.Errorf("detecting format of %s: %w", path, err)
	}
	doc, err := Load(format, data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return doc, nil
}
