// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
)

// Format is a supported (or recognised) manuscript container format.
type Format string

const (
	FormatUnknown    Format = ""
	FormatDOCX       Format = "docx"
	FormatMarkdown   Format = "md"
	FormatLegacyWord Format = "doc"
)

// Extension returns the file extension, with leading dot, used for outputs
// of this format.
func (f Format) Extension() string {
	switch f {
	case FormatDOCX:
		return ".docx"
	case FormatMarkdown:
		return ".md"
	case FormatLegacyWord:
		return ".doc"
	default:
		return ""
	}
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// OLE2 stream names that identify the container's payload.
const (
	streamEncryptedPackage = "EncryptedPackage"
	streamWordDocument     = "WordDocument"
)

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// DetectFormat identifies the container format from magic bytes, falling
// back to the file extension for plain-text Markdown. OLE2 containers are
// inspected: an encrypted OOXML package returns ErrEncrypted, a Word 97-2003
// document returns FormatLegacyWord together with ErrLegacyWord.
func DetectFormat(name string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatDOCX, nil
	case bytes.HasPrefix(data, oleMagic):
		return inspectOLE(data)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if markdownExts[ext] && utf8.Valid(data) && bytes.IndexByte(data, 0) < 0 {
		return FormatMarkdown, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

func inspectOLE(data []byte) (Format, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: reading OLE2 container: %v", ErrUnsupportedFormat, err)
	}
	for _, entry := range doc.File {
		switch entry.Name {
		case streamEncryptedPackage:
			return FormatUnknown, ErrEncrypted
		case streamWordDocument:
			return FormatLegacyWord, ErrLegacyWord
		}
	}
	return FormatUnknown, fmt.Errorf("%w: OLE2 container without a Word document", ErrUnsupportedFormat)
}
