// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultSofficeImage reads a legacy .doc on stdin and writes the DOCX
// conversion to stdout.
const DefaultSofficeImage = "manuscript-formatter/soffice:latest"

// zipMagic starts every OOXML package.
var zipMagic = []byte("PK\x03\x04")

// SofficeConverter converts legacy Word documents to DOCX by piping them
// through a LibreOffice container image.
type SofficeConverter struct {
	runtime Runtime
	image   string
	log     *zap.Logger
}

// NewSofficeConverter verifies the image exists in rt and returns a
// converter for it. An empty image selects DefaultSofficeImage.
func NewSofficeConverter(ctx context.Context, rt Runtime, image string, log *zap.Logger) (*SofficeConverter, error) {
	if image == "" {
		image = DefaultSofficeImage
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("soffice image not available in %s: %w", rt.Name(), err)
	}
	return &SofficeConverter{runtime: rt, image: image, log: log}, nil
}

// ConvertLegacy returns the DOCX bytes for a legacy Word document.
func (s *SofficeConverter) ConvertLegacy(ctx context.Context, doc []byte) ([]byte, error) {
	var out bytes.Buffer
	s.log.Debug("converting legacy document",
		zap.String("runtime", s.runtime.Name()),
		zap.String("image", s.image),
		zap.Int("bytes", len(doc)))

	if err := s.runtime.Run(ctx, s.image, bytes.NewReader(doc), &out); err != nil {
		return nil, fmt.Errorf("converting legacy document with %s: %w", s.image, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%s produced empty output", s.image)
	}
	if !bytes.HasPrefix(out.Bytes(), zipMagic) {
		return nil, fmt.Errorf("%s produced output that is not a DOCX package", s.image)
	}
	return out.Bytes(), nil
}
