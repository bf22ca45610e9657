// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fallback dimensions used when an image header cannot be decoded.
const (
	FallbackWidth  = 800
	FallbackHeight = 600
)

// ImageSize returns the pixel dimensions of an image blob, or the 800x600
// fallback when the header cannot be decoded.
func ImageSize(data []byte) (int, int) {
	w, h, err := DecodeImageSize(data)
	if err != nil {
		return FallbackWidth, FallbackHeight
	}
	return w, h
}

// DecodeImageSize decodes the image header and returns its dimensions.
func DecodeImageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("image has degenerate size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// VerifyImage decodes the whole image, pixel data included. A blob with a
// valid signature and header can still fail here when its body is corrupt
// or truncated.
func VerifyImage(data []byte) error {
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	return nil
}

// SniffFormat identifies an image format from its leading bytes. It
// returns "" for unrecognised data.
func SniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	}
	return ""
}
