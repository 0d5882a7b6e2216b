package objectstore

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // registers JPEG for DecodeConfig
	_ "image/png"  // registers PNG for DecodeConfig

	_ "golang.org/x/image/webp" // registers WebP for DecodeConfig
)

// MaxImageBytes is the largest banner accepted (2 MB).
const MaxImageBytes = 2 << 20

// ImageInfo describes a validated upload.
type ImageInfo struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
	Size        int
}

var formats = map[string]struct{ contentType, ext string }{
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"webp": {"image/webp", ".webp"},
}

// ProbeImage checks size and format and reads the dimensions from the
// header. The format is taken from the bytes, never from a client supplied
// filename or content type.
func ProbeImage(data []byte) (ImageInfo, error) {
	if len(data) > MaxImageBytes {
		return ImageInfo{}, fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, len(data), MaxImageBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	f, ok := formats[format]
	if !ok {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	return ImageInfo{
		ContentType: f.contentType,
		Ext:         f.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        len(data),
	}, nil
}
