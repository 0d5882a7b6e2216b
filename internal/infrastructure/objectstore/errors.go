package objectstore

import "errors"

var (
	// ErrImageTooLarge is returned for banners over MaxImageBytes.
	ErrImageTooLarge = errors.New("objectstore: image too large")

	// ErrUnsupportedImage is returned for anything but JPEG, PNG or WebP.
	ErrUnsupportedImage = errors.New("objectstore: unsupported image type")

	// ErrNotConfigured is returned when storage is disabled in config.
	ErrNotConfigured = errors.New("objectstore: storage not configured")
)
