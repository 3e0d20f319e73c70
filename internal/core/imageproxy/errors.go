package imageproxy

import "errors"

var (
	// ErrUnsupportedFormat is returned when the source image format cannot be processed.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrProcessingFailed is returned when image processing fails for any reason.
	ErrProcessingFailed = errors.New("image processing failed")
)
