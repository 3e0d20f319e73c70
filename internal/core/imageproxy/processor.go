// Package imageproxy renders stored images the way preview URLs describe:
// cropped to the requested box around a gravity anchor and re-encoded at
// the requested quality.
package imageproxy

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"Atelie/internal/appwrite"
)

// DefaultQuality is used when a preview does not set one.
const DefaultQuality = 90

// Processor renders previews.
type Processor interface {
	// Process returns the rendered image and its content type.
	Process(data []byte, preview appwrite.Preview) ([]byte, string, error)
}

// ImageProcessor implements the Processor interface using the imaging library.
type ImageProcessor struct{}

// NewProcessor creates a new ImageProcessor instance.
func NewProcessor() Processor {
	return &ImageProcessor{}
}

// Process decodes data, fits it to the preview box and encodes it again.
// PNG stays PNG; JPEG and WebP sources are encoded as JPEG. Images are never upscaled.
func (p *ImageProcessor) Process(data []byte, preview appwrite.Preview) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image data", ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, "", fmt.Errorf("%w: failed to decode image: %v", ErrProcessingFailed, err)
	}
	if format != "jpeg" && format != "png" && format != "webp" {
		return nil, "", fmt.Errorf("%w: format %s", ErrUnsupportedFormat, format)
	}

	processed := fit(img, preview)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, processed); err != nil {
			return nil, "", fmt.Errorf("%w: failed to encode PNG: %v", ErrProcessingFailed, err)
		}
		return buf.Bytes(), "image/png", nil
	}

	quality := preview.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("%w: failed to encode JPEG: %v", ErrProcessingFailed, err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// fit crops to the box when both sides are given and scales when only one is.
func fit(img image.Image, preview appwrite.Preview) image.Image {
	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()
	width, height := preview.Width, preview.Height

	switch {
	case width > 0 && height > 0:
		// Shrink the box, keeping its aspect ratio, until it fits inside the source.
		if width > srcWidth || height > srcHeight {
			if width*srcHeight > height*srcWidth {
				height = max(1, height*srcWidth/width)
				width = srcWidth
			} else {
				width = max(1, width*srcHeight/height)
				height = srcHeight
			}
		}
		if width == srcWidth && height == srcHeight {
			return img
		}
		return imaging.Fill(img, width, height, anchor(preview.Gravity), imaging.Lanczos)
	case width > 0 && width < srcWidth:
		return imaging.Resize(img, width, 0, imaging.Lanczos)
	case height > 0 && height < srcHeight:
		return imaging.Resize(img, 0, height, imaging.Lanczos)
	default:
		return img
	}
}

func anchor(gravity string) imaging.Anchor {
	switch strings.ToLower(gravity) {
	case "top-left":
		return imaging.TopLeft
	case "top":
		return imaging.Top
	case "top-right":
		return imaging.TopRight
	case "left":
		return imaging.Left
	case "right":
		return imaging.Right
	case "bottom-left":
		return imaging.BottomLeft
	case "bottom":
		return imaging.Bottom
	case "bottom-right":
		return imaging.BottomRight
	default:
		return imaging.Center
	}
}
