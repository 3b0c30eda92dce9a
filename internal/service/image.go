package service

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the WebP decoder with image.Decode
)

// chartJPEGQuality is used when a downscaled JPEG chart is re-encoded.
const chartJPEGQuality = 90

// =============================================================================
// Interface Definition
// =============================================================================

// ImageProcessor shrinks uploaded images before they are stored.
type ImageProcessor interface {
	// Fit decodes data and, when either side exceeds maxDimension, resizes
	// it to fit while keeping the aspect ratio. Images already small enough
	// come back unchanged. The returned content type may differ from the
	// input when the source format cannot be re-encoded (WebP becomes PNG).
	Fit(data []byte, contentType string, maxDimension int) ([]byte, string, error)
}

// =============================================================================
// Implementation
// =============================================================================

type imagingProcessor struct{}

// NewImagingProcessor creates an ImageProcessor backed by the imaging library.
func NewImagingProcessor() ImageProcessor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) Fit(data []byte, contentType string, maxDimension int) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image header: %w", err)
	}
	if maxDimension <= 0 || (cfg.Width <= maxDimension && cfg.Height <= maxDimension) {
		return data, contentType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	format, outType := imaging.PNG, "image/png"
	switch contentType {
	case "image/jpeg":
		format, outType = imaging.JPEG, contentType
	case "image/gif":
		format, outType = imaging.GIF, contentType
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(chartJPEGQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), outType, nil
}
