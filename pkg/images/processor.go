// Package images prepares uploaded images for Ghost: decode, bound the
// dimensions and re-encode.
package images

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

// Processor resizes images that exceed the configured bounds. Images that
// already fit pass through untouched.
type Processor struct {
	maxWidth  int
	maxHeight int
}

// NewProcessor builds a processor with the given dimension bounds.
func NewProcessor(maxWidth, maxHeight int) *Processor {
	return &Processor{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Prepare decodes the image, scales it down to fit the bounds when needed
// and re-encodes it in its original format. Undecodable input yields an
// IMAGE_PROCESSING_ERROR.
func (p *Processor) Prepare(filename string, data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewImageProcessingError("decode", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= p.maxWidth && bounds.Dy() <= p.maxHeight {
		return data, nil
	}

	resized := imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	logger.Debugw("resized image before upload",
		"filename", filename,
		"from_width", bounds.Dx(), "from_height", bounds.Dy(),
		"to_width", resized.Bounds().Dx(), "to_height", resized.Bounds().Dy())

	format, err := formatFor(filename)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, errors.NewImageProcessingError("encode", err)
	}
	return buf.Bytes(), nil
}

// formatFor picks the output encoding from the file extension.
func formatFor(filename string) (imaging.Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return imaging.Format(0), errors.NewImageProcessingError("encode", err)
	}
	return format, nil
}

// Dimensions reports the decoded width and height, for validation before
// upload.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.NewImageProcessingError("decode", err)
	}
	return cfg.Width, cfg.Height, nil
}
