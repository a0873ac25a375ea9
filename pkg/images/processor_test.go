package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreparePassesThroughSmallImages(t *testing.T) {
	t.Parallel()

	p := NewProcessor(100, 100)
	data := pngBytes(t, 50, 40)

	out, err := p.Prepare("small.png", data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestPrepareResizesLargeImages(t *testing.T) {
	t.Parallel()

	p := NewProcessor(40, 40)
	data := pngBytes(t, 100, 50)

	out, err := p.Prepare("large.png", data)
	require.NoError(t, err)

	w, h, err := Dimensions(out)
	require.NoError(t, err)
	// Fit preserves aspect ratio within the bounding box.
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}

func TestPrepareRejectsUndecodableInput(t *testing.T) {
	t.Parallel()

	p := NewProcessor(100, 100)

	_, err := p.Prepare("bogus.png", []byte("not an image"))
	require.Error(t, err)

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeImageProcessing, e.Code)
	assert.Equal(t, "decode", e.Operation)
}

func TestPrepareUnknownExtension(t *testing.T) {
	t.Parallel()

	p := NewProcessor(40, 40)
	data := pngBytes(t, 100, 50)

	_, err := p.Prepare("large.xyz", data)
	require.Error(t, err)

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeImageProcessing, e.Code)
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	w, h, err := Dimensions(pngBytes(t, 12, 34))
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 34, h)
}
