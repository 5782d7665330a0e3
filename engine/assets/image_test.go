package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage writes a 2x2 PNG with a red top-left pixel and a blue
// bottom-left pixel, so row flipping is observable.
func writeTestImage(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func TestLoadImage(t *testing.T) {
	path := writeTestImage(t)

	data, err := LoadImage(path, false)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(2), data.Height)
	assert.Equal(t, uint8(4), data.ChannelCount)
	require.Len(t, data.Pixels, 2*2*4)

	// Top-left pixel is red.
	assert.Equal(t, uint8(255), data.Pixels[0])
	assert.Equal(t, uint8(0), data.Pixels[2])
}

func TestLoadImageFlipY(t *testing.T) {
	path := writeTestImage(t)

	data, err := LoadImage(path, true)
	require.NoError(t, err)

	// The blue bottom-left pixel moved to the top row.
	assert.Equal(t, uint8(0), data.Pixels[0])
	assert.Equal(t, uint8(255), data.Pixels[2])
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"), false)
	require.Error(t, err)
}

func TestImageDataResize(t *testing.T) {
	path := writeTestImage(t)
	data, err := LoadImage(path, false)
	require.NoError(t, err)

	resized := data.Resize(4, 4)
	assert.Equal(t, uint32(4), resized.Width)
	assert.Equal(t, uint32(4), resized.Height)
	assert.Len(t, resized.Pixels, 4*4*4)

	// The source is untouched.
	assert.Equal(t, uint32(2), data.Width)
}
