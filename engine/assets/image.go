package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/prismengine/prism/engine/core"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// ImageData is a decoded image in tightly packed RGBA order, ready to be
// uploaded into a texture.
type ImageData struct {
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8
}

// LoadImage decodes the image file at path into RGBA pixel data. When
// flipY is set the rows are reversed, matching the texture coordinate
// convention of the rendering backend.
func LoadImage(path string, flipY bool) (*ImageData, error) {
	file, err := os.Open(path)
	if err != nil {
		core.LogError("failed to open image %q: %s", path, err)
		return nil, err
	}
	defer file.Close()

	decoded, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", path, err)
	}
	core.LogDebug("decoded %s image %q", format, path)

	bounds := decoded.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, draw.Src)

	if flipY {
		flipVertically(rgba)
	}

	return &ImageData{
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}, nil
}

// Resize scales the image to the given dimensions with bilinear filtering.
func (d *ImageData) Resize(width, height uint32) *ImageData {
	src := &image.RGBA{
		Pix:    d.Pixels,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return &ImageData{
		Width:        width,
		Height:       height,
		ChannelCount: 4,
		Pixels:       dst.Pix,
	}
}

func flipVertically(img *image.RGBA) {
	rowBytes := img.Stride
	height := img.Rect.Dy()
	tmp := make([]uint8, rowBytes)
	for y := 0; y < height/2; y++ {
		top := img.Pix[y*rowBytes : (y+1)*rowBytes]
		bottom := img.Pix[(height-1-y)*rowBytes : (height-y)*rowBytes]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}
