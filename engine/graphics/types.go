package graphics

// FrameSize is the pixel size of a frame buffer or texture.
type FrameSize struct {
	Width  uint32
	Height uint32
}

func (fs FrameSize) IsZero() bool {
	return fs.Width == 0 || fs.Height == 0
}

type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatRGBA8Unorm
	PixelFormatBGRA8Unorm
	PixelFormatR32Float
	PixelFormatDepth32Float
	PixelFormatDepth24Stencil8
)

func (pf PixelFormat) IsDepth() bool {
	return pf == PixelFormatDepth32Float || pf == PixelFormatDepth24Stencil8
}

// Color4 is an RGBA clear color.
type Color4 struct {
	R, G, B, A float32
}

// DepthStencil is a depth/stencil clear value pair.
type DepthStencil struct {
	Depth   float32
	Stencil uint32
}

type ShaderType uint8

const (
	ShaderTypeAll ShaderType = iota
	ShaderTypeVertex
	ShaderTypePixel
)

func (st ShaderType) String() string {
	switch st {
	case ShaderTypeAll:
		return "All"
	case ShaderTypeVertex:
		return "Vertex"
	case ShaderTypePixel:
		return "Pixel"
	}
	return "Unknown"
}
