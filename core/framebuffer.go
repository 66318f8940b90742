package core

// Framebuffer holds the two same-resolution output surfaces the tracer
// writes: an RGBA color sample and a scalar depth/distance per pixel.
// Pixel (0,0) is the bottom-left corner, matching the NDC convention of
// the camera unprojection.
type Framebuffer struct {
	Width, Height int
	Color         []RGBA
	Depth         []float32
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]RGBA, width*height),
		Depth:  make([]float32, width*height),
	}
}

// SetPixel writes one result. Out-of-range coordinates are silently
// skipped, not clamped or wrapped.
func (f *Framebuffer) SetPixel(x, y int, c RGBA, depth float32) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	i := y*f.Width + x
	f.Color[i] = c
	f.Depth[i] = depth
}

func (f *Framebuffer) ColorAt(x, y int) RGBA {
	return f.Color[y*f.Width+x]
}

func (f *Framebuffer) DepthAt(x, y int) float32 {
	return f.Depth[y*f.Width+x]
}
