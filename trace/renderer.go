package trace

import (
	"math"
	"runtime"
	"sync"

	"voxelray/core"
)

// Renderer dispatches one traversal per output pixel across a worker
// pool. Pixels are fully independent: each worker pulls rows from a
// shared queue, reads the immutable grid and writes exactly one
// framebuffer location per pixel.
type Renderer struct {
	Tracer  *Tracer
	Workers int

	// Branchless switches the step-selection flavor; output must be
	// identical either way.
	Branchless bool

	// ShadeNormals colors hits by the entered face normal instead of
	// the material palette (debug flavor).
	ShadeNormals bool

	missDepth float32
}

func NewRenderer(tracer *Tracer) *Renderer {
	wx, wy, wz := tracer.grid.Extents()
	return &Renderer{
		Tracer:  tracer,
		Workers: runtime.NumCPU(),
		// Miss depth saturates at the grid diagonal so it is always
		// distinguishable from an in-grid hit.
		missDepth: float32(math.Sqrt(float64(wx*wx + wy*wy + wz*wz))),
	}
}

// MissDepth is the canonical depth written for rays that exhaust their
// step budget. Miss color is transparent black.
func (r *Renderer) MissDepth() float32 { return r.missDepth }

// Render traces every pixel of the framebuffer. Safe to call
// repeatedly; results depend only on the grid and camera.
func (r *Renderer) Render(cam Camera, fb *core.Framebuffer) {
	rows := make(chan int, fb.Height)
	for y := 0; y < fb.Height; y++ {
		rows <- y
	}
	close(rows)

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for y := range rows {
				r.renderRow(cam, fb, y)
			}
		}()
	}
	wg.Wait()
}

func (r *Renderer) renderRow(cam Camera, fb *core.Framebuffer, y int) {
	for x := 0; x < fb.Width; x++ {
		ray := cam.PixelRay(x, y, fb.Width, fb.Height)

		var res Result
		if r.Branchless {
			res = r.Tracer.TraceBranchless(ray)
		} else {
			res = r.Tracer.Trace(ray)
		}

		if !res.Hit {
			fb.SetPixel(x, y, core.RGBA{}, r.missDepth)
			continue
		}
		fb.SetPixel(x, y, r.shade(res), float32(res.Distance))
	}
}

func (r *Renderer) shade(res Result) core.RGBA {
	if r.ShadeNormals {
		n := res.Normal
		return core.RGBA{
			R: float32(0.5 + 0.5*n.X),
			G: float32(0.5 + 0.5*n.Y),
			B: float32(0.5 + 0.5*n.Z),
			A: 1,
		}
	}
	return core.Palette[res.Material]
}
