package core

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// CellAccessor reads material values out of a dense voxel grid without
// exposing its storage layout. Coordinates outside [0, extent) on any
// axis resolve to air (0) - no wraparound, no error.
type CellAccessor interface {
	Get(x, y, z int) uint8
	Extents() (wx, wy, wz int)
}

// VoxelGrid is a dense 3D occupancy grid stored one cell per byte,
// addressed by index = x + y*Wx + z*Wx*Wy. Cell value 0 is air; values
// 1..K-1 select a material from the palette.
type VoxelGrid struct {
	Wx, Wy, Wz int
	Cells      []uint8
}

// NewVoxelGrid allocates an empty grid with the given extents.
func NewVoxelGrid(wx, wy, wz int) *VoxelGrid {
	return &VoxelGrid{
		Wx:    wx,
		Wy:    wy,
		Wz:    wz,
		Cells: make([]uint8, wx*wy*wz),
	}
}

// WrapVoxelGrid adopts an externally produced cell buffer. Extent/buffer
// mismatch is the one fatal ingestion condition and is rejected here so
// the traversal hot path never has to re-check it.
func WrapVoxelGrid(wx, wy, wz int, cells []uint8) (*VoxelGrid, error) {
	if wx <= 0 || wy <= 0 || wz <= 0 {
		return nil, errors.New("voxel grid extents must be positive").
			WithTag("wx", wx).
			WithTag("wy", wy).
			WithTag("wz", wz)
	}
	if len(cells) != wx*wy*wz {
		return nil, errors.New("voxel grid buffer length does not match extents").
			WithTag("want", wx*wy*wz).
			WithTag("got", len(cells))
	}
	return &VoxelGrid{Wx: wx, Wy: wy, Wz: wz, Cells: cells}, nil
}

func (g *VoxelGrid) Extents() (int, int, int) {
	return g.Wx, g.Wy, g.Wz
}

// Index computes the linear index of a cell. Callers must ensure the
// coordinate is in bounds.
func (g *VoxelGrid) Index(x, y, z int) int {
	return x + y*g.Wx + z*g.Wx*g.Wy
}

func (g *VoxelGrid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.Wx && y >= 0 && y < g.Wy && z >= 0 && z < g.Wz
}

func (g *VoxelGrid) Get(x, y, z int) uint8 {
	if !g.InBounds(x, y, z) {
		return 0
	}
	return g.Cells[g.Index(x, y, z)]
}

func (g *VoxelGrid) Set(x, y, z int, v uint8) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.Cells[g.Index(x, y, z)] = v
}

// FillBox sets every cell in [x0,x1)x[y0,y1)x[z0,z1) to v, clipped to
// the grid bounds.
func (g *VoxelGrid) FillBox(x0, y0, z0, x1, y1, z1 int, v uint8) {
	for z := max(z0, 0); z < min(z1, g.Wz); z++ {
		for y := max(y0, 0); y < min(y1, g.Wy); y++ {
			for x := max(x0, 0); x < min(x1, g.Wx); x++ {
				g.Cells[g.Index(x, y, z)] = v
			}
		}
	}
}

// Diagonal returns the length of the grid's space diagonal in cells.
func (g *VoxelGrid) Diagonal() float64 {
	fx, fy, fz := float64(g.Wx), float64(g.Wy), float64(g.Wz)
	return math.Sqrt(fx*fx + fy*fy + fz*fz)
}

// PackedGrid stores four 8-bit cells per 32-bit word, matching the
// layout world loaders upload to GPU storage buffers. Same addressing
// as VoxelGrid; the accessor unpacks on read.
type PackedGrid struct {
	Wx, Wy, Wz int
	Words      []uint32
}

// PackGrid converts a one-cell-per-byte grid into the packed layout.
// Cell i lives in word i/4, byte lane i%4 (little-endian lane order).
func PackGrid(g *VoxelGrid) *PackedGrid {
	n := g.Wx * g.Wy * g.Wz
	words := make([]uint32, (n+3)/4)
	for i, c := range g.Cells {
		words[i>>2] |= uint32(c) << ((i & 3) * 8)
	}
	return &PackedGrid{Wx: g.Wx, Wy: g.Wy, Wz: g.Wz, Words: words}
}

// WrapPackedGrid adopts an externally produced word buffer.
func WrapPackedGrid(wx, wy, wz int, words []uint32) (*PackedGrid, error) {
	if wx <= 0 || wy <= 0 || wz <= 0 {
		return nil, errors.New("packed grid extents must be positive").
			WithTag("wx", wx).
			WithTag("wy", wy).
			WithTag("wz", wz)
	}
	n := wx * wy * wz
	if len(words) != (n+3)/4 {
		return nil, errors.New("packed grid buffer length does not match extents").
			WithTag("want", (n+3)/4).
			WithTag("got", len(words))
	}
	return &PackedGrid{Wx: wx, Wy: wy, Wz: wz, Words: words}, nil
}

func (g *PackedGrid) Extents() (int, int, int) {
	return g.Wx, g.Wy, g.Wz
}

func (g *PackedGrid) Get(x, y, z int) uint8 {
	if x < 0 || x >= g.Wx || y < 0 || y >= g.Wy || z < 0 || z >= g.Wz {
		return 0
	}
	i := x + y*g.Wx + z*g.Wx*g.Wy
	return uint8(g.Words[i>>2] >> ((i & 3) * 8))
}
