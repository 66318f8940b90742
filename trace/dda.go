package trace

import (
	"math"

	"voxelray/core"
)

// stepMargin pads the minimum step budget above the grid's space
// diagonal so rays entering from a corner still cross the whole grid.
const stepMargin = 8

// DefaultMaxSteps bounds worst-case traversal cost for grids up to
// ~1024 cells per axis.
const DefaultMaxSteps = 512

// Result is the outcome of tracing one ray: either a hit with the
// material of the first occupied cell and the boundary-entry distance,
// or a miss after the step budget ran out.
type Result struct {
	Hit      bool
	Material uint8
	Distance float64
	Normal   core.Vector3
	Steps    int
}

// Tracer walks rays cell-by-cell through a voxel grid (Amanatides-Woo
// DDA), stopping at the first occupied cell or after MaxSteps.
type Tracer struct {
	grid        core.CellAccessor
	maxSteps    int
	paletteSize int
}

// NewTracer builds a tracer over the given grid. maxSteps is raised to
// ceil(grid diagonal) + margin if it is too small to cross the grid.
func NewTracer(grid core.CellAccessor, maxSteps int) *Tracer {
	wx, wy, wz := grid.Extents()
	diag := math.Sqrt(float64(wx*wx + wy*wy + wz*wz))
	if floor := int(math.Ceil(diag)) + stepMargin; maxSteps < floor {
		maxSteps = floor
	}
	return &Tracer{
		grid:        grid,
		maxSteps:    maxSteps,
		paletteSize: core.PaletteSize(),
	}
}

func (tr *Tracer) MaxSteps() int { return tr.maxSteps }

// Trace walks the ray with the branching step selection.
func (tr *Tracer) Trace(r Ray) Result {
	return tr.trace(r, (*traversal).advanceBranching)
}

// TraceBranchless walks the ray with the mask-based step selection. It
// produces the same (cell, tMax) sequence as Trace for all inputs,
// including exact boundary ties.
func (tr *Tracer) TraceBranchless(r Ray) Result {
	return tr.trace(r, (*traversal).advanceBranchless)
}

func (tr *Tracer) trace(r Ray, advance func(*traversal)) Result {
	if r.Direction == (core.Vector3{}) {
		// Degenerate ray: every tMax would be +Inf and the walk could
		// never leave the starting cell.
		return Result{}
	}
	t := newTraversal(r)
	for steps := 0; steps < tr.maxSteps; steps++ {
		v := tr.grid.Get(t.cell[0], t.cell[1], t.cell[2])
		if v != 0 && int(v) < tr.paletteSize {
			return Result{
				Hit:      true,
				Material: v,
				Distance: min3(t.tMax[0], t.tMax[1], t.tMax[2]),
				Normal:   t.normal(),
				Steps:    steps,
			}
		}
		// Packed cell values at or above the palette size fall through
		// here and traversal continues past the cell.
		advance(&t)
	}
	return Result{Steps: tr.maxSteps}
}

// traversal is the per-ray DDA state: current cell, per-axis step
// direction, distance to the next boundary crossing (tMax) and distance
// to cross one full cell (tDelta).
type traversal struct {
	cell   [3]int
	step   [3]int
	tMax   [3]float64
	tDelta [3]float64
	last   int // axis stepped most recently; -1 before the first step
}

func newTraversal(r Ray) traversal {
	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}

	t := traversal{last: -1}
	for i := 0; i < 3; i++ {
		t.cell[i] = int(math.Floor(o[i]))
		switch {
		case d[i] > 0:
			t.step[i] = 1
		case d[i] < 0:
			t.step[i] = -1
		}
		if t.step[i] == 0 {
			// Substitute infinity instead of dividing by zero; an inert
			// axis must never win the min selection.
			t.tMax[i] = math.Inf(1)
			t.tDelta[i] = math.Inf(1)
			continue
		}
		next := float64(t.cell[i])
		if t.step[i] > 0 {
			next = float64(t.cell[i] + 1)
		}
		t.tMax[i] = (next - o[i]) / d[i]
		t.tDelta[i] = float64(t.step[i]) / d[i]
	}
	return t
}

// advanceBranching steps the axis with the smallest tMax. Ties break
// x before y before z.
func (t *traversal) advanceBranching() {
	var axis int
	if t.tMax[0] <= t.tMax[1] && t.tMax[0] <= t.tMax[2] {
		axis = 0
	} else if t.tMax[1] <= t.tMax[2] {
		axis = 1
	} else {
		axis = 2
	}
	t.cell[axis] += t.step[axis]
	t.tMax[axis] += t.tDelta[axis]
	t.last = axis
}

// advanceBranchless selects the stepped axis with a cyclic comparison
// mask against the other two axes. Exactly one mask bit is set per
// advance, with the same x-y-z tie ordering as advanceBranching.
func (t *traversal) advanceBranchless() {
	mask := [3]bool{
		t.tMax[0] <= t.tMax[1] && t.tMax[0] <= t.tMax[2],
		t.tMax[1] < t.tMax[0] && t.tMax[1] <= t.tMax[2],
		t.tMax[2] < t.tMax[0] && t.tMax[2] < t.tMax[1],
	}
	for i, m := range mask {
		if m {
			t.cell[i] += t.step[i]
			t.tMax[i] += t.tDelta[i]
			t.last = i
		}
	}
}

// normal derives the face normal of the cell boundary crossed by the
// most recent step. Zero before the first step (ray started inside an
// occupied cell).
func (t *traversal) normal() core.Vector3 {
	if t.last < 0 {
		return core.Vector3{}
	}
	f := float64(-t.step[t.last])
	switch t.last {
	case 0:
		return core.Vector3{X: f}
	case 1:
		return core.Vector3{Y: f}
	default:
		return core.Vector3{Z: f}
	}
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
