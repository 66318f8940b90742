package trace

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelray/core"
)

func TestMissWhenPointingAway(t *testing.T) {
	grid := core.NewVoxelGrid(8, 8, 8)
	grid.FillBox(0, 0, 0, 8, 8, 8, 1)
	tr := NewTracer(grid, 64)

	rays := []Ray{
		{Origin: core.Vector3{X: 10, Y: 10, Z: 10}, Direction: core.Vector3{Z: 1}},
		{Origin: core.Vector3{X: -2, Y: 4, Z: 4}, Direction: core.Vector3{X: -1}},
		{Origin: core.Vector3{X: 4, Y: 12, Z: 4}, Direction: core.Vector3{Y: 1}},
	}
	for _, r := range rays {
		res := tr.Trace(r)
		require.False(t, res.Hit)
		require.Equal(t, tr.MaxSteps(), res.Steps)
	}
}

func TestHitSingleCell(t *testing.T) {
	grid := core.NewVoxelGrid(16, 16, 16)
	grid.Set(8, 8, 8, 2)
	tr := NewTracer(grid, 512)

	r := Ray{
		Origin:    core.Vector3{X: 8.5, Y: 8.5, Z: -2},
		Direction: core.Vector3{Z: 1},
	}
	res := tr.Trace(r)
	require.True(t, res.Hit)
	require.EqualValues(t, 2, res.Material)

	// The recorded distance is min(tMax) when the occupied cell is
	// found: for this axis-aligned ray that is the crossing of the
	// z=9 boundary, (9 - origin.z) / dir.z.
	require.InDelta(t, 11.0, res.Distance, 1e-12)

	// Entered through the -z face
	require.Equal(t, core.Vector3{Z: -1}, res.Normal)
}

func TestHitFromInsideOccupiedCell(t *testing.T) {
	grid := core.NewVoxelGrid(4, 4, 4)
	grid.Set(1, 1, 1, 5)
	tr := NewTracer(grid, 64)

	res := tr.Trace(Ray{
		Origin:    core.Vector3{X: 1.5, Y: 1.5, Z: 1.5},
		Direction: core.Vector3{X: 1},
	})
	require.True(t, res.Hit)
	require.EqualValues(t, 5, res.Material)
	require.Zero(t, res.Steps)
	// No step has happened yet, so there is no entry face.
	require.Equal(t, core.Vector3{}, res.Normal)
}

func TestZeroDirectionIsMiss(t *testing.T) {
	grid := core.NewVoxelGrid(4, 4, 4)
	grid.FillBox(0, 0, 0, 4, 4, 4, 1)
	tr := NewTracer(grid, 64)

	res := tr.Trace(Ray{Origin: core.Vector3{X: 2, Y: 2, Z: 2}})
	require.False(t, res.Hit)

	res = tr.TraceBranchless(Ray{Origin: core.Vector3{X: 2, Y: 2, Z: 2}})
	require.False(t, res.Hit)
}

func TestZeroComponentsDoNotProduceNaN(t *testing.T) {
	grid := core.NewVoxelGrid(8, 8, 8)
	tr := NewTracer(grid, 64)

	dirs := []core.Vector3{
		{X: 1},
		{Y: -1},
		{Z: 1},
		{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2},
		{X: 0, Y: math.Sqrt2 / 2, Z: -math.Sqrt2 / 2},
	}
	for _, d := range dirs {
		tv := newTraversal(Ray{Origin: core.Vector3{X: 3.5, Y: 3.5, Z: 3.5}, Direction: d})
		for i := 0; i < 3; i++ {
			require.False(t, math.IsNaN(tv.tMax[i]), "tMax[%d] for dir %v", i, d)
			require.False(t, math.IsNaN(tv.tDelta[i]), "tDelta[%d] for dir %v", i, d)
		}
		res := tr.Trace(Ray{Origin: core.Vector3{X: 3.5, Y: 3.5, Z: 3.5}, Direction: d})
		require.False(t, res.Hit)
	}
}

func TestOutOfPaletteMaterialIsSteppedOver(t *testing.T) {
	grid := core.NewVoxelGrid(16, 4, 4)
	grid.Set(5, 1, 1, 200) // above palette size, not renderable
	grid.Set(9, 1, 1, 4)
	tr := NewTracer(grid, 64)

	res := tr.Trace(Ray{
		Origin:    core.Vector3{X: 0.5, Y: 1.5, Z: 1.5},
		Direction: core.Vector3{X: 1},
	})
	require.True(t, res.Hit)
	require.EqualValues(t, 4, res.Material, "traversal must continue past out-of-palette cells")
}

func TestMaxStepsRaisedToGridDiagonal(t *testing.T) {
	grid := core.NewVoxelGrid(64, 64, 64)
	tr := NewTracer(grid, 1)
	require.GreaterOrEqual(t, tr.MaxSteps(), int(math.Ceil(grid.Diagonal())))
}

// Branching and branchless step selection must produce identical
// (cell, tMax) sequences for all inputs, including exact boundary ties
// from axis-aligned directions and integer origins.
func TestBranchlessMatchesBranching(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		dir := core.Vector3{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		// Force zero components and exact-tie setups periodically
		switch i % 5 {
		case 1:
			dir.X = 0
		case 2:
			dir.Y = 0
		case 3:
			dir.Z = 0
		case 4:
			dir.X, dir.Y = 0, 0
		}
		if dir == (core.Vector3{}) {
			dir.Z = 1
		}
		dir = dir.Normalize()

		origin := core.Vector3{
			X: rng.Float64() * 8,
			Y: rng.Float64() * 8,
			Z: rng.Float64() * 8,
		}
		if i%7 == 0 {
			// Integer origins with symmetric directions make two axes
			// cross boundaries at exactly the same t.
			origin = core.Vector3{
				X: float64(rng.Intn(8)),
				Y: float64(rng.Intn(8)),
				Z: float64(rng.Intn(8)),
			}
			s := math.Sqrt2 / 2
			dir = core.Vector3{X: s, Y: s}
			if i%14 == 0 {
				dir = core.Vector3{X: 1, Y: 1, Z: 1}.Normalize()
			}
		}

		a := newTraversal(Ray{Origin: origin, Direction: dir})
		b := a
		for s := 0; s < 64; s++ {
			a.advanceBranching()
			b.advanceBranchless()
			require.Equal(t, a.cell, b.cell,
				"iter %d step %d: dir %v origin %v", i, s, dir, origin)
			require.Equal(t, a.tMax, b.tMax,
				"iter %d step %d: dir %v origin %v", i, s, dir, origin)
			require.Equal(t, a.last, b.last,
				"iter %d step %d: dir %v origin %v", i, s, dir, origin)
		}
	}
}

func TestTieBreakOrder(t *testing.T) {
	// All three axes cross at the same t; x must win, then y, then z.
	tv := newTraversal(Ray{
		Origin:    core.Vector3{X: 0, Y: 0, Z: 0},
		Direction: core.Vector3{X: 1, Y: 1, Z: 1}.Normalize(),
	})
	tv.advanceBranching()
	require.Equal(t, [3]int{1, 0, 0}, tv.cell)
	tv.advanceBranching()
	require.Equal(t, [3]int{1, 1, 0}, tv.cell)
	tv.advanceBranching()
	require.Equal(t, [3]int{1, 1, 1}, tv.cell)

	bv := newTraversal(Ray{
		Origin:    core.Vector3{X: 0, Y: 0, Z: 0},
		Direction: core.Vector3{X: 1, Y: 1, Z: 1}.Normalize(),
	})
	bv.advanceBranchless()
	require.Equal(t, [3]int{1, 0, 0}, bv.cell)
	bv.advanceBranchless()
	require.Equal(t, [3]int{1, 1, 0}, bv.cell)
	bv.advanceBranchless()
	require.Equal(t, [3]int{1, 1, 1}, bv.cell)
}

func TestPackedGridTraversal(t *testing.T) {
	grid := core.NewVoxelGrid(16, 16, 16)
	grid.Set(3, 8, 8, 6)
	packed := core.PackGrid(grid)

	tp := NewTracer(packed, 512)
	tu := NewTracer(grid, 512)

	r := Ray{
		Origin:    core.Vector3{X: 8.5, Y: 8.5, Z: 8.5},
		Direction: core.Vector3{X: -1},
	}
	rp := tp.Trace(r)
	ru := tu.Trace(r)
	require.Equal(t, ru, rp)
	require.True(t, rp.Hit)
	require.EqualValues(t, 6, rp.Material)
}
