package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGridIndexing(t *testing.T) {
	g := NewVoxelGrid(4, 5, 6)
	require.Equal(t, 0, g.Index(0, 0, 0))
	require.Equal(t, 1, g.Index(1, 0, 0))
	require.Equal(t, 4, g.Index(0, 1, 0))
	require.Equal(t, 20, g.Index(0, 0, 1))
	require.Equal(t, 4*5*6-1, g.Index(3, 4, 5))
}

func TestGridOutOfBoundsReadsAir(t *testing.T) {
	g := NewVoxelGrid(4, 4, 4)
	g.FillBox(0, 0, 0, 4, 4, 4, 7)

	require.EqualValues(t, 7, g.Get(0, 0, 0))
	require.EqualValues(t, 0, g.Get(-1, 0, 0))
	require.EqualValues(t, 0, g.Get(4, 0, 0))
	require.EqualValues(t, 0, g.Get(0, -1, 0))
	require.EqualValues(t, 0, g.Get(0, 4, 0))
	require.EqualValues(t, 0, g.Get(0, 0, -1))
	require.EqualValues(t, 0, g.Get(0, 0, 4))
}

func TestWrapVoxelGridValidatesLength(t *testing.T) {
	_, err := WrapVoxelGrid(4, 4, 4, make([]uint8, 63))
	require.Error(t, err)

	_, err = WrapVoxelGrid(0, 4, 4, nil)
	require.Error(t, err)

	g, err := WrapVoxelGrid(4, 4, 4, make([]uint8, 64))
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestPackedGridMatchesUnpacked(t *testing.T) {
	g := NewVoxelGrid(7, 5, 3) // deliberately not word-aligned
	rng := rand.New(rand.NewSource(42))
	for i := range g.Cells {
		g.Cells[i] = uint8(rng.Intn(256))
	}

	p := PackGrid(g)
	for z := -1; z <= g.Wz; z++ {
		for y := -1; y <= g.Wy; y++ {
			for x := -1; x <= g.Wx; x++ {
				require.Equal(t, g.Get(x, y, z), p.Get(x, y, z),
					"cell (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestWrapPackedGridValidatesLength(t *testing.T) {
	_, err := WrapPackedGrid(4, 4, 4, make([]uint32, 15))
	require.Error(t, err)

	g, err := WrapPackedGrid(4, 4, 4, make([]uint32, 16))
	require.NoError(t, err)
	require.NotNil(t, g)
}
