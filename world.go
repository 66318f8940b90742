package main

import (
	"math/rand"

	"voxelray/core"
	"voxelray/network"
)

// buildDemoWorld fills a grid with the demo scene: a solid floor slab,
// a centered cube, and randomly scattered blocks.
func buildDemoWorld(size, randomBlocks int, seed int64) *core.VoxelGrid {
	grid := core.NewVoxelGrid(size, size, size)

	grid.FillBox(0, 0, 0, size, 1, size, 8)
	grid.FillBox(4, 4, 4, 12, 12, 12, 3)

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < randomBlocks; i++ {
		x, y, z := rng.Intn(size), rng.Intn(size), rng.Intn(size)
		grid.Set(x, y, z, uint8(1+rng.Intn(core.PaletteSize()-1)))
	}
	return grid
}

// chunkUpdate is a pending world edit received from the chunk server,
// applied between frames so the grid stays immutable during a render.
type chunkUpdate struct {
	pos       [3]int32
	cells     []byte
	blockType int8
	mono      bool
}

func applyChunkUpdate(grid *core.VoxelGrid, u chunkUpdate) {
	ox := int(u.pos[0]) * network.ChunkSize
	oy := int(u.pos[1]) * network.ChunkSize
	oz := int(u.pos[2]) * network.ChunkSize

	if u.mono {
		grid.FillBox(ox, oy, oz,
			ox+network.ChunkSize, oy+network.ChunkSize, oz+network.ChunkSize,
			uint8(u.blockType))
		return
	}
	for z := 0; z < network.ChunkSize; z++ {
		for y := 0; y < network.ChunkSize; y++ {
			for x := 0; x < network.ChunkSize; x++ {
				i := x + y*network.ChunkSize + z*network.ChunkSize*network.ChunkSize
				grid.Set(ox+x, oy+y, oz+z, u.cells[i])
			}
		}
	}
}
