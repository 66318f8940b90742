// Package field computes nearest-seed distance fields over cubic voxel
// chunks with the jump-flooding algorithm: log2(N) propagation rounds
// with halving step sizes over a pair of ping-pong seed buffers.
//
// Jump flooding is approximate: with multiple seeds it can miss the
// true nearest seed in specific configurations. That is the accepted
// trade-off for its parallel round structure, not a defect.
package field

import (
	"math"
	"runtime"
	"sync"

	"voxelray/core"
)

// SeedSample is the per-cell propagation record: the coordinates of the
// nearest known seed, meaningful only while Valid is set.
type SeedSample struct {
	X, Y, Z int32
	Valid   bool
}

// SeedBuffer is one of the two ping-pong grids of seed samples.
type SeedBuffer struct {
	N       int
	Samples []SeedSample
}

func NewSeedBuffer(n int) *SeedBuffer {
	return &SeedBuffer{N: n, Samples: make([]SeedSample, n*n*n)}
}

func (b *SeedBuffer) index(x, y, z int) int {
	return x + y*b.N + z*b.N*b.N
}

func (b *SeedBuffer) At(x, y, z int) SeedSample {
	return b.Samples[b.index(x, y, z)]
}

// Occupancy reports whether a cell holds a seed.
type Occupancy func(x, y, z int) bool

// Seed initializes the buffer: occupied cells become their own seed,
// everything else starts invalid.
func Seed(occupied Occupancy, buf *SeedBuffer) {
	n := buf.N
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				s := SeedSample{}
				if occupied(x, y, z) {
					s = SeedSample{X: int32(x), Y: int32(y), Z: int32(z), Valid: true}
				}
				buf.Samples[buf.index(x, y, z)] = s
			}
		}
	}
}

// RunRound executes one propagation round with step size k, reading
// every cell's neighborhood from cur and writing the result into next.
// cur is never written and next never read within the round, so cells
// can be processed in any order and in parallel; the caller swaps the
// buffers once the round returns (the return is the global barrier).
func RunRound(cur, next *SeedBuffer, k, workers int) {
	n := cur.N
	if workers < 1 {
		workers = 1
	}

	slices := make(chan int, n)
	for z := 0; z < n; z++ {
		slices <- z
	}
	close(slices)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for z := range slices {
				roundSlice(cur, next, k, z)
			}
		}()
	}
	wg.Wait()
}

func roundSlice(cur, next *SeedBuffer, k, z int) {
	n := cur.N
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			best := cur.At(x, y, z)
			bestD := seedDist2(x, y, z, best)

			for dz := -k; dz <= k; dz += k {
				for dy := -k; dy <= k; dy += k {
					for dx := -k; dx <= k; dx += k {
						if dx == 0 && dy == 0 && dz == 0 {
							continue
						}
						nx, ny, nz := x+dx, y+dy, z+dz
						if nx < 0 || nx >= n || ny < 0 || ny >= n || nz < 0 || nz >= n {
							continue
						}
						s := cur.At(nx, ny, nz)
						if !s.Valid {
							continue
						}
						if d := seedDist2(x, y, z, s); !best.Valid || d < bestD {
							best = s
							bestD = d
						}
					}
				}
			}
			next.Samples[next.index(x, y, z)] = best
		}
	}
}

// seedDist2 is the squared Euclidean distance from cell (x,y,z) to the
// sample's seed position.
func seedDist2(x, y, z int, s SeedSample) float64 {
	dx := float64(int32(x) - s.X)
	dy := float64(int32(y) - s.Y)
	dz := float64(int32(z) - s.Z)
	return dx*dx + dy*dy + dz*dz
}

// Sentinel is the distance written for cells with no reachable seed:
// the grid's space diagonal, strictly above any achievable in-grid
// distance.
func Sentinel(n int) float32 {
	return float32(float64(n) * math.Sqrt(3))
}

// Finalize resolves the current buffer into a distance field.
func Finalize(cur *SeedBuffer, out *core.DistanceField) {
	n := cur.N
	sentinel := Sentinel(n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				s := cur.At(x, y, z)
				d := sentinel
				if s.Valid {
					d = float32(math.Sqrt(seedDist2(x, y, z, s)))
				}
				out.Values[out.Index(x, y, z)] = d
			}
		}
	}
}

// Generator owns the ping-pong buffers and runs the full round
// sequence. One Generator computes fields for a fixed chunk size N.
type Generator struct {
	N       int
	Workers int

	bufA, bufB *SeedBuffer
}

func NewGenerator(n int) *Generator {
	return &Generator{
		N:       n,
		Workers: runtime.NumCPU(),
		bufA:    NewSeedBuffer(n),
		bufB:    NewSeedBuffer(n),
	}
}

// Compute runs seeding, the halving round sequence (N/2, N/4, ..., 1)
// and finalization, returning a fresh distance field. Buffers are fully
// rewritten each call, so repeated runs over the same occupancy yield
// identical results.
func (g *Generator) Compute(occupied Occupancy) *core.DistanceField {
	cur, next := g.bufA, g.bufB

	Seed(occupied, cur)
	for k := g.N / 2; k >= 1; k /= 2 {
		RunRound(cur, next, k, g.Workers)
		cur, next = next, cur
	}

	out := core.NewDistanceField(g.N)
	Finalize(cur, out)
	return out
}
