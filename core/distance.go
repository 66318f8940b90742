package core

// DistanceField is the single-channel 3D output of the jump-flood
// generator: one nearest-seed distance per cell of an N^3 grid.
// Immutable once produced; the renderer samples it for sphere tracing.
type DistanceField struct {
	N      int
	Values []float32
}

func NewDistanceField(n int) *DistanceField {
	return &DistanceField{
		N:      n,
		Values: make([]float32, n*n*n),
	}
}

func (d *DistanceField) Index(x, y, z int) int {
	return x + y*d.N + z*d.N*d.N
}

func (d *DistanceField) At(x, y, z int) float32 {
	return d.Values[d.Index(x, y, z)]
}
