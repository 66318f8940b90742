package core

// RGBA is a linear color sample written into the color surface.
type RGBA struct {
	R, G, B, A float32
}

// Palette maps material ids to flat colors. Index 0 (air) is never
// rendered; it is kept so material values index directly.
var Palette = []RGBA{
	{0.7, 0.8, 1.0, 1.0},   // 0: air (unused)
	{0.0, 0.5, 1.0, 1.0},   // 1: water
	{0.3, 0.3, 0.35, 1.0},  // 2: basalt
	{0.2, 0.7, 0.2, 1.0},   // 3: granite
	{0.5, 0.4, 0.3, 1.0},   // 4: peridotite
	{1.0, 0.3, 0.0, 1.0},   // 5: magma
	{0.9, 0.8, 0.6, 1.0},   // 6: sediment
	{0.95, 0.95, 1.0, 1.0}, // 7: ice
	{0.8, 0.7, 0.5, 1.0},   // 8: sand
}

// PaletteSize is the number of valid material ids, including air.
// Packed 8-bit cell values at or above this are not renderable and are
// stepped over during traversal.
func PaletteSize() int {
	return len(Palette)
}
