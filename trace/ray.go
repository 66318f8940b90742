package trace

import "voxelray/core"

// Ray is a world-space ray in the grid's coordinate frame. Direction is
// expected to be unit length; created fresh per pixel.
type Ray struct {
	Origin    core.Vector3
	Direction core.Vector3
}
