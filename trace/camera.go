package trace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelray/core"
)

// Camera maps a pixel coordinate plus the output resolution to a
// world-space ray. Rays are pinned to pixel centers; pixel (0,0) is the
// bottom-left of the image, matching the framebuffer convention.
type Camera interface {
	PixelRay(px, py, width, height int) Ray
}

// BasisCamera generates rays from an explicit eye/corner/span basis:
// direction = normalize(lowerLeft + u*horizontal + v*vertical - eye).
type BasisCamera struct {
	Eye        core.Vector3
	LowerLeft  core.Vector3
	Horizontal core.Vector3
	Vertical   core.Vector3
}

// NewBasisCamera builds the basis from look-at parameters. The viewport
// sits one unit in front of the eye.
func NewBasisCamera(eye, target, up core.Vector3, vfovDeg, aspect float64) BasisCamera {
	theta := vfovDeg * math.Pi / 180
	halfH := math.Tan(theta / 2)
	halfW := aspect * halfH

	w := eye.Sub(target).Normalize()
	u := up.Cross(w).Normalize()
	v := w.Cross(u)

	return BasisCamera{
		Eye:        eye,
		LowerLeft:  eye.Sub(u.Scale(halfW)).Sub(v.Scale(halfH)).Sub(w),
		Horizontal: u.Scale(2 * halfW),
		Vertical:   v.Scale(2 * halfH),
	}
}

func (c BasisCamera) PixelRay(px, py, width, height int) Ray {
	u := (float64(px) + 0.5) / float64(width)
	v := (float64(py) + 0.5) / float64(height)
	dir := c.LowerLeft.
		Add(c.Horizontal.Scale(u)).
		Add(c.Vertical.Scale(v)).
		Sub(c.Eye).
		Normalize()
	return Ray{Origin: c.Eye, Direction: dir}
}

// MatrixCamera generates rays by unprojecting NDC points through the
// inverse view-projection matrix, the way the picking code of a
// rasterizer does it.
type MatrixCamera struct {
	invViewProj mgl32.Mat4
	position    core.Vector3
}

// NewMatrixCamera takes the view and projection matrices plus the
// camera world position (the external collaborator supplies all three).
func NewMatrixCamera(view, proj mgl32.Mat4, position core.Vector3) MatrixCamera {
	return MatrixCamera{
		invViewProj: proj.Mul4(view).Inv(),
		position:    position,
	}
}

func (c MatrixCamera) PixelRay(px, py, width, height int) Ray {
	// Pixel center to NDC in [-1,1]
	x := 2*(float32(px)+0.5)/float32(width) - 1
	y := 2*(float32(py)+0.5)/float32(height) - 1

	nearPoint := c.invViewProj.Mul4x1(mgl32.Vec4{x, y, -1, 1})
	farPoint := c.invViewProj.Mul4x1(mgl32.Vec4{x, y, 1, 1})

	nearPoint = nearPoint.Mul(1 / nearPoint[3])
	farPoint = farPoint.Mul(1 / farPoint[3])

	dir := core.Vector3{
		X: float64(farPoint[0] - nearPoint[0]),
		Y: float64(farPoint[1] - nearPoint[1]),
		Z: float64(farPoint[2] - nearPoint[2]),
	}.Normalize()

	return Ray{Origin: c.position, Direction: dir}
}
