package main

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"voxelray/core"
	"voxelray/trace"
)

// viewer presents the traced framebuffer in a window and drives the
// camera. It is a consumer of the core's output surfaces; the tracer
// itself never depends on it.
type viewer struct {
	renderer *trace.Renderer
	grid     *core.VoxelGrid
	fb       *core.Framebuffer
	pixels   []color.RGBA
	updates  chan chunkUpdate

	position   core.Vector3
	yaw, pitch float64
}

func newViewer(renderer *trace.Renderer, grid *core.VoxelGrid, width, height int, updates chan chunkUpdate) *viewer {
	return &viewer{
		renderer: renderer,
		grid:     grid,
		fb:       core.NewFramebuffer(width, height),
		pixels:   make([]color.RGBA, width*height),
		updates:  updates,
		// Start outside the demo blocks with the scene in view
		position: core.Vector3{X: 31, Y: 16, Z: 32},
		yaw:      60,
		pitch:    12.5,
	}
}

func (v *viewer) run() {
	rl.InitWindow(int32(v.fb.Width), int32(v.fb.Height), "voxelray")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	img := rl.GenImageColor(v.fb.Width, v.fb.Height, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(tex)

	for !rl.WindowShouldClose() {
		v.drainUpdates()
		v.handleInput(float64(rl.GetFrameTime()))

		v.renderer.Render(v.camera(), v.fb)
		v.blit(tex)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexture(tex, 0, 0, rl.White)
		rl.DrawFPS(10, 10)
		rl.EndDrawing()
	}
}

// drainUpdates applies queued chunk edits while no frame is in flight.
func (v *viewer) drainUpdates() {
	if v.updates == nil {
		return
	}
	for {
		select {
		case u := <-v.updates:
			applyChunkUpdate(v.grid, u)
		default:
			return
		}
	}
}

func (v *viewer) handleInput(dt float64) {
	const moveSpeed = 20.0
	const turnSpeed = 90.0

	if rl.IsKeyDown(rl.KeyLeft) {
		v.yaw -= turnSpeed * dt
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.yaw += turnSpeed * dt
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.pitch = math.Min(v.pitch+turnSpeed*dt, 89)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.pitch = math.Max(v.pitch-turnSpeed*dt, -89)
	}

	front := v.front()
	right := front.Cross(core.Vector3{Y: 1}).Normalize()
	if rl.IsKeyDown(rl.KeyW) {
		v.position = v.position.Add(front.Scale(moveSpeed * dt))
	}
	if rl.IsKeyDown(rl.KeyS) {
		v.position = v.position.Sub(front.Scale(moveSpeed * dt))
	}
	if rl.IsKeyDown(rl.KeyA) {
		v.position = v.position.Sub(right.Scale(moveSpeed * dt))
	}
	if rl.IsKeyDown(rl.KeyD) {
		v.position = v.position.Add(right.Scale(moveSpeed * dt))
	}
}

func (v *viewer) front() core.Vector3 {
	yaw := v.yaw * math.Pi / 180
	pitch := v.pitch * math.Pi / 180
	return core.Vector3{
		X: math.Cos(pitch) * math.Cos(yaw),
		Y: math.Sin(pitch),
		Z: math.Cos(pitch) * math.Sin(yaw),
	}
}

func (v *viewer) camera() trace.Camera {
	eye := mgl32.Vec3{float32(v.position.X), float32(v.position.Y), float32(v.position.Z)}
	front := v.front()
	target := eye.Add(mgl32.Vec3{float32(front.X), float32(front.Y), float32(front.Z)})

	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(
		mgl32.DegToRad(60),
		float32(v.fb.Width)/float32(v.fb.Height),
		0.1, 1000,
	)
	return trace.NewMatrixCamera(view, proj, v.position)
}

// blit converts the framebuffer to 8-bit pixels and uploads them. The
// framebuffer is bottom-up, textures are top-down, so rows flip here.
func (v *viewer) blit(tex rl.Texture2D) {
	w, h := v.fb.Width, v.fb.Height
	for y := 0; y < h; y++ {
		src := v.fb.Color[(h-1-y)*w : (h-y)*w]
		dst := v.pixels[y*w : (y+1)*w]
		for x, c := range src {
			dst[x] = color.RGBA{
				R: toByte(c.R),
				G: toByte(c.G),
				B: toByte(c.B),
				A: 255,
			}
		}
	}
	rl.UpdateTexture(tex, v.pixels)
}

func toByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
