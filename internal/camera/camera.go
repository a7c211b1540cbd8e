package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
)

// Camera parameters.
const (
	Sensitivity = 0.005
	WalkSpeed   = 0.03
	RunSpeed    = 0.1
	Smoothing   = 0.2

	FieldOfView = 60
	Near        = 0.1
	Far         = 50
)

var (
	maxPitch = float64(mgl32.DegToRad(85))
	worldUp  = mgl32.Vec3{0, 1, 0}
)

// depthRange maps clip-space depth from [-1, 1] to [0, 1].
var depthRange = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a fly camera. Movement is applied to a target position that
// the eye follows with exponential smoothing.
type Camera struct {
	yaw, pitch float64

	front, right, up mgl32.Vec3

	eye    mgl32.Vec3
	target mgl32.Vec3
}

// New returns a camera at pos looking along yaw degrees around the Y
// axis. A yaw of -90 looks down -Z.
func New(pos mgl32.Vec3, yaw float32) *Camera {
	c := &Camera{
		yaw:    float64(mgl32.DegToRad(yaw)),
		eye:    pos,
		target: pos,
	}
	c.orient()
	return c
}

// Default returns the camera the demo starts with.
func Default() *Camera { return New(mgl32.Vec3{0, 0, 3}, -90) }

func (c *Camera) orient() {
	cp := math.Cos(c.pitch)
	c.front = mgl32.Vec3{
		float32(math.Cos(c.yaw) * cp),
		float32(math.Sin(c.pitch)),
		float32(math.Sin(c.yaw) * cp),
	}.Normalize()
	c.right = c.front.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

// Update applies one frame of input. Dragging with the left button turns
// the camera; WASD moves, Q descends, E or Space ascends, and left shift
// moves faster.
func (c *Camera) Update(in *Input) {
	if in.Button(gpucontext.MouseButtonLeft) {
		dx, dy := in.Delta()
		c.yaw += dx * Sensitivity
		c.pitch = Clamp(c.pitch-dy*Sensitivity, -maxPitch, maxPitch)
	}
	c.orient()

	speed := float32(WalkSpeed)
	if in.Down(gpucontext.KeyLeftShift) {
		speed = RunSpeed
	}

	var forward, strafe, rise float32
	if in.Down(gpucontext.KeyW) {
		forward += speed
	}
	if in.Down(gpucontext.KeyS) {
		forward -= speed
	}
	if in.Down(gpucontext.KeyD) {
		strafe += speed
	}
	if in.Down(gpucontext.KeyA) {
		strafe -= speed
	}
	if in.Down(gpucontext.KeyE) || in.Down(gpucontext.KeySpace) {
		rise += speed
	}
	if in.Down(gpucontext.KeyQ) {
		rise -= speed
	}

	c.target = c.target.
		Add(c.front.Mul(forward)).
		Add(c.front.Cross(c.up).Normalize().Mul(strafe))
	c.target[1] += rise

	for i := range c.eye {
		c.eye[i] = Lerp(c.eye[i], c.target[i], Smoothing)
	}
}

// Position returns the eye position.
func (c *Camera) Position() mgl32.Vec3 { return c.eye }

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Up returns the unit up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.up }

// View returns the world-to-eye transform.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.eye, c.eye.Add(c.front), c.up)
}

// Projection returns the perspective transform for the given aspect ratio
// with depth mapped to [0, 1].
func Projection(aspect float32) mgl32.Mat4 {
	return depthRange.Mul4(mgl32.Perspective(mgl32.DegToRad(FieldOfView), aspect, Near, Far))
}
