package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultFov    = 45
	DefaultNear   = 0.1
	DefaultFar    = 1000
	DefaultAspect = 16.0 / 9.0

	// polarEpsilon keeps orbiting away from the poles where the view
	// direction would become parallel to the up vector.
	polarEpsilon = 1e-6

	// Vectors shorter than degenerateEpsilon have no usable direction.
	degenerateEpsilon = 1e-9
)

// defaultViewDirection is the view direction of a camera sitting on its target.
var defaultViewDirection = r3.Vec{Y: 1}

// Camera is a perspective camera. Fov is the vertical field of view in
// degrees.
type Camera struct {
	Position r3.Vec  `json:"position"`
	Up       r3.Vec  `json:"up"`
	Fov      float64 `json:"fov"`
	Aspect   float64 `json:"aspect"`
	Near     float64 `json:"near"`
	Far      float64 `json:"far"`

	projection mgl64.Mat4
}

// NewCamera returns a camera at the origin with +Z as up vector.
func NewCamera(fov, aspect, near, far float64) Camera {
	c := Camera{
		Up:     r3.Vec{Z: 1},
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection matrix. It must be called
// after Fov, Aspect, Near or Far changed.
func (c *Camera) UpdateProjectionMatrix() {
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
}

func (c Camera) ProjectionMatrix() mgl64.Mat4 {
	return c.projection
}

// ViewMatrix returns the matrix of a camera looking at target. A camera sitting
// on its target looks towards +Y, and a camera looking along its up vector is
// given an orthogonal up so the matrix is always finite.
func (c Camera) ViewMatrix(target r3.Vec) mgl64.Mat4 {
	forward := r3.Sub(target, c.Position)
	if n := r3.Norm(forward); n < degenerateEpsilon || math.IsNaN(n) || math.IsInf(n, 0) {
		forward = defaultViewDirection
		target = r3.Add(c.Position, forward)
	}

	up := c.Up
	if r3.Norm(up) < degenerateEpsilon ||
		r3.Norm(r3.Cross(r3.Unit(forward), r3.Unit(up))) < degenerateEpsilon {
		up = orthogonalUp(forward)
	}
	return mgl64.LookAtV(toMgl(c.Position), toMgl(target), toMgl(up))
}

// orthogonalUp returns the world axis least aligned with forward.
func orthogonalUp(forward r3.Vec) r3.Vec {
	f := r3.Unit(forward)
	switch ax, ay, az := math.Abs(f.X), math.Abs(f.Y), math.Abs(f.Z); {
	case ax <= ay && ax <= az:
		return r3.Vec{X: 1}
	case ay <= az:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}

// SetAspect changes the viewport aspect ratio and refreshes the projection.
func (c *Camera) SetAspect(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = width / height
	c.UpdateProjectionMatrix()
}

// Controls is the orbit controls state: the point the camera orbits around
// and the bounds of the camera to target distance. A zero MaxDistance means
// unbounded.
type Controls struct {
	Target      r3.Vec  `json:"target"`
	MinDistance float64 `json:"min_distance"`
	MaxDistance float64 `json:"max_distance"`
}

// Distance returns the distance between the camera and the target.
func (ctl *Controls) Distance(cam *Camera) float64 {
	return r3.Norm(r3.Sub(cam.Position, ctl.Target))
}

// Update clamps the camera to target distance within the controls bounds.
func (ctl *Controls) Update(cam *Camera) {
	offset := r3.Sub(cam.Position, ctl.Target)
	distance := r3.Norm(offset)
	if distance == 0 {
		return
	}

	clamped := ctl.clamp(distance)
	if clamped == distance {
		return
	}
	cam.Position = r3.Add(ctl.Target, r3.Scale(clamped/distance, offset))
}

// Zoom scales the camera to target distance. Scales below 1 move the camera
// closer.
func (ctl *Controls) Zoom(cam *Camera, scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}

	offset := r3.Sub(cam.Position, ctl.Target)
	cam.Position = r3.Add(ctl.Target, r3.Scale(scale, offset))
	ctl.Update(cam)
}

// Orbit rotates the camera around the target. Azimuth turns around the up
// axis, polar tilts towards or away from it. Angles are in radians.
func (ctl *Controls) Orbit(cam *Camera, azimuth, polar float64) {
	offset := r3.Sub(cam.Position, ctl.Target)
	radius := r3.Norm(offset)
	if radius == 0 {
		return
	}

	// Offsets are expressed in the Z-up frame of the scene.
	theta := math.Atan2(offset.Y, offset.X) + azimuth
	phi := math.Acos(clampUnit(offset.Z/radius)) + polar
	phi = math.Max(polarEpsilon, math.Min(math.Pi-polarEpsilon, phi))

	cam.Position = r3.Add(ctl.Target, r3.Vec{
		X: radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Sin(phi) * math.Sin(theta),
		Z: radius * math.Cos(phi),
	})
	ctl.Update(cam)
}

// Pan translates both the camera and the target in the view plane. dx and dy
// are fractions of the camera to target distance.
func (ctl *Controls) Pan(cam *Camera, dx, dy float64) {
	forward := r3.Sub(ctl.Target, cam.Position)
	distance := r3.Norm(forward)
	if distance == 0 {
		return
	}

	right := r3.Cross(forward, cam.Up)
	if r3.Norm(right) == 0 {
		return
	}
	right = r3.Unit(right)
	up := r3.Unit(r3.Cross(right, forward))

	move := r3.Add(r3.Scale(dx*distance, right), r3.Scale(dy*distance, up))
	cam.Position = r3.Add(cam.Position, move)
	ctl.Target = r3.Add(ctl.Target, move)
}

func (ctl *Controls) clamp(distance float64) float64 {
	if distance < ctl.MinDistance {
		return ctl.MinDistance
	}
	if ctl.MaxDistance > 0 && distance > ctl.MaxDistance {
		return ctl.MaxDistance
	}
	return distance
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func toMgl(v r3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
