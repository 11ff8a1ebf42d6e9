package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit constants.
const (
	DefaultOrbitSensitivity = 0.005
	elevationLimit          = math.Pi/2 - 0.1
	minOrbitDistance        = 0.01
)

// Orbit rotates a camera around a fixed target on a sphere.
type Orbit struct {
	Target    mgl32.Vec3
	Azimuth   float32 // radians, around +Y from +X toward +Z
	Elevation float32 // radians above the target's horizon
	Distance  float32

	Sensitivity float32
}

// NewOrbit creates an orbit with the default drag sensitivity.
func NewOrbit() *Orbit {
	return &Orbit{Sensitivity: DefaultOrbitSensitivity}
}

// Begin derives the spherical state from the current camera position.
func (o *Orbit) Begin(camPos, target mgl32.Vec3) {
	o.Target = target
	offset := camPos.Sub(target)
	o.Distance = offset.Len()
	if o.Distance < minOrbitDistance {
		o.Distance = minOrbitDistance
		o.Azimuth = 0
		o.Elevation = 0
		return
	}
	o.Azimuth = float32(math.Atan2(float64(offset.Z()), float64(offset.X())))
	o.Elevation = float32(math.Asin(float64(mgl32.Clamp(offset.Y()/o.Distance, -1, 1))))
	o.Elevation = mgl32.Clamp(o.Elevation, -elevationLimit, elevationLimit)
}

// Drag applies a mouse offset. Positive dy raises the camera.
func (o *Orbit) Drag(dx, dy float32) {
	o.Azimuth -= dx * o.Sensitivity
	o.Elevation += dy * o.Sensitivity
	o.Elevation = mgl32.Clamp(o.Elevation, -elevationLimit, elevationLimit)
}

// Position returns the camera position for the current orbit state.
func (o *Orbit) Position() mgl32.Vec3 {
	az, el := float64(o.Azimuth), float64(o.Elevation)
	return mgl32.Vec3{
		o.Target.X() + o.Distance*float32(math.Cos(el)*math.Cos(az)),
		o.Target.Y() + o.Distance*float32(math.Sin(el)),
		o.Target.Z() + o.Distance*float32(math.Cos(el)*math.Sin(az)),
	}
}

// Apply moves cam onto the orbit and turns it toward the target.
func (o *Orbit) Apply(cam *Camera) {
	cam.Position = o.Position()
	cam.Yaw = mgl32.RadToDeg(o.Azimuth) + 180
	cam.Pitch = -mgl32.RadToDeg(o.Elevation)
	cam.UpdateVectors()
}
