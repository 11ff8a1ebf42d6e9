// Package physics is a small rigid-body world: dynamic spheres and boxes
// falling onto static planes.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Default body material.
const (
	DefaultFriction = 0.5

	// Approach speeds below this do not bounce.
	restingSpeed = 0.5
)

// BodyDef describes a body to add. A zero Mass makes it static.
// Use DefaultFriction for the usual surface.
type BodyDef struct {
	Shape       Shape
	Position    mgl32.Vec3
	Mass        float32
	Restitution float32
	Friction    float32
}

// Body is a rigid body owned by a World.
type Body struct {
	shape       Shape
	position    mgl32.Vec3
	velocity    mgl32.Vec3
	rotation    mgl32.Quat
	mass        float32
	invMass     float32
	restitution float32
	friction    float32
}

// Shape returns the collision shape.
func (b *Body) Shape() Shape { return b.shape }

// Position returns the world position of the body's center.
func (b *Body) Position() mgl32.Vec3 { return b.position }

// SetPosition teleports the body.
func (b *Body) SetPosition(p mgl32.Vec3) { b.position = p }

// Velocity returns the linear velocity.
func (b *Body) Velocity() mgl32.Vec3 { return b.velocity }

// SetVelocity sets the linear velocity. Static bodies ignore it.
func (b *Body) SetVelocity(v mgl32.Vec3) {
	if b.Dynamic() {
		b.velocity = v
	}
}

// Dynamic reports whether the body moves.
func (b *Body) Dynamic() bool { return b.invMass > 0 }

// Mass returns the body mass. Static bodies report zero.
func (b *Body) Mass() float32 { return b.mass }

// Restitution returns the bounce coefficient.
func (b *Body) Restitution() float32 { return b.restitution }

// Friction returns the friction coefficient.
func (b *Body) Friction() float32 { return b.friction }

// Transform returns the body's world transform without shape scaling.
func (b *Body) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(b.position.X(), b.position.Y(), b.position.Z()).Mul4(b.rotation.Mat4())
}

// World holds bodies and advances them in time.
type World struct {
	gravity mgl32.Vec3
	bodies  []*Body

	accumulator float32
}

// NewWorld creates an empty world.
func NewWorld(gravity mgl32.Vec3) *World {
	return &World{gravity: gravity}
}

// Gravity returns the world gravity.
func (w *World) Gravity() mgl32.Vec3 { return w.gravity }

// SetGravity changes the world gravity.
func (w *World) SetGravity(g mgl32.Vec3) { w.gravity = g }

// AddBody creates a body from def and adds it to the world.
// Planes are always static.
func (w *World) AddBody(def BodyDef) *Body {
	b := &Body{
		shape:       def.Shape,
		position:    def.Position,
		rotation:    mgl32.QuatIdent(),
		restitution: def.Restitution,
		friction:    def.Friction,
	}
	if def.Mass > 0 && def.Shape.Kind != ShapePlane {
		b.mass = def.Mass
		b.invMass = 1 / def.Mass
	}
	w.bodies = append(w.bodies, b)
	return b
}

// Bodies returns every body in insertion order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// NumBodies returns the number of bodies.
func (w *World) NumBodies() int {
	return len(w.bodies)
}

// StepSimulation advances the world by dt using fixed sub-steps and
// returns the number of sub-steps taken. Time that does not fill a whole
// sub-step carries over. With maxSubSteps == 0 it takes one step of dt.
// Sub-steps beyond maxSubSteps are dropped.
func (w *World) StepSimulation(dt float32, maxSubSteps int, fixedStep float32) int {
	if dt <= 0 {
		return 0
	}
	if maxSubSteps == 0 || fixedStep <= 0 {
		w.step(dt)
		return 1
	}

	w.accumulator += dt
	steps := int(w.accumulator / fixedStep)
	w.accumulator -= float32(steps) * fixedStep
	steps = min(steps, maxSubSteps)

	for range steps {
		w.step(fixedStep)
	}
	return steps
}

func (w *World) step(dt float32) {
	for _, b := range w.bodies {
		if !b.Dynamic() {
			continue
		}
		b.velocity = b.velocity.Add(w.gravity.Mul(dt))
		b.position = b.position.Add(b.velocity.Mul(dt))
	}

	for _, b := range w.bodies {
		if !b.Dynamic() {
			continue
		}
		for _, s := range w.bodies {
			if s.Dynamic() || s.shape.Kind != ShapePlane {
				continue
			}
			resolvePlane(b, s)
		}
	}
}

// resolvePlane pushes b out of the static plane body p and applies a
// bounce impulse plus Coulomb friction.
func resolvePlane(b, p *Body) {
	n := p.shape.Normal
	dist := n.Dot(b.position) - p.shape.Offset - n.Dot(p.position)
	penetration := b.shape.support(n) - dist
	if penetration <= 0 {
		return
	}
	b.position = b.position.Add(n.Mul(penetration))

	vn := b.velocity.Dot(n)
	if vn >= 0 {
		return
	}

	e := b.restitution * p.restitution
	if -vn < restingSpeed {
		e = 0
	}
	jn := -(1 + e) * vn
	b.velocity = b.velocity.Add(n.Mul(jn))

	tangent := b.velocity.Sub(n.Mul(b.velocity.Dot(n)))
	speed := tangent.Len()
	if speed < 1e-6 {
		return
	}
	mu := b.friction * p.friction
	if limit := mu * jn; speed <= limit {
		b.velocity = b.velocity.Sub(tangent)
	} else {
		b.velocity = b.velocity.Sub(tangent.Mul(limit / speed))
	}
}
