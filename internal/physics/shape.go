package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ShapeKind tags the collision shape variant.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapePlane
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "Sphere"
	case ShapeBox:
		return "Box"
	case ShapePlane:
		return "Plane"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is a collision shape. Only the fields for Kind are meaningful.
type Shape struct {
	Kind ShapeKind

	Radius      float32    // sphere
	HalfExtents mgl32.Vec3 // box

	// Plane: points p with Normal·p == Offset.
	Normal mgl32.Vec3
	Offset float32
}

// Sphere returns a sphere shape.
func Sphere(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Box returns an axis-aligned box shape.
func Box(halfExtents mgl32.Vec3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

// Plane returns an infinite static plane.
func Plane(normal mgl32.Vec3, offset float32) Shape {
	if normal.Len() == 0 {
		normal = mgl32.Vec3{0, 1, 0}
	}
	return Shape{Kind: ShapePlane, Normal: normal.Normalize(), Offset: offset}
}

// Scale returns the factor that maps a unit cube onto the shape.
// Planes have no finite extent and report zero.
func (s Shape) Scale() mgl32.Vec3 {
	switch s.Kind {
	case ShapeSphere:
		d := s.Radius * 2
		return mgl32.Vec3{d, d, d}
	case ShapeBox:
		return s.HalfExtents.Mul(2)
	default:
		return mgl32.Vec3{}
	}
}

// support returns the distance from the shape's center to its farthest
// point along -n.
func (s Shape) support(n mgl32.Vec3) float32 {
	switch s.Kind {
	case ShapeSphere:
		return s.Radius
	case ShapeBox:
		return abs(n.X())*s.HalfExtents.X() + abs(n.Y())*s.HalfExtents.Y() + abs(n.Z())*s.HalfExtents.Z()
	default:
		return 0
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
