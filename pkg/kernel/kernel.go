// Package kernel defines the triangle geometry read by the snapping engine
// and the abstract solid modeller that can produce it. Implementations
// (sdfx) build solids behind this interface; the exact polygonal
// primitives in this package need no kernel at all.
package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// Bounds returns the axis-aligned bounding box in the solid's local space.
	Bounds() sdf.Box3
}

// Kernel is the abstract solid modelling interface used to build scene
// parts that have no exact polygonal form.
type Kernel interface {
	// Primitives. Invalid dimensions are reported as errors.
	Box(size v3.Vec) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transform applies a rigid transform to the solid.
	Transform(s Solid, m sdf.M44) Solid

	// ToMesh tessellates the solid into a local-space triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
