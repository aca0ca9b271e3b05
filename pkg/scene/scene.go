// Package scene builds rigid, placeable parts from a declarative
// description. Parts implement snap.Object: their meshes are fixed at
// build time and their poses can change between queries.
package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/snapkit/pkg/kernel"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape names accepted in a PartSpec.
const (
	ShapeBox      = "box"
	ShapeCylinder = "cylinder"
	ShapeQuad     = "quad"
)

// Hole is a through-hole drilled along the part's local Z axis.
type Hole struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Radius float64 `toml:"radius"`
}

// PartSpec describes one part. Boxes and quads have their minimum corner
// at the local origin; cylinders stand on it along Z.
type PartSpec struct {
	Name     string     `toml:"name"`
	Shape    string     `toml:"shape"`
	Size     [3]float64 `toml:"size"` // box extents; quad uses X and Y
	Height   float64    `toml:"height"`
	Radius   float64    `toml:"radius"`
	Holes    []Hole     `toml:"hole"`
	Position [3]float64 `toml:"position"`
	Rotation [3]float64 `toml:"rotation"` // degrees about X, then Y, then Z
}

// GroupSpec places its parts and subgroups under a shared transform.
type GroupSpec struct {
	Name     string      `toml:"name"`
	Position [3]float64  `toml:"position"`
	Rotation [3]float64  `toml:"rotation"`
	Parts    []PartSpec  `toml:"part"`
	Groups   []GroupSpec `toml:"group"`
}

// Spec is a whole scene.
type Spec struct {
	Parts  []PartSpec  `toml:"part"`
	Groups []GroupSpec `toml:"group"`
}

// Part is a rigid scene object with a mutable pose. It is safe to move a
// part while the engine queries it.
type Part struct {
	name string
	mesh *kernel.Mesh

	mu   sync.RWMutex
	pose sdf.M44
}

var _ snap.Object = (*Part)(nil)

// NewPart wraps a local-space mesh at pose.
func NewPart(name string, m *kernel.Mesh, pose sdf.M44) *Part {
	return &Part{name: name, mesh: m, pose: pose}
}

// Name returns the part name.
func (p *Part) Name() string { return p.name }

// Mesh returns the local-space mesh.
func (p *Part) Mesh() *kernel.Mesh { return p.mesh }

// WorldTransform returns the current pose.
func (p *Part) WorldTransform() sdf.M44 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pose
}

// SetTransform replaces the pose.
func (p *Part) SetTransform(m sdf.M44) {
	p.mu.Lock()
	p.pose = m
	p.mu.Unlock()
}

// Translate moves the part by d in world space.
func (p *Part) Translate(d v3.Vec) {
	p.mu.Lock()
	p.pose = sdf.Translate3d(d).Mul(p.pose)
	p.mu.Unlock()
}

// Scene is the set of built parts in declaration order.
type Scene struct {
	Parts []*Part
}

// Objects returns the parts as snap objects, in order.
func (s *Scene) Objects() []snap.Object {
	objs := make([]snap.Object, len(s.Parts))
	for i, p := range s.Parts {
		objs[i] = p
	}
	return objs
}

// Part returns the first part called name.
func (s *Scene) Part(name string) (*Part, bool) {
	for _, p := range s.Parts {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Build creates every part in spec. k is used for shapes with no exact
// polygonal form (cylinders and drilled boxes); it may be nil when the
// scene has none.
func Build(k kernel.Kernel, spec Spec) (*Scene, error) {
	b := &builder{k: k, stack: []sdf.M44{sdf.Identity3d()}}
	if err := b.parts(spec.Parts); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	for _, g := range spec.Groups {
		if err := b.group(g); err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
	}
	return &Scene{Parts: b.out}, nil
}

// builder walks the spec, keeping the accumulated group transforms on a
// stack.
type builder struct {
	k     kernel.Kernel
	stack []sdf.M44
	out   []*Part
}

func (b *builder) top() sdf.M44 { return b.stack[len(b.stack)-1] }

func (b *builder) group(g GroupSpec) error {
	b.stack = append(b.stack, b.top().Mul(Pose(g.Position, g.Rotation)))
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	if err := b.parts(g.Parts); err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	for _, sub := range g.Groups {
		if err := b.group(sub); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	return nil
}

func (b *builder) parts(specs []PartSpec) error {
	for i, ps := range specs {
		name := ps.Name
		if name == "" {
			name = fmt.Sprintf("part%d", len(b.out)+1)
		}
		m, err := b.mesh(ps)
		if err != nil {
			return fmt.Errorf("part %d (%s): %w", i, name, err)
		}
		m.Name = name
		b.out = append(b.out, NewPart(name, m, b.top().Mul(Pose(ps.Position, ps.Rotation))))
	}
	return nil
}

func (b *builder) mesh(ps PartSpec) (*kernel.Mesh, error) {
	switch ps.Shape {
	case ShapeBox, "":
		size := vec(ps.Size)
		if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
			return nil, fmt.Errorf("box size %v must be positive", ps.Size)
		}
		if len(ps.Holes) == 0 {
			return kernel.BoxMesh(size), nil
		}
		return b.drilledBox(size, ps.Holes)

	case ShapeQuad:
		if !(ps.Size[0] > 0 && ps.Size[1] > 0) {
			return nil, fmt.Errorf("quad size %v must be positive", ps.Size[:2])
		}
		return kernel.QuadMesh(ps.Size[0], ps.Size[1]), nil

	case ShapeCylinder:
		if !(ps.Height > 0 && ps.Radius > 0) {
			return nil, fmt.Errorf("cylinder height %g and radius %g must be positive", ps.Height, ps.Radius)
		}
		if b.k == nil {
			return nil, fmt.Errorf("cylinder needs a geometry kernel")
		}
		s, err := b.k.Cylinder(ps.Height, ps.Radius)
		if err != nil {
			return nil, err
		}
		return b.k.ToMesh(s)

	default:
		return nil, fmt.Errorf("unknown shape %q", ps.Shape)
	}
}

// drilledBox subtracts one cylinder per hole, each running through the
// full box height.
func (b *builder) drilledBox(size v3.Vec, holes []Hole) (*kernel.Mesh, error) {
	if b.k == nil {
		return nil, fmt.Errorf("drilled box needs a geometry kernel")
	}
	solid, err := b.k.Box(size)
	if err != nil {
		return nil, err
	}
	for _, h := range holes {
		if !(h.Radius > 0) {
			return nil, fmt.Errorf("hole radius %g must be positive", h.Radius)
		}
		// Overshoot both faces so the cut leaves no skin.
		drill, err := b.k.Cylinder(size.Z+2, h.Radius)
		if err != nil {
			return nil, err
		}
		drill = b.k.Transform(drill, sdf.Translate3d(v3.Vec{X: h.X, Y: h.Y, Z: -1}))
		solid = b.k.Difference(solid, drill)
	}
	return b.k.ToMesh(solid)
}

// Pose returns the transform that rotates by rot degrees about X, then Y,
// then Z, and then translates by pos.
func Pose(pos, rot [3]float64) sdf.M44 {
	m := sdf.Identity3d()
	if rot[0] != 0 {
		m = sdf.RotateX(rot[0] * math.Pi / 180).Mul(m)
	}
	if rot[1] != 0 {
		m = sdf.RotateY(rot[1] * math.Pi / 180).Mul(m)
	}
	if rot[2] != 0 {
		m = sdf.RotateZ(rot[2] * math.Pi / 180).Mul(m)
	}
	if pos != [3]float64{} {
		m = sdf.Translate3d(vec(pos)).Mul(m)
	}
	return m
}

func vec(a [3]float64) v3.Vec { return v3.Vec{X: a[0], Y: a[1], Z: a[2]} }
