package snap

import (
	"math"

	"github.com/chazu/snapkit/pkg/geom"
	"github.com/chazu/snapkit/pkg/view"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EdgeHit is the raw result of the edge pass: the point on a skeleton
// segment nearest the cursor ray, nearest along the ray among all
// segments within the ray tolerance. The tolerance at a point is
// MaxRawHitPx converted to world units at that point's depth, and never
// less than RayTolerance.
type EdgeHit struct {
	Owner         Handle
	Point         v3.Vec  // world space
	RayT          float64 // distance along the cursor ray
	PixelDistance float64
}

// boxSlack pads face-pass culling boxes so flat meshes are not lost to
// rounding.
const boxSlack = 1e-6

// HitTester casts one cursor ray against a registry. It borrows the
// registry for the duration of a query.
type HitTester struct {
	reg    *Registry
	proj   view.Projector
	cursor v2.Vec
	ray    geom.Ray
	cfg    Config
}

// NewHitTester builds the cursor ray for a query. It reports false when
// the projector cannot produce a ray through cursor.
func NewHitTester(reg *Registry, proj view.Projector, cursor v2.Vec, cfg Config) (*HitTester, bool) {
	ray, ok := proj.PixelToRay(cursor)
	if !ok {
		return nil, false
	}
	return &HitTester{reg: reg, proj: proj, cursor: cursor, ray: ray, cfg: cfg}, true
}

// Edges runs the edge pass. A hit whose projection is more than
// MaxRawHitPx from the cursor, or that does not project at all, is
// discarded.
func (ht *HitTester) Edges() (EdgeHit, bool) {
	hit, ok := ht.rawEdge()
	if !ok {
		return EdgeHit{}, false
	}
	px, ok := ht.proj.WorldToPixel(hit.Point)
	if !ok {
		return EdgeHit{}, false
	}
	hit.PixelDistance = px.Sub(ht.cursor).Length()
	if hit.PixelDistance > ht.cfg.MaxRawHitPx {
		return EdgeHit{}, false
	}
	return hit, true
}

func (ht *HitTester) rawEdge() (EdgeHit, bool) {
	best := EdgeHit{RayT: math.Inf(1)}
	found := false

	for i := range ht.reg.entries {
		e := &ht.reg.entries[i]
		if e.skeleton.Empty() {
			continue
		}
		box := e.xform.MulBox(e.skeleton.Bounds)
		if !ht.ray.HitsBox(geom.Inflate(box, ht.boxTolerance(box))) {
			continue
		}
		for _, seg := range e.skeleton.Segments {
			ws := seg.Transform(e.xform)
			t, u, distSq := ht.ray.ClosestToSegment(ws)
			if t >= best.RayT {
				continue
			}
			p := ws.Lerp(u)
			if tol := ht.tolerance(p); distSq > tol*tol {
				continue
			}
			best = EdgeHit{Owner: e.handle, Point: p, RayT: t}
			found = true
		}
	}
	return best, found
}

// tolerance is the world distance from the cursor ray that still counts
// as touching a segment at w.
func (ht *HitTester) tolerance(w v3.Vec) float64 {
	return math.Max(ht.cfg.RayTolerance, ht.cfg.MaxRawHitPx*ht.proj.WorldPerPixel(w))
}

// boxTolerance is the largest tolerance anywhere in b. World-per-pixel is
// convex in position, so a corner attains it.
func (ht *HitTester) boxTolerance(b sdf.Box3) float64 {
	var tol float64
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		tol = math.Max(tol, ht.tolerance(c))
	}
	return tol
}

// Faces runs the face pass against the raw world-space triangles. The
// nearest intersection becomes a Face candidate at pixel distance zero.
func (ht *HitTester) Faces() (Candidate, bool) {
	bestT := math.Inf(1)
	var owner Handle
	for i := range ht.reg.entries {
		e := &ht.reg.entries[i]
		if e.mesh.IsEmpty() {
			continue
		}
		if !ht.ray.HitsBox(geom.Inflate(e.xform.MulBox(e.meshBounds), boxSlack)) {
			continue
		}
		for j := 0; j < e.mesh.TriangleCount(); j++ {
			tri, ok := e.mesh.Triangle(j)
			if !ok {
				continue
			}
			a := e.xform.MulPosition(tri[0])
			b := e.xform.MulPosition(tri[1])
			c := e.xform.MulPosition(tri[2])
			if t, ok := ht.ray.IntersectTriangle(a, b, c); ok && t < bestT {
				bestT = t
				owner = e.handle
			}
		}
	}
	if math.IsInf(bestT, 1) {
		return Candidate{}, false
	}
	return Candidate{
		Position:      ht.ray.At(bestT),
		Kind:          Face,
		PixelDistance: 0,
		Owner:         owner,
	}, true
}
