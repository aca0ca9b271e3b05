// Package geom holds the small set of ray and segment queries shared by
// the projector, the hit tester and the resolver. Vectors, transforms and
// boxes are the sdfx types.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// epsilon guards divisions on degenerate input.
const epsilon = 1e-12

// Ray is a half-line. Dir is unit length.
type Ray struct {
	Origin v3.Vec
	Dir    v3.Vec
}

// NewRay returns a ray with a normalized direction. It reports false for a
// zero or non-finite direction.
func NewRay(origin, dir v3.Vec) (Ray, bool) {
	l := dir.Length()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Ray{}, false
	}
	return Ray{Origin: origin, Dir: dir.DivScalar(l)}, true
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Dir.MulScalar(t))
}

// Segment is a straight line segment between A and B.
type Segment struct {
	A v3.Vec
	B v3.Vec
}

// Midpoint returns the point halfway between A and B.
func (s Segment) Midpoint() v3.Vec {
	return s.Lerp(0.5)
}

// Lerp returns A + t(B-A).
func (s Segment) Lerp(t float64) v3.Vec {
	return s.A.Add(s.B.Sub(s.A).MulScalar(t))
}

// Transform returns the segment with both endpoints mapped through m.
func (s Segment) Transform(m sdf.M44) Segment {
	return Segment{A: m.MulPosition(s.A), B: m.MulPosition(s.B)}
}

// ClosestToSegment returns the ray parameter t >= 0 and segment parameter
// u in [0,1] of the closest pair of points between the ray and s, and the
// squared distance between them.
func (r Ray) ClosestToSegment(s Segment) (t, u, distSq float64) {
	d2 := s.B.Sub(s.A)
	w := r.Origin.Sub(s.A)
	b := r.Dir.Dot(d2)
	c := d2.Dot(d2)
	d := r.Dir.Dot(w)
	e := d2.Dot(w)

	if c < epsilon {
		// Degenerate segment: closest ray point to A.
		u = 0
	} else if denom := c - b*b; denom > epsilon*c {
		u = clamp01((e - b*d) / denom)
	}

	t = u*b - d
	if t < 0 {
		t = 0
		if c >= epsilon {
			u = clamp01(e / c)
		}
	}

	diff := r.At(t).Sub(s.Lerp(u))
	return t, u, diff.Length2()
}

// IntersectTriangle reports the ray parameter of the hit with triangle
// (a, b, c). Both faces count. Hits at or behind the origin are ignored.
func (r Ray) IntersectTriangle(a, b, c v3.Vec) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < epsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

// HitsBox reports whether the ray passes through the box.
func (r Ray) HitsBox(bb sdf.Box3) bool {
	tmin, tmax := 0.0, math.Inf(1)
	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}
	lo := [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	hi := [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < epsilon {
			if o[i] < lo[i] || o[i] > hi[i] {
				return false
			}
			continue
		}
		t0 := (lo[i] - o[i]) / dir[i]
		t1 := (hi[i] - o[i]) / dir[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

// Inflate grows the box by d on every side.
func Inflate(bb sdf.Box3, d float64) sdf.Box3 {
	pad := v3.Vec{X: d, Y: d, Z: d}
	return sdf.Box3{Min: bb.Min.Sub(pad), Max: bb.Max.Add(pad)}
}

// ClosestParam2 returns the parameter in [0,1] of the point on segment ab
// closest to p. A zero-length segment yields 0.
func ClosestParam2(p, a, b v2.Vec) float64 {
	v := b.Sub(a)
	ds := v.Dot(v)
	if ds < epsilon {
		return 0
	}
	return clamp01(p.Sub(a).Dot(v) / ds)
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
