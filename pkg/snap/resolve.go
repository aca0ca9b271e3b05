package snap

import (
	"math"

	"github.com/chazu/snapkit/pkg/geom"
	"github.com/chazu/snapkit/pkg/view"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Candidate is a possible snap point for one query.
type Candidate struct {
	Position      v3.Vec  `json:"position"` // world space
	Kind          Kind    `json:"kind"`
	PixelDistance float64 `json:"pixelDistance"`
	Owner         Handle  `json:"owner"`
}

// Result is the accepted candidate of a query.
type Result = Candidate

// Features is the skeleton of the object an edge hit landed on, placed in
// world space by Transform.
type Features struct {
	Owner     Handle
	Skeleton  *Skeleton
	Transform sdf.M44
}

// finder returns the nearest feature point to the cursor, measured in
// pixels. The rule fills in the kind.
type finder func(f Features, proj view.Projector, cursor v2.Vec) (Candidate, bool)

type rule struct {
	kind Kind
	find finder
}

// rules is evaluated in order; the first candidate inside its own
// threshold wins.
var rules = [...]rule{
	{Vertex, nearestPoint(func(s *Skeleton) []v3.Vec { return s.Vertices })},
	{Midpoint, nearestPoint(func(s *Skeleton) []v3.Vec { return s.Midpoints })},
	{Edge, nearestOnSegment},
}

// Resolve picks the snap point among the features of an edge hit's owner.
// It reports false when no vertex, midpoint or edge point is within its
// threshold, in which case the caller falls back to the face pass.
func Resolve(f Features, proj view.Projector, cursor v2.Vec, cfg Config) (Candidate, bool) {
	if f.Skeleton.Empty() {
		return Candidate{}, false
	}
	for _, r := range rules {
		c, ok := r.find(f, proj, cursor)
		c.Kind = r.kind
		if ok && cfg.Accepts(c) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Arbitrate applies the resolver's policy to precomputed candidates: the
// nearest candidate of each kind is tested against its threshold in
// priority order, and the first to pass wins.
func Arbitrate(cands []Candidate, cfg Config) (Candidate, bool) {
	var best [numKinds]*Candidate
	for i := range cands {
		c := &cands[i]
		k := int(c.Kind)
		if k < 0 || k >= numKinds {
			continue
		}
		if best[k] == nil || c.PixelDistance < best[k].PixelDistance {
			best[k] = c
		}
	}
	for _, c := range best {
		if c != nil && cfg.Accepts(*c) {
			return *c, true
		}
	}
	return Candidate{}, false
}

func nearestPoint(points func(*Skeleton) []v3.Vec) finder {
	return func(f Features, proj view.Projector, cursor v2.Vec) (Candidate, bool) {
		best := Candidate{Owner: f.Owner, PixelDistance: math.Inf(1)}
		for _, p := range points(f.Skeleton) {
			w := f.Transform.MulPosition(p)
			px, ok := proj.WorldToPixel(w)
			if !ok {
				continue
			}
			if d := px.Sub(cursor).Length(); d < best.PixelDistance {
				best.Position = w
				best.PixelDistance = d
			}
		}
		return best, !math.IsInf(best.PixelDistance, 1)
	}
}

// nearestOnSegment finds the closest point to the cursor on each projected
// segment and maps it back to the 3D segment by the same parameter. The
// distance is re-measured on the 3D point so it matches what feedback
// draws.
func nearestOnSegment(f Features, proj view.Projector, cursor v2.Vec) (Candidate, bool) {
	best := Candidate{Owner: f.Owner, PixelDistance: math.Inf(1)}
	for _, seg := range f.Skeleton.Segments {
		ws := seg.Transform(f.Transform)
		pa, okA := proj.WorldToPixel(ws.A)
		pb, okB := proj.WorldToPixel(ws.B)
		if !okA || !okB {
			continue
		}
		w := ws.Lerp(geom.ClosestParam2(cursor, pa, pb))
		px, ok := proj.WorldToPixel(w)
		if !ok {
			continue
		}
		if d := px.Sub(cursor).Length(); d < best.PixelDistance {
			best.Position = w
			best.PixelDistance = d
		}
	}
	return best, !math.IsInf(best.PixelDistance, 1)
}
