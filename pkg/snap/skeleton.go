package snap

import (
	"math"

	"github.com/chazu/snapkit/pkg/geom"
	"github.com/chazu/snapkit/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// Skeleton is the set of snappable features of one mesh, in the mesh's
// local space. It is combined with the owner's world transform at use.
type Skeleton struct {
	Owner     Handle
	Vertices  []v3.Vec       // segment endpoints, merged within the merge epsilon
	Midpoints []v3.Vec       // one per segment, same order
	Segments  []geom.Segment // feature edges in mesh face order
	Bounds    sdf.Box3       // bounds of Vertices
}

// Empty reports whether the skeleton has no segments.
func (s *Skeleton) Empty() bool {
	return s == nil || len(s.Segments) == 0
}

// weldScale rounds positions to 1e-4 when matching triangle edges, so
// meshes that repeat vertices per triangle still share edges.
const weldScale = 1e4

type weldKey [3]int64

func weld(p v3.Vec) weldKey {
	return weldKey{
		int64(math.Round(p.X * weldScale)),
		int64(math.Round(p.Y * weldScale)),
		int64(math.Round(p.Z * weldScale)),
	}
}

func less(a, b weldKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// edgeKey identifies an undirected edge by its welded endpoints.
type edgeKey struct{ lo, hi weldKey }

func makeEdgeKey(a, b weldKey) edgeKey {
	if less(b, a) {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// edgeFaces collects the unit normals of every face sharing one edge.
type edgeFaces struct {
	seg     geom.Segment
	normals []v3.Vec
}

// feature reports whether the edge belongs in the skeleton. Boundary and
// non-manifold edges always do; a manifold edge does when its faces meet
// at an angle greater than the threshold.
func (ef *edgeFaces) feature(cosThreshold float64) bool {
	if len(ef.normals) != 2 {
		return true
	}
	return ef.normals[0].Dot(ef.normals[1]) < cosThreshold
}

// Extract builds the skeleton of m. Interior edges whose dihedral angle is
// below angleDeg are dropped. Endpoints closer than mergeEps collapse to
// the first one seen. A nil, empty or fully degenerate mesh yields an
// empty skeleton.
func Extract(m *kernel.Mesh, angleDeg, mergeEps float64) *Skeleton {
	sk := &Skeleton{}
	if m.IsEmpty() {
		return sk
	}
	cosThreshold := math.Cos(angleDeg * math.Pi / 180)

	edges := make(map[edgeKey]*edgeFaces)
	var order []edgeKey
	for i := 0; i < m.TriangleCount(); i++ {
		tri, ok := m.Triangle(i)
		if !ok {
			continue
		}
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		l := n.Length()
		if !(l > 1e-12) || math.IsInf(l, 0) {
			continue
		}
		n = n.DivScalar(l)

		keys := [3]weldKey{weld(tri[0]), weld(tri[1]), weld(tri[2])}
		if keys[0] == keys[1] || keys[1] == keys[2] || keys[0] == keys[2] {
			continue
		}
		for j := 0; j < 3; j++ {
			k := (j + 1) % 3
			key := makeEdgeKey(keys[j], keys[k])
			ef, seen := edges[key]
			if !seen {
				ef = &edgeFaces{seg: geom.Segment{A: tri[j], B: tri[k]}}
				edges[key] = ef
				order = append(order, key)
			}
			ef.normals = append(ef.normals, n)
		}
	}

	vs := newVertexSet(mergeEps)
	for _, key := range order {
		ef := edges[key]
		if !ef.feature(cosThreshold) {
			continue
		}
		sk.Segments = append(sk.Segments, ef.seg)
		sk.Midpoints = append(sk.Midpoints, ef.seg.Midpoint())
		vs.insert(ef.seg.A)
		vs.insert(ef.seg.B)
	}
	sk.Vertices = vs.points
	sk.Bounds = boundsOf(sk.Vertices)
	return sk
}

func boundsOf(pts []v3.Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

// minMergeEpsilon keeps the index rectangles non-degenerate when merging
// is effectively disabled.
const minMergeEpsilon = 1e-9

// vertexSet is an insertion-ordered point set that ignores points within
// eps of one already present. Lookups go through an R-tree.
type vertexSet struct {
	eps    float64
	tree   *rtreego.Rtree
	points []v3.Vec
}

type indexedVertex struct {
	p    v3.Vec
	rect rtreego.Rect
}

func (v *indexedVertex) Bounds() rtreego.Rect { return v.rect }

func newVertexSet(eps float64) *vertexSet {
	if !(eps > minMergeEpsilon) {
		eps = minMergeEpsilon
	}
	return &vertexSet{eps: eps, tree: rtreego.NewTree(3, 8, 32)}
}

func (s *vertexSet) insert(p v3.Vec) {
	pt := rtreego.Point{p.X, p.Y, p.Z}
	for _, obj := range s.tree.SearchIntersect(pt.ToRect(s.eps)) {
		if obj.(*indexedVertex).p.Sub(p).Length() < s.eps {
			return
		}
	}
	s.tree.Insert(&indexedVertex{p: p, rect: pt.ToRect(s.eps / 2)})
	s.points = append(s.points, p)
}
