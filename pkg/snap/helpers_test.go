package snap

import (
	"testing"

	"github.com/chazu/snapkit/pkg/kernel"
	"github.com/chazu/snapkit/pkg/view"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

// part is a rigid test object whose transform can be changed between
// queries.
type part struct {
	mesh  *kernel.Mesh
	xform sdf.M44
}

func newPart(m *kernel.Mesh) *part {
	return &part{mesh: m, xform: sdf.Identity3d()}
}

func (p *part) Mesh() *kernel.Mesh      { return p.mesh }
func (p *part) WorldTransform() sdf.M44 { return p.xform }

// recorder collects rendered frames.
type recorder struct {
	frames []Frame
	closed int
	err    error
}

func (r *recorder) Render(f Frame) error {
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

func (r *recorder) last() Frame {
	if len(r.frames) == 0 {
		return Frame{}
	}
	return r.frames[len(r.frames)-1]
}

// topDown is an orthographic camera looking down -Z at the origin. With
// the square viewport below it maps one world unit to 100 pixels, and
// world (x, y) to pixel (500+100x, 500-100y).
var topDown = view.Camera{
	Projection: view.Orthographic,
	Position:   v3.Vec{Z: 10},
	Up:         v3.Vec{Y: 1},
	Height:     10,
	Near:       0,
	Far:        100,
}

var square = view.Viewport{Width: 1000, Height: 1000}

func mustProjector(t *testing.T, cam view.Camera, vp view.Viewport) view.Projector {
	t.Helper()
	p, ok := view.New(cam, vp)
	require.True(t, ok)
	return p
}

func mustPixel(t *testing.T, p view.Projector, w v3.Vec) v2.Vec {
	t.Helper()
	px, ok := p.WorldToPixel(w)
	require.True(t, ok, "project %v", w)
	return px
}

// unitQuad is the open square [0,1]x[0,1] at z=0.
func unitQuad() *kernel.Mesh { return kernel.QuadMesh(1, 1) }
