package tool

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/chazu/snapkit/pkg/kernel"
	"github.com/chazu/snapkit/pkg/scene"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnapper answers queries from a table keyed by cursor.
type fakeSnapper struct {
	hits    map[v2.Vec]snap.Result
	anchor  *v3.Vec
	anchors int
}

func (f *fakeSnapper) Query(cursor v2.Vec, _ view.Camera, _ view.Viewport) (snap.Result, bool) {
	r, ok := f.hits[cursor]
	return r, ok
}

func (f *fakeSnapper) SetDragAnchor(p *v3.Vec) {
	f.anchor = p
	f.anchors++
}

func at(x, y float64) Pointer { return Pointer{Cursor: v2.Vec{X: x, Y: y}} }

func newFake() *fakeSnapper {
	return &fakeSnapper{hits: map[v2.Vec]snap.Result{
		{X: 1, Y: 1}: {Kind: snap.Vertex, Position: v3.Vec{X: 1, Y: 2, Z: 3}},
		{X: 2, Y: 2}: {Kind: snap.Edge, Position: v3.Vec{X: 4, Y: 6, Z: 3}},
		{X: 3, Y: 3}: {Kind: snap.Face, Position: v3.Vec{X: 1, Y: 2, Z: 8}},
	}}
}

func TestDrag(t *testing.T) {
	f := newFake()
	d := NewDrag(f)

	_, ok := d.Move(at(2, 2))
	assert.False(t, ok, "move without down")

	assert.False(t, d.Down(at(9, 9)), "nothing under the pointer")
	assert.False(t, d.Active())

	require.True(t, d.Down(at(1, 1)))
	assert.True(t, d.Active())
	require.NotNil(t, f.anchor)
	assert.Equal(t, v3.Vec{X: 1, Y: 2, Z: 3}, *f.anchor)

	pl, ok := d.Move(at(2, 2))
	require.True(t, ok)
	assert.Equal(t, v3.Vec{X: 3, Y: 4}, pl.Offset)
	assert.Equal(t, snap.Edge, pl.Target.Kind)

	_, ok = d.Move(at(9, 9))
	assert.False(t, ok)

	pl, ok = d.Up()
	require.True(t, ok)
	assert.Equal(t, v3.Vec{X: 3, Y: 4}, pl.Offset, "up keeps the last good placement")
	assert.Nil(t, f.anchor)
	assert.False(t, d.Active())

	_, ok = d.Up()
	assert.False(t, ok)
}

func TestDragWithoutMove(t *testing.T) {
	f := newFake()
	d := NewDrag(f)
	require.True(t, d.Down(at(1, 1)))
	_, ok := d.Up()
	assert.False(t, ok)
}

func TestMeasure(t *testing.T) {
	f := newFake()
	m := NewMeasure(f)

	_, ok := m.Hover(at(2, 2))
	assert.False(t, ok, "hover before the first point")

	_, ok = m.Click(at(9, 9))
	assert.False(t, ok)
	assert.Nil(t, f.anchor, "a missed click does not arm")

	_, ok = m.Click(at(1, 1))
	assert.False(t, ok)
	require.NotNil(t, f.anchor)

	preview, ok := m.Hover(at(3, 3))
	require.True(t, ok)
	assert.InDelta(t, 5, preview.Distance, 1e-12)

	got, ok := m.Click(at(2, 2))
	require.True(t, ok)
	assert.Equal(t, v3.Vec{X: 3, Y: 4}, got.Delta)
	assert.InDelta(t, 5, got.Distance, 1e-12)
	assert.Nil(t, f.anchor)

	// A third click starts a new measurement.
	_, ok = m.Click(at(3, 3))
	assert.False(t, ok)
	got, ok = m.Click(at(1, 1))
	require.True(t, ok)
	assert.Equal(t, v3.Vec{Z: -5}, got.Delta)

	_, _ = m.Click(at(1, 1))
	m.Reset()
	assert.Nil(t, f.anchor)
	_, ok = m.Hover(at(2, 2))
	assert.False(t, ok)
}

func TestMeasureWithEngine(t *testing.T) {
	e := snap.New(snap.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	quad := scene.NewPart("quad", kernel.QuadMesh(1, 1), sdf.Identity3d())
	e.SetObjects([]snap.Object{quad})

	// Orthographic, 100 pixels per world unit, origin at pixel (500, 500).
	cam := view.Camera{
		Projection: view.Orthographic,
		Position:   v3.Vec{Z: 10},
		Up:         v3.Vec{Y: 1},
		Height:     10,
		Far:        100,
	}
	vp := view.Viewport{Width: 1000, Height: 1000}
	ptr := func(x, y float64) Pointer { return Pointer{Cursor: v2.Vec{X: x, Y: y}, Camera: cam, Viewport: vp} }

	m := NewMeasure(e)
	_, ok := m.Click(ptr(503, 502))
	require.False(t, ok)
	got, ok := m.Click(ptr(598, 403))
	require.True(t, ok)

	assert.Equal(t, snap.Vertex, got.From.Kind)
	assert.Equal(t, snap.Vertex, got.To.Kind)
	assert.InDelta(t, 1.4142135623730951, got.Distance, 1e-9)
}
