package view

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perspective(pos v3.Vec) Camera {
	return Camera{
		Projection: Perspective,
		Position:   pos,
		Target:     v3.Vec{},
		Up:         v3.Vec{Y: 1},
		FovY:       60,
		Near:       0.1,
		Far:        1000,
	}
}

var screen = Viewport{Width: 800, Height: 600}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name string
		cam  Camera
		vp   Viewport
	}{
		{"zero viewport", perspective(v3.Vec{Z: 10}), Viewport{}},
		{"zero height", perspective(v3.Vec{Z: 10}), Viewport{Width: 100}},
		{"position equals target", perspective(v3.Vec{}), screen},
		{"up parallel to view", Camera{Position: v3.Vec{Y: 10}, Up: v3.Vec{Y: 1}, FovY: 60, Near: 0.1, Far: 100}, screen},
		{"zero fov", Camera{Position: v3.Vec{Z: 10}, Up: v3.Vec{Y: 1}, Near: 0.1, Far: 100}, screen},
		{"far before near", Camera{Position: v3.Vec{Z: 10}, Up: v3.Vec{Y: 1}, FovY: 60, Near: 10, Far: 1}, screen},
		{"ortho without height", Camera{Projection: Orthographic, Position: v3.Vec{Z: 10}, Up: v3.Vec{Y: 1}, Far: 100}, screen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := New(tt.cam, tt.vp)
			assert.False(t, ok)
		})
	}
}

func TestWorldToPixelZeroViewport(t *testing.T) {
	_, ok := WorldToPixel(v3.Vec{}, perspective(v3.Vec{Z: 10}), Viewport{})
	assert.False(t, ok)
	_, ok = PixelToRay(v2.Vec{}, perspective(v3.Vec{Z: 10}), Viewport{Width: 10})
	assert.False(t, ok)

	var zero Projector
	_, ok = zero.WorldToPixel(v3.Vec{})
	assert.False(t, ok, "zero Projector must not project")
}

func TestTargetProjectsToCenter(t *testing.T) {
	px, ok := WorldToPixel(v3.Vec{}, perspective(v3.Vec{Z: 10}), screen)
	require.True(t, ok)
	assert.InDelta(t, 400, px.X, 1e-9)
	assert.InDelta(t, 300, px.Y, 1e-9)
}

func TestPixelAxes(t *testing.T) {
	p, ok := New(perspective(v3.Vec{Z: 10}), screen)
	require.True(t, ok)

	right, ok := p.WorldToPixel(v3.Vec{X: 1})
	require.True(t, ok)
	assert.Greater(t, right.X, 400.0, "+X is to the right")

	up, ok := p.WorldToPixel(v3.Vec{Y: 1})
	require.True(t, ok)
	assert.Less(t, up.Y, 300.0, "+Y is up, pixel y grows down")
}

func TestRejectsBehindAndBeyond(t *testing.T) {
	cam := perspective(v3.Vec{Z: 10})
	cam.Far = 50
	p, ok := New(cam, screen)
	require.True(t, ok)

	_, ok = p.WorldToPixel(v3.Vec{Z: 20})
	assert.False(t, ok, "behind camera")
	_, ok = p.WorldToPixel(v3.Vec{Z: -100})
	assert.False(t, ok, "beyond far plane")
	_, ok = p.WorldToPixel(v3.Vec{Z: -39})
	assert.True(t, ok, "inside frustum depth")
}

func TestRoundTrip(t *testing.T) {
	cams := map[string]Camera{
		"perspective": perspective(v3.Vec{X: 3, Y: 4, Z: 12}),
		"orthographic": {
			Projection: Orthographic,
			Position:   v3.Vec{X: 3, Y: 4, Z: 12},
			Up:         v3.Vec{Y: 1},
			Height:     8,
			Near:       0,
			Far:        100,
		},
	}
	points := []v3.Vec{{}, {X: 1, Y: -0.5, Z: 0.25}, {X: -2, Y: 1, Z: 1}}

	for name, cam := range cams {
		t.Run(name, func(t *testing.T) {
			vp := Viewport{X: 10, Y: 20, Width: 640, Height: 480}
			p, ok := New(cam, vp)
			require.True(t, ok)
			for _, w := range points {
				px, ok := p.WorldToPixel(w)
				require.True(t, ok, "project %v", w)

				ray, ok := p.PixelToRay(px)
				require.True(t, ok)

				// The ray through the projected pixel passes through w.
				along := w.Sub(ray.Origin).Dot(ray.Dir)
				miss := ray.At(along).Sub(w).Length()
				assert.InDelta(t, 0, miss, 1e-9, "ray misses %v by %g", w, miss)
			}
		})
	}
}

func TestWorldPerPixel(t *testing.T) {
	near, ok := New(perspective(v3.Vec{Z: 10}), screen)
	require.True(t, ok)
	far, ok := New(perspective(v3.Vec{Z: 20}), screen)
	require.True(t, ok)

	a := near.WorldPerPixel(v3.Vec{})
	b := far.WorldPerPixel(v3.Vec{})
	assert.InDelta(t, 2*a, b, 1e-12, "doubling distance doubles world size of a pixel")

	// One pixel of world length at the target projects to one pixel.
	p0, _ := near.WorldToPixel(v3.Vec{})
	p1, _ := near.WorldToPixel(v3.Vec{X: a})
	assert.InDelta(t, 1, p1.Sub(p0).Length(), 1e-9)
}

func TestProjectionText(t *testing.T) {
	var p Projection
	require.NoError(t, p.UnmarshalText([]byte("ortho")))
	assert.Equal(t, Orthographic, p)
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "orthographic", string(b))
	assert.Error(t, p.UnmarshalText([]byte("fisheye")))
}
