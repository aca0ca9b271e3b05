// Package overlay draws snap feedback over a projected wireframe of the
// scene, as SVG or PNG.
package overlay

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Wire is one projected skeleton segment in pixels.
type Wire struct {
	A, B v2.Vec
}

// Canvas accumulates everything one overlay image shows. It implements
// snap.Renderer: each visible frame adds its marker and inference line,
// hidden frames add nothing.
type Canvas struct {
	Viewport   view.Viewport
	Wires      []Wire
	Markers    []snap.Marker
	Inferences []snap.Inference
}

var _ snap.Renderer = (*Canvas)(nil)

// NewCanvas returns an empty canvas covering vp.
func NewCanvas(vp view.Viewport) *Canvas {
	return &Canvas{Viewport: vp}
}

// Render records a feedback frame.
func (c *Canvas) Render(fr snap.Frame) error {
	if !fr.Visible {
		return nil
	}
	if c.Viewport.Empty() {
		c.Viewport = fr.Viewport
	}
	c.Markers = append(c.Markers, fr.Marker)
	if fr.Inference != nil {
		c.Inferences = append(c.Inferences, *fr.Inference)
	}
	return nil
}

// AddSkeleton projects the segments of sk, placed by xform, as wires.
// Segments with an endpoint off the projection are skipped.
func (c *Canvas) AddSkeleton(sk *snap.Skeleton, xform sdf.M44, proj view.Projector) {
	if sk.Empty() {
		return
	}
	for _, seg := range sk.Segments {
		ws := seg.Transform(xform)
		a, okA := proj.WorldToPixel(ws.A)
		b, okB := proj.WorldToPixel(ws.B)
		if okA && okB {
			c.Wires = append(c.Wires, Wire{A: a, B: b})
		}
	}
}

// size returns the canvas dimensions in whole pixels.
func (c *Canvas) size() (int, int, error) {
	if c.Viewport.Empty() {
		return 0, 0, errors.New("overlay: canvas has an empty viewport")
	}
	return int(c.Viewport.X + c.Viewport.Width + 0.5), int(c.Viewport.Y + c.Viewport.Height + 0.5), nil
}

// Palette.
var (
	background = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	wireColor  = color.RGBA{R: 0x7f, G: 0x8c, B: 0x8d, A: 0xff}
)

// hex formats c as #RRGGBB for SVG styles.
func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// glyph returns the outline of a marker shape centred on p with half-size r,
// as a closed polygon. Circles are returned as nil.
func glyph(shape snap.Shape, p v2.Vec, r float64) []v2.Vec {
	switch shape {
	case snap.Triangle:
		return []v2.Vec{
			{X: p.X, Y: p.Y - r},
			{X: p.X + r, Y: p.Y + r},
			{X: p.X - r, Y: p.Y + r},
		}
	case snap.Square:
		return []v2.Vec{
			{X: p.X - r, Y: p.Y - r},
			{X: p.X + r, Y: p.Y - r},
			{X: p.X + r, Y: p.Y + r},
			{X: p.X - r, Y: p.Y + r},
		}
	case snap.Diamond:
		return []v2.Vec{
			{X: p.X, Y: p.Y - r},
			{X: p.X + r, Y: p.Y},
			{X: p.X, Y: p.Y + r},
			{X: p.X - r, Y: p.Y},
		}
	default:
		return nil
	}
}
