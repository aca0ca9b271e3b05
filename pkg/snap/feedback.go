package snap

import (
	"image/color"
	"io"
	"log/slog"

	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape is the glyph a marker is drawn with.
type Shape int

const (
	Circle Shape = iota
	Triangle
	Square
	Diamond
)

// Style is how a marker of one kind looks.
type Style struct {
	Shape Shape
	Color color.RGBA
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

var styles = [numKinds]Style{
	Vertex:   {Shape: Circle, Color: rgb(0x2e, 0xcc, 0x71)},
	Midpoint: {Shape: Triangle, Color: rgb(0x34, 0x98, 0xdb)},
	Edge:     {Shape: Square, Color: rgb(0xe6, 0x7e, 0x22)},
	Face:     {Shape: Diamond, Color: rgb(0x9b, 0x59, 0xb6)},
}

// InferenceColor is the color of the anchor-to-candidate line.
var InferenceColor = rgb(0x95, 0xa5, 0xa6)

// StyleFor returns the marker style of kind k.
func StyleFor(k Kind) Style {
	if k < 0 || int(k) >= numKinds {
		return Style{Shape: Circle, Color: rgb(0xff, 0xff, 0xff)}
	}
	return styles[k]
}

// Marker is the indicator drawn at a snap point.
type Marker struct {
	Kind     Kind    `json:"kind"`
	Owner    Handle  `json:"owner"`
	Position v3.Vec  `json:"position"`
	Pixel    v2.Vec  `json:"pixel"`
	Scale    float64 `json:"scale"` // world size giving a constant on-screen size
	Size     float64 `json:"size"`  // on-screen size in pixels
	Style    Style   `json:"-"`
}

// Inference is the line from the drag anchor to the snap point.
type Inference struct {
	From      v3.Vec `json:"from"`
	To        v3.Vec `json:"to"`
	FromPixel v2.Vec `json:"fromPixel"`
	ToPixel   v2.Vec `json:"toPixel"`
}

// Frame is one state of the snap feedback overlay. When Visible is false
// nothing is drawn.
type Frame struct {
	Visible   bool          `json:"visible"`
	Marker    Marker        `json:"marker"`
	Inference *Inference    `json:"inference,omitempty"`
	Viewport  view.Viewport `json:"viewport"`
}

// Renderer draws feedback frames. A Renderer that also implements
// io.Closer is closed when the engine is disposed.
type Renderer interface {
	Render(Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame) error

func (f RendererFunc) Render(fr Frame) error { return f(fr) }

// Emitter turns query results into frames for a renderer. Rendering is a
// side effect only: failures are logged and the query result stands.
type Emitter struct {
	renderer Renderer
	markerPx float64
	log      *slog.Logger
	last     Frame
	closed   bool
}

// NewEmitter returns an emitter drawing to r. A nil r discards frames.
func NewEmitter(r Renderer, markerPixels float64, log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{renderer: r, markerPx: markerPixels, log: log}
}

// Frame builds the frame for res. anchor may be nil.
func (e *Emitter) Frame(res Candidate, anchor *v3.Vec, proj view.Projector) Frame {
	px, _ := proj.WorldToPixel(res.Position)
	fr := Frame{
		Visible: true,
		Marker: Marker{
			Kind:     res.Kind,
			Owner:    res.Owner,
			Position: res.Position,
			Pixel:    px,
			Scale:    e.markerPx * proj.WorldPerPixel(res.Position),
			Size:     e.markerPx,
			Style:    StyleFor(res.Kind),
		},
		Viewport: proj.Viewport(),
	}
	if anchor != nil {
		if apx, ok := proj.WorldToPixel(*anchor); ok {
			fr.Inference = &Inference{From: *anchor, To: res.Position, FromPixel: apx, ToPixel: px}
		}
	}
	return fr
}

// Show renders the frame for res.
func (e *Emitter) Show(res Candidate, anchor *v3.Vec, proj view.Projector) {
	e.render(e.Frame(res, anchor, proj))
}

// Hide renders an empty frame unless the marker is already hidden.
func (e *Emitter) Hide() {
	if !e.last.Visible {
		return
	}
	e.render(Frame{Viewport: e.last.Viewport})
}

// Last returns the most recent frame.
func (e *Emitter) Last() Frame { return e.last }

// Close hides the marker and closes the renderer if it is an io.Closer.
// Later frames are dropped. Close is idempotent.
func (e *Emitter) Close() {
	if e.closed {
		return
	}
	e.Hide()
	e.closed = true
	if c, ok := e.renderer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			e.log.Warn("snap feedback renderer close failed", "error", err)
		}
	}
}

func (e *Emitter) render(fr Frame) {
	e.last = fr
	if e.closed || e.renderer == nil {
		return
	}
	if err := e.renderer.Render(fr); err != nil {
		e.log.Warn("snap feedback render failed", "error", err, "visible", fr.Visible)
	}
}
