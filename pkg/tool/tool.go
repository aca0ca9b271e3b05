// Package tool implements the interactive tools that consume snap
// results: drag placement and two-point measurement.
package tool

import (
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Snapper is the part of the snap engine the tools drive.
type Snapper interface {
	Query(cursor v2.Vec, cam view.Camera, vp view.Viewport) (snap.Result, bool)
	SetDragAnchor(p *v3.Vec)
}

var _ Snapper = (*snap.Engine)(nil)

// Pointer is one pointer event: where the cursor is and what it sees.
type Pointer struct {
	Cursor   v2.Vec
	Camera   view.Camera
	Viewport view.Viewport
}

func (p Pointer) query(s Snapper) (snap.Result, bool) {
	return s.Query(p.Cursor, p.Camera, p.Viewport)
}

// Placement is the move that takes the drag anchor onto the current snap
// point.
type Placement struct {
	Anchor snap.Result `json:"anchor"`
	Target snap.Result `json:"target"`
	Offset v3.Vec      `json:"offset"` // Target.Position - Anchor.Position
}

// Drag picks an anchor on pointer down and reports where it would land
// on each move.
type Drag struct {
	s      Snapper
	anchor snap.Result
	active bool
	last   Placement
	placed bool
}

// NewDrag returns an idle drag tool.
func NewDrag(s Snapper) *Drag {
	return &Drag{s: s}
}

// Down starts a drag from the snap point under the pointer. It reports
// false, leaving the tool idle, when nothing is under the pointer.
func (d *Drag) Down(p Pointer) bool {
	res, ok := p.query(d.s)
	if !ok {
		return false
	}
	d.anchor, d.active = res, true
	d.last, d.placed = Placement{}, false
	anchor := res.Position
	d.s.SetDragAnchor(&anchor)
	return true
}

// Move snaps the pointer and returns the placement for it. It reports
// false when no drag is active or nothing is under the pointer.
func (d *Drag) Move(p Pointer) (Placement, bool) {
	if !d.active {
		return Placement{}, false
	}
	res, ok := p.query(d.s)
	if !ok {
		return Placement{}, false
	}
	d.last = Placement{
		Anchor: d.anchor,
		Target: res,
		Offset: res.Position.Sub(d.anchor.Position),
	}
	d.placed = true
	return d.last, true
}

// Up ends the drag and returns the last placement reported by Move.
func (d *Drag) Up() (Placement, bool) {
	if !d.active {
		return Placement{}, false
	}
	d.active = false
	d.s.SetDragAnchor(nil)
	return d.last, d.placed
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool { return d.active }

// Measurement is the distance between two snap points.
type Measurement struct {
	From     snap.Result `json:"from"`
	To       snap.Result `json:"to"`
	Delta    v3.Vec      `json:"delta"`
	Distance float64     `json:"distance"`
}

func measure(from, to snap.Result) Measurement {
	d := to.Position.Sub(from.Position)
	return Measurement{From: from, To: to, Delta: d, Distance: d.Length()}
}

// Measure records two snapped clicks. A third click starts over.
type Measure struct {
	s     Snapper
	start snap.Result
	armed bool
}

// NewMeasure returns a measure tool waiting for its first point.
func NewMeasure(s Snapper) *Measure {
	return &Measure{s: s}
}

// Click records a point. The first click anchors the measurement and
// reports false; the second completes it. A click that snaps to nothing
// is ignored.
func (m *Measure) Click(p Pointer) (Measurement, bool) {
	res, ok := p.query(m.s)
	if !ok {
		return Measurement{}, false
	}
	if !m.armed {
		m.start, m.armed = res, true
		from := res.Position
		m.s.SetDragAnchor(&from)
		return Measurement{}, false
	}
	m.armed = false
	m.s.SetDragAnchor(nil)
	return measure(m.start, res), true
}

// Hover previews the measurement from the first point to the pointer.
func (m *Measure) Hover(p Pointer) (Measurement, bool) {
	if !m.armed {
		return Measurement{}, false
	}
	res, ok := p.query(m.s)
	if !ok {
		return Measurement{}, false
	}
	return measure(m.start, res), true
}

// Reset discards a half-finished measurement.
func (m *Measure) Reset() {
	if m.armed {
		m.armed = false
		m.s.SetDragAnchor(nil)
	}
}
