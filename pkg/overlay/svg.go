package overlay

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/chazu/snapkit/pkg/snap"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// WriteSVG draws the canvas as an SVG document.
func WriteSVG(w io.Writer, c *Canvas) error {
	width, height, err := c.size()
	if err != nil {
		return err
	}
	ew := &errWriter{w: w}
	s := svg.New(ew)
	s.Start(width, height)
	s.Rect(0, 0, width, height, "fill:"+hex(background))

	s.Gid("wires")
	for _, wire := range c.Wires {
		s.Line(px(wire.A.X), px(wire.A.Y), px(wire.B.X), px(wire.B.Y),
			"stroke:"+hex(wireColor)+";stroke-width:1")
	}
	s.Gend()

	s.Gid("inferences")
	for _, inf := range c.Inferences {
		s.Line(px(inf.FromPixel.X), px(inf.FromPixel.Y), px(inf.ToPixel.X), px(inf.ToPixel.Y),
			"stroke:"+hex(snap.InferenceColor)+";stroke-width:1;stroke-dasharray:4,3")
	}
	s.Gend()

	s.Gid("markers")
	for _, m := range c.Markers {
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", hex(m.Style.Color))
		r := m.Size / 2
		if pts := glyph(m.Style.Shape, m.Pixel, r); pts != nil {
			xs, ys := polygon(pts)
			s.Polygon(xs, ys, style)
		} else {
			s.Circle(px(m.Pixel.X), px(m.Pixel.Y), px(r), style)
		}
	}
	s.Gend()
	s.End()

	if ew.err != nil {
		return fmt.Errorf("overlay: write svg: %w", ew.err)
	}
	return nil
}

func px(v float64) int { return int(math.Round(v)) }

func polygon(pts []v2.Vec) ([]int, []int) {
	xs := make([]int, len(pts))
	ys := make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	return xs, ys
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	if _, err := e.w.Write(p); err != nil {
		e.err = err
	}
	return len(p), nil
}
