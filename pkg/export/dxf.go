// Package export writes snap skeletons to CAD interchange formats.
package export

import (
	"fmt"

	"github.com/chazu/snapkit/pkg/snap"
	"github.com/deadsy/sdfx/sdf"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerEdges     = "SNAP_EDGES"
	LayerVertices  = "SNAP_VERTICES"
	LayerMidpoints = "SNAP_MIDPOINTS"
)

// Placed is a skeleton with the world transform to export it under.
type Placed struct {
	Skeleton  *snap.Skeleton
	Transform sdf.M44
}

// DXF writes the world-space skeletons to path. Edges become LINE
// entities; vertices and midpoints become CIRCLEs of radius markRadius on
// their own layers.
func DXF(path string, parts []Placed, markRadius float64) error {
	d := dxf.NewDrawing()
	for _, l := range []struct {
		name string
		col  color.ColorNumber
	}{
		{LayerEdges, color.White},
		{LayerVertices, color.Green},
		{LayerMidpoints, color.Cyan},
	} {
		if _, err := d.AddLayer(l.name, l.col, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("export: add layer %s: %w", l.name, err)
		}
	}

	for i, p := range parts {
		if err := writePart(d, p, markRadius); err != nil {
			return fmt.Errorf("export: part %d: %w", i, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func writePart(d *drawing.Drawing, p Placed, r float64) error {
	if p.Skeleton.Empty() {
		return nil
	}
	if err := d.ChangeLayer(LayerEdges); err != nil {
		return err
	}
	for _, seg := range p.Skeleton.Segments {
		ws := seg.Transform(p.Transform)
		if _, err := d.Line(ws.A.X, ws.A.Y, ws.A.Z, ws.B.X, ws.B.Y, ws.B.Z); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerVertices); err != nil {
		return err
	}
	for _, v := range p.Skeleton.Vertices {
		w := p.Transform.MulPosition(v)
		if _, err := d.Circle(w.X, w.Y, w.Z, r); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerMidpoints); err != nil {
		return err
	}
	for _, m := range p.Skeleton.Midpoints {
		w := p.Transform.MulPosition(m)
		if _, err := d.Circle(w.X, w.Y, w.Z, r); err != nil {
			return err
		}
	}
	return nil
}
