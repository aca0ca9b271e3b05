package overlay

import (
	"fmt"
	"image"

	"github.com/chazu/snapkit/pkg/snap"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

// Rasterize draws the canvas into a new RGBA image.
func Rasterize(c *Canvas) (*image.RGBA, error) {
	w, h, err := c.size()
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gc := draw2dimg.NewGraphicContext(img)

	gc.SetFillColor(background)
	draw2dkit.Rectangle(gc, 0, 0, float64(w), float64(h))
	gc.Fill()

	gc.SetLineWidth(1)
	gc.SetStrokeColor(wireColor)
	for _, wire := range c.Wires {
		gc.BeginPath()
		gc.MoveTo(wire.A.X, wire.A.Y)
		gc.LineTo(wire.B.X, wire.B.Y)
		gc.Stroke()
	}

	if len(c.Inferences) > 0 {
		gc.SetStrokeColor(snap.InferenceColor)
		gc.SetLineDash([]float64{4, 3}, 0)
		for _, l := range c.Inferences {
			gc.BeginPath()
			gc.MoveTo(l.FromPixel.X, l.FromPixel.Y)
			gc.LineTo(l.ToPixel.X, l.ToPixel.Y)
			gc.Stroke()
		}
		gc.SetLineDash(nil, 0)
	}

	gc.SetLineWidth(2)
	for _, m := range c.Markers {
		gc.SetStrokeColor(m.Style.Color)
		gc.BeginPath()
		r := m.Size / 2
		if pts := glyph(m.Style.Shape, m.Pixel, r); pts != nil {
			gc.MoveTo(pts[0].X, pts[0].Y)
			for _, p := range pts[1:] {
				gc.LineTo(p.X, p.Y)
			}
			gc.Close()
		} else {
			draw2dkit.Circle(gc, m.Pixel.X, m.Pixel.Y, r)
		}
		gc.Stroke()
	}
	return img, nil
}

// WritePNG rasterizes the canvas to a PNG file.
func WritePNG(path string, c *Canvas) error {
	img, err := Rasterize(c)
	if err != nil {
		return err
	}
	if err := draw2dimg.SaveToPngFile(path, img); err != nil {
		return fmt.Errorf("overlay: write png %s: %w", path, err)
	}
	return nil
}
