// Package view converts between world space and screen pixels.
//
// A Projector is a validated snapshot of one camera and one viewport. The
// hit tester, the resolver and the feedback emitter are handed the same
// Projector value for a query, so every pixel distance in that query is
// measured with identical arithmetic.
package view

import (
	"fmt"
	"math"

	"github.com/chazu/snapkit/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Projection selects the camera model.
type Projection int

const (
	Perspective  Projection = iota // FovY applies
	Orthographic                   // Height applies
)

func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Projection) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Projection) UnmarshalText(b []byte) error {
	switch string(b) {
	case "perspective", "":
		*p = Perspective
	case "orthographic", "ortho":
		*p = Orthographic
	default:
		return fmt.Errorf("view: unknown projection %q", b)
	}
	return nil
}

// Camera describes a look-at camera. Angles are in degrees, distances in
// world units.
type Camera struct {
	Projection Projection `toml:"projection" json:"projection"`
	Position   v3.Vec     `toml:"position" json:"position"`
	Target     v3.Vec     `toml:"target" json:"target"`
	Up         v3.Vec     `toml:"up" json:"up"`
	FovY       float64    `toml:"fov_y" json:"fovY"`    // vertical field of view (perspective)
	Height     float64    `toml:"height" json:"height"` // visible world height (orthographic)
	Near       float64    `toml:"near" json:"near"`
	Far        float64    `toml:"far" json:"far"`
}

// Viewport is the pixel rectangle the camera renders into. Pixel y grows
// downward from Y.
type Viewport struct {
	X      float64 `toml:"x" json:"x"`
	Y      float64 `toml:"y" json:"y"`
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
}

// Empty reports whether the viewport covers no pixels.
func (vp Viewport) Empty() bool {
	return !(vp.Width > 0) || !(vp.Height > 0)
}

// Projector maps between world space and viewport pixels for one camera.
// The zero value is invalid; build one with New.
type Projector struct {
	cam     Camera
	vp      Viewport
	right   v3.Vec
	up      v3.Vec
	forward v3.Vec
	halfH   float64 // tan(fov/2) for perspective, half view height for orthographic
	aspect  float64
}

// New validates cam and vp and returns their projector. It reports false
// for an empty viewport, a degenerate view basis, or a projection whose
// parameters would divide by zero.
func New(cam Camera, vp Viewport) (Projector, bool) {
	if vp.Empty() {
		return Projector{}, false
	}
	if !(cam.Near >= 0) || !(cam.Far > cam.Near) {
		return Projector{}, false
	}

	var halfH float64
	switch cam.Projection {
	case Perspective:
		if !(cam.FovY > 0 && cam.FovY < 180) || cam.Near == 0 {
			return Projector{}, false
		}
		halfH = math.Tan(cam.FovY * math.Pi / 360)
	case Orthographic:
		if !(cam.Height > 0) {
			return Projector{}, false
		}
		halfH = cam.Height / 2
	default:
		return Projector{}, false
	}

	forward, ok := unit(cam.Target.Sub(cam.Position))
	if !ok {
		return Projector{}, false
	}
	right, ok := unit(forward.Cross(cam.Up))
	if !ok {
		return Projector{}, false
	}

	return Projector{
		cam:     cam,
		vp:      vp,
		right:   right,
		up:      right.Cross(forward),
		forward: forward,
		halfH:   halfH,
		aspect:  vp.Width / vp.Height,
	}, true
}

// Camera returns the camera the projector was built from.
func (p Projector) Camera() Camera { return p.cam }

// Viewport returns the viewport the projector was built from.
func (p Projector) Viewport() Viewport { return p.vp }

// Valid reports whether p was built by a successful New.
func (p Projector) Valid() bool { return p.aspect > 0 }

// Depth returns the view-space distance of w in front of the camera.
func (p Projector) Depth(w v3.Vec) float64 {
	return w.Sub(p.cam.Position).Dot(p.forward)
}

// NDC returns the normalized device coordinates of w. The second result is
// false for points behind a perspective camera.
func (p Projector) NDC(w v3.Vec) (v3.Vec, bool) {
	if !p.Valid() {
		return v3.Vec{}, false
	}
	d := w.Sub(p.cam.Position)
	x, y, z := d.Dot(p.right), d.Dot(p.up), d.Dot(p.forward)
	n, f := p.cam.Near, p.cam.Far

	if p.cam.Projection == Orthographic {
		return v3.Vec{
			X: x / (p.halfH * p.aspect),
			Y: y / p.halfH,
			Z: 2*(z-n)/(f-n) - 1,
		}, true
	}
	if z <= 0 {
		return v3.Vec{}, false
	}
	return v3.Vec{
		X: x / (z * p.halfH * p.aspect),
		Y: y / (z * p.halfH),
		Z: (f+n)/(f-n) - 2*f*n/((f-n)*z),
	}, true
}

// WorldToPixel projects w into viewport pixels. It reports false for
// points behind the camera or beyond the far plane (normalized depth > 1).
func (p Projector) WorldToPixel(w v3.Vec) (v2.Vec, bool) {
	ndc, ok := p.NDC(w)
	if !ok || ndc.Z > 1 {
		return v2.Vec{}, false
	}
	return v2.Vec{
		X: p.vp.X + (ndc.X+1)/2*p.vp.Width,
		Y: p.vp.Y + (1-ndc.Y)/2*p.vp.Height,
	}, true
}

// PixelToRay returns the world-space ray through the pixel px.
func (p Projector) PixelToRay(px v2.Vec) (geom.Ray, bool) {
	if !p.Valid() {
		return geom.Ray{}, false
	}
	nx := (px.X-p.vp.X)/p.vp.Width*2 - 1
	ny := 1 - (px.Y-p.vp.Y)/p.vp.Height*2
	sx := nx * p.halfH * p.aspect
	sy := ny * p.halfH

	if p.cam.Projection == Orthographic {
		origin := p.cam.Position.Add(p.right.MulScalar(sx)).Add(p.up.MulScalar(sy))
		return geom.NewRay(origin, p.forward)
	}
	dir := p.forward.Add(p.right.MulScalar(sx)).Add(p.up.MulScalar(sy))
	return geom.NewRay(p.cam.Position, dir)
}

// WorldPerPixel returns the world length spanned by one pixel at the depth
// of w. It grows linearly with distance for a perspective camera and is
// constant for an orthographic one.
func (p Projector) WorldPerPixel(w v3.Vec) float64 {
	if !p.Valid() {
		return 0
	}
	if p.cam.Projection == Orthographic {
		return 2 * p.halfH / p.vp.Height
	}
	return 2 * math.Max(p.Depth(w), 0) * p.halfH / p.vp.Height
}

// WorldToPixel projects w with a one-off projector. It reports false for
// an empty viewport or unusable camera instead of dividing by zero.
func WorldToPixel(w v3.Vec, cam Camera, vp Viewport) (v2.Vec, bool) {
	p, ok := New(cam, vp)
	if !ok {
		return v2.Vec{}, false
	}
	return p.WorldToPixel(w)
}

// PixelToRay casts a ray through px with a one-off projector.
func PixelToRay(px v2.Vec, cam Camera, vp Viewport) (geom.Ray, bool) {
	p, ok := New(cam, vp)
	if !ok {
		return geom.Ray{}, false
	}
	return p.PixelToRay(px)
}

func unit(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if !(l > 1e-12) || math.IsInf(l, 0) {
		return v3.Vec{}, false
	}
	return v.DivScalar(l), true
}
