// Package config loads snapprobe runs: a TOML file describing the scene,
// the camera and the cursor probes, with threshold overrides from the
// environment and flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/chazu/snapkit/pkg/scene"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. SNAPKIT_VERTEX_PX.
const EnvPrefix = "SNAPKIT_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Camera is the file form of view.Camera.
type Camera struct {
	Projection view.Projection `toml:"projection"`
	Position   [3]float64      `toml:"position"`
	Target     [3]float64      `toml:"target"`
	Up         [3]float64      `toml:"up"`
	FovY       float64         `toml:"fov_y"`
	Height     float64         `toml:"height"`
	Near       float64         `toml:"near"`
	Far        float64         `toml:"far"`
}

// View converts c to a view.Camera.
func (c Camera) View() view.Camera {
	return view.Camera{
		Projection: c.Projection,
		Position:   vec3(c.Position),
		Target:     vec3(c.Target),
		Up:         vec3(c.Up),
		FovY:       c.FovY,
		Height:     c.Height,
		Near:       c.Near,
		Far:        c.Far,
	}
}

// Probe is one cursor position to query.
type Probe struct {
	Name   string     `toml:"name"`
	Cursor [2]float64 `toml:"cursor"`
}

// Point returns the cursor as a pixel position.
func (p Probe) Point() v2.Vec { return vec2(p.Cursor) }

// Measure is a two-click measurement.
type Measure struct {
	Name string     `toml:"name"`
	From [2]float64 `toml:"from"`
	To   [2]float64 `toml:"to"`
}

// Drag picks a part up at From and drops it at To, moving the part by the
// snapped offset.
type Drag struct {
	Part string     `toml:"part"`
	From [2]float64 `toml:"from"`
	To   [2]float64 `toml:"to"`
}

// Output names the files a run writes. Empty paths are skipped.
type Output struct {
	Overlay string `toml:"overlay" env:"OVERLAY"`
	DXF     string `toml:"dxf" env:"DXF"`
}

// Config is a complete snapprobe run.
type Config struct {
	Resolution int           `toml:"resolution"`
	Camera     Camera        `toml:"camera"`
	Viewport   view.Viewport `toml:"viewport"`
	Snap       snap.Config   `toml:"snap"`
	Scene      scene.Spec    `toml:"scene"`
	Probes     []Probe       `toml:"probe"`
	Measures   []Measure     `toml:"measure"`
	Drags      []Drag        `toml:"drag"`
	Output     Output        `toml:"output"`

	Verbose bool `toml:"-"`
}

// Default returns a run with the default thresholds, a perspective camera
// looking down -Z at the origin and an 800x600 viewport.
func Default() Config {
	return Config{
		Resolution: 100,
		Camera: Camera{
			Projection: view.Perspective,
			Position:   [3]float64{0, 0, 10},
			Up:         [3]float64{0, 1, 0},
			FovY:       45,
			Near:       0.1,
			Far:        1000,
		},
		Viewport: view.Viewport{Width: 800, Height: 600},
		Snap:     snap.DefaultConfig(),
	}
}

// Load decodes the TOML file at path over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML into cfg, keeping fields the document leaves out.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return fmt.Errorf("%w: %s", ErrInvalid, sme.String())
		}
		return err
	}
	return nil
}

// ParseEnv applies SNAPKIT_* overrides to the thresholds, the output paths
// and the mesh resolution.
func ParseEnv(cfg *Config) error {
	opts := env.Options{Prefix: EnvPrefix}
	if err := env.ParseWithOptions(&cfg.Snap, opts); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.Output, opts); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	mesh := struct {
		Resolution int `env:"RESOLUTION"`
	}{cfg.Resolution}
	if err := env.ParseWithOptions(&mesh, opts); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	cfg.Resolution = mesh.Resolution
	return nil
}

// ParseConfig parses flags, loads the file named by -config, applies the
// environment and finally the flags that were set explicitly.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var (
		path    string
		flagged = Default()
	)
	fs.StringVar(&path, "config", "", "TOML run description (required)")
	fs.BoolVar(&flagged.Verbose, "v", false, "log at debug level")
	fs.IntVar(&flagged.Resolution, "resolution", flagged.Resolution, "marching cubes cells along the longest axis")
	fs.StringVar(&flagged.Output.Overlay, "overlay", "", "write the snap overlay to this .svg or .png file")
	fs.StringVar(&flagged.Output.DXF, "dxf", "", "write the world-space skeletons to this DXF file")
	fs.Float64Var(&flagged.Snap.VertexPx, "vertex-px", flagged.Snap.VertexPx, "vertex snap threshold in pixels")
	fs.Float64Var(&flagged.Snap.MidpointPx, "midpoint-px", flagged.Snap.MidpointPx, "midpoint snap threshold in pixels")
	fs.Float64Var(&flagged.Snap.EdgePx, "edge-px", flagged.Snap.EdgePx, "edge snap threshold in pixels")
	fs.Float64Var(&flagged.Snap.AngleThreshold, "angle", flagged.Snap.AngleThreshold, "minimum dihedral angle in degrees for a feature edge")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if path == "" {
		return Config{}, fmt.Errorf("config: %w: -config is required", ErrInvalid)
	}

	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Verbose = flagged.Verbose
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "resolution":
			cfg.Resolution = flagged.Resolution
		case "overlay":
			cfg.Output.Overlay = flagged.Output.Overlay
		case "dxf":
			cfg.Output.DXF = flagged.Output.DXF
		case "vertex-px":
			cfg.Snap.VertexPx = flagged.Snap.VertexPx
		case "midpoint-px":
			cfg.Snap.MidpointPx = flagged.Snap.MidpointPx
		case "edge-px":
			cfg.Snap.EdgePx = flagged.Snap.EdgePx
		case "angle":
			cfg.Snap.AngleThreshold = flagged.Snap.AngleThreshold
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the run can be projected and queried.
func (c Config) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("config: %w: resolution %d must be positive", ErrInvalid, c.Resolution)
	}
	if err := c.Snap.Validate(); err != nil {
		return fmt.Errorf("config: %w: %v", ErrInvalid, err)
	}
	if c.Viewport.Empty() {
		return fmt.Errorf("config: %w: viewport %gx%g is empty", ErrInvalid, c.Viewport.Width, c.Viewport.Height)
	}
	if _, ok := view.New(c.Camera.View(), c.Viewport); !ok {
		return fmt.Errorf("config: %w: camera cannot project onto the viewport", ErrInvalid)
	}
	for i, p := range c.Probes {
		if !finite2(p.Cursor) {
			return fmt.Errorf("config: %w: probe %d (%s): cursor must be finite", ErrInvalid, i, p.Name)
		}
	}
	for i, m := range c.Measures {
		if !finite2(m.From) || !finite2(m.To) {
			return fmt.Errorf("config: %w: measure %d (%s): points must be finite", ErrInvalid, i, m.Name)
		}
	}
	for i, d := range c.Drags {
		if d.Part == "" {
			return fmt.Errorf("config: %w: drag %d: part is required", ErrInvalid, i)
		}
		if !finite2(d.From) || !finite2(d.To) {
			return fmt.Errorf("config: %w: drag %d (%s): points must be finite", ErrInvalid, i, d.Part)
		}
	}
	return nil
}

func finite2(a [2]float64) bool {
	return !math.IsNaN(a[0]) && !math.IsInf(a[0], 0) && !math.IsNaN(a[1]) && !math.IsInf(a[1], 0)
}

func vec2(a [2]float64) v2.Vec { return v2.Vec{X: a[0], Y: a[1]} }

func vec3(a [3]float64) v3.Vec { return v3.Vec{X: a[0], Y: a[1], Z: a[2]} }
