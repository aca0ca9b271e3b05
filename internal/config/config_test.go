package config

import (
	"flag"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/snapkit/pkg/scene"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
resolution = 40

[camera]
projection = "orthographic"
position = [1, 1, 10]
target = [1, 1, 0]
up = [0, 1, 0]
height = 4
far = 100

[viewport]
width = 400
height = 400

[snap]
vertex_px = 20

[[scene.part]]
name = "base"
size = [2, 2, 1]

[[scene.group]]
name = "lid"
position = [0, 0, 1]

  [[scene.group.part]]
  name = "panel"
  shape = "quad"
  size = [2, 2]

[[probe]]
name = "corner"
cursor = [100, 100]

[[measure]]
from = [100, 100]
to = [300, 300]

[[drag]]
part = "panel"
from = [100, 100]
to = [300, 100]

[output]
overlay = "out.svg"
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("snapprobe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Resolution)
	assert.Equal(t, view.Camera{
		Projection: view.Orthographic,
		Position:   v3.Vec{X: 1, Y: 1, Z: 10},
		Target:     v3.Vec{X: 1, Y: 1},
		Up:         v3.Vec{Y: 1},
		FovY:       45,
		Height:     4,
		Near:       0.1,
		Far:        100,
	}, cfg.Camera.View())
	assert.Equal(t, view.Viewport{Width: 400, Height: 400}, cfg.Viewport)

	// Keys left out of [snap] keep their defaults.
	want := snap.DefaultConfig()
	want.VertexPx = 20
	assert.Equal(t, want, cfg.Snap)

	require.Len(t, cfg.Scene.Parts, 1)
	assert.Equal(t, "base", cfg.Scene.Parts[0].Name)
	require.Len(t, cfg.Scene.Groups, 1)
	assert.Equal(t, scene.ShapeQuad, cfg.Scene.Groups[0].Parts[0].Shape)

	require.Len(t, cfg.Probes, 1)
	assert.Equal(t, v2.Vec{X: 100, Y: 100}, cfg.Probes[0].Point())
	require.Len(t, cfg.Measures, 1)
	require.Len(t, cfg.Drags, 1)
	assert.Equal(t, "panel", cfg.Drags[0].Part)
	assert.Equal(t, "out.svg", cfg.Output.Overlay)

	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "[snap]\nvertex_pixels = 3\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid, "unknown key")

	_, err = Load(writeFile(t, "[camera]\nprojection = \"fisheye\"\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "resolution = \n"))
	assert.Error(t, err)
}

func TestParseConfigPrecedence(t *testing.T) {
	path := writeFile(t, sample)
	t.Setenv("SNAPKIT_VERTEX_PX", "25")
	t.Setenv("SNAPKIT_EDGE_PX", "4")
	t.Setenv("SNAPKIT_DXF", "env.dxf")
	t.Setenv("SNAPKIT_RESOLUTION", "60")

	cfg, err := ParseConfig(newFlagSet(), []string{"-config", path, "-edge-px", "7", "-v"})
	require.NoError(t, err)

	assert.Equal(t, 25.0, cfg.Snap.VertexPx, "env beats the file")
	assert.Equal(t, 7.0, cfg.Snap.EdgePx, "flags beat env")
	assert.Equal(t, snap.DefaultMidpointPx, cfg.Snap.MidpointPx)
	assert.Equal(t, "env.dxf", cfg.Output.DXF)
	assert.Equal(t, "out.svg", cfg.Output.Overlay, "unset flags leave the file value")
	assert.Equal(t, 60, cfg.Resolution)
	assert.True(t, cfg.Verbose)
}

func TestParseConfigErrors(t *testing.T) {
	good := writeFile(t, sample)
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		invalid bool
	}{
		{name: "missing config", args: nil, invalid: true},
		{name: "unknown flag", args: []string{"-config", good, "-nope"}},
		{name: "negative threshold", args: []string{"-config", good, "-vertex-px", "-1"}, invalid: true},
		{name: "bad env", args: []string{"-config", good}, env: map[string]string{"SNAPKIT_EDGE_PX": "wide"}},
		{name: "zero resolution", args: []string{"-config", good, "-resolution", "0"}, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := ParseConfig(newFlagSet(), tt.args)
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"camera on target", func(c *Config) { c.Camera.Target = c.Camera.Position }},
		{"nan cursor", func(c *Config) { c.Probes = []Probe{{Cursor: [2]float64{math.NaN(), 0}}} }},
		{"drag without part", func(c *Config) { c.Drags = []Drag{{}} }},
		{"nan measure", func(c *Config) { c.Measures = []Measure{{To: [2]float64{0, math.NaN()}}} }},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
