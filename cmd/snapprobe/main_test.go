package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/snapkit/internal/config"
	"github.com/chazu/snapkit/pkg/scene"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/view"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panelRun looks straight down on a 2x2 quad at 100 pixels per unit: the
// quad's corners land on pixels (100,300), (300,300), (100,100) and
// (300,100).
func panelRun(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Camera = config.Camera{
		Projection: view.Orthographic,
		Position:   [3]float64{1, 1, 10},
		Target:     [3]float64{1, 1, 0},
		Up:         [3]float64{0, 1, 0},
		Height:     4,
		Far:        100,
	}
	cfg.Viewport = view.Viewport{Width: 400, Height: 400}
	cfg.Scene = scene.Spec{Parts: []scene.PartSpec{{Name: "panel", Shape: scene.ShapeQuad, Size: [3]float64{2, 2}}}}
	cfg.Probes = []config.Probe{
		{Name: "corner", Cursor: [2]float64{103, 297}},
		{Name: "outside", Cursor: [2]float64{10, 10}},
	}
	cfg.Measures = []config.Measure{{Name: "diagonal", From: [2]float64{103, 297}, To: [2]float64{297, 103}}}
	cfg.Drags = []config.Drag{{Part: "panel", From: [2]float64{103, 297}, To: [2]float64{297, 297}}}
	cfg.Output = config.Output{
		Overlay: filepath.Join(dir, "overlay.svg"),
		DXF:     filepath.Join(dir, "skeleton.dxf"),
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func records(t *testing.T, out *bytes.Buffer) []Record {
	t.Helper()
	var recs []Record
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		recs = append(recs, r)
	}
	require.NoError(t, sc.Err())
	return recs
}

func TestRun(t *testing.T) {
	cfg := panelRun(t)
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.NoError(t, run(cfg, &out, log))

	recs := records(t, &out)
	require.Len(t, recs, 4)

	corner := recs[0]
	assert.Equal(t, "probe", corner.Op)
	require.True(t, corner.Hit)
	assert.Equal(t, snap.Vertex, corner.Result.Kind)
	assert.InDelta(t, 0, corner.Result.Position.Length(), 1e-9)

	assert.Equal(t, "outside", recs[1].Name)
	assert.False(t, recs[1].Hit)
	assert.Nil(t, recs[1].Result)

	diag := recs[2]
	assert.Equal(t, "measure", diag.Op)
	require.True(t, diag.Hit)
	assert.InDelta(t, 2.8284271247461903, diag.Measurement.Distance, 1e-9)

	drag := recs[3]
	assert.Equal(t, "drag", drag.Op)
	require.True(t, drag.Hit)
	assert.InDelta(t, 0, drag.Placement.Offset.Sub(v3.Vec{X: 2}).Length(), 1e-9)

	svg, err := os.ReadFile(cfg.Output.Overlay)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<circle")

	dxf, err := os.ReadFile(cfg.Output.DXF)
	require.NoError(t, err)
	assert.Contains(t, string(dxf), "SNAP_EDGES")
}

func TestRunErrors(t *testing.T) {
	t.Run("unknown drag part", func(t *testing.T) {
		cfg := panelRun(t)
		cfg.Drags[0].Part = "lid"
		err := run(cfg, &bytes.Buffer{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		assert.ErrorIs(t, err, config.ErrInvalid)
	})
	t.Run("bad scene", func(t *testing.T) {
		cfg := panelRun(t)
		cfg.Scene.Parts[0].Shape = "torus"
		err := run(cfg, &bytes.Buffer{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		assert.ErrorContains(t, err, "scene:")
	})
	t.Run("bad overlay format", func(t *testing.T) {
		cfg := panelRun(t)
		cfg.Output.Overlay = filepath.Join(t.TempDir(), "overlay.gif")
		err := run(cfg, &bytes.Buffer{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		assert.ErrorContains(t, err, "unsupported format")
	})
}
