// Command snapprobe builds a scene, runs snap queries at fixed cursor
// positions and prints each result as a JSON line. It can also replay
// measurements and drags, draw the snap overlay and export the skeletons.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/snapkit/internal/config"
	"github.com/chazu/snapkit/pkg/export"
	"github.com/chazu/snapkit/pkg/kernel/sdfx"
	"github.com/chazu/snapkit/pkg/overlay"
	"github.com/chazu/snapkit/pkg/scene"
	"github.com/chazu/snapkit/pkg/snap"
	"github.com/chazu/snapkit/pkg/tool"
	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

func main() {
	fs := flag.NewFlagSet("snapprobe", flag.ContinueOnError)
	cfg, err := config.ParseConfig(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "snapprobe: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, os.Stdout, log); err != nil {
		log.Error("snapprobe failed", "error", err)
		os.Exit(1)
	}
}

// Record is one line of output.
type Record struct {
	Op          string            `json:"op"`
	Name        string            `json:"name,omitempty"`
	Cursor      *v2.Vec           `json:"cursor,omitempty"`
	Hit         bool              `json:"hit"`
	Result      *snap.Result      `json:"result,omitempty"`
	Measurement *tool.Measurement `json:"measurement,omitempty"`
	Placement   *tool.Placement   `json:"placement,omitempty"`
}

func run(cfg config.Config, stdout io.Writer, log *slog.Logger) error {
	sc, err := scene.Build(sdfx.NewWithResolution(cfg.Resolution), cfg.Scene)
	if err != nil {
		return err
	}
	log.Info("scene built", "parts", len(sc.Parts))

	cam := cfg.Camera.View()
	proj, ok := view.New(cam, cfg.Viewport)
	if !ok {
		return fmt.Errorf("snapprobe: %w: camera cannot project onto the viewport", config.ErrInvalid)
	}

	opts := []snap.Option{snap.WithConfig(cfg.Snap), snap.WithLogger(log)}
	var out *overlay.File
	if cfg.Output.Overlay != "" {
		out, err = overlay.Create(cfg.Output.Overlay, cfg.Viewport)
		if err != nil {
			return err
		}
		opts = append(opts, snap.WithRenderer(out))
	}
	e := snap.New(opts...)
	defer e.Dispose()
	handles := e.SetObjects(sc.Objects())

	enc := json.NewEncoder(stdout)
	ptr := func(p [2]float64) tool.Pointer {
		return tool.Pointer{Cursor: v2.Vec{X: p[0], Y: p[1]}, Camera: cam, Viewport: cfg.Viewport}
	}

	for _, p := range cfg.Probes {
		cursor := p.Point()
		rec := Record{Op: "probe", Name: p.Name, Cursor: &cursor}
		if res, ok := e.Query(cursor, cam, cfg.Viewport); ok {
			rec.Hit, rec.Result = true, &res
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("snapprobe: write: %w", err)
		}
	}

	for _, m := range cfg.Measures {
		rec := Record{Op: "measure", Name: m.Name}
		mt := tool.NewMeasure(e)
		mt.Click(ptr(m.From))
		if got, ok := mt.Click(ptr(m.To)); ok {
			rec.Hit, rec.Measurement = true, &got
		}
		mt.Reset()
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("snapprobe: write: %w", err)
		}
	}

	for _, d := range cfg.Drags {
		part, ok := sc.Part(d.Part)
		if !ok {
			return fmt.Errorf("snapprobe: %w: drag: no part %q", config.ErrInvalid, d.Part)
		}
		rec := Record{Op: "drag", Name: d.Part}
		dr := tool.NewDrag(e)
		if dr.Down(ptr(d.From)) {
			dr.Move(ptr(d.To))
			if pl, ok := dr.Up(); ok {
				part.Translate(pl.Offset)
				rec.Hit, rec.Placement = true, &pl
				log.Debug("part moved", "part", d.Part, "offset", pl.Offset)
			}
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("snapprobe: write: %w", err)
		}
	}

	var placed []export.Placed
	for _, h := range handles {
		sk, ok := e.Skeleton(h)
		if !ok {
			continue
		}
		obj, _ := e.Object(h)
		xform := obj.WorldTransform()
		placed = append(placed, export.Placed{Skeleton: sk, Transform: xform})
		if out != nil {
			out.AddSkeleton(sk, xform, proj)
		}
	}

	if cfg.Output.DXF != "" {
		r := proj.WorldPerPixel(cam.Target) * cfg.Snap.MarkerPixels / 2
		if err := export.DXF(cfg.Output.DXF, placed, r); err != nil {
			return err
		}
		log.Info("skeletons exported", "path", cfg.Output.DXF, "parts", len(placed))
	}
	if out != nil {
		if err := out.Close(); err != nil {
			return err
		}
		log.Info("overlay written", "path", out.Path(), "markers", len(out.Markers))
	}
	return nil
}
