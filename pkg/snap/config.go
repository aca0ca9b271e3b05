package snap

import (
	"fmt"
	"math"
)

// Kind is the feature class of a snap candidate. Kinds are declared in
// priority order: a lower Kind wins whenever its own threshold is met.
type Kind int

const (
	Vertex Kind = iota
	Midpoint
	Edge
	Face
)

// numKinds is the number of declared kinds.
const numKinds = int(Face) + 1

func (k Kind) String() string {
	switch k {
	case Vertex:
		return "vertex"
	case Midpoint:
		return "midpoint"
	case Edge:
		return "edge"
	case Face:
		return "face"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for c := Vertex; c <= Face; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("snap: unknown kind %q", b)
}

// Default thresholds.
const (
	DefaultVertexPx       = 15.0
	DefaultMidpointPx     = 12.0
	DefaultEdgePx         = 10.0
	DefaultMaxRawHitPx    = 30.0
	DefaultAngleThreshold = 1.0  // degrees
	DefaultRayTolerance   = 0.0  // world units
	DefaultMergeEpsilon   = 0.01 // world units
	DefaultMarkerPixels   = 10.0
)

// Config holds the engine's acceptance thresholds. Pixel values are
// strict upper bounds on the cursor distance in screen pixels.
type Config struct {
	VertexPx   float64 `toml:"vertex_px" json:"vertexPx" env:"VERTEX_PX"`
	MidpointPx float64 `toml:"midpoint_px" json:"midpointPx" env:"MIDPOINT_PX"`
	EdgePx     float64 `toml:"edge_px" json:"edgePx" env:"EDGE_PX"`

	// MaxRawHitPx discards an edge raycast hit whose projection lies
	// farther than this from the cursor.
	MaxRawHitPx float64 `toml:"max_raw_hit_px" json:"maxRawHitPx" env:"MAX_RAW_HIT_PX"`

	// AngleThreshold is the minimum dihedral angle, in degrees, for an
	// interior mesh edge to become part of a skeleton.
	AngleThreshold float64 `toml:"angle_threshold" json:"angleThreshold" env:"ANGLE_THRESHOLD"`

	// RayTolerance is a world-space floor on the distance within which the
	// cursor ray counts as touching a skeleton segment. Above it, the
	// distance follows MaxRawHitPx at the segment's depth.
	RayTolerance float64 `toml:"ray_tolerance" json:"rayTolerance" env:"RAY_TOLERANCE"`

	// MergeEpsilon is the distance below which skeleton vertices are merged.
	MergeEpsilon float64 `toml:"merge_epsilon" json:"mergeEpsilon" env:"MERGE_EPSILON"`

	// MarkerPixels is the apparent on-screen size of the feedback marker.
	MarkerPixels float64 `toml:"marker_pixels" json:"markerPixels" env:"MARKER_PIXELS"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		VertexPx:       DefaultVertexPx,
		MidpointPx:     DefaultMidpointPx,
		EdgePx:         DefaultEdgePx,
		MaxRawHitPx:    DefaultMaxRawHitPx,
		AngleThreshold: DefaultAngleThreshold,
		RayTolerance:   DefaultRayTolerance,
		MergeEpsilon:   DefaultMergeEpsilon,
		MarkerPixels:   DefaultMarkerPixels,
	}
}

// Threshold returns the acceptance distance in pixels for kind k. Faces
// are always accepted: a face hit lies under the cursor by construction.
func (c Config) Threshold(k Kind) float64 {
	switch k {
	case Vertex:
		return c.VertexPx
	case Midpoint:
		return c.MidpointPx
	case Edge:
		return c.EdgePx
	case Face:
		return math.Inf(1)
	default:
		return 0
	}
}

// Accepts reports whether cand is within its kind's threshold.
func (c Config) Accepts(cand Candidate) bool {
	return cand.PixelDistance < c.Threshold(cand.Kind)
}

// Validate reports the first threshold that is negative or not a number.
func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"vertex_px", c.VertexPx},
		{"midpoint_px", c.MidpointPx},
		{"edge_px", c.EdgePx},
		{"max_raw_hit_px", c.MaxRawHitPx},
		{"angle_threshold", c.AngleThreshold},
		{"ray_tolerance", c.RayTolerance},
		{"merge_epsilon", c.MergeEpsilon},
		{"marker_pixels", c.MarkerPixels},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || f.v < 0 {
			return fmt.Errorf("snap: %s must be a non-negative number, got %v", f.name, f.v)
		}
	}
	return nil
}
