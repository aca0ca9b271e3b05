// Package snap finds precise anchor points on scene geometry under a
// cursor.
//
// Acceptance is decided in screen pixels, so snapping feels the same at
// every zoom level. Candidates are tried in priority order: a vertex beats
// an edge midpoint, which beats a point on an edge, which beats a point on
// a face. A query is a raycast against each object's feature skeleton,
// followed by the resolver, with a raycast against raw triangles as the
// fallback.
package snap

import (
	"log/slog"
	"sync"

	"github.com/chazu/snapkit/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Engine is the snapping facade used by interactive tools. It is safe for
// concurrent use; calls are serialized.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	reg      *Registry
	emitter  *Emitter
	renderer Renderer
	log      *slog.Logger
	enabled  bool
	anchor   *v3.Vec
	last     Result
	hasLast  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default thresholds.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithRenderer sets where feedback frames are drawn.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithLogger sets the engine logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an enabled engine with no objects.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:     DefaultConfig(),
		reg:     NewRegistry(),
		log:     slog.Default(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.emitter = NewEmitter(e.renderer, e.cfg.MarkerPixels, e.log)
	return e
}

// SetObjects replaces the snappable objects and rebuilds every skeleton.
// The handles line up with objs.
func (e *Engine) SetObjects(objs []Object) []Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	handles := e.reg.Set(objs, e.cfg.AngleThreshold, e.cfg.MergeEpsilon)
	e.last, e.hasLast = Result{}, false
	segments, vertices := e.reg.Stats()
	e.log.Info("snap registry rebuilt",
		"objects", e.reg.Len(), "segments", segments, "vertices", vertices)
	return handles
}

// Query returns the snap point for the cursor pixel, or false when nothing
// is in range. Feedback is updated to match. Query never fails; unusable
// input yields false.
func (e *Engine) Query(cursor v2.Vec, cam view.Camera, vp view.Viewport) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := e.query(cursor, cam, vp)
	e.last, e.hasLast = res, ok
	return res, ok
}

func (e *Engine) query(cursor v2.Vec, cam view.Camera, vp view.Viewport) (Result, bool) {
	if !e.enabled || e.reg.Len() == 0 {
		e.emitter.Hide()
		return Result{}, false
	}
	proj, ok := view.New(cam, vp)
	if !ok {
		e.log.Debug("snap query skipped: unusable camera or viewport", "viewport", vp)
		e.emitter.Hide()
		return Result{}, false
	}
	e.reg.Update()

	res, ok := e.resolve(proj, cursor)
	if !ok {
		e.emitter.Hide()
		return Result{}, false
	}
	e.emitter.Show(res, e.anchor, proj)
	return res, true
}

func (e *Engine) resolve(proj view.Projector, cursor v2.Vec) (Result, bool) {
	ht, ok := NewHitTester(e.reg, proj, cursor, e.cfg)
	if !ok {
		return Result{}, false
	}
	if hit, ok := ht.Edges(); ok {
		f := Features{Owner: hit.Owner}
		f.Skeleton, _ = e.reg.Skeleton(hit.Owner)
		f.Transform, _ = e.reg.Transform(hit.Owner)
		if res, ok := Resolve(f, proj, cursor, e.cfg); ok {
			return res, true
		}
		e.log.Debug("snap edge hit rejected, trying faces",
			"owner", hit.Owner, "rawPx", hit.PixelDistance)
	}
	return ht.Faces()
}

// LastResult returns the result of the most recent Query.
func (e *Engine) LastResult() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.hasLast
}

// SetDragAnchor sets the world point inference lines are drawn from, or
// clears it when p is nil. The point is copied.
func (e *Engine) SetDragAnchor(p *v3.Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == nil {
		e.anchor = nil
		return
	}
	a := *p
	e.anchor = &a
}

// SetEnabled turns snapping on or off. Disabling hides feedback.
func (e *Engine) SetEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = on
	if !on {
		e.emitter.Hide()
		e.last, e.hasLast = Result{}, false
	}
}

// SetPixelThresholds changes the vertex, midpoint and edge acceptance
// distances. They apply from the next Query.
func (e *Engine) SetPixelThresholds(vertexPx, midpointPx, edgePx float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.VertexPx = vertexPx
	e.cfg.MidpointPx = midpointPx
	e.cfg.EdgePx = edgePx
}

// SetMaxRawHitPx changes the gate on raw edge hits.
func (e *Engine) SetMaxRawHitPx(px float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxRawHitPx = px
}

// SetAngleThreshold changes the skeleton dihedral angle. Skeletons are
// rebuilt with it at the next SetObjects.
func (e *Engine) SetAngleThreshold(deg float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.AngleThreshold = deg
}

// Config returns the current thresholds.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Object returns the registered object behind h.
func (e *Engine) Object(h Handle) (Object, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Object(h)
}

// Skeleton returns the local-space skeleton of the object behind h.
func (e *Engine) Skeleton(h Handle) (*Skeleton, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Skeleton(h)
}

// Frame returns the most recent feedback frame.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emitter.Last()
}

// Dispose releases every skeleton, hides feedback and closes the renderer.
// It may be called more than once. The engine keeps answering queries
// after a later SetObjects, without feedback.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.Clear()
	e.emitter.Close()
	e.anchor = nil
	e.last, e.hasLast = Result{}, false
}
