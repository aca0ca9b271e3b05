package snap

import (
	"fmt"

	"github.com/chazu/snapkit/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
)

// Object is a rigid scene object the engine can snap to. The engine reads
// it and never mutates it.
type Object interface {
	// Mesh returns the local-space triangles. It is read once per
	// registration.
	Mesh() *kernel.Mesh
	// WorldTransform returns the current local-to-world transform. It is
	// read at the start of every query.
	WorldTransform() sdf.M44
}

// Handle identifies a registered object. It packs the registration
// generation in the high 32 bits and the arena index in the low 32 bits,
// so a handle from an earlier registration never resolves. The zero
// Handle is never issued.
type Handle uint64

func makeHandle(gen uint32, index int) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index)))
}

// Generation returns the registration generation the handle belongs to.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// Index returns the arena slot of the handle.
func (h Handle) Index() int { return int(uint32(h)) }

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Generation(), h.Index())
}

type entry struct {
	handle     Handle
	owner      Object
	mesh       *kernel.Mesh
	meshBounds sdf.Box3
	skeleton   *Skeleton
	xform      sdf.M44 // copied from owner by Update
}

// Registry owns one skeleton per registered object. It is not safe for
// concurrent use; the Engine serializes access.
type Registry struct {
	gen     uint32
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set replaces the registered objects and extracts their skeletons. The
// returned handles line up with objs; a nil object gets the zero Handle.
func (r *Registry) Set(objs []Object, angleDeg, mergeEps float64) []Handle {
	r.Clear()
	r.gen++
	if r.gen == 0 {
		r.gen = 1
	}
	handles := make([]Handle, len(objs))
	for i, obj := range objs {
		if obj == nil {
			continue
		}
		h := makeHandle(r.gen, len(r.entries))
		mesh := obj.Mesh()
		sk := Extract(mesh, angleDeg, mergeEps)
		sk.Owner = h
		e := entry{
			handle:   h,
			owner:    obj,
			mesh:     mesh,
			skeleton: sk,
			xform:    obj.WorldTransform(),
		}
		if !mesh.IsEmpty() {
			e.meshBounds = mesh.Bounds()
		}
		r.entries = append(r.entries, e)
		handles[i] = h
	}
	return handles
}

// Update refreshes every cached world transform from its owner.
func (r *Registry) Update() {
	for i := range r.entries {
		r.entries[i].xform = r.entries[i].owner.WorldTransform()
	}
}

// Clear drops every entry. Outstanding handles stop resolving.
func (r *Registry) Clear() {
	for i := range r.entries {
		r.entries[i] = entry{}
	}
	r.entries = r.entries[:0]
}

// Len returns the number of registered objects.
func (r *Registry) Len() int { return len(r.entries) }

// Object returns the object behind h.
func (r *Registry) Object(h Handle) (Object, bool) {
	e, ok := r.lookup(h)
	if !ok {
		return nil, false
	}
	return e.owner, true
}

// Skeleton returns the local-space skeleton of the object behind h.
func (r *Registry) Skeleton(h Handle) (*Skeleton, bool) {
	e, ok := r.lookup(h)
	if !ok {
		return nil, false
	}
	return e.skeleton, true
}

// Transform returns the world transform cached by the last Update.
func (r *Registry) Transform(h Handle) (sdf.M44, bool) {
	e, ok := r.lookup(h)
	if !ok {
		return sdf.M44{}, false
	}
	return e.xform, true
}

// Stats returns the total segment and vertex counts across all skeletons.
func (r *Registry) Stats() (segments, vertices int) {
	for i := range r.entries {
		segments += len(r.entries[i].skeleton.Segments)
		vertices += len(r.entries[i].skeleton.Vertices)
	}
	return segments, vertices
}

func (r *Registry) lookup(h Handle) (*entry, bool) {
	if h == 0 || h.Generation() != r.gen {
		return nil, false
	}
	i := h.Index()
	if i >= len(r.entries) {
		return nil, false
	}
	return &r.entries[i], true
}
