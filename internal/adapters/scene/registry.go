// Package scene tracks the live notes the player can hit.
package scene

import (
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/domain/placement"
	"github.com/okian/notebeat/pkg/metrics"
)

// Shape is the geometry a note is drawn with.
type Shape string

// Note shapes.
const (
	ShapeModel  Shape = "model"
	ShapeSphere Shape = "sphere"
)

// Object is a live note.
type Object struct {
	ID        string
	Shape     Shape
	Transform mgl64.Mat4
	Position  mgl64.Vec3
	// Color is nil when it could not be resolved at creation.
	Color     *palette.Color
	SpawnedAt time.Time
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithShape sets the shape recorded for new objects.
func WithShape(s Shape) Option {
	return func(r *Registry) {
		if s != "" {
			r.shape = s
		}
	}
}

// WithNow replaces the wall clock used for SpawnedAt.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry is safe for concurrent reads. Writes come from the session owner.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]Object
	shape   Shape
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		objects: make(map[string]Object),
		shape:   ShapeModel,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	metrics.UpdateLiveObjects(0)
	return r
}

// Shape returns the shape given to new objects.
func (r *Registry) Shape() Shape { return r.shape }

// Create records a note at transform and returns its id.
func (r *Registry) Create(transform mgl64.Mat4, color *palette.Color) string {
	obj := Object{
		ID:        uuid.NewString(),
		Shape:     r.shape,
		Transform: transform,
		Position:  placement.Origin(transform),
		Color:     copyColor(color),
		SpawnedAt: r.now(),
	}

	r.mu.Lock()
	r.objects[obj.ID] = obj
	n := len(r.objects)
	r.mu.Unlock()

	metrics.UpdateLiveObjects(n)
	return obj.ID
}

// Remove deletes id and returns what was removed. Absent ids are a no-op.
func (r *Registry) Remove(id string) (Object, bool) {
	r.mu.Lock()
	obj, ok := r.objects[id]
	if ok {
		delete(r.objects, id)
	}
	n := len(r.objects)
	r.mu.Unlock()

	if ok {
		metrics.UpdateLiveObjects(n)
	}
	return obj, ok
}

// ClearAll removes every object and returns how many there were.
func (r *Registry) ClearAll() int {
	r.mu.Lock()
	n := len(r.objects)
	r.objects = make(map[string]Object)
	r.mu.Unlock()

	metrics.UpdateLiveObjects(0)
	return n
}

// ColorOf returns the color of id. ok is false when id is absent or its
// color is unknown.
func (r *Registry) ColorOf(id string) (palette.Color, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[id]
	if !ok || obj.Color == nil {
		return palette.Color{}, false
	}
	return *obj.Color, true
}

// Get returns a copy of the object.
func (r *Registry) Get(id string) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[id]
	if ok {
		obj.Color = copyColor(obj.Color)
	}
	return obj, ok
}

// List returns every live object, oldest first.
func (r *Registry) List() []Object {
	r.mu.RLock()
	out := make([]Object, 0, len(r.objects))
	for _, obj := range r.objects {
		obj.Color = copyColor(obj.Color)
		out = append(out, obj)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SpawnedAt.Equal(out[j].SpawnedAt) {
			return out[i].SpawnedAt.Before(out[j].SpawnedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of live objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

func copyColor(c *palette.Color) *palette.Color {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
