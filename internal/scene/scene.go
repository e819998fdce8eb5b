// Package scene is an in-memory host: an object registry with linking,
// duplication and a deterministic dependency-graph evaluator for modifier
// stacks. It is safe for concurrent use.
package scene

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// Scene errors.
var (
	ErrUnknownObject = errors.New("object is not part of the scene")
	ErrNotLinked     = errors.New("object is not linked to the scene")
	ErrNoMeshData    = errors.New("object has no mesh data")
)

// Scene holds objects and evaluates them.
type Scene struct {
	mu      sync.RWMutex
	objects []*mesh.Object
	linked  map[*mesh.Object]bool

	// evaluated meshes handed out and not yet released
	pending map[*mesh.Mesh]bool
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		linked:  make(map[*mesh.Object]bool),
		pending: make(map[*mesh.Mesh]bool),
	}
}

// Add registers and links authored objects.
func (s *Scene) Add(objs ...*mesh.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range objs {
		if slices.Contains(s.objects, obj) {
			continue
		}
		s.objects = append(s.objects, obj)
		s.linked[obj] = true
	}
}

// Objects returns every object in the scene, in creation order.
func (s *Scene) Objects() []*mesh.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.objects)
}

// Object returns the object with the given name, or nil.
func (s *Scene) Object(name string) *mesh.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(name)
}

func (s *Scene) lookup(name string) *mesh.Object {
	for _, obj := range s.objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// IsLinked reports whether obj is visible to the evaluator.
func (s *Scene) IsLinked(obj *mesh.Object) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linked[obj]
}

// Outstanding returns the number of evaluated meshes not yet released.
func (s *Scene) Outstanding() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// uniqueName appends .001, .002, ... until name is free.
func (s *Scene) uniqueName(name string) string {
	if s.lookup(name) == nil {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if s.lookup(candidate) == nil {
			return candidate
		}
	}
}

// Duplicate registers a copy of obj. The copy is not linked.
func (s *Scene) Duplicate(obj *mesh.Object, name string, linked bool) (*mesh.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.objects, obj) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj.Name)
	}
	dup := obj.Duplicate(s.uniqueName(name), linked)
	s.objects = append(s.objects, dup)
	return dup, nil
}

// NewObject registers a mesh object owning data. The object is not linked.
func (s *Scene) NewObject(name string, data *mesh.Mesh, world mgl32.Mat4) (*mesh.Object, error) {
	if data == nil {
		return nil, ErrNoMeshData
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := mesh.NewObject(s.uniqueName(name), data)
	obj.World = world
	s.objects = append(s.objects, obj)
	return obj, nil
}

// Link makes obj visible to the evaluator.
func (s *Scene) Link(obj *mesh.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.objects, obj) {
		return fmt.Errorf("%w: %s", ErrUnknownObject, obj.Name)
	}
	s.linked[obj] = true
	return nil
}

// Unlink hides obj from the evaluator. Unlinking twice is not an error.
func (s *Scene) Unlink(obj *mesh.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.linked, obj)
	return nil
}

// Destroy removes obj from the scene.
func (s *Scene) Destroy(obj *mesh.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.objects, obj)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownObject, obj.Name)
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	delete(s.linked, obj)
	return nil
}

// Release frees an evaluated or orphaned mesh.
func (s *Scene) Release(m *mesh.Mesh) {
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, m)
}

// Concurrent reports that every method may be called concurrently.
func (s *Scene) Concurrent() bool { return true }

// Decimate collapses obj's mesh in place, carrying shape keys and vertex
// groups.
func (s *Scene) Decimate(ctx context.Context, obj *mesh.Object, cfg modifier.Decimate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.Data == nil {
		return fmt.Errorf("%w: %s", ErrNoMeshData, obj.Name)
	}
	if cfg.Type != modifier.DecimateCollapse {
		return fmt.Errorf("decimate type %q is not supported", cfg.Type)
	}

	out := collapseEdges(obj.Data, cfg)
	out.Name = obj.Data.Name
	*obj.Data = *out

	logger.Debug("decimated mesh", zap.String("object", obj.Name), zap.Int("vertices", out.VertexCount()))
	return nil
}
