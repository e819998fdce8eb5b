package bake

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// lifecycle tracks every temporary object and mesh created during one bake
// and guarantees each is destroyed exactly once.
type lifecycle struct {
	host Host

	mu      sync.Mutex
	objects []*mesh.Object
	meshes  []*mesh.Mesh // private data of unlinked duplicates
}

func newLifecycle(host Host) *lifecycle {
	return &lifecycle{host: host}
}

// duplicate creates and links a temporary copy of src.
func (l *lifecycle) duplicate(src *mesh.Object, name string, linked bool) (*mesh.Object, error) {
	dup, err := l.host.Duplicate(src, name, linked)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.objects = append(l.objects, dup)
	if !linked {
		l.meshes = append(l.meshes, dup.Data)
	}
	l.mu.Unlock()

	if err := l.host.Link(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// evaluate returns a private copy of obj's evaluated geometry; the host's
// temporary mesh is released before returning.
func (l *lifecycle) evaluate(ctx context.Context, obj *mesh.Object) (*mesh.Mesh, error) {
	ev, err := l.host.Evaluate(ctx, obj)
	if err != nil {
		return nil, err
	}
	defer l.host.Release(ev)
	return ev.Copy(ev.Name), nil
}

// destroy removes a tracked temporary immediately.
func (l *lifecycle) destroy(obj *mesh.Object) error {
	l.mu.Lock()
	i := slices.Index(l.objects, obj)
	if i < 0 {
		l.mu.Unlock()
		return nil
	}
	l.objects = slices.Delete(l.objects, i, i+1)
	var data *mesh.Mesh
	if j := slices.Index(l.meshes, obj.Data); j >= 0 {
		data = l.meshes[j]
		l.meshes = slices.Delete(l.meshes, j, j+1)
	}
	l.mu.Unlock()

	return l.remove(obj, data)
}

func (l *lifecycle) remove(obj *mesh.Object, data *mesh.Mesh) error {
	err := errors.Join(l.host.Unlink(obj), l.host.Destroy(obj))
	if data != nil {
		l.host.Release(data)
	}
	return err
}

// Close destroys every temporary still alive. It is safe to call more
// than once.
func (l *lifecycle) Close() error {
	l.mu.Lock()
	objects, meshes := l.objects, l.meshes
	l.objects, l.meshes = nil, nil
	l.mu.Unlock()

	var errs []error
	for _, obj := range objects {
		var data *mesh.Mesh
		if slices.Contains(meshes, obj.Data) {
			data = obj.Data
		}
		if err := l.remove(obj, data); err != nil {
			logger.Warn("failed to remove temporary object", zap.String("object", obj.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// live returns the number of temporaries not yet destroyed.
func (l *lifecycle) live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objects)
}
