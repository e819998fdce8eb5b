// Package bake collapses an object's modifier stack into static geometry
// while keeping one reconstructed shape key per authored shape key.
//
// The engine never touches ambient scene state: the object, the host and
// the policy are passed explicitly. The host owns object creation, linking
// and dependency-graph evaluation; the engine owns the order of operations
// and the cleanup of everything it creates.
package bake

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// Evaluator resolves an object's current shape-key selection and visible
// modifiers into final geometry.
type Evaluator interface {
	// Evaluate returns the fully deformed mesh for obj as it is right now.
	// The result must reflect every state change made before the call.
	// The returned mesh is owned by the host until passed to Release.
	Evaluate(ctx context.Context, obj *mesh.Object) (*mesh.Mesh, error)

	// Release frees a mesh data block created by the host.
	Release(m *mesh.Mesh)
}

// Host is the embedding application's scene graph.
type Host interface {
	Evaluator

	// Duplicate copies obj under name. A linked duplicate shares the mesh
	// data block of obj.
	Duplicate(obj *mesh.Object, name string, linked bool) (*mesh.Object, error)

	// NewObject creates an object owning data with the given transform.
	NewObject(name string, data *mesh.Mesh, world mgl32.Mat4) (*mesh.Object, error)

	// Link makes obj visible to the evaluator; Unlink reverses it.
	Link(obj *mesh.Object) error
	Unlink(obj *mesh.Object) error

	// Destroy removes obj from the scene. Its mesh data is left alone.
	Destroy(obj *mesh.Object) error

	// Decimate reduces obj's mesh in place, carrying shape keys and vertex
	// groups along with the surviving vertices.
	Decimate(ctx context.Context, obj *mesh.Object, cfg modifier.Decimate) error
}

// ConcurrentHost is implemented by hosts that may be called from several
// goroutines at once.
type ConcurrentHost interface {
	Host
	Concurrent() bool
}

func isConcurrent(h Host) bool {
	c, ok := h.(ConcurrentHost)
	return ok && c.Concurrent()
}
