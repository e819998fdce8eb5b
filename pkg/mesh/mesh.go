// Package mesh defines the geometry data model: meshes, shape keys,
// vertex groups and the objects that own them.
package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/shapebake/pkg/math"
)

// Mesh validation errors.
var (
	ErrShapeKeyLength   = errors.New("shape key point count does not match vertex count")
	ErrFaceIndex        = errors.New("face references a vertex out of range")
	ErrDegenerateFace   = errors.New("face has fewer than 3 vertices")
	ErrVertexGroupWidth = errors.New("vertex group weight count does not match vertex count")
)

// BasisName is the conventional name of the first shape key.
const BasisName = "Basis"

// Face is an ordered loop of vertex indices.
type Face []int

// ShapeKey is one named morph target. Points are absolute positions with
// index correspondence to the mesh's vertices.
type ShapeKey struct {
	Name   string      `yaml:"name"`
	Points []math.Vec3 `yaml:"points,flow"`
	Value  float32     `yaml:"value,omitempty"`
	Mute   bool        `yaml:"mute,omitempty"`
}

// VertexGroup assigns a weight to every vertex.
type VertexGroup struct {
	Name    string    `yaml:"name"`
	Weights []float32 `yaml:"weights,flow"`
}

// Mesh is vertex positions, face topology and the attributes that follow
// vertex indices.
type Mesh struct {
	Name         string        `yaml:"name"`
	Vertices     []math.Vec3   `yaml:"vertices,flow"`
	Faces        []Face        `yaml:"faces,flow"`
	VertexGroups []VertexGroup `yaml:"vertex_groups,omitempty"`
	ShapeKeys    []ShapeKey    `yaml:"shape_keys,omitempty"`
}

// VertexCount returns the number of basis vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// HasShapeKeys reports whether the mesh carries any shape keys.
func (m *Mesh) HasShapeKeys() bool {
	return len(m.ShapeKeys) > 0
}

// ShapeKey returns the index of the named shape key, or -1.
func (m *Mesh) ShapeKey(name string) int {
	return slices.IndexFunc(m.ShapeKeys, func(k ShapeKey) bool { return k.Name == name })
}

// VertexGroup returns the named vertex group, or nil.
func (m *Mesh) VertexGroup(name string) *VertexGroup {
	for i := range m.VertexGroups {
		if m.VertexGroups[i].Name == name {
			return &m.VertexGroups[i]
		}
	}
	return nil
}

// AddShapeKey appends a shape key holding a copy of points and returns its index.
func (m *Mesh) AddShapeKey(name string, points []math.Vec3) int {
	m.ShapeKeys = append(m.ShapeKeys, ShapeKey{Name: name, Points: slices.Clone(points)})
	return len(m.ShapeKeys) - 1
}

// Copy returns a deep copy of the mesh under a new name.
func (m *Mesh) Copy(name string) *Mesh {
	out := &Mesh{
		Name:     name,
		Vertices: slices.Clone(m.Vertices),
		Faces:    make([]Face, len(m.Faces)),
	}
	for i, f := range m.Faces {
		out.Faces[i] = slices.Clone(f)
	}
	if m.VertexGroups != nil {
		out.VertexGroups = make([]VertexGroup, len(m.VertexGroups))
		for i, g := range m.VertexGroups {
			out.VertexGroups[i] = VertexGroup{Name: g.Name, Weights: slices.Clone(g.Weights)}
		}
	}
	if m.ShapeKeys != nil {
		out.ShapeKeys = make([]ShapeKey, len(m.ShapeKeys))
		for i, k := range m.ShapeKeys {
			out.ShapeKeys[i] = ShapeKey{Name: k.Name, Points: slices.Clone(k.Points), Value: k.Value, Mute: k.Mute}
		}
	}
	return out
}

// Validate checks index correspondence of shape keys and vertex groups
// and that every face references existing vertices.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("%w: face %d", ErrDegenerateFace, i)
		}
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: face %d index %d (vertices %d)", ErrFaceIndex, i, v, n)
			}
		}
	}
	for _, k := range m.ShapeKeys {
		if len(k.Points) != n {
			return fmt.Errorf("%w: %q has %d points, mesh has %d vertices", ErrShapeKeyLength, k.Name, len(k.Points), n)
		}
	}
	for _, g := range m.VertexGroups {
		if len(g.Weights) != n {
			return fmt.Errorf("%w: %q has %d weights, mesh has %d vertices", ErrVertexGroupWidth, g.Name, len(g.Weights), n)
		}
	}
	return nil
}

// Edges returns every unique undirected edge of the face loops as
// (low, high) index pairs in first-seen order.
func (m *Mesh) Edges() [][2]int {
	seen := make(map[[2]int]struct{})
	var edges [][2]int
	for _, f := range m.Faces {
		for i := range f {
			e := EdgeKey(f[i], f[(i+1)%len(f)])
			if e[0] == e[1] {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// EdgeKey orders an edge's endpoints.
func EdgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
