package scene

import (
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// subdivide performs one level of simple subdivision: every face is split
// into quads around its centroid using edge midpoints. Original vertices
// keep their indices; edge midpoints follow in first-seen edge order, then
// one centroid per face.
func subdivide(m *mesh.Mesh) *mesh.Mesh {
	n := len(m.Vertices)
	edges := m.Edges()
	edgeIndex := make(map[[2]int]int, len(edges))

	out := &mesh.Mesh{Name: m.Name}
	out.Vertices = make([]math.Vec3, 0, n+len(edges)+len(m.Faces))
	out.Vertices = append(out.Vertices, m.Vertices...)

	for i, e := range edges {
		edgeIndex[e] = n + i
		out.Vertices = append(out.Vertices, m.Vertices[e[0]].Midpoint(m.Vertices[e[1]]))
	}

	centers := make([]int, len(m.Faces))
	for fi, f := range m.Faces {
		corners := make([]math.Vec3, len(f))
		for i, v := range f {
			corners[i] = m.Vertices[v]
		}
		centers[fi] = len(out.Vertices)
		out.Vertices = append(out.Vertices, math.Centroid(corners))
	}

	for fi, f := range m.Faces {
		k := len(f)
		for i := range f {
			prev, cur, next := f[(i+k-1)%k], f[i], f[(i+1)%k]
			out.Faces = append(out.Faces, mesh.Face{
				cur,
				edgeIndex[mesh.EdgeKey(cur, next)],
				centers[fi],
				edgeIndex[mesh.EdgeKey(prev, cur)],
			})
		}
	}

	for _, g := range m.VertexGroups {
		w := make([]float32, 0, len(out.Vertices))
		w = append(w, g.Weights...)
		for _, e := range edges {
			w = append(w, (g.Weights[e[0]]+g.Weights[e[1]])/2)
		}
		for _, f := range m.Faces {
			var sum float32
			for _, v := range f {
				sum += g.Weights[v]
			}
			w = append(w, sum/float32(len(f)))
		}
		out.VertexGroups = append(out.VertexGroups, mesh.VertexGroup{Name: g.Name, Weights: w})
	}
	return out
}
