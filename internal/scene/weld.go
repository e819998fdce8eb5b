package scene

import (
	gomath "math"

	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// weld merges vertices within cfg.MergeThreshold of each other. Each
// merged cluster keeps the position of its lowest index and clusters stay
// in first-index order.
func weld(m *mesh.Mesh, cfg modifier.Weld) *mesh.Mesh {
	n := len(m.Vertices)
	uf := newUnionFind(n)

	allowed := func(int) bool { return true }
	if g := m.VertexGroup(cfg.VertexGroup); cfg.VertexGroup != "" && g != nil {
		allowed = func(i int) bool { return (g.Weights[i] > 0) != cfg.InvertVertexGroup }
	}

	t := cfg.MergeThreshold
	near := func(i, j int) bool {
		return allowed(i) && allowed(j) && m.Vertices[i].Distance(m.Vertices[j]) <= t
	}

	if cfg.Mode == modifier.WeldConnected {
		for _, e := range m.Edges() {
			if near(e[0], e[1]) {
				uf.union(e[0], e[1])
			}
		}
	} else {
		weldAll(m.Vertices, t, near, uf)
	}

	remap := make([]int, n)
	var kept []int
	for i := 0; i < n; i++ {
		if r := uf.find(i); r != i {
			remap[i] = remap[r]
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, i)
	}
	return compact(m, kept, remap)
}

// weldAll tests every pair within one grid cell of each other.
func weldAll(points []math.Vec3, t float32, near func(i, j int) bool, uf *unionFind) {
	size := float64(t)
	if size <= 0 {
		size = 1e-6
	}
	cell := func(p math.Vec3) [3]int64 {
		return [3]int64{
			int64(gomath.Floor(float64(p.X) / size)),
			int64(gomath.Floor(float64(p.Y) / size)),
			int64(gomath.Floor(float64(p.Z) / size)),
		}
	}

	grid := make(map[[3]int64][]int)
	for i, p := range points {
		c := cell(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range grid[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if near(i, j) {
							uf.union(i, j)
						}
					}
				}
			}
		}
		grid[c] = append(grid[c], i)
	}
}

// compact builds a mesh keeping the vertices listed in kept. remap maps
// every old index to its new index. Faces collapsing below three distinct
// vertices are dropped. Shape keys and vertex groups follow the kept
// vertices.
func compact(m *mesh.Mesh, kept []int, remap []int) *mesh.Mesh {
	out := &mesh.Mesh{Name: m.Name, Vertices: make([]math.Vec3, len(kept))}
	for i, old := range kept {
		out.Vertices[i] = m.Vertices[old]
	}

	for _, f := range m.Faces {
		var nf mesh.Face
		for _, v := range f {
			r := remap[v]
			if len(nf) > 0 && nf[len(nf)-1] == r {
				continue
			}
			nf = append(nf, r)
		}
		for len(nf) > 1 && nf[0] == nf[len(nf)-1] {
			nf = nf[:len(nf)-1]
		}
		if len(nf) >= 3 {
			out.Faces = append(out.Faces, nf)
		}
	}

	for _, g := range m.VertexGroups {
		w := make([]float32, len(kept))
		for i, old := range kept {
			w[i] = g.Weights[old]
		}
		out.VertexGroups = append(out.VertexGroups, mesh.VertexGroup{Name: g.Name, Weights: w})
	}
	for _, k := range m.ShapeKeys {
		pts := make([]math.Vec3, len(kept))
		for i, old := range kept {
			pts[i] = k.Points[old]
		}
		out.ShapeKeys = append(out.ShapeKeys, mesh.ShapeKey{Name: k.Name, Points: pts, Value: k.Value, Mute: k.Mute})
	}
	return out
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union joins the sets of a and b; the lower root wins.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
