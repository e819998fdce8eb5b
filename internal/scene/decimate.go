package scene

import (
	gomath "math"

	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// symmetryEpsilon is the distance from the mirror plane within which a
// vertex counts as lying on it.
const symmetryEpsilon = 1e-5

// collapseEdges reduces m to ceil(ratio * vertices) vertices by repeatedly
// collapsing the cheapest edge into its midpoint. Cost is edge length,
// scaled up by the decimate vertex group so weighted regions survive
// longer. With symmetry, only edges whose ends lie on the same side of the
// mirror plane collapse. Shape keys and vertex groups are carried along:
// every key moves the surviving vertex to the midpoint of its own two
// positions.
func collapseEdges(m *mesh.Mesh, cfg modifier.Decimate) *mesh.Mesh {
	n := len(m.Vertices)
	if cfg.Ratio >= 1 || n < 4 {
		return m.Copy(m.Name)
	}
	target := int(gomath.Ceil(float64(cfg.Ratio) * float64(n)))
	target = max(target, 3)

	work := m.Copy(m.Name)
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	count := n

	var weights []float32
	if g := work.VertexGroup(cfg.VertexGroup); cfg.VertexGroup != "" && g != nil {
		weights = make([]float32, n)
		for i, w := range g.Weights {
			if cfg.InvertVertexGroup {
				w = 1 - w
			}
			weights[i] = w
		}
	}
	axis := cfg.SymmetryAxis.Index()

	cost := func(a, b int) (float32, bool) {
		pa, pb := work.Vertices[a], work.Vertices[b]
		if cfg.UseSymmetry && side(pa.Axis(axis)) != side(pb.Axis(axis)) {
			return 0, false
		}
		c := pa.Distance(pb)
		if weights != nil {
			c *= 1 + cfg.VertexGroupFactor*(weights[a]+weights[b])/2
		}
		return c, true
	}

	for count > target {
		best, bestCost := [2]int{-1, -1}, float32(gomath.MaxFloat32)
		for _, e := range work.Edges() {
			c, ok := cost(e[0], e[1])
			if !ok {
				continue
			}
			if c < bestCost || (c == bestCost && less(e, best)) {
				best, bestCost = e, c
			}
		}
		if best[0] < 0 {
			break
		}

		collapse(work, best[0], best[1], weights)
		alive[best[1]] = false
		count--
	}

	remap := make([]int, n)
	var kept []int
	for i := 0; i < n; i++ {
		if alive[i] {
			remap[i] = len(kept)
			kept = append(kept, i)
		}
	}
	return compact(work, kept, remap)
}

// collapse merges vertex b into a.
func collapse(m *mesh.Mesh, a, b int, weights []float32) {
	m.Vertices[a] = m.Vertices[a].Midpoint(m.Vertices[b])
	for i := range m.ShapeKeys {
		pts := m.ShapeKeys[i].Points
		pts[a] = pts[a].Midpoint(pts[b])
	}
	for i := range m.VertexGroups {
		w := m.VertexGroups[i].Weights
		w[a] = (w[a] + w[b]) / 2
	}
	if weights != nil {
		weights[a] = (weights[a] + weights[b]) / 2
	}

	faces := m.Faces[:0]
	for _, f := range m.Faces {
		var nf mesh.Face
		for _, v := range f {
			if v == b {
				v = a
			}
			if len(nf) > 0 && nf[len(nf)-1] == v {
				continue
			}
			nf = append(nf, v)
		}
		for len(nf) > 1 && nf[0] == nf[len(nf)-1] {
			nf = nf[:len(nf)-1]
		}
		if len(nf) >= 3 {
			faces = append(faces, nf)
		}
	}
	m.Faces = faces
}

func side(v float32) int {
	switch {
	case v > symmetryEpsilon:
		return 1
	case v < -symmetryEpsilon:
		return -1
	default:
		return 0
	}
}

func less(a, b [2]int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}
