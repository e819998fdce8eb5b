package bake

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// Join appends the geometry of parts to ref's mesh, expressed in ref's
// local space. Shape keys are matched by name, except that every part's
// first key maps onto ref's first key; a part lacking a key contributes its
// rest positions to it. Vertex groups are matched by name with zero weight
// for vertices that had none. The parts themselves are left untouched.
func Join(ref *mesh.Object, parts []*mesh.Object) {
	dst := ref.Data
	inv := ref.World.Inv()

	needKeys := dst.HasShapeKeys()
	for _, p := range parts {
		needKeys = needKeys || p.Data.HasShapeKeys()
	}
	if needKeys && !dst.HasShapeKeys() {
		dst.AddShapeKey(mesh.BasisName, dst.Vertices)
	}

	for _, p := range parts {
		src := p.Data
		xf := inv.Mul4(p.World)
		offset := len(dst.Vertices)
		rest := transformPoints(restPose(src), xf)

		dst.Vertices = append(dst.Vertices, transformPoints(src.Vertices, xf)...)
		for _, f := range src.Faces {
			nf := make(mesh.Face, len(f))
			for i, v := range f {
				nf[i] = v + offset
			}
			dst.Faces = append(dst.Faces, nf)
		}

		joinShapeKeys(dst, src, rest, xf, offset)
		joinVertexGroups(dst, src, offset)
	}
}

func joinShapeKeys(dst, src *mesh.Mesh, rest []math.Vec3, xf mgl32.Mat4, offset int) {
	if !dst.HasShapeKeys() {
		return
	}

	for ki := range dst.ShapeKeys {
		points := rest
		if ki > 0 {
			if j := src.ShapeKey(dst.ShapeKeys[ki].Name); j > 0 {
				points = transformPoints(src.ShapeKeys[j].Points, xf)
			}
		}
		dst.ShapeKeys[ki].Points = append(dst.ShapeKeys[ki].Points, points...)
	}

	for j := 1; j < len(src.ShapeKeys); j++ {
		k := src.ShapeKeys[j]
		if dst.ShapeKey(k.Name) >= 0 {
			continue
		}
		points := slices.Clone(dst.ShapeKeys[0].Points[:offset])
		points = append(points, transformPoints(k.Points, xf)...)
		dst.ShapeKeys = append(dst.ShapeKeys, mesh.ShapeKey{Name: k.Name, Points: points, Value: k.Value, Mute: k.Mute})
	}
}

func joinVertexGroups(dst, src *mesh.Mesh, offset int) {
	added := len(src.Vertices)
	for i := range dst.VertexGroups {
		g := &dst.VertexGroups[i]
		if sg := src.VertexGroup(g.Name); sg != nil {
			g.Weights = append(g.Weights, sg.Weights...)
		} else {
			g.Weights = append(g.Weights, make([]float32, added)...)
		}
	}
	for _, sg := range src.VertexGroups {
		if dst.VertexGroup(sg.Name) != nil {
			continue
		}
		weights := make([]float32, offset, offset+added)
		dst.VertexGroups = append(dst.VertexGroups, mesh.VertexGroup{Name: sg.Name, Weights: append(weights, sg.Weights...)})
	}
}

func transformPoints(points []math.Vec3, xf mgl32.Mat4) []math.Vec3 {
	out := slices.Clone(points)
	if xf.ApproxEqual(mgl32.Ident4()) {
		return out
	}
	for i, p := range out {
		v := mgl32.TransformCoordinate(mgl32.Vec3{p.X, p.Y, p.Z}, xf)
		out[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out
}
