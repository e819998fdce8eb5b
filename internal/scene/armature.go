package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// deformArmature blends bone pose matrices by the vertex groups named
// after the bones. Vertices without weight stay in place.
func deformArmature(m *mesh.Mesh, rig *mesh.Object, cfg modifier.Armature) *mesh.Mesh {
	if !cfg.UseVertexGroups {
		return m
	}

	var mask *mesh.VertexGroup
	if cfg.VertexGroup != "" {
		mask = m.VertexGroup(cfg.VertexGroup)
	}

	for i, p := range m.Vertices {
		v := mgl32.Vec3{p.X, p.Y, p.Z}
		var (
			acc   mgl32.Vec3
			total float32
		)
		for _, g := range m.VertexGroups {
			w := g.Weights[i]
			if w == 0 {
				continue
			}
			b := rig.Bone(g.Name)
			if b == nil {
				continue
			}
			acc = acc.Add(mgl32.TransformCoordinate(v, b.Pose).Mul(w))
			total += w
		}
		if total == 0 {
			continue
		}

		posed := math.Vec3{X: acc[0] / total, Y: acc[1] / total, Z: acc[2] / total}
		if mask != nil {
			f := mask.Weights[i]
			if cfg.InvertVertexGroup {
				f = 1 - f
			}
			posed = p.Lerp(posed, f)
		}
		m.Vertices[i] = posed
	}
	return m
}
