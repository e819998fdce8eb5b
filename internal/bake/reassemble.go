package bake

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// reassemble builds the collapsed mesh from the baked rest pose and the
// per-key variants. Every shape key is added in source order: the rest key
// and non-diverging keys as copies of the baked basis, diverging keys from
// their variant. A variant whose vertex count differs from the basis is
// dropped and its name returned in lost.
func reassemble(name string, basis *mesh.Mesh, keys []Divergence, variants [][]math.Vec3) (out *mesh.Mesh, lost []string) {
	out = basis.Copy(name)
	out.ShapeKeys = nil

	for _, d := range keys {
		points := basis.Vertices
		if d.Index > 0 && d.Diverges {
			points = variants[d.Index]
			if len(points) != len(basis.Vertices) {
				logger.Warn("mismatching vertex count, shape key lost",
					zap.String("mesh", name),
					zap.String("shape_key", d.Name),
					zap.Int("basis_vertices", len(basis.Vertices)),
					zap.Int("variant_vertices", len(points)))
				lost = append(lost, d.Name)
				continue
			}
		}
		out.AddShapeKey(d.Name, points)
	}
	return out, lost
}
