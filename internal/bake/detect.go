package bake

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Faultbox/shapebake/internal/fingerprint"
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// Divergence describes one shape key relative to the rest pose.
type Divergence struct {
	Name        string
	Index       int
	Diverges    bool
	Fingerprint fingerprint.Fingerprint

	// Moved holds the vertex indices whose position differs from the
	// rest pose. Nil when the key does not diverge.
	Moved *roaring.Bitmap
}

// restPose returns the positions shape keys are compared against: the
// first shape key when present, otherwise the mesh vertices.
func restPose(m *mesh.Mesh) []math.Vec3 {
	if m.HasShapeKeys() {
		return m.ShapeKeys[0].Points
	}
	return m.Vertices
}

// DetectChanges fingerprints the rest pose once and every shape key once,
// in key order. Keys whose fingerprint equals the rest pose's are reported
// as not diverging.
func DetectChanges(m *mesh.Mesh) []Divergence {
	rest := restPose(m)
	restPrint := fingerprint.Of(rest)

	out := make([]Divergence, len(m.ShapeKeys))
	for i, k := range m.ShapeKeys {
		d := Divergence{
			Name:        k.Name,
			Index:       i,
			Fingerprint: fingerprint.Of(k.Points),
		}
		d.Diverges = d.Fingerprint != restPrint
		if d.Diverges {
			d.Moved = movedVertices(rest, k.Points)
		}
		out[i] = d
	}
	return out
}

// ChangedKeys maps each shape key name to whether it diverges from the
// rest pose.
func ChangedKeys(m *mesh.Mesh) map[string]bool {
	out := make(map[string]bool, len(m.ShapeKeys))
	for _, d := range DetectChanges(m) {
		out[d.Name] = d.Diverges
	}
	return out
}

func movedVertices(rest, points []math.Vec3) *roaring.Bitmap {
	moved := roaring.New()
	n := min(len(rest), len(points))
	for i := 0; i < n; i++ {
		if rest[i] != points[i] {
			moved.Add(uint32(i))
		}
	}
	return moved
}
