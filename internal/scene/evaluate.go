package scene

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// Evaluate resolves obj's shape-key mix and applies its visible modifiers
// in stack order. Nothing is cached: every call reads the object's
// current state. The result must be passed to Release.
func (s *Scene) Evaluate(ctx context.Context, obj *mesh.Object) (*mesh.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if !s.linked[obj] {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrNotLinked, obj.Name)
	}
	if obj.Data == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrNoMeshData, obj.Name)
	}

	work := &mesh.Mesh{
		Name:     obj.Data.Name + "_evaluated",
		Vertices: shapeMix(obj),
		Faces:    make([]mesh.Face, len(obj.Data.Faces)),
	}
	for i, f := range obj.Data.Faces {
		work.Faces[i] = slices.Clone(f)
	}
	for _, g := range obj.Data.VertexGroups {
		work.VertexGroups = append(work.VertexGroups, mesh.VertexGroup{Name: g.Name, Weights: slices.Clone(g.Weights)})
	}

	for _, m := range obj.Modifiers {
		if !m.ShowViewport {
			continue
		}
		work = s.apply(obj, work, m)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	s.pending[work] = true
	s.mu.Unlock()
	return work, nil
}

// shapeMix returns the object's deformed rest positions. With
// ShowOnlyShapeKey the active key is used alone; otherwise every unmuted
// key contributes value * (key - basis).
func shapeMix(obj *mesh.Object) []math.Vec3 {
	m := obj.Data
	if !m.HasShapeKeys() {
		return slices.Clone(m.Vertices)
	}

	if obj.ShowOnlyShapeKey {
		idx := obj.ActiveShapeKey
		if idx < 0 || idx >= len(m.ShapeKeys) {
			idx = 0
		}
		return slices.Clone(m.ShapeKeys[idx].Points)
	}

	basis := m.ShapeKeys[0].Points
	out := slices.Clone(basis)
	for _, k := range m.ShapeKeys[1:] {
		if k.Mute || k.Value == 0 {
			continue
		}
		for i := range out {
			out[i] = out[i].Add(k.Points[i].Sub(basis[i]).Scale(k.Value))
		}
	}
	return out
}

// apply runs one modifier. Callers hold at least the read lock.
func (s *Scene) apply(obj *mesh.Object, m *mesh.Mesh, mod *modifier.Modifier) *mesh.Mesh {
	switch cfg := mod.Config.(type) {
	case modifier.Armature:
		target := s.lookup(cfg.Object)
		if target == nil || target.Type != mesh.TypeArmature {
			logger.Debug("armature target missing", zap.String("object", obj.Name), zap.String("target", cfg.Object))
			return m
		}
		return deformArmature(m, target, cfg)
	case modifier.Subdivision:
		for i := 0; i < cfg.Levels; i++ {
			m = subdivide(m)
		}
		return m
	case modifier.Weld:
		return weld(m, cfg)
	case modifier.Decimate:
		if cfg.Type != modifier.DecimateCollapse {
			logger.Debug("decimate type not evaluated", zap.String("object", obj.Name), zap.String("type", string(cfg.Type)))
			return m
		}
		return collapseEdges(m, cfg)
	case modifier.Other:
		return applyOther(m, cfg)
	default:
		// Bevel geometry is left to the real host.
		return m
	}
}

// applyOther handles free-form modifiers the scene knows by type name.
func applyOther(m *mesh.Mesh, cfg modifier.Other) *mesh.Mesh {
	switch cfg.Type {
	case "displace":
		offset := math.Vec3{
			X: float32(cfg.Params["x"]),
			Y: float32(cfg.Params["y"]),
			Z: float32(cfg.Params["z"]),
		}
		for i := range m.Vertices {
			m.Vertices[i] = m.Vertices[i].Add(offset)
		}
	}
	return m
}
