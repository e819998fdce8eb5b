package bake

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// Options configures ApplyAndMerge.
type Options struct {
	Policy     Policy
	HideSource bool // Hide every baked source object
	Merge      bool // Join the other collapsed objects into the reference
}

// OperatorResult aggregates the outcome of ApplyAndMerge.
type OperatorResult struct {
	// Reference is the collapsed object derived from the active object.
	Reference *mesh.Object

	// Collapsed lists every collapsed object still in the scene,
	// reference first.
	Collapsed []*mesh.Object

	// Lost maps source object names to the shape keys dropped for them.
	Lost     map[string][]string
	Warnings []Warning
}

// ApplyAndMerge bakes every selected mesh object and, when opts.Merge is
// set, joins the results into the one baked from active. Non-mesh objects
// in selected are ignored; an empty selection means only active.
//
// Preconditions are checked before anything is modified. If any bake
// fails, every collapsed object created so far is removed and the sources
// are left as they were.
func ApplyAndMerge(ctx context.Context, host Host, active *mesh.Object, selected []*mesh.Object, opts Options) (*OperatorResult, error) {
	if active == nil {
		return nil, ErrNoActiveObject
	}
	if !active.IsMesh() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotMesh, active.Name, active.Type)
	}
	if len(selected) == 0 {
		selected = []*mesh.Object{active}
	}
	if !slices.Contains(selected, active) {
		return nil, fmt.Errorf("%w: active object %s is not selected", ErrNoReference, active.Name)
	}
	defer logger.Timed("apply and merge", zap.Int("selected", len(selected)))()

	out := &OperatorResult{Lost: make(map[string][]string)}
	var (
		others  []*mesh.Object
		sources []*mesh.Object
	)
	discard := func() {
		for _, obj := range out.Collapsed {
			_ = host.Unlink(obj)
			_ = host.Destroy(obj)
		}
	}

	for _, obj := range selected {
		if !obj.IsMesh() {
			logger.Debug("skipping non-mesh object", zap.String("object", obj.Name), zap.Stringer("type", obj.Type))
			continue
		}

		res, err := Bake(ctx, host, obj, opts.Policy)
		if err != nil {
			discard()
			return nil, fmt.Errorf("baking %s: %w", obj.Name, err)
		}
		sources = append(sources, obj)
		out.Warnings = append(out.Warnings, res.Warnings...)
		if len(res.Lost) > 0 {
			out.Lost[obj.Name] = res.Lost
		}

		if obj == active {
			out.Reference = res.Collapsed
			out.Collapsed = slices.Insert(out.Collapsed, 0, res.Collapsed)
			continue
		}
		others = append(others, res.Collapsed)
		out.Collapsed = append(out.Collapsed, res.Collapsed)
	}

	if out.Reference == nil {
		discard()
		return nil, ErrNoReference
	}

	if opts.HideSource {
		for _, obj := range sources {
			obj.Hidden = true
		}
	}

	if opts.Merge && len(others) > 0 {
		Join(out.Reference, others)
		for _, obj := range others {
			if err := host.Unlink(obj); err != nil {
				return nil, fmt.Errorf("unlinking merged %s: %w", obj.Name, err)
			}
			if err := host.Destroy(obj); err != nil {
				return nil, fmt.Errorf("removing merged %s: %w", obj.Name, err)
			}
			host.Release(obj.Data)
		}
		out.Collapsed = out.Collapsed[:1]
		logger.Debug("merged collapsed objects", zap.String("reference", out.Reference.Name), zap.Int("parts", len(others)))
	}

	out.Reference.ActiveShapeKey = 0
	return out, nil
}
