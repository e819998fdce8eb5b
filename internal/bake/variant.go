package bake

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// variantEvaluator produces baked geometry for one shape key at a time
// using short-lived duplicates of the source object.
type variantEvaluator struct {
	life *lifecycle
	src  *mesh.Object

	// linked duplicates share the source mesh. Concurrent evaluation
	// uses private copies instead.
	linked bool
}

// evaluate bakes src with only the shape key at index active applied.
// The duplicate's selection is changed before the evaluation is requested,
// so the host always sees current state.
func (v *variantEvaluator) evaluate(ctx context.Context, active int, name string) (*mesh.Mesh, error) {
	dup, err := v.life.duplicate(v.src, v.src.Name+"_"+name, v.linked)
	if err != nil {
		return nil, fmt.Errorf("duplicating %s for %q: %w", v.src.Name, name, err)
	}

	dup.ShowOnlyShapeKey = true
	dup.ActiveShapeKey = active

	baked, evalErr := v.life.evaluate(ctx, dup)
	if err := v.life.destroy(dup); err != nil {
		logger.Warn("failed to remove duplicate", zap.String("object", dup.Name), zap.Error(err))
	}
	if evalErr != nil {
		return nil, fmt.Errorf("evaluating %s with %q: %w", v.src.Name, name, evalErr)
	}
	return baked, nil
}

// evaluateVariants bakes every diverging shape key except the rest pose,
// which the caller already has. The returned slice is indexed like the
// shape keys; entries for non-diverging keys are nil.
func (v *variantEvaluator) evaluateVariants(ctx context.Context, keys []Divergence, parallelism int) ([][]math.Vec3, error) {
	out := make([][]math.Vec3, len(keys))

	one := func(ctx context.Context, d Divergence) error {
		logger.Debug("applying shape key", zap.String("object", v.src.Name), zap.String("shape_key", d.Name),
			zap.Uint64("moved", d.Moved.GetCardinality()))
		baked, err := v.evaluate(ctx, d.Index, d.Name)
		if err != nil {
			return err
		}
		out[d.Index] = baked.Vertices
		return nil
	}

	pending := make([]Divergence, 0, len(keys))
	for _, d := range keys {
		if d.Index == 0 {
			continue
		}
		if !d.Diverges {
			logger.Debug("shape key has no changes, skipping", zap.String("object", v.src.Name), zap.String("shape_key", d.Name))
			continue
		}
		pending = append(pending, d)
	}

	if parallelism <= 1 {
		for _, d := range pending {
			if err := one(ctx, d); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, d := range pending {
		g.Go(func() error {
			return one(gctx, d)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
