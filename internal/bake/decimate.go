package bake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// decimatePostPass applies each deferred decimate modifier once, in stack
// order, to the collapsed object after all shape keys are attached.
func decimatePostPass(ctx context.Context, host Host, obj *mesh.Object, deferred []Entry) error {
	for _, e := range deferred {
		cfg, ok := modifier.As[modifier.Decimate](e.Modifier)
		if !ok {
			continue
		}

		before := obj.Data.VertexCount()
		if err := host.Decimate(ctx, obj, cfg); err != nil {
			return fmt.Errorf("decimating %s with %q: %w", obj.Name, e.Modifier.Name, err)
		}
		if err := obj.Data.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrHostInvariant, err)
		}

		logger.Debug("applied deferred decimate",
			zap.String("object", obj.Name),
			zap.String("modifier", e.Modifier.Name),
			zap.Float32("ratio", cfg.Ratio),
			zap.Int("vertices_before", before),
			zap.Int("vertices_after", obj.Data.VertexCount()))
	}
	return nil
}
