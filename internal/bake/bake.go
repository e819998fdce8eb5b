package bake

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shapebake/internal/logger"
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// Result is the outcome of baking one object. Lost and Warnings are
// informational; the caller decides how to surface them.
type Result struct {
	Collapsed *mesh.Object
	Lost      []string
	Warnings  []Warning
}

// Bake collapses src's baked modifiers into a new linked object carrying
// one shape key per source shape key. Skipped modifiers are restored on
// the new object and deferred decimation runs once at the end.
//
// src's modifier visibility is changed for the duration of the call and
// restored before Bake returns, on every path. Temporary objects never
// outlive the call.
func Bake(ctx context.Context, host Host, src *mesh.Object, policy Policy) (res *Result, err error) {
	if src == nil {
		return nil, ErrNoActiveObject
	}
	if !src.IsMesh() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotMesh, src.Name, src.Type)
	}
	if err := src.Data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMesh, src.Name, err)
	}
	defer logger.Timed("bake", zap.String("object", src.Name))()

	cls := Classify(src, policy)
	for _, w := range cls.Warnings {
		logger.Warn(w.Message, zap.String("object", w.Object), zap.Stringer("code", w.Code))
	}

	guard := hideUnbaked(cls)
	defer guard.Restore()

	life := newLifecycle(host)
	defer func() {
		cerr := life.Close()
		if cerr == nil {
			return
		}
		if res != nil && res.Collapsed != nil {
			_ = host.Unlink(res.Collapsed)
			_ = host.Destroy(res.Collapsed)
		}
		res, err = nil, errors.Join(err, cerr)
	}()

	res = &Result{Warnings: cls.Warnings}
	name := src.Name + policy.Suffix
	skipped, deferred := cls.Skipped(), cls.Deferred()

	var data *mesh.Mesh
	if len(cls.Baked()) == 0 && len(deferred) == 0 {
		logger.Debug("no modifiers to apply", zap.String("object", src.Name))
		data = src.Data.Copy(src.Data.Name + policy.Suffix)
	} else {
		data, res.Lost, err = bakeShapes(ctx, life, src, policy)
		if err != nil {
			return nil, err
		}
	}

	collapsed, err := host.NewObject(name, data, src.World)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	if err := host.Link(collapsed); err != nil {
		_ = host.Destroy(collapsed)
		return nil, fmt.Errorf("linking %s: %w", name, err)
	}

	if err := decimatePostPass(ctx, host, collapsed, deferred); err != nil {
		_ = host.Unlink(collapsed)
		_ = host.Destroy(collapsed)
		return nil, err
	}

	restoreModifiers(collapsed, skipped, policy)
	collapsed.ActiveShapeKey = 0
	res.Collapsed = collapsed

	if len(res.Lost) > 0 {
		logger.Warn("shape keys lost", zap.String("object", src.Name), zap.Strings("shape_keys", res.Lost))
	}
	logger.Debug("finished applying shape keys",
		zap.String("object", src.Name),
		zap.Int("vertices", data.VertexCount()),
		zap.Int("shape_keys", len(data.ShapeKeys)))
	return res, nil
}

// bakeShapes evaluates the rest pose and every diverging shape key and
// reassembles them into one mesh.
func bakeShapes(ctx context.Context, life *lifecycle, src *mesh.Object, policy Policy) (*mesh.Mesh, []string, error) {
	parallelism := 1
	if policy.Parallelism > 1 && isConcurrent(life.host) {
		parallelism = policy.Parallelism
	}
	ve := &variantEvaluator{life: life, src: src, linked: parallelism == 1}

	basis, err := ve.evaluate(ctx, 0, "basis")
	if err != nil {
		return nil, nil, err
	}
	meshName := src.Data.Name + policy.Suffix

	if !src.Data.HasShapeKeys() {
		logger.Debug("no shape keys found, applying modifiers on basis", zap.String("object", src.Name))
		return basis.Copy(meshName), nil, nil
	}

	keys := DetectChanges(src.Data)

	stop := logger.Timed("evaluating shape keys", zap.String("object", src.Name), zap.Int("parallelism", parallelism))
	variants, err := ve.evaluateVariants(ctx, keys, parallelism)
	stop()
	if err != nil {
		return nil, nil, err
	}

	out, lost := reassemble(meshName, basis, keys, variants)
	return out, lost, nil
}
