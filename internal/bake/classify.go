package bake

import (
	"fmt"
	"sync"

	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// Class is what the engine does with one modifier.
type Class int

const (
	ClassBaked    Class = iota // Applied into the collapsed geometry
	ClassSkipped               // Hidden during the bake, restored on the output
	ClassDeferred              // Decimation applied once after shape keys merge
	ClassDisabled              // Unsupported; left out of the bake and the output
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassBaked:
		return "baked"
	case ClassSkipped:
		return "skipped"
	case ClassDeferred:
		return "deferred"
	case ClassDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Entry is the classification of one modifier.
type Entry struct {
	Modifier   *modifier.Modifier
	Index      int // Position in the source stack
	Class      Class
	WasVisible bool // ShowViewport before the bake
}

// Classification partitions a modifier stack, in stack order.
type Classification struct {
	Entries  []Entry
	Warnings []Warning
}

// Classify partitions obj's modifier stack according to policy. It does
// not modify obj.
//
// Decimation never reaches the per-variant bake: collapse mode is deferred
// and any other mode is either disabled or kept live on the output.
func Classify(obj *mesh.Object, policy Policy) Classification {
	var c Classification
	for i, m := range obj.Modifiers {
		e := Entry{Modifier: m, Index: i, WasVisible: m.ShowViewport}

		disabled := false
		if m.ShowViewport {
			if w, ok := validate(obj, m); ok {
				c.Warnings = append(c.Warnings, w)
				disabled = w.Code != WarnWeldDistance && policy.DisableUnsupported
			}
		}

		switch {
		case !m.ShowViewport:
			e.Class = ClassSkipped
		case disabled:
			e.Class = ClassDisabled
		case policy.Skips(m.Kind()):
			e.Class = ClassSkipped
		case isCollapseDecimate(m):
			e.Class = ClassDeferred
		case m.Kind() == modifier.KindDecimate:
			e.Class = ClassSkipped
		default:
			e.Class = ClassBaked
		}
		c.Entries = append(c.Entries, e)
	}
	return c
}

// validate flags modifiers that are not stable across shape-key variants.
func validate(obj *mesh.Object, m *modifier.Modifier) (Warning, bool) {
	switch cfg := m.Config.(type) {
	case modifier.Bevel:
		if cfg.LimitMethod == modifier.BevelLimitAngle {
			return Warning{
				Code:     WarnBevelAngle,
				Object:   obj.Name,
				Modifier: m.Name,
				Message:  fmt.Sprintf("bevel modifier %q with 'angle' limit is not supported, shape keys may be lost", m.Name),
			}, true
		}
	case modifier.Decimate:
		if cfg.Type != modifier.DecimateCollapse {
			return Warning{
				Code:     WarnDecimateMode,
				Object:   obj.Name,
				Modifier: m.Name,
				Message:  fmt.Sprintf("decimate modifier %q in %q mode is not supported, only 'collapse'", m.Name, cfg.Type),
			}, true
		}
	case modifier.Weld:
		return Warning{
			Code:     WarnWeldDistance,
			Object:   obj.Name,
			Modifier: m.Name,
			Message:  fmt.Sprintf("weld modifier %q may merge vertices differently per shape key at large distances", m.Name),
		}, true
	}
	return Warning{}, false
}

func isCollapseDecimate(m *modifier.Modifier) bool {
	d, ok := modifier.As[modifier.Decimate](m)
	return ok && d.Type == modifier.DecimateCollapse
}

func (c Classification) filter(class Class) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

// Baked returns the modifiers applied into geometry.
func (c Classification) Baked() []Entry { return c.filter(ClassBaked) }

// Skipped returns the modifiers restored on the output.
func (c Classification) Skipped() []Entry { return c.filter(ClassSkipped) }

// Deferred returns the decimate modifiers for the post-pass.
func (c Classification) Deferred() []Entry { return c.filter(ClassDeferred) }

// Disabled returns the unsupported modifiers left out entirely.
func (c Classification) Disabled() []Entry { return c.filter(ClassDisabled) }

// visibilityGuard hides every non-baked modifier on the source object
// so the evaluator only applies baked ones. Restore puts every flag back
// exactly once.
type visibilityGuard struct {
	entries []Entry
	once    sync.Once
}

func hideUnbaked(c Classification) *visibilityGuard {
	g := &visibilityGuard{}
	for _, e := range c.Entries {
		if e.Class == ClassBaked {
			continue
		}
		g.entries = append(g.entries, e)
		e.Modifier.ShowViewport = false
	}
	return g
}

func (g *visibilityGuard) Restore() {
	g.once.Do(func() {
		for _, e := range g.entries {
			e.Modifier.ShowViewport = e.WasVisible
		}
	})
}
