package bake

import (
	"github.com/Faultbox/shapebake/pkg/mesh"
)

// restoreModifiers appends an independent copy of every skipped modifier
// to target, in source stack order. Copies of kinds the policy keeps live
// are always visible; other copies keep their source's pre-bake
// visibility.
func restoreModifiers(target *mesh.Object, skipped []Entry, policy Policy) {
	for _, e := range skipped {
		m := e.Modifier.Clone()
		m.ShowViewport = e.WasVisible || policy.Skips(m.Kind())
		target.Modifiers = append(target.Modifiers, m)
	}
}
