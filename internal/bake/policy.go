package bake

import (
	"fmt"
	"slices"

	"github.com/Faultbox/shapebake/internal/config"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

// Policy controls which modifiers survive baking and how variants are
// evaluated.
type Policy struct {
	// SkipKinds are kept live on the collapsed object instead of being
	// baked. Hidden modifiers are always kept live.
	SkipKinds []modifier.Kind

	// DisableUnsupported turns off bevel-by-angle and non-collapse
	// decimate modifiers: they are hidden for the bake and not copied to
	// the output. Otherwise they only warn; bevel is then baked and a
	// non-collapse decimate is kept live on the output, since baking it per
	// shape key would change topology per key.
	DisableUnsupported bool

	// Parallelism above 1 evaluates shape keys concurrently when the
	// host is a ConcurrentHost.
	Parallelism int

	// Suffix is appended to the collapsed object and mesh names.
	Suffix string
}

// DefaultPolicy keeps armature deformers live.
func DefaultPolicy() Policy {
	return Policy{
		SkipKinds:          []modifier.Kind{modifier.KindArmature},
		DisableUnsupported: true,
		Parallelism:        1,
		Suffix:             "_collapsed",
	}
}

// PolicyFromConfig converts the bake section of the configuration.
func PolicyFromConfig(c config.BakeConfig) (Policy, error) {
	p := Policy{
		DisableUnsupported: c.DisableUnsupported,
		Parallelism:        c.Parallelism,
		Suffix:             c.Suffix,
	}
	for _, name := range c.SkipKinds {
		k, err := modifier.ParseKind(name)
		if err != nil {
			return Policy{}, fmt.Errorf("bake.skip_kinds: %w", err)
		}
		p.SkipKinds = append(p.SkipKinds, k)
	}
	if p.Parallelism < 1 {
		p.Parallelism = 1
	}
	return p, nil
}

// Skips reports whether modifiers of kind k stay live.
func (p Policy) Skips(k modifier.Kind) bool {
	return slices.Contains(p.SkipKinds, k)
}
