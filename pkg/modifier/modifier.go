// Package modifier models an object's modifier stack as a closed set of
// typed configurations.
package modifier

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a kind name cannot be parsed.
var ErrUnknownKind = errors.New("unknown modifier kind")

// Kind identifies the modifier variant.
type Kind int

const (
	KindOther       Kind = iota // Any modifier without dedicated handling
	KindArmature                // Skinning deformer driven by an armature object
	KindBevel                   // Edge bevel
	KindDecimate                // Topology reduction
	KindWeld                    // Merge by distance
	KindSubdivision             // Face subdivision
)

var kindNames = [...]string{
	KindOther:       "other",
	KindArmature:    "armature",
	KindBevel:       "bevel",
	KindDecimate:    "decimate",
	KindWeld:        "weld",
	KindSubdivision: "subdivision",
}

// String returns the lowercase kind name used in scene and config files.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a kind name to a Kind. Host style upper-case names
// ("ARMATURE", "SUBSURF") are accepted too.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "subsurf" {
		return KindSubdivision, nil
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindOther, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Config is the type-specific part of a modifier. The set of
// implementations is closed to this package.
type Config interface {
	Kind() Kind
	clone() Config
}

// Modifier is one entry of an object's modifier stack.
type Modifier struct {
	Name         string
	ShowViewport bool
	Config       Config
}

// New returns a visible modifier with the given configuration.
func New(name string, cfg Config) *Modifier {
	return &Modifier{Name: name, ShowViewport: true, Config: cfg}
}

// Kind returns the variant of the modifier's configuration.
func (m *Modifier) Kind() Kind {
	if m.Config == nil {
		return KindOther
	}
	return m.Config.Kind()
}

// TypeName returns the host type name; for Other configs this is the
// free-form type string.
func (m *Modifier) TypeName() string {
	if o, ok := m.Config.(Other); ok && o.Type != "" {
		return o.Type
	}
	return m.Kind().String()
}

// Clone returns an independent copy of the modifier. Configurations are
// copied field by field, so source and clone never share mutable state.
func (m *Modifier) Clone() *Modifier {
	out := &Modifier{Name: m.Name, ShowViewport: m.ShowViewport}
	if m.Config != nil {
		out.Config = m.Config.clone()
	}
	return out
}

// As returns the modifier's configuration as T when it has that type.
func As[T Config](m *Modifier) (T, bool) {
	cfg, ok := m.Config.(T)
	return cfg, ok
}

// CloneStack clones every modifier in order.
func CloneStack(stack []*Modifier) []*Modifier {
	if stack == nil {
		return nil
	}
	out := make([]*Modifier, len(stack))
	for i, m := range stack {
		out[i] = m.Clone()
	}
	return out
}
