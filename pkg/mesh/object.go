package mesh

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shapebake/pkg/modifier"
)

// ObjectType is the kind of data an object carries.
type ObjectType int

const (
	TypeMesh     ObjectType = iota // Object data is a Mesh
	TypeArmature                   // Object carries posed bones
	TypeEmpty                      // No data
)

// String returns a human-readable object type name.
func (t ObjectType) String() string {
	switch t {
	case TypeMesh:
		return "mesh"
	case TypeArmature:
		return "armature"
	case TypeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ObjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ObjectType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "mesh", "":
		*t = TypeMesh
	case "armature":
		*t = TypeArmature
	case "empty":
		*t = TypeEmpty
	default:
		return fmt.Errorf("unknown object type %q", text)
	}
	return nil
}

// Bone is a posed bone of an armature object. Pose maps rest space to
// posed space.
type Bone struct {
	Name string     `yaml:"name"`
	Pose mgl32.Mat4 `yaml:"pose,flow"`
}

// Object places mesh data in the scene and owns its modifier stack and
// shape-key selection.
type Object struct {
	Name             string               `yaml:"name"`
	Type             ObjectType           `yaml:"type"`
	Data             *Mesh                `yaml:"data,omitempty"`
	World            mgl32.Mat4           `yaml:"world,flow"`
	Modifiers        []*modifier.Modifier `yaml:"modifiers,omitempty"`
	ActiveShapeKey   int                  `yaml:"active_shape_key"`
	ShowOnlyShapeKey bool                 `yaml:"show_only_shape_key,omitempty"`
	Hidden           bool                 `yaml:"hidden,omitempty"`
	Bones            []Bone               `yaml:"bones,omitempty"`
}

// NewObject returns a mesh object with an identity transform.
func NewObject(name string, data *Mesh) *Object {
	return &Object{
		Name:  name,
		Type:  TypeMesh,
		Data:  data,
		World: mgl32.Ident4(),
	}
}

// IsMesh reports whether the object carries mesh data.
func (o *Object) IsMesh() bool {
	return o.Type == TypeMesh && o.Data != nil
}

// Duplicate copies the object. A linked duplicate shares the mesh data
// block; otherwise the mesh is deep-copied. The modifier stack is always
// cloned so the duplicate's modifiers are independent of the original's.
func (o *Object) Duplicate(name string, linked bool) *Object {
	dup := &Object{
		Name:             name,
		Type:             o.Type,
		Data:             o.Data,
		World:            o.World,
		Modifiers:        modifier.CloneStack(o.Modifiers),
		ActiveShapeKey:   o.ActiveShapeKey,
		ShowOnlyShapeKey: o.ShowOnlyShapeKey,
		Hidden:           o.Hidden,
		Bones:            slices.Clone(o.Bones),
	}
	if !linked && o.Data != nil {
		dup.Data = o.Data.Copy(name)
	}
	return dup
}

// Modifier returns the named modifier, or nil.
func (o *Object) Modifier(name string) *modifier.Modifier {
	for _, m := range o.Modifiers {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Bone returns the named bone, or nil.
func (o *Object) Bone(name string) *Bone {
	for i := range o.Bones {
		if o.Bones[i].Name == name {
			return &o.Bones[i]
		}
	}
	return nil
}
