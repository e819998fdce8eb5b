package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shapebake/pkg/mesh"
)

// Scene document errors.
var (
	ErrInvalidScene  = errors.New("invalid scene document")
	ErrDuplicateName = errors.New("duplicate object name")
	ErrUnknownObject = errors.New("unknown object")
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// CompressedExt marks scene files written as zstd frames.
const CompressedExt = ".zst"

// Document is a scene: its objects plus the active object and selection
// an operator runs on.
type Document struct {
	Objects  []*mesh.Object `yaml:"objects"`
	Active   string         `yaml:"active,omitempty"`
	Selected []string       `yaml:"selected,omitempty"`
}

// Object returns the named object, or nil.
func (d *Document) Object(name string) *mesh.Object {
	for _, obj := range d.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// ActiveObject resolves Active. An empty name yields nil without error.
func (d *Document) ActiveObject() (*mesh.Object, error) {
	if d.Active == "" {
		return nil, nil
	}
	obj := d.Object(d.Active)
	if obj == nil {
		return nil, fmt.Errorf("%w: active %q", ErrUnknownObject, d.Active)
	}
	return obj, nil
}

// SelectedObjects resolves Selected in order.
func (d *Document) SelectedObjects() ([]*mesh.Object, error) {
	out := make([]*mesh.Object, 0, len(d.Selected))
	for _, name := range d.Selected {
		obj := d.Object(name)
		if obj == nil {
			return nil, fmt.Errorf("%w: selected %q", ErrUnknownObject, name)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Validate checks object names are unique and every mesh is consistent.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Objects))
	for i, obj := range d.Objects {
		if obj == nil {
			return fmt.Errorf("%w: object %d is empty", ErrInvalidScene, i)
		}
		if obj.Name == "" {
			return fmt.Errorf("%w: object %d has no name", ErrInvalidScene, i)
		}
		if seen[obj.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, obj.Name)
		}
		seen[obj.Name] = true

		if obj.Type == mesh.TypeMesh && obj.Data == nil {
			return fmt.Errorf("%w: mesh object %q has no data", ErrInvalidScene, obj.Name)
		}
		if obj.Data != nil {
			if err := obj.Data.Validate(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidScene, obj.Name, err)
			}
		}
	}
	return nil
}

// ParseScene decodes a scene document. zstd-compressed input is detected
// by its frame magic.
func ParseScene(data []byte) (*Document, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: decompressing: %v", ErrInvalidScene, err)
		}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	for _, obj := range doc.Objects {
		if obj != nil && obj.World == (mgl32.Mat4{}) {
			obj.World = mgl32.Ident4()
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseSceneFile reads and decodes a scene document from disk.
func ParseSceneFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return ParseScene(data)
}

// Marshal encodes the document as YAML, wrapped in a zstd frame when
// compress is set.
func (d *Document) Marshal(compress bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding scene: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding scene: %w", err)
	}
	if !compress {
		return buf.Bytes(), nil
	}

	zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer zw.Close()
	return zw.EncodeAll(buf.Bytes(), nil), nil
}

// WriteSceneFile writes the document to path. Paths ending in
// CompressedExt are always compressed.
func WriteSceneFile(path string, d *Document, compress bool) error {
	data, err := d.Marshal(compress || strings.HasSuffix(path, CompressedExt))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing scene: %w", err)
	}
	return nil
}
