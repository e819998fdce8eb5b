package modifier

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// header holds the fields shared by every modifier entry in a document.
type header struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	ShowViewport *bool  `yaml:"show_viewport"`
}

// UnmarshalYAML decodes a flat mapping whose "type" key selects the
// configuration variant. Unrecognized type names decode as Other. A
// decimate entry without decimate_type or ratio is a full-ratio collapse.
func (m *Modifier) UnmarshalYAML(value *yaml.Node) error {
	var h header
	if err := value.Decode(&h); err != nil {
		return err
	}
	if h.Type == "" {
		return fmt.Errorf("%w: modifier %q has no type", ErrUnknownKind, h.Name)
	}

	var (
		cfg Config
		err error
	)
	kind, parseErr := ParseKind(h.Type)
	switch {
	case parseErr != nil, kind == KindOther:
		o := Other{Type: h.Type}
		err = value.Decode(&o)
		cfg = o
	case kind == KindArmature:
		cfg, err = decodeConfig[Armature](value)
	case kind == KindBevel:
		cfg, err = decodeConfig[Bevel](value)
	case kind == KindDecimate:
		d := Decimate{Type: DecimateCollapse, Ratio: 1}
		err = value.Decode(&d)
		if d.Type == "" {
			d.Type = DecimateCollapse
		}
		cfg = d
	case kind == KindWeld:
		cfg, err = decodeConfig[Weld](value)
	case kind == KindSubdivision:
		cfg, err = decodeConfig[Subdivision](value)
	}
	if err != nil {
		return fmt.Errorf("modifier %q: %w", h.Name, err)
	}

	m.Name = h.Name
	m.ShowViewport = h.ShowViewport == nil || *h.ShowViewport
	m.Config = cfg
	return nil
}

func decodeConfig[T Config](value *yaml.Node) (Config, error) {
	var cfg T
	if err := value.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MarshalYAML encodes the modifier as one flat mapping.
func (m *Modifier) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content,
		strNode("name"), strNode(m.Name),
		strNode("type"), strNode(m.TypeName()),
		strNode("show_viewport"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(m.ShowViewport)},
	)
	if m.Config == nil {
		return node, nil
	}

	var body yaml.Node
	if err := body.Encode(m.Config); err != nil {
		return nil, fmt.Errorf("modifier %q: %w", m.Name, err)
	}
	if body.Kind == yaml.MappingNode {
		node.Content = append(node.Content, body.Content...)
	}
	return node, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
