package modifier

import "maps"

// Axis selects a coordinate axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Index returns 0, 1 or 2 for X, Y and Z. Unknown axes map to X.
func (a Axis) Index() int {
	switch a {
	case AxisY, "Y":
		return 1
	case AxisZ, "Z":
		return 2
	default:
		return 0
	}
}

// Armature deforms vertices by the pose of an armature object.
type Armature struct {
	Object            string `yaml:"object"`
	UseVertexGroups   bool   `yaml:"use_vertex_groups"`
	UseBoneEnvelopes  bool   `yaml:"use_bone_envelopes"`
	PreserveVolume    bool   `yaml:"preserve_volume"`
	VertexGroup       string `yaml:"vertex_group,omitempty"`
	InvertVertexGroup bool   `yaml:"invert_vertex_group,omitempty"`
}

func (Armature) Kind() Kind { return KindArmature }

func (a Armature) clone() Config {
	return Armature{
		Object:            a.Object,
		UseVertexGroups:   a.UseVertexGroups,
		UseBoneEnvelopes:  a.UseBoneEnvelopes,
		PreserveVolume:    a.PreserveVolume,
		VertexGroup:       a.VertexGroup,
		InvertVertexGroup: a.InvertVertexGroup,
	}
}

// BevelLimit is the method limiting which edges get beveled.
type BevelLimit string

const (
	BevelLimitNone        BevelLimit = "none"
	BevelLimitAngle       BevelLimit = "angle"
	BevelLimitWeight      BevelLimit = "weight"
	BevelLimitVertexGroup BevelLimit = "vgroup"
)

// Bevel rounds edges.
type Bevel struct {
	Width       float32    `yaml:"width"`
	Segments    int        `yaml:"segments"`
	LimitMethod BevelLimit `yaml:"limit_method"`
	AngleLimit  float32    `yaml:"angle_limit,omitempty"`
	VertexGroup string     `yaml:"vertex_group,omitempty"`
}

func (Bevel) Kind() Kind { return KindBevel }

func (b Bevel) clone() Config {
	return Bevel{
		Width:       b.Width,
		Segments:    b.Segments,
		LimitMethod: b.LimitMethod,
		AngleLimit:  b.AngleLimit,
		VertexGroup: b.VertexGroup,
	}
}

// DecimateType is the decimation algorithm.
type DecimateType string

const (
	DecimateCollapse DecimateType = "collapse"
	DecimateUnsubdiv DecimateType = "unsubdiv"
	DecimatePlanar   DecimateType = "planar"
)

// Decimate reduces vertex and face count.
type Decimate struct {
	Type              DecimateType `yaml:"decimate_type"`
	Ratio             float32      `yaml:"ratio"`
	VertexGroup       string       `yaml:"vertex_group,omitempty"`
	VertexGroupFactor float32      `yaml:"vertex_group_factor,omitempty"`
	InvertVertexGroup bool         `yaml:"invert_vertex_group,omitempty"`
	UseSymmetry       bool         `yaml:"use_symmetry,omitempty"`
	SymmetryAxis      Axis         `yaml:"symmetry_axis,omitempty"`
	Iterations        int          `yaml:"iterations,omitempty"`
	AngleLimit        float32      `yaml:"angle_limit,omitempty"`
}

func (Decimate) Kind() Kind { return KindDecimate }

func (d Decimate) clone() Config {
	return Decimate{
		Type:              d.Type,
		Ratio:             d.Ratio,
		VertexGroup:       d.VertexGroup,
		VertexGroupFactor: d.VertexGroupFactor,
		InvertVertexGroup: d.InvertVertexGroup,
		UseSymmetry:       d.UseSymmetry,
		SymmetryAxis:      d.SymmetryAxis,
		Iterations:        d.Iterations,
		AngleLimit:        d.AngleLimit,
	}
}

// WeldMode selects which vertex pairs may be merged.
type WeldMode string

const (
	WeldAll       WeldMode = "all"
	WeldConnected WeldMode = "connected"
)

// Weld merges vertices closer than MergeThreshold.
type Weld struct {
	MergeThreshold    float32  `yaml:"merge_threshold"`
	Mode              WeldMode `yaml:"mode"`
	VertexGroup       string   `yaml:"vertex_group,omitempty"`
	InvertVertexGroup bool     `yaml:"invert_vertex_group,omitempty"`
}

func (Weld) Kind() Kind { return KindWeld }

func (w Weld) clone() Config {
	return Weld{
		MergeThreshold:    w.MergeThreshold,
		Mode:              w.Mode,
		VertexGroup:       w.VertexGroup,
		InvertVertexGroup: w.InvertVertexGroup,
	}
}

// Subdivision splits faces.
type Subdivision struct {
	Levels       int  `yaml:"levels"`
	RenderLevels int  `yaml:"render_levels"`
	Simple       bool `yaml:"simple"`
}

func (Subdivision) Kind() Kind { return KindSubdivision }

func (s Subdivision) clone() Config {
	return Subdivision{Levels: s.Levels, RenderLevels: s.RenderLevels, Simple: s.Simple}
}

// Other is any modifier without dedicated handling. Type holds the host's
// type name and Params its numeric settings.
type Other struct {
	Type   string             `yaml:"-"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

func (Other) Kind() Kind { return KindOther }

func (o Other) clone() Config {
	return Other{Type: o.Type, Params: maps.Clone(o.Params)}
}
