package modifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"armature", KindArmature},
		{"ARMATURE", KindArmature},
		{"Bevel", KindBevel},
		{"decimate", KindDecimate},
		{"WELD", KindWeld},
		{"SUBSURF", KindSubdivision},
		{"subdivision", KindSubdivision},
		{"other", KindOther},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("displace")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "armature", KindArmature.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestCloneIsIndependent(t *testing.T) {
	src := New("Displace", Other{Type: "displace", Params: map[string]float64{"z": 1}})
	dst := src.Clone()

	dst.Config.(Other).Params["z"] = 5
	dst.ShowViewport = false
	dst.Name = "Renamed"

	assert.Equal(t, 1.0, src.Config.(Other).Params["z"])
	assert.True(t, src.ShowViewport)
	assert.Equal(t, "Displace", src.Name)
}

func TestCloneCopiesEveryField(t *testing.T) {
	configs := []Config{
		Armature{Object: "rig", UseVertexGroups: true, UseBoneEnvelopes: true, PreserveVolume: true, VertexGroup: "body", InvertVertexGroup: true},
		Bevel{Width: 0.1, Segments: 3, LimitMethod: BevelLimitAngle, AngleLimit: 0.5, VertexGroup: "edges"},
		Decimate{Type: DecimateCollapse, Ratio: 0.5, VertexGroup: "face", VertexGroupFactor: 2, InvertVertexGroup: true, UseSymmetry: true, SymmetryAxis: AxisY, Iterations: 2, AngleLimit: 0.1},
		Weld{MergeThreshold: 0.01, Mode: WeldConnected, VertexGroup: "seam", InvertVertexGroup: true},
		Subdivision{Levels: 2, RenderLevels: 3, Simple: true},
	}
	for _, cfg := range configs {
		m := &Modifier{Name: cfg.Kind().String(), ShowViewport: false, Config: cfg}
		c := m.Clone()
		assert.Equal(t, m, c, cfg.Kind().String())
		assert.NotSame(t, m, c)
	}
}

func TestAs(t *testing.T) {
	m := New("Decimate", Decimate{Type: DecimateCollapse, Ratio: 0.5})
	d, ok := As[Decimate](m)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), d.Ratio)

	_, ok = As[Armature](m)
	assert.False(t, ok)
}

func TestYAMLRoundTrip(t *testing.T) {
	doc := `
- name: Armature
  type: armature
  show_viewport: false
  object: rig
  use_vertex_groups: true
- name: Decimate
  type: decimate
  decimate_type: collapse
  ratio: 0.5
  use_symmetry: true
  symmetry_axis: x
- name: Displace
  type: displace
  params:
    z: 0.25
`
	var stack []*Modifier
	require.NoError(t, yaml.Unmarshal([]byte(doc), &stack))
	require.Len(t, stack, 3)

	assert.Equal(t, KindArmature, stack[0].Kind())
	assert.False(t, stack[0].ShowViewport)
	assert.Equal(t, Armature{Object: "rig", UseVertexGroups: true}, stack[0].Config)

	assert.True(t, stack[1].ShowViewport, "show_viewport defaults to true")
	assert.Equal(t, Decimate{Type: DecimateCollapse, Ratio: 0.5, UseSymmetry: true, SymmetryAxis: AxisX}, stack[1].Config)

	assert.Equal(t, KindOther, stack[2].Kind())
	assert.Equal(t, "displace", stack[2].TypeName())
	assert.Equal(t, 0.25, stack[2].Config.(Other).Params["z"])

	out, err := yaml.Marshal(stack)
	require.NoError(t, err)

	var again []*Modifier
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, stack, again)
}

func TestYAMLDecimateDefaults(t *testing.T) {
	doc := `
- name: Decimate
  type: decimate
- name: Blank
  type: decimate
  decimate_type: ""
  ratio: 0.25
`
	var stack []*Modifier
	require.NoError(t, yaml.Unmarshal([]byte(doc), &stack))
	require.Len(t, stack, 2)

	assert.Equal(t, Decimate{Type: DecimateCollapse, Ratio: 1}, stack[0].Config)
	assert.Equal(t, Decimate{Type: DecimateCollapse, Ratio: 0.25}, stack[1].Config)
}

func TestYAMLMissingType(t *testing.T) {
	var m Modifier
	err := yaml.Unmarshal([]byte("name: Broken\n"), &m)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
