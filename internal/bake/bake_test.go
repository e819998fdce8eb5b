package bake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapebake/internal/scene"
	"github.com/Faultbox/shapebake/pkg/math"
	"github.com/Faultbox/shapebake/pkg/mesh"
	"github.com/Faultbox/shapebake/pkg/modifier"
)

var errEvaluate = errors.New("evaluation failed")

// recordingHost counts what the engine asks of the scene.
type recordingHost struct {
	*scene.Scene

	mu                  sync.Mutex
	evaluations         int
	visibleDecimates    int
	decimates           int
	failSuffix          string
	evaluatedShapeNames []string
}

func newRecordingHost() *recordingHost {
	return &recordingHost{Scene: scene.New()}
}

func (h *recordingHost) Evaluate(ctx context.Context, obj *mesh.Object) (*mesh.Mesh, error) {
	h.mu.Lock()
	h.evaluations++
	h.evaluatedShapeNames = append(h.evaluatedShapeNames, obj.Name)
	for _, m := range obj.Modifiers {
		if m.ShowViewport && m.Kind() == modifier.KindDecimate {
			h.visibleDecimates++
		}
	}
	fail := h.failSuffix != "" && strings.HasSuffix(obj.Name, h.failSuffix)
	h.mu.Unlock()

	if fail {
		return nil, errEvaluate
	}
	return h.Scene.Evaluate(ctx, obj)
}

func (h *recordingHost) Decimate(ctx context.Context, obj *mesh.Object, cfg modifier.Decimate) error {
	h.mu.Lock()
	h.decimates++
	h.mu.Unlock()
	return h.Scene.Decimate(ctx, obj, cfg)
}

func cubeMesh(name string) *mesh.Mesh {
	return &mesh.Mesh{
		Name: name,
		Vertices: []math.Vec3{
			{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
			{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
		},
		Faces: []mesh.Face{
			{0, 3, 2, 1}, {4, 5, 6, 7},
			{0, 1, 5, 4}, {1, 2, 6, 5},
			{2, 3, 7, 6}, {3, 0, 4, 7},
		},
	}
}

// keyedCube returns a cube with a Basis key, Key_A equal to the basis and
// Key_B moving vertex 0 up by one.
func keyedCube(name string) *mesh.Object {
	m := cubeMesh(name)
	m.AddShapeKey(mesh.BasisName, m.Vertices)
	m.AddShapeKey("Key_A", m.Vertices)
	b := m.AddShapeKey("Key_B", m.Vertices)
	m.ShapeKeys[b].Points[0] = math.Vec3{X: -1, Y: -1, Z: 0}
	return mesh.NewObject(name, m)
}

func displace(z float64) *modifier.Modifier {
	return modifier.New("Displace", modifier.Other{Type: "displace", Params: map[string]float64{"z": z}})
}

func keyNames(m *mesh.Mesh) []string {
	var names []string
	for _, k := range m.ShapeKeys {
		names = append(names, k.Name)
	}
	return names
}

func key(t *testing.T, m *mesh.Mesh, name string) []math.Vec3 {
	t.Helper()
	i := m.ShapeKey(name)
	require.GreaterOrEqual(t, i, 0, "shape key %q missing", name)
	return m.ShapeKeys[i].Points
}

func requireIndexCorrespondence(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	for _, k := range m.ShapeKeys {
		require.Len(t, k.Points, len(m.Vertices), "shape key %q", k.Name)
	}
}

func TestBakeDisplacedCube(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers, displace(0.5))
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.NoError(t, err)

	out := res.Collapsed.Data
	requireIndexCorrespondence(t, out)
	assert.Empty(t, res.Lost)
	assert.Equal(t, "Cube_collapsed", res.Collapsed.Name)
	assert.Equal(t, []string{mesh.BasisName, "Key_A", "Key_B"}, keyNames(out))

	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -0.5}, out.Vertices[0])
	assert.Equal(t, out.Vertices, key(t, out, "Key_A"), "Key_A has no net delta")

	keyB := key(t, out, "Key_B")
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: 0.5}, keyB[0])
	assert.Equal(t, out.Vertices[1:], keyB[1:])
	assert.Empty(t, res.Collapsed.Modifiers)
	assert.True(t, host.IsLinked(res.Collapsed))
}

func TestBakeSubdivision(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers, modifier.New("Subdivision", modifier.Subdivision{Levels: 1}))
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	out := res.Collapsed.Data
	requireIndexCorrespondence(t, out)
	assert.Len(t, out.Vertices, 26)
	assert.Len(t, out.Faces, 24)
	assert.Equal(t, out.Vertices, key(t, out, "Key_A"))
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: 0}, key(t, out, "Key_B")[0])
}

func TestBakeSkipsUnchangedKeys(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers, displace(1))
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.NoError(t, err)

	// Rest pose and Key_B only.
	assert.Equal(t, 2, host.evaluations)
	assert.Equal(t, []string{"Cube_basis", "Cube_Key_B"}, host.evaluatedShapeNames)
	assert.Equal(t, res.Collapsed.Data.Vertices, key(t, res.Collapsed.Data, "Key_A"))
}

func TestBakeCountMismatchLosesOneKey(t *testing.T) {
	s := scene.New()
	m := cubeMesh("Cube")
	m.AddShapeKey(mesh.BasisName, m.Vertices)
	a := m.AddShapeKey("Key_A", m.Vertices)
	m.ShapeKeys[a].Points[6] = math.Vec3{X: 1, Y: 1, Z: 2}
	b := m.AddShapeKey("Key_B", m.Vertices)
	m.ShapeKeys[b].Points[1] = math.Vec3{X: -0.999, Y: -1, Z: -1}
	src := mesh.NewObject("Cube", m)
	src.Modifiers = append(src.Modifiers, modifier.New("Weld", modifier.Weld{MergeThreshold: 0.01, Mode: modifier.WeldAll}))
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	out := res.Collapsed.Data
	requireIndexCorrespondence(t, out)
	assert.Equal(t, []string{"Key_B"}, res.Lost)
	assert.Equal(t, []string{mesh.BasisName, "Key_A"}, keyNames(out))
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 2}, key(t, out, "Key_A")[6])

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnWeldDistance, res.Warnings[0].Code)
}

func TestBakeRestoresArmature(t *testing.T) {
	s := scene.New()
	rig := &mesh.Object{Name: "rig", Type: mesh.TypeArmature, World: mgl32.Ident4()}
	src := keyedCube("Cube")
	armature := modifier.New("Armature", modifier.Armature{Object: "rig", UseVertexGroups: true, PreserveVolume: true})
	armature.ShowViewport = false
	src.Modifiers = append(src.Modifiers, armature, displace(1))
	s.Add(rig, src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	assert.False(t, armature.ShowViewport, "source visibility is restored")
	require.Len(t, res.Collapsed.Modifiers, 1)
	restored := res.Collapsed.Modifiers[0]
	assert.NotSame(t, armature, restored)
	assert.Equal(t, armature.Name, restored.Name)
	assert.Equal(t, armature.Config, restored.Config)
	assert.True(t, restored.ShowViewport, "skipped kinds stay live on the output")
}

func TestBakeKeepsVisibleArmatureLive(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	armature := modifier.New("Armature", modifier.Armature{Object: "rig", UseVertexGroups: true})
	src.Modifiers = append(src.Modifiers, displace(1), armature)
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, armature.ShowViewport)
	require.Len(t, res.Collapsed.Modifiers, 1)
	assert.True(t, res.Collapsed.Modifiers[0].ShowViewport)
	assert.Equal(t, modifier.KindArmature, res.Collapsed.Modifiers[0].Kind())
}

func TestBakeDecimatesOnce(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	a := src.Data.ShapeKey("Key_A")
	src.Data.ShapeKeys[a].Points[6] = math.Vec3{X: 1, Y: 1, Z: 1.5}
	dec := modifier.New("Decimate", modifier.Decimate{Type: modifier.DecimateCollapse, Ratio: 0.5})
	src.Modifiers = append(src.Modifiers, dec)
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 3, host.evaluations)
	assert.Zero(t, host.visibleDecimates, "variants are evaluated without the decimate")
	assert.Equal(t, 1, host.decimates)
	assert.True(t, dec.ShowViewport)

	out := res.Collapsed.Data
	require.NoError(t, out.Validate())
	assert.Len(t, out.Vertices, 4)
	assert.Equal(t, []string{mesh.BasisName, "Key_A", "Key_B"}, keyNames(out))
	assert.Empty(t, res.Collapsed.Modifiers, "decimate is applied, not restored")
}

func TestBakeWithoutModifiersPassesThrough(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.NoError(t, err)

	assert.Zero(t, host.evaluations)
	assert.Equal(t, src.Data.Vertices, res.Collapsed.Data.Vertices)
	assert.Equal(t, src.Data.ShapeKeys, res.Collapsed.Data.ShapeKeys)
	assert.NotSame(t, src.Data, res.Collapsed.Data)
	assert.Equal(t, "Cube_collapsed", res.Collapsed.Data.Name)
}

func TestBakeWithoutShapeKeys(t *testing.T) {
	s := scene.New()
	src := mesh.NewObject("Cube", cubeMesh("Cube"))
	src.Modifiers = append(src.Modifiers, displace(2))
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)
	assert.False(t, res.Collapsed.Data.HasShapeKeys())
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: 1}, res.Collapsed.Data.Vertices[0])
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, src.Data.Vertices[0])
}

func TestBakeParallelMatchesSequential(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	for i := 0; i < 6; i++ {
		k := src.Data.AddShapeKey("Extra", src.Data.Vertices)
		src.Data.ShapeKeys[k].Name = src.Data.ShapeKeys[k].Name + string(rune('0'+i))
		src.Data.ShapeKeys[k].Points[i] = src.Data.ShapeKeys[k].Points[i].Scale(2)
	}
	src.Modifiers = append(src.Modifiers, modifier.New("Subdivision", modifier.Subdivision{Levels: 1}))
	s.Add(src)

	seq, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	policy := DefaultPolicy()
	policy.Parallelism = 4
	par, err := Bake(context.Background(), s, src, policy)
	require.NoError(t, err)

	assert.Equal(t, "Cube_collapsed.001", par.Collapsed.Name)
	assert.Equal(t, seq.Collapsed.Data.Vertices, par.Collapsed.Data.Vertices)
	assert.Equal(t, seq.Collapsed.Data.ShapeKeys, par.Collapsed.Data.ShapeKeys)
	assert.Len(t, s.Objects(), 3)
	assert.Zero(t, s.Outstanding())
}

func TestBakeLeavesNoTemporaries(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers, displace(1))
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, []*mesh.Object{src, res.Collapsed}, s.Objects())
	assert.Zero(t, s.Outstanding())
}

func TestBakeFailureRestoresSource(t *testing.T) {
	host := newRecordingHost()
	host.failSuffix = "_Key_B"
	src := keyedCube("Cube")
	armature := modifier.New("Armature", modifier.Armature{Object: "rig"})
	dec := modifier.New("Decimate", modifier.Decimate{Type: modifier.DecimateCollapse, Ratio: 0.5})
	src.Modifiers = append(src.Modifiers, armature, displace(1), dec)
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.ErrorIs(t, err, errEvaluate)
	assert.Nil(t, res)

	assert.True(t, armature.ShowViewport)
	assert.True(t, dec.ShowViewport)
	assert.Equal(t, []*mesh.Object{src}, host.Objects())
	assert.Zero(t, host.Outstanding())
	assert.Zero(t, host.decimates)
}

func TestBakeCancelled(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers, displace(1))
	s.Add(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Bake(ctx, s, src, DefaultPolicy())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Objects(), 1)
}

func TestBakePreconditions(t *testing.T) {
	s := scene.New()

	_, err := Bake(context.Background(), s, nil, DefaultPolicy())
	assert.ErrorIs(t, err, ErrNoActiveObject)

	rig := &mesh.Object{Name: "rig", Type: mesh.TypeArmature, World: mgl32.Ident4()}
	_, err = Bake(context.Background(), s, rig, DefaultPolicy())
	assert.ErrorIs(t, err, ErrNotMesh)

	broken := keyedCube("Broken")
	broken.Data.Faces = append(broken.Data.Faces, mesh.Face{0, 1, 42})
	armature := modifier.New("Armature", modifier.Armature{})
	broken.Modifiers = append(broken.Modifiers, armature)
	_, err = Bake(context.Background(), s, broken, DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidMesh)
	assert.True(t, armature.ShowViewport)
}

func TestBakeDisablesUnsupported(t *testing.T) {
	s := scene.New()
	src := keyedCube("Cube")
	bevel := modifier.New("Bevel", modifier.Bevel{Width: 0.1, Segments: 2, LimitMethod: modifier.BevelLimitAngle})
	src.Modifiers = append(src.Modifiers, bevel, displace(1))
	s.Add(src)

	res, err := Bake(context.Background(), s, src, DefaultPolicy())
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnBevelAngle, res.Warnings[0].Code)
	assert.Empty(t, res.Collapsed.Modifiers, "disabled modifiers are not carried over")
	assert.Len(t, res.Collapsed.Data.Vertices, 8, "bevel was not applied")
	assert.True(t, bevel.ShowViewport, "source visibility is restored")
}

func TestBakeKeepsUnsupportedDecimateLive(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	planar := modifier.New("Planar", modifier.Decimate{Type: modifier.DecimatePlanar, Ratio: 0.5})
	src.Modifiers = append(src.Modifiers, displace(1), planar)
	host.Add(src)

	policy := DefaultPolicy()
	policy.DisableUnsupported = false
	res, err := Bake(context.Background(), host, src, policy)
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnDecimateMode, res.Warnings[0].Code)
	assert.Zero(t, host.visibleDecimates, "decimate is never evaluated per shape key")
	assert.Zero(t, host.decimates)
	assert.Equal(t, []string{"Basis", "Key_A", "Key_B"}, keyNames(res.Collapsed.Data))
	requireIndexCorrespondence(t, res.Collapsed.Data)

	require.Len(t, res.Collapsed.Modifiers, 1)
	live := res.Collapsed.Modifiers[0]
	assert.NotSame(t, planar, live)
	assert.Equal(t, "Planar", live.Name)
	assert.True(t, live.ShowViewport)
	assert.True(t, planar.ShowViewport)
}

func TestBakeAppliesEveryDeferredDecimate(t *testing.T) {
	host := newRecordingHost()
	src := keyedCube("Cube")
	src.Modifiers = append(src.Modifiers,
		modifier.New("Decimate", modifier.Decimate{Type: modifier.DecimateCollapse, Ratio: 0.5}),
		modifier.New("Decimate.001", modifier.Decimate{Type: modifier.DecimateCollapse, Ratio: 0.5}),
	)
	host.Add(src)

	res, err := Bake(context.Background(), host, src, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 2, host.decimates)
	assert.Zero(t, host.visibleDecimates)
	requireIndexCorrespondence(t, res.Collapsed.Data)
	assert.Len(t, res.Collapsed.Data.Vertices, 3)
}
