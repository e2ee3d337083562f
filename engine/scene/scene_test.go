package scene

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = []float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

type testItem struct {
	name   string
	bounds common.BoundingSphere
	log    *[]string
}

func (i *testItem) Bounds() common.BoundingSphere { return i.bounds }
func (i *testItem) Draw(renderer.DrawPass)        { *i.log = append(*i.log, i.name) }

func newTestScene(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	r := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(renderer.NewRecordingBackend()))
	return NewScene("test", r, options...)
}

func item(log *[]string, name string, x float32) *testItem {
	return &testItem{name: name, bounds: common.BoundingSphere{Center: [3]float32{x, 0, 0}, Radius: 0.5}, log: log}
}

func TestNewScenePanicsWithoutRenderer(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil) })
}

func TestCollectSwapRender(t *testing.T) {
	var log []string
	s := newTestScene(t, WithFrustum(common.ExtractFrustumFromMatrix(identity)))
	s.Add(0, item(&log, "inside", 0), item(&log, "edge", 1.2), item(&log, "outside", 5))

	s.Render(0)
	assert.Empty(t, log)

	s.CollectVisible(0)
	s.Render(0)
	assert.Empty(t, log, "collected items are not drawn before the swap")

	s.SwapBuffers(0)
	s.Render(0)
	assert.Equal(t, []string{"inside", "edge"}, log)
	assert.Equal(t, 2, s.VisibleCount(0))
	assert.Equal(t, 3, s.ItemCount(0))
}

func TestCullingInParallelChunksKeepsOrder(t *testing.T) {
	var log, want []string
	s := newTestScene(t, WithChunkSize(3), WithComputeWorkers(4), WithFrustum(common.ExtractFrustumFromMatrix(identity)))
	for i := range 50 {
		x := float32(0)
		if i%2 == 1 {
			x = 10
		} else {
			want = append(want, fmt.Sprint(i))
		}
		s.Add(2, item(&log, fmt.Sprint(i), x))
	}

	s.CollectVisible(2)
	s.SwapBuffers(2)
	s.Render(2)
	assert.Equal(t, want, log)
}

func TestWithoutFrustumOrCullingEverythingIsVisible(t *testing.T) {
	var log []string
	far := item(&log, "far", 100)

	s := newTestScene(t, WithItems(0, far))
	s.CollectVisible(0)
	s.SwapBuffers(0)
	s.Render(0)

	disabled := newTestScene(t, WithItems(0, far), WithCullingDisabled(true), WithFrustum(common.ExtractFrustumFromMatrix(identity)))
	disabled.CollectVisible(0)
	disabled.SwapBuffers(0)
	disabled.Render(0)

	assert.Equal(t, []string{"far", "far"}, log)
}

func TestAddRemovePasses(t *testing.T) {
	var log []string
	a, b := item(&log, "a", 0), item(&log, "b", 0)
	s := newTestScene(t)
	s.Add(3, a, nil, b)
	s.Add(1, a)

	assert.Equal(t, []int{1, 3}, s.Passes())
	assert.Equal(t, 2, s.ItemCount(3))
	assert.True(t, s.Remove(3, a))
	assert.False(t, s.Remove(3, a))
	assert.False(t, s.Remove(9, a))

	s.ClearPass(1)
	assert.Equal(t, []int{3}, s.Passes())

	_, ok := s.Frustum()
	assert.False(t, ok)
	s.SetFrustum(common.Frustum{})
	_, ok = s.Frustum()
	assert.True(t, ok)
}

func TestSceneDrivenByRenderMeshesPass(t *testing.T) {
	var log []string
	s := newTestScene(t, WithItems(0, item(&log, "opaque", 0)), WithItems(1, item(&log, "shadow", 0)))
	ctx := pipeline.NewContext(nil, pipeline.WithMeshCollector(s))

	c := command.Build(func(b *command.Builder) {
		command.Add[command.RenderMeshesPass](b, func(c *command.RenderMeshesPass) { c.Pass = 1 })
		command.Add[command.RenderMeshesPass](b)
	})
	require.True(t, c.NeedsCollectVisible())

	c.CollectVisible(ctx)
	c.SwapBuffers(ctx)
	c.Execute(ctx)
	assert.Equal(t, []string{"shadow", "opaque"}, log)
}

func TestCameraFrustumCulling(t *testing.T) {
	var log []string
	cam := camera.NewCamera(camera.WithOrbit(5, 0, 0))
	s := newTestScene(t, WithFrustum(cam.Frustum()))
	s.Add(0, item(&log, "origin", 0), item(&log, "side", 50))

	s.CollectVisible(0)
	s.SwapBuffers(0)
	s.Render(0)
	assert.Equal(t, []string{"origin"}, log)
}

func TestSwapWithoutCollectKeepsPublishedList(t *testing.T) {
	var log []string
	s := newTestScene(t, WithItems(0, item(&log, "a", 0)))

	s.CollectVisible(0)
	s.SwapBuffers(0)
	s.SwapBuffers(0)
	s.Render(0)
	assert.Equal(t, []string{"a"}, log)
	assert.Equal(t, 1, s.VisibleCount(0))
}

func TestIfBranchesSharingAPassDrawEveryFrame(t *testing.T) {
	var log []string
	s := newTestScene(t, WithItems(0, item(&log, "mesh", 0)))
	ctx := pipeline.NewContext(nil, pipeline.WithMeshCollector(s))

	c := command.Build(func(b *command.Builder) {
		b.If(func(ctx pipeline.Context) bool { return ctx.FrameIndex()%2 == 0 },
			func(b *command.Builder) { command.Add[command.RenderMeshesPass](b) },
			func(b *command.Builder) { command.Add[command.RenderMeshesPass](b) },
		)
	})

	for frame := range 3 {
		c.CollectVisible(ctx)
		c.SwapBuffers(ctx)
		assert.Equal(t, 1, s.VisibleCount(0), "frame %d", frame)
		c.Execute(ctx)
		ctx.AdvanceFrame()
	}
	assert.Equal(t, []string{"mesh", "mesh", "mesh"}, log)
}

func TestSwitchCaseAndDefaultSharingAPass(t *testing.T) {
	var log []string
	s := newTestScene(t, WithItems(1, item(&log, "caster", 0)))
	ctx := pipeline.NewContext(nil, pipeline.WithMeshCollector(s))

	selected := 0
	c := command.Build(func(b *command.Builder) {
		b.Switch(func(pipeline.Context) int { return selected }, map[int]func(b *command.Builder){
			1: func(b *command.Builder) {
				command.Add[command.RenderMeshesPass](b, func(c *command.RenderMeshesPass) { c.Pass = 1 })
			},
		}, func(b *command.Builder) {
			command.Add[command.RenderMeshesPass](b, func(c *command.RenderMeshesPass) { c.Pass = 1 })
		})
	})

	for _, sel := range []int{1, 0, 1} {
		selected = sel
		c.CollectVisible(ctx)
		c.SwapBuffers(ctx)
		c.Execute(ctx)
	}
	assert.Equal(t, []string{"caster", "caster", "caster"}, log)
}

type depthItem struct {
	seen *[]renderer.DepthState
}

func (i depthItem) Bounds() common.BoundingSphere { return common.BoundingSphere{Radius: 1} }
func (i depthItem) Draw(p renderer.DrawPass)      { *i.seen = append(*i.seen, p.DepthState()) }

func TestRenderOpensDrawPassWithCurrentDepthState(t *testing.T) {
	backend := renderer.NewRecordingBackend()
	r := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(backend))
	var seen []renderer.DepthState
	s := NewScene("depth", r, WithItems(0, depthItem{seen: &seen}))

	s.CollectVisible(0)
	s.SwapBuffers(0)
	r.SetDepthWrite(false)
	backend.Reset()
	s.Render(0)

	require.Len(t, seen, 1)
	assert.Equal(t, renderer.DepthState{Test: true, Write: false, Func: wgpu.CompareFunctionLess}, seen[0])
	assert.Equal(t, []string{"draw surface depth test=true write=false func=less", "end draw"}, backend.Trace())

	backend.Reset()
	s.Render(3)
	assert.Empty(t, backend.Trace(), "an empty pass opens no draw pass")
}
