package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUI struct {
	mu  sync.Mutex
	log []string
}

func (u *testUI) Render(common.Viewport, renderer.Framebuffer) { u.record("render") }
func (u *testUI) CollectVisible()                              { u.record("collect") }
func (u *testUI) SwapBuffers()                                 { u.record("swap") }

func (u *testUI) record(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.log = append(u.log, s)
}

type drawItem struct {
	log *[]string
}

func (d drawItem) Bounds() common.BoundingSphere { return common.BoundingSphere{Radius: 1} }
func (d drawItem) Draw(renderer.DrawPass)        { *d.log = append(*d.log, "mesh") }

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (Engine, *renderer.RecordingBackend) {
	t.Helper()
	rec := renderer.NewRecordingBackend()
	r := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(rec))
	rec.Reset()
	return NewEngine(r, options...), rec
}

func TestNewEnginePanicsWithoutRenderer(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}

func TestRenderFrameReplaysShadowThenMain(t *testing.T) {
	ui := &testUI{}
	shadow := command.Build(func(b *command.Builder) {
		command.Add[command.Clear](b, func(c *command.Clear) { c.Depth = true })
		command.Add[command.RenderUI](b)
	})
	root := command.Build(func(b *command.Builder) {
		command.Add[command.Clear](b, func(c *command.Clear) { c.Color = true })
		command.Add[command.RenderUI](b)
	})

	e, rec := newTestEngine(t,
		WithPipeline(root),
		WithShadowPipeline(shadow),
		WithContextOptions(pipeline.WithUIRenderer(ui)),
	)

	require.NoError(t, e.RenderFrame(0.016))
	assert.Equal(t, []string{
		"begin frame",
		"bind surface",
		"clear surface color=false depth=true stencil=false",
		"clear surface color=true depth=false stencil=false",
		"end frame",
		"present",
	}, rec.Trace())
	assert.Equal(t, []string{"swap", "swap", "render"}, ui.log, "the UI draws once, outside the shadow pass")
	assert.False(t, e.Context().ShadowPass())
	assert.Equal(t, uint64(1), e.Context().FrameIndex())
}

func TestRenderFrameWithoutPipelines(t *testing.T) {
	e, rec := newTestEngine(t)
	require.NoError(t, e.RenderFrame(0))
	assert.Equal(t, []string{"begin frame", "bind surface", "end frame", "present"}, rec.Trace())
}

func TestRenderFrameBeginError(t *testing.T) {
	var runs int
	root := command.Build(func(b *command.Builder) {
		command.Add[command.Run](b, func(c *command.Run) { c.Action = func(pipeline.Context) { runs++ } })
	})
	e, rec := newTestEngine(t, WithPipeline(root))
	rec.BeginFrameErr = errors.New("surface lost")

	err := e.RenderFrame(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, rec.BeginFrameErr)
	assert.Zero(t, runs)
	assert.Zero(t, e.Context().FrameIndex())
}

func TestCollectFrameThenRenderDrawsScene(t *testing.T) {
	var log []string
	e, _ := newTestEngine(t)
	s := scene.NewScene("main", e.Renderer(), scene.WithItems(0, drawItem{log: &log}))
	e = NewEngine(e.Renderer(),
		WithContextOptions(pipeline.WithMeshCollector(s)),
		WithPipeline(command.Build(func(b *command.Builder) {
			command.Add[command.RenderMeshesPass](b)
		})),
	)

	require.NoError(t, e.RenderFrame(0))
	assert.Empty(t, log, "nothing was collected yet")

	e.CollectFrame()
	require.NoError(t, e.RenderFrame(0))
	assert.Equal(t, []string{"mesh"}, log)
}

func TestShadowAndMainSharingAPassBothDraw(t *testing.T) {
	var log []string
	e, rec := newTestEngine(t)
	s := scene.NewScene("main", e.Renderer(), scene.WithItems(0, drawItem{log: &log}))
	e = NewEngine(e.Renderer(),
		WithContextOptions(pipeline.WithMeshCollector(s)),
		WithShadowPipeline(command.Build(func(b *command.Builder) {
			command.Add[command.DepthWrite](b, func(c *command.DepthWrite) { c.Enabled = true })
			command.Add[command.RenderMeshesPass](b)
		})),
		WithPipeline(command.Build(func(b *command.Builder) {
			command.Add[command.DepthWrite](b, func(c *command.DepthWrite) { c.Enabled = false })
			command.Add[command.RenderMeshesPass](b)
		})),
	)

	for range 2 {
		e.CollectFrame()
		rec.Reset()
		require.NoError(t, e.RenderFrame(0))
	}
	assert.Equal(t, []string{"mesh", "mesh", "mesh", "mesh"}, log)
	assert.Equal(t, 1, s.VisibleCount(0))
	assert.Equal(t, []string{
		"begin frame",
		"bind surface",
		"depth test=true write=true func=less",
		"draw surface depth test=true write=true func=less",
		"end draw",
		"depth test=true write=false func=less",
		"draw surface depth test=true write=false func=less",
		"end draw",
		"end frame",
		"present",
	}, rec.Trace())
}

func TestSetPipelineTakesEffectNextFrame(t *testing.T) {
	e, rec := newTestEngine(t)
	assert.Nil(t, e.Pipeline())

	c := command.Build(func(b *command.Builder) {
		command.Add[command.DepthTest](b, func(c *command.DepthTest) { c.Enabled = true })
	})
	e.SetPipeline(c)
	assert.Same(t, c, e.Pipeline())

	require.NoError(t, e.RenderFrame(0))
	assert.Contains(t, rec.Trace(), "depth test=true write=true func=less")
}

func TestResize(t *testing.T) {
	e, rec := newTestEngine(t)

	e.Resize(800, 600)
	e.Resize(0, 600)
	e.Resize(800, -1)

	assert.Equal(t, []string{"configure 800x600"}, rec.Trace())
	assert.Equal(t, common.Viewport{Width: 800, Height: 600}, e.Context().Viewport())
}

func TestRunStopsOnQuit(t *testing.T) {
	var ticks atomic.Int32
	e, rec := newTestEngine(t, WithTickRate(500), WithProfiling(true), WithRenderFrameLimit(1000))
	fb, err := e.Renderer().CreateFramebuffer(renderer.FramebufferDescriptor{Label: "Main", Width: 4, Height: 4})
	require.NoError(t, err)
	fb.SetName("Main")
	e.Context().SetFBO(fb)

	e.SetTickCallback(func(float32) {
		if ticks.Add(1) == 3 {
			e.Quit()
		}
	})

	e.Run()
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
	assert.Empty(t, e.Context().FBONames())
	assert.Contains(t, rec.Trace(), "release framebuffer Main")
	e.Quit()
}

func TestRunStopsWhenReplayPanics(t *testing.T) {
	root := command.Build(func(b *command.Builder) {
		command.Add[command.Run](b, func(c *command.Run) {
			c.Action = func(pipeline.Context) { panic("boom") }
		})
	})
	e, _ := newTestEngine(t, WithPipeline(root), WithRenderFrameLimit(120))

	e.Run()
	assert.Zero(t, e.Context().FrameIndex())
}

func TestFrameLimitOptions(t *testing.T) {
	e, _ := newTestEngine(t, WithRenderFrameLimit(-5), WithTickRate(0))
	impl := e.(*engine)
	assert.Zero(t, impl.renderFrameLimit)
	assert.Equal(t, time.Second/60, impl.engineTickRate)

	e.SetRenderFrameLimit(100)
	assert.Positive(t, impl.renderFrameLimit)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, impl.renderFrameLimit)
}
