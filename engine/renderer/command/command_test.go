package command

import (
	"strconv"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countCommand counts its executions and appends its label to a shared log.
type countCommand struct {
	Base
	label string
	log   *[]string
	runs  int
}

func (c *countCommand) Execute(pipeline.Context) {
	c.runs++
	if c.log != nil {
		*c.log = append(*c.log, c.label)
	}
}

// visibleMeshes records the calls a mesh collector receives.
type visibleMeshes struct{ calls []string }

func (m *visibleMeshes) Render(pass int) { m.calls = append(m.calls, "render", strconv.Itoa(pass)) }
func (m *visibleMeshes) CollectVisible(pass int) {
	m.calls = append(m.calls, "collect", strconv.Itoa(pass))
}
func (m *visibleMeshes) SwapBuffers(pass int) { m.calls = append(m.calls, "swap", strconv.Itoa(pass)) }

func newTestContext(t *testing.T, options ...pipeline.ContextBuilderOption) (pipeline.Context, *renderer.RecordingBackend) {
	t.Helper()
	rec := renderer.NewRecordingBackend()
	r := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(rec))
	rec.Reset()
	options = append([]pipeline.ContextBuilderOption{pipeline.WithViewport(common.Viewport{Width: 640, Height: 480})}, options...)
	return pipeline.NewContext(r, options...), rec
}

func TestBuildFlatList(t *testing.T) {
	c := Build(func(b *Builder) {
		Add[Clear](b, func(c *Clear) { c.Color = true })
		AddUsing[BindOutputFBO](b, nil, func(b *Builder) {
			Add[RenderMeshesPass](b, func(c *RenderMeshesPass) { c.Pass = 0 })
		})
	})

	cmds := c.Commands()
	require.Len(t, cmds, 4)
	assert.IsType(t, &Clear{}, cmds[0])
	assert.IsType(t, &BindOutputFBO{}, cmds[1])
	assert.IsType(t, &RenderMeshesPass{}, cmds[2])
	assert.IsType(t, &UnbindFBO{}, cmds[3])
	assert.Same(t, cmds[1].(PushCommand).Pop(), cmds[3])
	assert.True(t, cmds[0].(*Clear).Color)
}

func TestBracketBalance(t *testing.T) {
	c := Build(func(b *Builder) {
		AddUsing[PushDepthState](b, nil, func(b *Builder) {
			Add[Clear](b)
			b.Using(NewBindFBOByName("Scene"), func(b *Builder) {
				AddUsing[BindOutputFBO](b, nil, nil)
				Add[DepthTest](b)
			})
		})
		b.Using(NewPushDepthState(renderer.DefaultDepthState), nil)
	})

	var stack []Command
	for _, cmd := range c.Commands() {
		if push, ok := cmd.(PushCommand); ok {
			stack = append(stack, push.Pop())
			continue
		}
		if len(stack) > 0 && stack[len(stack)-1] == cmd {
			stack = stack[:len(stack)-1]
		}
	}
	assert.Empty(t, stack)
	assert.Equal(t, 10, c.Len())
}

func TestAddRejectsPushCommands(t *testing.T) {
	b := NewBuilder()
	assert.Panics(t, func() { Add[BindOutputFBO](b) })
	assert.Panics(t, func() { b.Append(NewBindOutputFBO()) })
	assert.Panics(t, func() { b.Append(nil) })
	assert.Equal(t, 0, b.Len())
}

func TestBuildSnapshot(t *testing.T) {
	b := NewBuilder()
	Add[Clear](b)
	first := b.Build()
	Add[Clear](b)
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, b.Build().Len())

	var empty *Container
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.NeedsCollectVisible())
}

func TestExecuteSkipIsOneShot(t *testing.T) {
	ctx, _ := newTestContext(t)
	first, second := &countCommand{}, &countCommand{}
	c := NewBuilder().Append(first, second).Build()

	assert.Equal(t, 1, c.Execute(ctx, first))
	assert.Equal(t, 0, first.runs)
	assert.Equal(t, 1, second.runs)

	assert.Equal(t, 2, c.Execute(ctx))
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 2, second.runs)

	assert.False(t, ExecuteIfShould(first, ctx, false))
	assert.True(t, ExecuteIfShould(first, ctx, true))
	assert.Equal(t, 2, first.runs)
}

func TestExecuteShadowPass(t *testing.T) {
	ctx, _ := newTestContext(t)
	always := &countCommand{}
	never := &countCommand{Base: Base{SkipShadowPass: true}}
	c := NewBuilder().Append(always, never, &RenderUI{}).Build()

	ctx.SetShadowPass(true)
	assert.Equal(t, 1, c.Execute(ctx))
	ctx.SetShadowPass(false)
	assert.Equal(t, 3, c.Execute(ctx))
	assert.Equal(t, 2, always.runs)
	assert.Equal(t, 1, never.runs)
}

func TestClearTrace(t *testing.T) {
	ctx, rec := newTestContext(t)
	c := Build(func(b *Builder) {
		Add[Clear](b, func(c *Clear) { c.Color, c.Depth = true, true })
		Add[Clear](b)
	})
	c.Execute(ctx)
	assert.Equal(t, []string{"clear surface color=true depth=true stencil=false"}, rec.Trace())
}

func TestCollectVisibleOrder(t *testing.T) {
	meshes := &visibleMeshes{}
	ctx, _ := newTestContext(t, pipeline.WithMeshCollector(meshes))
	c := Build(func(b *Builder) {
		Add[Clear](b)
		Add[RenderMeshesPass](b)
		b.If(func(pipeline.Context) bool { return true }, func(b *Builder) {
			Add[RenderMeshesPass](b, func(c *RenderMeshesPass) { c.Pass = 1 })
		}, func(b *Builder) {
			Add[RenderMeshesPass](b, func(c *RenderMeshesPass) { c.Pass = 2 })
		})
		b.If(func(pipeline.Context) bool { return true }, func(b *Builder) { Add[Clear](b) }, nil)
	})

	assert.Len(t, c.VisibleCommands(), 2)
	assert.True(t, c.NeedsCollectVisible())

	c.CollectVisible(ctx)
	c.SwapBuffers(ctx)
	c.Execute(ctx)
	assert.Equal(t, []string{
		"collect", "0", "collect", "1", "collect", "2",
		"swap", "0", "swap", "1", "swap", "2",
		"render", "0", "render", "1",
	}, meshes.calls)
}
