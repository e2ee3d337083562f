package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestIfElseFollowsConditionEveryFrame(t *testing.T) {
	ctx, _ := newTestContext(t)
	var log []string
	c := Build(func(b *Builder) {
		b.If(func(ctx pipeline.Context) bool { return ctx.FrameIndex()%2 == 0 }, func(b *Builder) {
			b.Append(&countCommand{label: "true", log: &log})
		}, func(b *Builder) {
			b.Append(&countCommand{label: "false", log: &log})
		})
	})

	for range 4 {
		c.Execute(ctx)
		ctx.AdvanceFrame()
	}
	assert.Equal(t, []string{"true", "false", "true", "false"}, log)
}

func TestIfElseNilBranchAndCondition(t *testing.T) {
	ctx, _ := newTestContext(t)
	cmd := &IfElse{}
	cmd.Execute(ctx)
	assert.False(t, cmd.NeedsCollectVisible())

	cmd.Condition = func(pipeline.Context) bool { return false }
	cmd.Execute(ctx)
	assert.Panics(t, func() { NewBuilder().If(nil, nil, nil) })
}

func TestSwitch(t *testing.T) {
	ctx, _ := newTestContext(t)
	var log []string
	key := 1
	cases := map[int]func(b *Builder){
		0: func(b *Builder) { b.Append(&countCommand{label: "zero", log: &log}) },
		1: func(b *Builder) { b.Append(&countCommand{label: "one", log: &log}) },
	}
	evaluator := func(pipeline.Context) int { return key }

	withDefault := Build(func(b *Builder) {
		b.Switch(evaluator, cases, func(b *Builder) { b.Append(&countCommand{label: "default", log: &log}) })
	})
	withoutDefault := Build(func(b *Builder) { b.Switch(evaluator, cases, nil) })

	withDefault.Execute(ctx)
	key = 7
	withDefault.Execute(ctx)
	withoutDefault.Execute(ctx)
	key = 0
	withoutDefault.Execute(ctx)

	assert.Equal(t, []string{"one", "default", "zero"}, log)
}

func TestSwitchForwardsVisibility(t *testing.T) {
	meshes := &visibleMeshes{}
	ctx, _ := newTestContext(t, pipeline.WithMeshCollector(meshes))
	c := Build(func(b *Builder) {
		b.Switch(func(pipeline.Context) int { return 5 }, map[int]func(b *Builder){
			2: func(b *Builder) { Add[RenderMeshesPass](b, func(c *RenderMeshesPass) { c.Pass = 2 }) },
			1: func(b *Builder) { Add[RenderMeshesPass](b, func(c *RenderMeshesPass) { c.Pass = 1 }) },
		}, nil)
	})

	assert.True(t, c.NeedsCollectVisible())
	c.CollectVisible(ctx)
	c.Execute(ctx)
	assert.Equal(t, []string{"collect", "1", "collect", "2"}, meshes.calls)
}
