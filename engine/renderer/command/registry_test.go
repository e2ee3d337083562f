package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	names := Names()
	for _, name := range []string{"clear", "bind_output_fbo", "cache_fbo", "dispatch", "render_meshes", "run"} {
		assert.Contains(t, names, name)
		assert.True(t, IsRegistered(name))
	}
	assert.IsIncreasing(t, names)

	_, err := New("no_such_command")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Panics(t, func() { Register("clear", func() Command { return &Clear{} }) })
	assert.Panics(t, func() { Register("", nil) })
}

func TestRegisterCustomCommand(t *testing.T) {
	Register("test_count", func() Command { return &countCommand{} })
	defer Unregister("test_count")

	cmd, err := NewBuilder().AddNamed("test_count", nil)
	require.NoError(t, err)
	assert.IsType(t, &countCommand{}, cmd)

	_, err = NewBuilder().AddNamed("test_count", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrInvalidParam)

	Unregister("test_count")
	assert.False(t, IsRegistered("test_count"))
}

func TestNewInitializes(t *testing.T) {
	cmd, err := New("clear")
	require.NoError(t, err)
	assert.Equal(t, float32(1), cmd.(*Clear).DepthValue)

	cmd, err = New("bind_output_fbo")
	require.NoError(t, err)
	assert.NotNil(t, cmd.(PushCommand).Pop())

	cmd, err = New("memory_barrier")
	require.NoError(t, err)
	assert.Equal(t, renderer.BarrierAll, cmd.(*MemoryBarrier).Mask)
}

func TestAddNamed(t *testing.T) {
	b := NewBuilder()

	cmd, err := b.AddNamed("clear", map[string]any{"color": true, "clear_color": []any{0.25, 0.5, int64(1), 1.0}, "clear_depth": 0})
	require.NoError(t, err)
	c := cmd.(*Clear)
	assert.True(t, c.Color)
	assert.Equal(t, wgpu.Color{R: 0.25, G: 0.5, B: 1, A: 1}, c.ColorValue)
	assert.Equal(t, float32(0), c.DepthValue)

	_, err = b.AddNamed("bind_output_fbo", nil)
	assert.ErrorIs(t, err, ErrPushCommand)

	_, err = b.AddUsingNamed("clear", nil, nil)
	assert.ErrorIs(t, err, ErrNotPushCommand)

	_, err = b.AddNamed("depth_func", map[string]any{"func": "sideways"})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = b.AddNamed("bind_fbo", nil)
	assert.ErrorIs(t, err, ErrInvalidParam)

	push, err := b.AddUsingNamed("push_depth_state", map[string]any{"write": false, "func": "less_equal"}, func(b *Builder) {
		_, err := b.AddNamed("render_meshes", map[string]any{"pass": int64(1)})
		require.NoError(t, err)
	})
	require.NoError(t, err)
	assert.Equal(t, renderer.DepthState{Test: true, Write: false, Func: wgpu.CompareFunctionLessEqual}, push.(*PushDepthState).State)

	cmds := b.Build().Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, 1, cmds[2].(*RenderMeshesPass).Pass)
	assert.Same(t, push.Pop(), cmds[3])
}

func TestDecodeDispatchAndRun(t *testing.T) {
	s := shader.NewShader("tonemap", shader.WithSource(tonemapSource))
	ran := false
	b := NewBuilder()

	cmd, err := b.AddNamed("dispatch", map[string]any{
		"shader": s,
		"groups": []any{int64(2), int64(3)},
		"images": []map[string]any{{"var": "outImage", "texture": "Out"}},
	})
	require.NoError(t, err)
	d := cmd.(*Dispatch)
	assert.Same(t, s, d.Shader)
	assert.Equal(t, []ImageUnit{{Var: "outImage", Texture: "Out"}}, d.Images)
	assert.Nil(t, d.GroupsZ)

	_, err = b.AddNamed("dispatch", map[string]any{"shader": "tonemap"})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = b.AddNamed("dispatch", map[string]any{"shader": s, "images": []any{map[string]any{"unit": 1}}})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = b.AddNamed("run", map[string]any{"action": func(pipeline.Context) { ran = true }})
	require.NoError(t, err)

	ctx, rec := newTestContext(t)
	b.Build().Execute(ctx)
	assert.True(t, ran)
	assert.Empty(t, rec.Trace())
}
