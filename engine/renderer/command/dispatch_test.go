package command

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tonemapSource = `
@group(0) @binding(2) var outImage: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
	textureStore(outImage, vec2<i32>(id.xy), vec4<f32>(1.0));
}
`

func TestDispatch(t *testing.T) {
	ctx, rec := newTestContext(t)
	ctx.SetViewport(common.Viewport{Width: 100, Height: 50})
	s := shader.NewShader("tonemap", shader.WithSource(tonemapSource))
	cmd := (&Dispatch{Shader: s, Images: []ImageUnit{{Var: "outImage", Texture: "Out"}}}).CoverViewport(1)

	cmd.Execute(ctx)
	assert.Empty(t, rec.Trace())

	tex, err := ctx.Renderer().CreateTexture(renderer.TextureDescriptor{Label: "Out", Width: 100, Height: 50})
	require.NoError(t, err)
	tex.SetName("Out")
	ctx.SetTexture(tex)
	rec.Reset()

	cmd.Execute(ctx)
	cmd.Execute(ctx)
	s.SetSource(tonemapSource + "\n// tweaked\n")
	cmd.Execute(ctx)

	assert.Equal(t, []string{
		"build tonemap v1",
		"dispatch tonemap 13x7x1 [2:Out]",
		"dispatch tonemap 13x7x1 [2:Out]",
		"build tonemap v2",
		"dispatch tonemap 13x7x1 [2:Out]",
	}, rec.Trace())
}

func TestDispatchFixedGroupsAndErrors(t *testing.T) {
	ctx, rec := newTestContext(t)
	s := shader.NewShader("fill", shader.WithSource(tonemapSource))
	cmd := &Dispatch{Shader: s, GroupsX: Groups(4), GroupsY: Groups(2)}

	cmd.Execute(ctx)
	assert.Equal(t, []string{"build fill v1", "dispatch fill 4x2x1 []"}, rec.Trace())

	rec.Reset()
	rec.DispatchErr = errors.New("device lost")
	assert.NotPanics(t, func() { cmd.Execute(ctx) })
	assert.Empty(t, rec.Trace())

	rec.DispatchErr = nil
	(&Dispatch{}).Execute(ctx)
	(&Dispatch{Shader: s, Images: []ImageUnit{{Var: "missing", Texture: "Out"}}}).Execute(ctx)
	assert.Empty(t, rec.Trace())
}

func TestDispatchCarriesShaderGroup(t *testing.T) {
	ctx, rec := newTestContext(t)
	s := shader.NewShader("grouped", shader.WithSource(`
@group(1) @binding(0) var outImage: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(8, 8, 1)
fn main() {}
`))
	tex, err := ctx.Renderer().CreateTexture(renderer.TextureDescriptor{Label: "Out", Width: 8, Height: 8})
	require.NoError(t, err)
	tex.SetName("Out")
	ctx.SetTexture(tex)
	rec.Reset()

	(&Dispatch{Shader: s, Images: []ImageUnit{{Var: "outImage", Texture: "Out"}}}).Execute(ctx)
	assert.Empty(t, rec.Trace(), "images outside group 0 are rejected before reaching the backend")

	(&Dispatch{Shader: s, Images: []ImageUnit{{Unit: 3, Texture: "Out"}}}).Execute(ctx)
	assert.Equal(t, []string{"build grouped v1", "dispatch grouped 1x1x1 [3:Out]"}, rec.Trace())
}
