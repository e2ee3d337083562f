package command

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	_ Command = &Clear{}
	_ Command = &DepthTest{}
	_ Command = &DepthWrite{}
	_ Command = &DepthFunc{}
	_ Command = &MemoryBarrier{}
	_ Command = &RenderMeshesPass{}
	_ Command = &RenderUI{}
	_ Command = &Run{}
)

// Clear clears the selected aspects of the currently bound target.
type Clear struct {
	Base
	Color        bool
	Depth        bool
	Stencil      bool
	ColorValue   wgpu.Color
	DepthValue   float32
	StencilValue uint32
}

// Init defaults the clear values to opaque black and a depth of 1.
func (c *Clear) Init() {
	c.ColorValue = wgpu.Color{A: 1}
	c.DepthValue = 1
}

func (c *Clear) Execute(ctx pipeline.Context) {
	r := ctx.Renderer()
	if r == nil {
		return
	}
	r.Clear(renderer.ClearOptions{
		Color:        c.Color,
		Depth:        c.Depth,
		Stencil:      c.Stencil,
		ColorValue:   c.ColorValue,
		DepthValue:   c.DepthValue,
		StencilValue: c.StencilValue,
	})
}

// DecodeParams keys: color, depth, stencil, clear_color ([r, g, b, a]), clear_depth, clear_stencil.
func (c *Clear) DecodeParams(p *Params) error {
	c.Color = p.Bool("color", false)
	c.Depth = p.Bool("depth", false)
	c.Stencil = p.Bool("stencil", false)
	if rgba := p.Floats("clear_color"); rgba != nil {
		if len(rgba) != 4 {
			p.fail("clear_color", "want 4 components, got %d", len(rgba))
		} else {
			c.ColorValue = wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
		}
	}
	c.DepthValue = float32(p.Float("clear_depth", float64(c.DepthValue)))
	c.StencilValue = p.Uint("clear_stencil", c.StencilValue)
	return p.Err()
}

// DepthTest enables or disables depth testing.
type DepthTest struct {
	Base
	Enabled bool
}

func (c *DepthTest) Execute(ctx pipeline.Context) {
	if r := ctx.Renderer(); r != nil {
		r.SetDepthTest(c.Enabled)
	}
}

func (c *DepthTest) DecodeParams(p *Params) error {
	c.Enabled = p.Bool("enabled", true)
	return p.Err()
}

// DepthWrite enables or disables depth writes.
type DepthWrite struct {
	Base
	Enabled bool
}

func (c *DepthWrite) Execute(ctx pipeline.Context) {
	if r := ctx.Renderer(); r != nil {
		r.SetDepthWrite(c.Enabled)
	}
}

func (c *DepthWrite) DecodeParams(p *Params) error {
	c.Enabled = p.Bool("enabled", true)
	return p.Err()
}

// DepthFunc sets the depth comparison function.
type DepthFunc struct {
	Base
	Func wgpu.CompareFunction
}

func (c *DepthFunc) Execute(ctx pipeline.Context) {
	if r := ctx.Renderer(); r != nil {
		r.SetDepthFunc(c.Func)
	}
}

func (c *DepthFunc) DecodeParams(p *Params) error {
	p.Require("func")
	c.Func = p.CompareFunction("func", wgpu.CompareFunctionUndefined)
	return p.Err()
}

// MemoryBarrier orders earlier storage image writes before the accesses selected by Mask.
type MemoryBarrier struct {
	Base
	Mask renderer.BarrierMask
}

// Init defaults the mask to every kind of access.
func (c *MemoryBarrier) Init() {
	c.Mask = renderer.BarrierAll
}

func (c *MemoryBarrier) Execute(ctx pipeline.Context) {
	if r := ctx.Renderer(); r != nil {
		r.MemoryBarrier(c.Mask)
	}
}

var barrierNames = map[string]renderer.BarrierMask{
	"image":       renderer.BarrierShaderImageAccess,
	"texture":     renderer.BarrierTextureFetch,
	"framebuffer": renderer.BarrierFramebuffer,
	"all":         renderer.BarrierAll,
}

// DecodeParams keys: mask, a name or a list of names out of image, texture, framebuffer and all.
func (c *MemoryBarrier) DecodeParams(p *Params) error {
	names := p.Strings("mask")
	if names == nil {
		return p.Err()
	}
	c.Mask = 0
	for _, name := range names {
		bit, ok := barrierNames[normalizeName(name)]
		if !ok {
			p.fail("mask", "unknown barrier %q", name)
			break
		}
		c.Mask |= bit
	}
	return p.Err()
}

// RenderMeshesPass draws the meshes collected for Pass. When the context's mesh collector also
// implements pipeline.VisibilityCollector, the command forwards the visibility hand-off to it.
type RenderMeshesPass struct {
	Base
	Pass int
}

func (c *RenderMeshesPass) Execute(ctx pipeline.Context) {
	if m := ctx.Meshes(); m != nil {
		m.Render(c.Pass)
	}
}

func (c *RenderMeshesPass) CollectVisible(ctx pipeline.Context) {
	if v, ok := ctx.Meshes().(pipeline.VisibilityCollector); ok {
		v.CollectVisible(c.Pass)
	}
}

func (c *RenderMeshesPass) SwapBuffers(ctx pipeline.Context) {
	if v, ok := ctx.Meshes().(pipeline.VisibilityCollector); ok {
		v.SwapBuffers(c.Pass)
	}
}

func (c *RenderMeshesPass) NeedsCollectVisible() bool {
	return true
}

func (c *RenderMeshesPass) DecodeParams(p *Params) error {
	c.Pass = p.Int("pass", 0)
	return p.Err()
}

// RenderUI draws screen-space UI over the current viewport, into the framebuffer registered under
// TargetFBOName or into the bound target when the name is empty. A named target that is not registered
// skips the draw. RenderUI never runs in shadow passes.
type RenderUI struct {
	Base
	TargetFBOName string
}

func (c *RenderUI) Execute(ctx pipeline.Context) {
	ui := ctx.UI()
	if ui == nil {
		return
	}
	var target renderer.Framebuffer
	if c.TargetFBOName != "" {
		fb, ok := ctx.TryGetFBO(c.TargetFBOName)
		if !ok {
			return
		}
		target = fb
	}
	ui.Render(ctx.Viewport(), target)
}

func (c *RenderUI) CollectVisible(ctx pipeline.Context) {
	if v, ok := ctx.UI().(pipeline.UICollector); ok {
		v.CollectVisible()
	}
}

func (c *RenderUI) SwapBuffers(ctx pipeline.Context) {
	if v, ok := ctx.UI().(pipeline.UICollector); ok {
		v.SwapBuffers()
	}
}

func (c *RenderUI) NeedsCollectVisible() bool {
	return true
}

func (c *RenderUI) ExecuteInShadowPass() bool {
	return false
}

func (c *RenderUI) DecodeParams(p *Params) error {
	c.TargetFBOName = p.String("target", "")
	return p.Err()
}

// Run calls Action on every Execute.
type Run struct {
	Base
	Action func(ctx pipeline.Context)
}

func (c *Run) Execute(ctx pipeline.Context) {
	if c.Action != nil {
		c.Action(ctx)
	}
}

// DecodeParams keys: action, a func(pipeline.Context) resolved by the caller.
func (c *Run) DecodeParams(p *Params) error {
	p.Require("action")
	if v, ok := p.Value("action"); ok {
		action, ok := v.(func(ctx pipeline.Context))
		if !ok {
			p.fail("action", "want func(pipeline.Context), got %T", v)
		}
		c.Action = action
	}
	return p.Err()
}
