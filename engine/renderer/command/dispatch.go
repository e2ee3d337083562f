package command

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

var _ Command = &Dispatch{}

// GroupCount yields one work group count of a dispatch. It is evaluated on every Execute.
type GroupCount func(ctx pipeline.Context) uint32

// Groups returns a GroupCount that always yields n.
func Groups(n uint32) GroupCount {
	return func(pipeline.Context) uint32 { return n }
}

// ImageUnit binds the texture registered under Texture to a storage image binding of the shader.
// When Var is set the unit is looked up from the shader's storage texture declaration named Var,
// otherwise Unit is used as is.
type ImageUnit struct {
	Unit    uint32
	Var     string
	Texture string
}

// Dispatch runs a compute shader. Group counts are deferred to Execute so they can follow the viewport.
// A nil GroupCount yields 1. The dispatch is skipped when an image texture is not registered yet.
type Dispatch struct {
	Base
	Shader  shader.Shader
	GroupsX GroupCount
	GroupsY GroupCount
	GroupsZ GroupCount
	Images  []ImageUnit
}

// CoverViewport sets GroupsX and GroupsY to cover the context viewport times scale with the shader's
// work group size.
//
// Parameters:
//   - scale: the viewport scale, 0 means 1
//
// Returns:
//   - *Dispatch: the dispatch, for chaining
func (c *Dispatch) CoverViewport(scale float32) *Dispatch {
	c.GroupsX = func(ctx pipeline.Context) uint32 {
		w, _ := ctx.Viewport().Scaled(scale)
		return common.CeilDiv(w, c.workgroupSize()[0])
	}
	c.GroupsY = func(ctx pipeline.Context) uint32 {
		_, h := ctx.Viewport().Scaled(scale)
		return common.CeilDiv(h, c.workgroupSize()[1])
	}
	return c
}

func (c *Dispatch) workgroupSize() [3]uint32 {
	size := [3]uint32{1, 1, 1}
	if c.Shader != nil {
		for i, n := range c.Shader.WorkgroupSize() {
			size[i] = common.Coalesce(n, 1)
		}
	}
	return size
}

func (c *Dispatch) Execute(ctx pipeline.Context) {
	r := ctx.Renderer()
	if r == nil || c.Shader == nil {
		return
	}
	images := make([]renderer.ImageBinding, 0, len(c.Images))
	for _, unit := range c.Images {
		tex, ok := ctx.TryGetTexture(unit.Texture)
		if !ok {
			common.Logger().Debug("dispatch skipped", "shader", c.Shader.Key(), "missing", unit.Texture)
			return
		}
		binding := renderer.ImageBinding{Unit: unit.Unit, Texture: tex}
		if unit.Var != "" {
			decl, ok := c.Shader.ImageBinding(unit.Var)
			if !ok {
				common.Logger().Warn("dispatch skipped", "shader", c.Shader.Key(), "unknown image", unit.Var)
				return
			}
			binding.Group, binding.Unit = decl.Group, decl.Binding
		}
		images = append(images, binding)
	}
	groups := [3]uint32{groupCount(c.GroupsX, ctx), groupCount(c.GroupsY, ctx), groupCount(c.GroupsZ, ctx)}
	if err := r.Dispatch(c.Shader, groups, images); err != nil {
		common.Logger().Warn("dispatch failed", "error", err)
	}
}

func groupCount(fn GroupCount, ctx pipeline.Context) uint32 {
	if fn == nil {
		return 1
	}
	return fn(ctx)
}

// DecodeParams keys: shader (a shader.Shader resolved by the caller, required), groups ([x, y, z]),
// cover_viewport (a viewport scale, overriding groups x and y), images (tables of unit, var and texture).
func (c *Dispatch) DecodeParams(p *Params) error {
	p.Require("shader")
	if v, ok := p.Value("shader"); ok {
		s, ok := v.(shader.Shader)
		if !ok {
			p.fail("shader", "want shader.Shader, got %T", v)
		}
		c.Shader = s
	}
	if groups := p.Uints("groups"); groups != nil {
		counts := []*GroupCount{&c.GroupsX, &c.GroupsY, &c.GroupsZ}
		if len(groups) > len(counts) {
			p.fail("groups", "want at most 3 counts, got %d", len(groups))
		}
		for i := 0; i < len(groups) && i < len(counts); i++ {
			*counts[i] = Groups(groups[i])
		}
	}
	if p.Has("cover_viewport") {
		c.CoverViewport(float32(p.Float("cover_viewport", 1)))
	}
	for _, image := range p.Tables("images") {
		image.Require("texture")
		unit := ImageUnit{
			Unit:    image.Uint("unit", 0),
			Var:     image.String("var", ""),
			Texture: image.String("texture", ""),
		}
		if err := image.Err(); err != nil {
			p.fail("images", "%v", err)
			break
		}
		c.Images = append(c.Images, unit)
	}
	return p.Err()
}
