package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	_ Command = &CacheOrCreateFBO{}
	_ Command = &CacheOrCreateTexture{}
)

// CacheOrCreateFBO keeps a named framebuffer registered in the context. On a miss Factory creates it.
// On a hit SizeVerifier, when set, yields the wanted size and the framebuffer is resized in place if it
// differs, so the registered instance keeps its identity.
type CacheOrCreateFBO struct {
	Base
	Name         string
	Factory      func(ctx pipeline.Context) renderer.Framebuffer
	SizeVerifier func(ctx pipeline.Context) (uint32, uint32)
}

func (c *CacheOrCreateFBO) Execute(ctx pipeline.Context) {
	fb, ok := ctx.TryGetFBO(c.Name)
	if !ok {
		if c.Factory == nil {
			return
		}
		fb = c.Factory(ctx)
		if fb == nil {
			common.Logger().Warn("framebuffer factory returned nil", "name", c.Name)
			return
		}
		fb.SetName(c.Name)
		ctx.SetFBO(fb)
		return
	}
	if c.SizeVerifier == nil {
		return
	}
	width, height := c.SizeVerifier(ctx)
	if w, h := fb.Size(); w == width && h == height {
		return
	}
	if err := fb.Resize(width, height); err != nil {
		common.Logger().Warn("framebuffer resize failed", "name", c.Name, "error", err)
	}
}

// DecodeParams configures a framebuffer that tracks the context viewport.
// Keys: name (required), scale, color_format, depth_format, samples.
func (c *CacheOrCreateFBO) DecodeParams(p *Params) error {
	p.Require("name")
	c.Name = p.String("name", "")
	scale := float32(p.Float("scale", 1))
	desc := renderer.FramebufferDescriptor{
		ColorFormat: p.TextureFormat("color_format", wgpu.TextureFormatRGBA8Unorm),
		DepthFormat: p.TextureFormat("depth_format", wgpu.TextureFormatUndefined),
		SampleCount: p.Uint("samples", 1),
	}
	if err := p.Err(); err != nil {
		return err
	}
	c.Factory, c.SizeVerifier = ViewportFramebuffer(c.Name, scale, desc)
	return nil
}

// ViewportFramebuffer returns a factory and a size verifier for a framebuffer sized to the context
// viewport times scale. The factory panics if the renderer cannot create the framebuffer.
//
// Parameters:
//   - label: the framebuffer label
//   - scale: the viewport scale, 0 means 1
//   - desc: the framebuffer formats; its size is taken from the viewport
//
// Returns:
//   - func(pipeline.Context) renderer.Framebuffer: the factory
//   - func(pipeline.Context) (uint32, uint32): the size verifier
func ViewportFramebuffer(label string, scale float32, desc renderer.FramebufferDescriptor) (func(ctx pipeline.Context) renderer.Framebuffer, func(ctx pipeline.Context) (uint32, uint32)) {
	verifier := func(ctx pipeline.Context) (uint32, uint32) {
		return ctx.Viewport().Scaled(scale)
	}
	factory := func(ctx pipeline.Context) renderer.Framebuffer {
		r := ctx.Renderer()
		if r == nil {
			return nil
		}
		d := desc
		d.Label = label
		d.Width, d.Height = verifier(ctx)
		fb, err := r.CreateFramebuffer(d)
		if err != nil {
			panic(fmt.Errorf("command: create framebuffer %q: %w", label, err))
		}
		return fb
	}
	return factory, verifier
}

// CacheOrCreateTexture keeps a named texture registered in the context. On a miss Factory creates it.
// On a hit NeedsRecreate, when set, may request a replacement; the new texture takes over the name and
// the old one is released.
type CacheOrCreateTexture struct {
	Base
	Name          string
	Factory       func(ctx pipeline.Context) renderer.Texture
	NeedsRecreate func(ctx pipeline.Context, tex renderer.Texture) bool
}

func (c *CacheOrCreateTexture) Execute(ctx pipeline.Context) {
	tex, ok := ctx.TryGetTexture(c.Name)
	if ok && (c.NeedsRecreate == nil || !c.NeedsRecreate(ctx, tex)) {
		return
	}
	if c.Factory == nil {
		return
	}
	created := c.Factory(ctx)
	if created == nil {
		common.Logger().Warn("texture factory returned nil", "name", c.Name)
		return
	}
	created.SetName(c.Name)
	ctx.SetTexture(created)
}

// DecodeParams configures a texture that tracks the context viewport.
// Keys: name (required), scale, format.
func (c *CacheOrCreateTexture) DecodeParams(p *Params) error {
	p.Require("name")
	c.Name = p.String("name", "")
	scale := float32(p.Float("scale", 1))
	desc := renderer.TextureDescriptor{
		Format: p.TextureFormat("format", wgpu.TextureFormatRGBA8Unorm),
	}
	if err := p.Err(); err != nil {
		return err
	}
	c.Factory, c.NeedsRecreate = ViewportTexture(c.Name, scale, desc)
	return nil
}

// ViewportTexture returns a factory and a recreate check for a texture sized to the context viewport
// times scale. The factory panics if the renderer cannot create the texture.
//
// Parameters:
//   - label: the texture label
//   - scale: the viewport scale, 0 means 1
//   - desc: the texture format and usage; its size is taken from the viewport
//
// Returns:
//   - func(pipeline.Context) renderer.Texture: the factory
//   - func(pipeline.Context, renderer.Texture) bool: reports a size mismatch with the viewport
func ViewportTexture(label string, scale float32, desc renderer.TextureDescriptor) (func(ctx pipeline.Context) renderer.Texture, func(ctx pipeline.Context, tex renderer.Texture) bool) {
	factory := func(ctx pipeline.Context) renderer.Texture {
		r := ctx.Renderer()
		if r == nil {
			return nil
		}
		d := desc
		d.Label = label
		d.Width, d.Height = ctx.Viewport().Scaled(scale)
		tex, err := r.CreateTexture(d)
		if err != nil {
			panic(fmt.Errorf("command: create texture %q: %w", label, err))
		}
		return tex
	}
	needsRecreate := func(ctx pipeline.Context, tex renderer.Texture) bool {
		width, height := ctx.Viewport().Scaled(scale)
		w, h := tex.Size()
		return w != width || h != height
	}
	return factory, needsRecreate
}
