package pipeline

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
)

// pipelineContext is the implementation of the Context interface.
type pipelineContext struct {
	mu *sync.RWMutex

	renderer renderer.Renderer
	meshes   MeshCollector
	ui       UIRenderer

	viewport   common.Viewport
	outputFBO  renderer.Framebuffer
	shadowPass bool
	frameIndex uint64

	fbos     map[string]renderer.Framebuffer
	textures map[string]renderer.Texture
}

// Context is the per-pipeline state threaded explicitly through every command's Execute,
// CollectVisible and SwapBuffers call.
//
// It gives commands access to the rendering-state capability and the external collaborators
// (mesh collector, UI renderer), carries per-frame values (viewport, output framebuffer, shadow pass flag,
// frame index) and owns the named framebuffer and texture registry shared by every command of the pipeline.
// The registry is the single owner of its resources: replacing a name releases the previous instance.
type Context interface {
	// Renderer returns the rendering-state capability commands issue GPU work against.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil for a renderer-less context
	Renderer() renderer.Renderer

	// Meshes returns the mesh collector drawn by mesh pass commands.
	//
	// Returns:
	//   - MeshCollector: the mesh collector, or nil if none is configured
	Meshes() MeshCollector

	// SetMeshes replaces the mesh collector.
	//
	// Parameters:
	//   - m: the new mesh collector, or nil
	SetMeshes(m MeshCollector)

	// UI returns the UI renderer used by UI commands.
	//
	// Returns:
	//   - UIRenderer: the UI renderer, or nil if none is configured
	UI() UIRenderer

	// SetUI replaces the UI renderer.
	//
	// Parameters:
	//   - u: the new UI renderer, or nil
	SetUI(u UIRenderer)

	// Viewport returns the viewport of the current frame.
	//
	// Returns:
	//   - common.Viewport: the current viewport
	Viewport() common.Viewport

	// SetViewport updates the viewport, typically from a window resize.
	//
	// Parameters:
	//   - v: the new viewport
	SetViewport(v common.Viewport)

	// OutputFBO returns the framebuffer the pipeline's final image is rendered into.
	//
	// Returns:
	//   - renderer.Framebuffer: the output framebuffer, or nil to render straight to the surface
	OutputFBO() renderer.Framebuffer

	// SetOutputFBO sets the framebuffer the pipeline's final image is rendered into.
	//
	// Parameters:
	//   - fb: the output framebuffer, or nil
	SetOutputFBO(fb renderer.Framebuffer)

	// ShadowPass reports whether the current replay is a shadow pass.
	// Containers skip commands that opt out of shadow passes while this is true.
	//
	// Returns:
	//   - bool: true during a shadow pass replay
	ShadowPass() bool

	// SetShadowPass marks the start or end of a shadow pass replay.
	//
	// Parameters:
	//   - shadow: true while replaying for a shadow pass
	SetShadowPass(shadow bool)

	// FrameIndex returns the number of completed frames.
	//
	// Returns:
	//   - uint64: the zero-based index of the current frame
	FrameIndex() uint64

	// AdvanceFrame increments the frame index. It is called once after each frame's replay.
	//
	// Returns:
	//   - uint64: the new frame index
	AdvanceFrame() uint64

	// TryGetFBO looks up a framebuffer by name.
	//
	// Parameters:
	//   - name: the registry name
	//
	// Returns:
	//   - renderer.Framebuffer: the registered framebuffer, or nil
	//   - bool: true if the name is registered
	TryGetFBO(name string) (renderer.Framebuffer, bool)

	// SetFBO registers a framebuffer under its Name. A different instance previously registered
	// under the same name is released. Framebuffers without a name are ignored.
	//
	// Parameters:
	//   - fb: the framebuffer to register
	SetFBO(fb renderer.Framebuffer)

	// TryGetTexture looks up a texture by name.
	//
	// Parameters:
	//   - name: the registry name
	//
	// Returns:
	//   - renderer.Texture: the registered texture, or nil
	//   - bool: true if the name is registered
	TryGetTexture(name string) (renderer.Texture, bool)

	// SetTexture registers a texture under its Name. A different instance previously registered
	// under the same name is released. Textures without a name are ignored.
	//
	// Parameters:
	//   - tex: the texture to register
	SetTexture(tex renderer.Texture)

	// FBONames returns the registered framebuffer names in sorted order.
	//
	// Returns:
	//   - []string: the framebuffer names
	FBONames() []string

	// TextureNames returns the registered texture names in sorted order.
	//
	// Returns:
	//   - []string: the texture names
	TextureNames() []string

	// Release releases and unregisters every framebuffer and texture.
	Release()
}

var _ Context = &pipelineContext{}

// NewContext creates a new pipeline Context bound to a renderer with all options applied.
//
// Parameters:
//   - r: the renderer commands issue work against
//   - options: a variadic list of ContextBuilderOption functions to configure the Context
//
// Returns:
//   - Context: the new pipeline context
func NewContext(r renderer.Renderer, options ...ContextBuilderOption) Context {
	c := &pipelineContext{
		mu:       &sync.RWMutex{},
		renderer: r,
		fbos:     make(map[string]renderer.Framebuffer),
		textures: make(map[string]renderer.Texture),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *pipelineContext) Renderer() renderer.Renderer {
	return c.renderer
}

func (c *pipelineContext) Meshes() MeshCollector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meshes
}

func (c *pipelineContext) SetMeshes(m MeshCollector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meshes = m
}

func (c *pipelineContext) UI() UIRenderer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ui
}

func (c *pipelineContext) SetUI(u UIRenderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ui = u
}

func (c *pipelineContext) Viewport() common.Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

func (c *pipelineContext) SetViewport(v common.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = v
}

func (c *pipelineContext) OutputFBO() renderer.Framebuffer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outputFBO
}

func (c *pipelineContext) SetOutputFBO(fb renderer.Framebuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputFBO = fb
}

func (c *pipelineContext) ShadowPass() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shadowPass
}

func (c *pipelineContext) SetShadowPass(shadow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shadowPass = shadow
}

func (c *pipelineContext) FrameIndex() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameIndex
}

func (c *pipelineContext) AdvanceFrame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameIndex++
	return c.frameIndex
}

func (c *pipelineContext) TryGetFBO(name string) (renderer.Framebuffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fb, ok := c.fbos[name]
	return fb, ok
}

func (c *pipelineContext) SetFBO(fb renderer.Framebuffer) {
	if fb == nil || fb.Name() == "" {
		common.Logger().Warn("unnamed framebuffer not registered")
		return
	}
	c.mu.Lock()
	prev, ok := c.fbos[fb.Name()]
	c.fbos[fb.Name()] = fb
	c.mu.Unlock()

	if ok && prev != fb {
		prev.Release()
		common.Logger().Debug("framebuffer replaced", "name", fb.Name())
	}
}

func (c *pipelineContext) TryGetTexture(name string) (renderer.Texture, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tex, ok := c.textures[name]
	return tex, ok
}

func (c *pipelineContext) SetTexture(tex renderer.Texture) {
	if tex == nil || tex.Name() == "" {
		common.Logger().Warn("unnamed texture not registered")
		return
	}
	c.mu.Lock()
	prev, ok := c.textures[tex.Name()]
	c.textures[tex.Name()] = tex
	c.mu.Unlock()

	if ok && prev != tex {
		prev.Release()
		common.Logger().Debug("texture replaced", "name", tex.Name())
	}
}

func (c *pipelineContext) FBONames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.fbos))
	for name := range c.fbos {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *pipelineContext) TextureNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.textures))
	for name := range c.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *pipelineContext) Release() {
	c.mu.Lock()
	fbos, textures := c.fbos, c.textures
	c.fbos = make(map[string]renderer.Framebuffer)
	c.textures = make(map[string]renderer.Texture)
	c.mu.Unlock()

	for _, fb := range fbos {
		fb.Release()
	}
	for _, tex := range textures {
		tex.Release()
	}
}
