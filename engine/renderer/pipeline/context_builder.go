package pipeline

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
)

// ContextBuilderOption is a functional option applied to a pipeline context during construction via NewContext.
type ContextBuilderOption func(*pipelineContext)

// WithMeshCollector sets the mesh collector drawn by mesh pass commands.
//
// Parameters:
//   - m: the mesh collector
//
// Returns:
//   - ContextBuilderOption: a function that applies the mesh collector option to a context
func WithMeshCollector(m MeshCollector) ContextBuilderOption {
	return func(c *pipelineContext) {
		c.meshes = m
	}
}

// WithUIRenderer sets the UI renderer used by UI commands.
//
// Parameters:
//   - u: the UI renderer
//
// Returns:
//   - ContextBuilderOption: a function that applies the UI renderer option to a context
func WithUIRenderer(u UIRenderer) ContextBuilderOption {
	return func(c *pipelineContext) {
		c.ui = u
	}
}

// WithViewport sets the initial viewport.
//
// Parameters:
//   - v: the viewport
//
// Returns:
//   - ContextBuilderOption: a function that applies the viewport option to a context
func WithViewport(v common.Viewport) ContextBuilderOption {
	return func(c *pipelineContext) {
		c.viewport = v
	}
}

// WithOutputFBO sets the framebuffer the pipeline's final image is rendered into.
//
// Parameters:
//   - fb: the output framebuffer
//
// Returns:
//   - ContextBuilderOption: a function that applies the output framebuffer option to a context
func WithOutputFBO(fb renderer.Framebuffer) ContextBuilderOption {
	return func(c *pipelineContext) {
		c.outputFBO = fb
	}
}

// WithFBO pre-registers a named framebuffer.
//
// Parameters:
//   - fb: the framebuffer to register under its name
//
// Returns:
//   - ContextBuilderOption: a function that applies the framebuffer option to a context
func WithFBO(fb renderer.Framebuffer) ContextBuilderOption {
	return func(c *pipelineContext) {
		if fb != nil && fb.Name() != "" {
			c.fbos[fb.Name()] = fb
		}
	}
}

// WithTexture pre-registers a named texture.
//
// Parameters:
//   - tex: the texture to register under its name
//
// Returns:
//   - ContextBuilderOption: a function that applies the texture option to a context
func WithTexture(tex renderer.Texture) ContextBuilderOption {
	return func(c *pipelineContext) {
		if tex != nil && tex.Name() != "" {
			c.textures[tex.Name()] = tex
		}
	}
}
