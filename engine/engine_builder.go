package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine presents to. Its resize events update the renderer surface
// and the pipeline viewport.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithPipeline sets the main render pipeline.
//
// Parameters:
//   - c: the pipeline container
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipeline(c *command.Container) EngineBuilderOption {
	return func(e *engine) {
		e.root = c
	}
}

// WithShadowPipeline sets the shadow pipeline, replayed before the main pipeline every frame.
//
// Parameters:
//   - c: the shadow pipeline container
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShadowPipeline(c *command.Container) EngineBuilderOption {
	return func(e *engine) {
		e.shadow = c
	}
}

// WithContextOptions configures the pipeline context the engine creates, e.g. its mesh collector,
// UI renderer or output framebuffer.
//
// Parameters:
//   - options: pipeline context options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithContextOptions(options ...pipeline.ContextBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.contextOptions = append(e.contextOptions, options...)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
