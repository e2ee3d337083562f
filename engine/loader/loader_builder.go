package loader

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithCondition is an option builder that registers a named condition for "if" nodes.
//
// Parameters:
//   - name: the name pipeline files use
//   - condition: evaluated every frame
//
// Returns:
//   - LoaderBuilderOption: a function that applies the condition option to a loader
func WithCondition(name string, condition func(ctx pipeline.Context) bool) LoaderBuilderOption {
	return func(l *loader) {
		l.conditions[name] = condition
	}
}

// WithSwitch is an option builder that registers a named evaluator for "switch" nodes.
//
// Parameters:
//   - name: the name pipeline files use
//   - evaluator: returns the case key every frame
//
// Returns:
//   - LoaderBuilderOption: a function that applies the switch option to a loader
func WithSwitch(name string, evaluator func(ctx pipeline.Context) int) LoaderBuilderOption {
	return func(l *loader) {
		l.switches[name] = evaluator
	}
}

// WithShader is an option builder that registers a compute shader under its key for "dispatch" nodes.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - LoaderBuilderOption: a function that applies the shader option to a loader
func WithShader(s shader.Shader) LoaderBuilderOption {
	return func(l *loader) {
		l.shaders[s.Key()] = s
	}
}

// WithAction is an option builder that registers a named action for "run" nodes.
//
// Parameters:
//   - name: the name pipeline files use
//   - action: called every frame the node executes
//
// Returns:
//   - LoaderBuilderOption: a function that applies the action option to a loader
func WithAction(name string, action func(ctx pipeline.Context)) LoaderBuilderOption {
	return func(l *loader) {
		l.actions[name] = action
	}
}

// WithPipeline is an option builder that pre-populates the pipeline cache.
//
// Parameters:
//   - key: the cache key for the pipeline
//   - c: the pipeline container
//
// Returns:
//   - LoaderBuilderOption: a function that applies the pipeline option to a loader
func WithPipeline(key string, c *command.Container) LoaderBuilderOption {
	return func(l *loader) {
		l.pipelineCache[key] = c
	}
}
