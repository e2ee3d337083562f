// Package command implements the render pipeline command system: an ordered, replayable list of render
// operations built once at setup time and replayed every frame against a pipeline.Context.
//
// Containers are authored through a Builder. State changing commands come in push/pop pairs; the
// Builder appends a push command, runs the body of the scope against the same Builder and then appends
// the paired pop, so every authored container is balanced by construction.
//
// Every frame the owner calls Container.Execute. Commands that take part in the double buffered
// visibility hand-off are additionally driven by Container.CollectVisible (logic side) and
// Container.SwapBuffers (render side), always in the container's original order.
package command

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

// Command is a single unit of render behaviour. A command is constructed once at authoring time and
// executed every frame until the pipeline is torn down.
type Command interface {
	// Execute performs the command's side effects against the context's rendering state.
	//
	// Parameters:
	//   - ctx: the pipeline context of the current replay
	Execute(ctx pipeline.Context)

	// CollectVisible runs the logic-side half of the visibility hand-off. No-op for most commands.
	//
	// Parameters:
	//   - ctx: the pipeline context
	CollectVisible(ctx pipeline.Context)

	// SwapBuffers publishes what CollectVisible gathered to the render side. No-op for most commands.
	//
	// Parameters:
	//   - ctx: the pipeline context
	SwapBuffers(ctx pipeline.Context)

	// ExecuteInShadowPass reports whether the command participates in shadow pass replays.
	//
	// Returns:
	//   - bool: false if containers must skip the command while ctx.ShadowPass() is true
	ExecuteInShadowPass() bool

	// NeedsCollectVisible reports whether the command takes part in CollectVisible and SwapBuffers.
	// The answer must not change after the command is added to a container.
	//
	// Returns:
	//   - bool: true if containers must call CollectVisible and SwapBuffers on the command
	NeedsCollectVisible() bool
}

// PushCommand is the entering half of a push/pop pair. Its paired pop command is created when the push
// command is constructed and is appended by the Builder when the push command's scope ends.
type PushCommand interface {
	Command

	// Pop returns the paired pop command. It returns the same instance on every call.
	//
	// Returns:
	//   - Command: the pop command restoring what Execute changed
	Pop() Command
}

// Initializer is implemented by commands that need construction-time setup, such as push commands
// creating their pop command or commands applying non-zero defaults. The Builder and the registry call
// Init once, before any configuration is applied.
type Initializer interface {
	Init()
}

// ParamDecoder is implemented by commands that can be configured from a declarative parameter table.
type ParamDecoder interface {
	// DecodeParams configures the command from p.
	//
	// Parameters:
	//   - p: the parameters of the command
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidParam if a parameter is missing or malformed
	DecodeParams(p *Params) error
}

// Base provides the default behaviour of a Command. Embed it and implement Execute.
// By default a command takes part in shadow passes and not in the visibility hand-off.
type Base struct {
	// SkipShadowPass opts the command out of shadow pass replays.
	SkipShadowPass bool
}

func (b *Base) CollectVisible(pipeline.Context) {}

func (b *Base) SwapBuffers(pipeline.Context) {}

func (b *Base) ExecuteInShadowPass() bool {
	return !b.SkipShadowPass
}

func (b *Base) NeedsCollectVisible() bool {
	return false
}

// ExecuteIfShould executes cmd only when should is true. Skipping is a property of this one call:
// the next call decides again from its own argument.
//
// Parameters:
//   - cmd: the command to execute
//   - ctx: the pipeline context
//   - should: false to skip the command for this call
//
// Returns:
//   - bool: true if cmd.Execute ran
func ExecuteIfShould(cmd Command, ctx pipeline.Context, should bool) bool {
	if !should {
		return false
	}
	cmd.Execute(ctx)
	return true
}

// initialize runs the Initializer hook of cmd if it has one.
func initialize(cmd Command) {
	if i, ok := cmd.(Initializer); ok {
		i.Init()
	}
}
