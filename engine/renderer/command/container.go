package command

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

// Container is an ordered, immutable sequence of commands produced by Builder.Build.
// It caches the ordered subset of commands that take part in the visibility hand-off.
// A nil *Container is a valid empty container.
type Container struct {
	commands []Command
	visible  []Command
}

func newContainer(commands []Command) *Container {
	c := &Container{commands: slices.Clone(commands)}
	for _, cmd := range c.commands {
		if cmd.NeedsCollectVisible() {
			c.visible = append(c.visible, cmd)
		}
	}
	return c
}

// Execute replays every command in order. Commands listed in skip are not executed by this call only.
// While ctx.ShadowPass() is true, commands that opt out of shadow passes are skipped as well.
// Skipping applies to this container's own commands, not to commands nested in conditionals.
//
// Parameters:
//   - ctx: the pipeline context of the replay
//   - skip: commands of this container to skip for this call
//
// Returns:
//   - int: the number of commands whose Execute ran
func (c *Container) Execute(ctx pipeline.Context, skip ...Command) int {
	if c == nil {
		return 0
	}
	shadow := ctx.ShadowPass()
	executed := 0
	for _, cmd := range c.commands {
		if shadow && !cmd.ExecuteInShadowPass() {
			continue
		}
		if ExecuteIfShould(cmd, ctx, !slices.Contains(skip, cmd)) {
			executed++
		}
	}
	return executed
}

// CollectVisible calls CollectVisible on the cached subset of commands, in container order.
//
// Parameters:
//   - ctx: the pipeline context
func (c *Container) CollectVisible(ctx pipeline.Context) {
	if c == nil {
		return
	}
	for _, cmd := range c.visible {
		cmd.CollectVisible(ctx)
	}
}

// SwapBuffers calls SwapBuffers on the cached subset of commands, in container order.
//
// Parameters:
//   - ctx: the pipeline context
func (c *Container) SwapBuffers(ctx pipeline.Context) {
	if c == nil {
		return
	}
	for _, cmd := range c.visible {
		cmd.SwapBuffers(ctx)
	}
}

// Commands returns a copy of the container's commands in order.
func (c *Container) Commands() []Command {
	if c == nil {
		return nil
	}
	return slices.Clone(c.commands)
}

// VisibleCommands returns a copy of the cached subset of commands that need the visibility hand-off.
func (c *Container) VisibleCommands() []Command {
	if c == nil {
		return nil
	}
	return slices.Clone(c.visible)
}

// Len returns the number of commands.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.commands)
}

// NeedsCollectVisible reports whether any command of the container takes part in the visibility hand-off.
func (c *Container) NeedsCollectVisible() bool {
	return c != nil && len(c.visible) > 0
}
