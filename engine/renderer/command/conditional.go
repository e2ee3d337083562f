package command

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

var (
	_ Command = &IfElse{}
	_ Command = &Switch{}
)

// IfElse evaluates Condition on every Execute and runs exactly one of its branches. A nil branch is empty.
//
// CollectVisible and SwapBuffers are forwarded to both branches, since the branch taken by the next
// Execute is not known when visibility is collected.
type IfElse struct {
	Base
	Condition func(ctx pipeline.Context) bool
	True      *Container
	False     *Container
}

func (c *IfElse) Execute(ctx pipeline.Context) {
	if c.Condition == nil {
		return
	}
	if c.Condition(ctx) {
		c.True.Execute(ctx)
		return
	}
	c.False.Execute(ctx)
}

func (c *IfElse) CollectVisible(ctx pipeline.Context) {
	c.True.CollectVisible(ctx)
	c.False.CollectVisible(ctx)
}

func (c *IfElse) SwapBuffers(ctx pipeline.Context) {
	c.True.SwapBuffers(ctx)
	c.False.SwapBuffers(ctx)
}

func (c *IfElse) NeedsCollectVisible() bool {
	return c.True.NeedsCollectVisible() || c.False.NeedsCollectVisible()
}

// Switch evaluates Evaluator on every Execute and runs the case registered under the result, or Default
// when there is none. A missing case without a Default runs nothing.
//
// CollectVisible and SwapBuffers are forwarded to every case and to Default in ascending key order.
type Switch struct {
	Base
	Evaluator func(ctx pipeline.Context) int
	Cases     map[int]*Container
	Default   *Container
}

func (c *Switch) Execute(ctx pipeline.Context) {
	if c.Evaluator == nil {
		return
	}
	if branch, ok := c.Cases[c.Evaluator(ctx)]; ok {
		branch.Execute(ctx)
		return
	}
	c.Default.Execute(ctx)
}

func (c *Switch) CollectVisible(ctx pipeline.Context) {
	for _, branch := range c.branches() {
		branch.CollectVisible(ctx)
	}
}

func (c *Switch) SwapBuffers(ctx pipeline.Context) {
	for _, branch := range c.branches() {
		branch.SwapBuffers(ctx)
	}
}

func (c *Switch) NeedsCollectVisible() bool {
	for _, branch := range c.branches() {
		if branch.NeedsCollectVisible() {
			return true
		}
	}
	return false
}

func (c *Switch) branches() []*Container {
	keys := make([]int, 0, len(c.Cases))
	for key := range c.Cases {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	out := make([]*Container, 0, len(keys)+1)
	for _, key := range keys {
		out = append(out, c.Cases[key])
	}
	return append(out, c.Default)
}
