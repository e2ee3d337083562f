package command

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

var (
	_ PushCommand = &BindOutputFBO{}
	_ PushCommand = &BindFBOByName{}
	_ PushCommand = &PushDepthState{}
	_ Command     = &UnbindFBO{}
	_ Command     = &PopDepthState{}
)

// UnbindFBO restores the framebuffer binding saved by its push command. It is a no-op unless the push
// command bound a framebuffer during the same replay.
type UnbindFBO struct {
	Base
	previous renderer.Framebuffer
	armed    bool
}

func (c *UnbindFBO) Execute(ctx pipeline.Context) {
	if !c.armed {
		return
	}
	previous := c.previous
	c.previous, c.armed = nil, false
	if r := ctx.Renderer(); r != nil {
		r.BindFramebuffer(previous)
	}
}

// bind saves the current binding into pop and binds fb. A nil fb leaves pop disarmed.
func (c *UnbindFBO) bind(ctx pipeline.Context, fb renderer.Framebuffer) {
	c.previous, c.armed = nil, false
	r := ctx.Renderer()
	if fb == nil || r == nil {
		return
	}
	c.previous = r.BoundFramebuffer()
	c.armed = true
	r.BindFramebuffer(fb)
}

// BindOutputFBO binds the context's output framebuffer for the duration of its scope. Without an output
// framebuffer both halves are no-ops.
type BindOutputFBO struct {
	Base
	pop *UnbindFBO
}

// NewBindOutputFBO creates an initialized BindOutputFBO.
func NewBindOutputFBO() *BindOutputFBO {
	c := &BindOutputFBO{}
	c.Init()
	return c
}

func (c *BindOutputFBO) Init() {
	if c.pop == nil {
		c.pop = &UnbindFBO{}
	}
}

func (c *BindOutputFBO) Pop() Command {
	c.Init()
	return c.pop
}

func (c *BindOutputFBO) Execute(ctx pipeline.Context) {
	c.Init()
	c.pop.bind(ctx, ctx.OutputFBO())
}

// BindFBOByName binds a framebuffer registered in the context for the duration of its scope. If no
// framebuffer is registered under Name both halves are no-ops.
type BindFBOByName struct {
	Base
	Name string
	pop  *UnbindFBO
}

// NewBindFBOByName creates an initialized BindFBOByName.
func NewBindFBOByName(name string) *BindFBOByName {
	c := &BindFBOByName{Name: name}
	c.Init()
	return c
}

func (c *BindFBOByName) Init() {
	if c.pop == nil {
		c.pop = &UnbindFBO{}
	}
}

func (c *BindFBOByName) Pop() Command {
	c.Init()
	return c.pop
}

func (c *BindFBOByName) Execute(ctx pipeline.Context) {
	c.Init()
	fb, ok := ctx.TryGetFBO(c.Name)
	if !ok {
		common.Logger().Debug("bind framebuffer skipped", "name", c.Name)
	}
	c.pop.bind(ctx, fb)
}

func (c *BindFBOByName) DecodeParams(p *Params) error {
	p.Require("name")
	c.Name = p.String("name", "")
	return p.Err()
}

// PopDepthState restores the depth state captured by its PushDepthState.
type PopDepthState struct {
	Base
	saved renderer.DepthState
	armed bool
}

func (c *PopDepthState) Execute(ctx pipeline.Context) {
	if !c.armed {
		return
	}
	c.armed = false
	if r := ctx.Renderer(); r != nil {
		r.SetDepthState(c.saved)
	}
}

// PushDepthState applies State for the duration of its scope and restores the previous depth state
// when the scope ends.
type PushDepthState struct {
	Base
	State renderer.DepthState
	pop   *PopDepthState
}

// NewPushDepthState creates an initialized PushDepthState.
func NewPushDepthState(state renderer.DepthState) *PushDepthState {
	c := &PushDepthState{State: state}
	c.Init()
	return c
}

func (c *PushDepthState) Init() {
	if c.pop == nil {
		c.pop = &PopDepthState{}
	}
}

func (c *PushDepthState) Pop() Command {
	c.Init()
	return c.pop
}

func (c *PushDepthState) Execute(ctx pipeline.Context) {
	c.Init()
	c.pop.armed = false
	r := ctx.Renderer()
	if r == nil {
		return
	}
	c.pop.saved = r.DepthState()
	c.pop.armed = true
	r.SetDepthState(c.State)
}

func (c *PushDepthState) DecodeParams(p *Params) error {
	c.State = renderer.DepthState{
		Test:  p.Bool("test", renderer.DefaultDepthState.Test),
		Write: p.Bool("write", renderer.DefaultDepthState.Write),
		Func:  p.CompareFunction("func", renderer.DefaultDepthState.Func),
	}
	return p.Err()
}
