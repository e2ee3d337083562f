package command

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

var (
	// ErrPushCommand is returned when a push command is added without a scope.
	ErrPushCommand = errors.New("push command requires a scope")
	// ErrNotPushCommand is returned when a scope is opened with a command that has no paired pop.
	ErrNotPushCommand = errors.New("not a push command")
)

// Builder accumulates commands in order and produces an immutable Container. Nested scopes receive the
// same *Builder, so everything a scope body adds lands between the push command and its pop.
// A Builder is not safe for concurrent use.
type Builder struct {
	commands []Command
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build runs body against a fresh Builder and returns the resulting Container.
//
// Parameters:
//   - body: adds commands to the builder
//
// Returns:
//   - *Container: the built container
func Build(body func(b *Builder)) *Container {
	b := NewBuilder()
	if body != nil {
		body(b)
	}
	return b.Build()
}

// Build returns a Container holding a snapshot of the commands added so far.
func (b *Builder) Build() *Container {
	return newContainer(b.commands)
}

// Len returns the number of commands added so far.
func (b *Builder) Len() int {
	return len(b.commands)
}

// Append adds already constructed commands in order. It panics on a nil command or on a push command,
// which must be added through Using so its pop is appended.
func (b *Builder) Append(cmds ...Command) *Builder {
	for _, cmd := range cmds {
		if cmd == nil {
			panic("command: Append of nil command")
		}
		if _, ok := cmd.(PushCommand); ok {
			panic(fmt.Sprintf("command: Append of %T: %v", cmd, ErrPushCommand))
		}
		b.commands = append(b.commands, cmd)
	}
	return b
}

// Using appends push, runs body against the same Builder and then appends push's pop command.
//
// Parameters:
//   - push: the push command opening the scope
//   - body: adds the scoped commands, may be nil
//
// Returns:
//   - PushCommand: the push command
func (b *Builder) Using(push PushCommand, body func(b *Builder)) PushCommand {
	if push == nil {
		panic("command: Using of nil push command")
	}
	pop := push.Pop()
	b.commands = append(b.commands, push)
	if body != nil {
		body(b)
	}
	b.commands = append(b.commands, pop)
	return push
}

// AddNamed creates the registered command name, configures it from params and appends it.
//
// Parameters:
//   - name: the registered command name
//   - params: the parameter table, may be nil
//
// Returns:
//   - Command: the appended command
//   - error: ErrUnknownCommand, ErrInvalidParam or ErrPushCommand
func (b *Builder) AddNamed(name string, params map[string]any) (Command, error) {
	cmd, err := NewWithParams(name, params)
	if err != nil {
		return nil, err
	}
	if _, ok := cmd.(PushCommand); ok {
		return nil, fmt.Errorf("command %q: %w", name, ErrPushCommand)
	}
	b.commands = append(b.commands, cmd)
	return cmd, nil
}

// AddUsingNamed creates the registered push command name, configures it from params and opens a scope
// with it.
//
// Parameters:
//   - name: the registered command name
//   - params: the parameter table, may be nil
//   - body: adds the scoped commands, may be nil
//
// Returns:
//   - PushCommand: the push command
//   - error: ErrUnknownCommand, ErrInvalidParam or ErrNotPushCommand
func (b *Builder) AddUsingNamed(name string, params map[string]any, body func(b *Builder)) (PushCommand, error) {
	cmd, err := NewWithParams(name, params)
	if err != nil {
		return nil, err
	}
	push, ok := cmd.(PushCommand)
	if !ok {
		return nil, fmt.Errorf("command %q: %w", name, ErrNotPushCommand)
	}
	return b.Using(push, body), nil
}

// If appends a conditional whose branches are built by then and otherwise against fresh Builders.
// Either branch body may be nil.
//
// Parameters:
//   - condition: evaluated every frame, must not be nil
//   - then: builds the branch run when condition is true
//   - otherwise: builds the branch run when condition is false
//
// Returns:
//   - *IfElse: the appended command
func (b *Builder) If(condition func(ctx pipeline.Context) bool, then, otherwise func(b *Builder)) *IfElse {
	if condition == nil {
		panic("command: If requires a condition")
	}
	cmd := &IfElse{Condition: condition, True: Build(then), False: Build(otherwise)}
	b.commands = append(b.commands, cmd)
	return cmd
}

// Switch appends a multi-way branch. Each case body and the default body are built against fresh Builders.
//
// Parameters:
//   - evaluator: returns the selection key every frame, must not be nil
//   - cases: the branch bodies by key
//   - fallback: builds the branch run for keys without a case, may be nil
//
// Returns:
//   - *Switch: the appended command
func (b *Builder) Switch(evaluator func(ctx pipeline.Context) int, cases map[int]func(b *Builder), fallback func(b *Builder)) *Switch {
	if evaluator == nil {
		panic("command: Switch requires an evaluator")
	}
	cmd := &Switch{Evaluator: evaluator, Cases: make(map[int]*Container, len(cases))}
	for key, body := range cases {
		cmd.Cases[key] = Build(body)
	}
	if fallback != nil {
		cmd.Default = Build(fallback)
	}
	b.commands = append(b.commands, cmd)
	return cmd
}

// Add creates a command of type T, initializes it, applies configure and appends it. It panics if T is a
// push command; use AddUsing for those.
//
// Parameters:
//   - b: the builder to append to
//   - configure: functions that configure the new command
//
// Returns:
//   - PT: the appended command
func Add[T any, PT interface {
	*T
	Command
}](b *Builder, configure ...func(PT)) PT {
	cmd := PT(new(T))
	if _, ok := any(cmd).(PushCommand); ok {
		panic(fmt.Sprintf("command: Add of %T: %v", cmd, ErrPushCommand))
	}
	initialize(cmd)
	for _, fn := range configure {
		if fn != nil {
			fn(cmd)
		}
	}
	b.commands = append(b.commands, cmd)
	return cmd
}

// AddUsing creates a push command of type T, initializes it, applies configure and opens a scope with it.
//
// Parameters:
//   - b: the builder to append to
//   - configure: configures the new command, may be nil
//   - body: adds the scoped commands, may be nil
//
// Returns:
//   - PT: the push command
func AddUsing[T any, PT interface {
	*T
	PushCommand
}](b *Builder, configure func(PT), body func(b *Builder)) PT {
	cmd := PT(new(T))
	initialize(cmd)
	if configure != nil {
		configure(cmd)
	}
	b.Using(cmd, body)
	return cmd
}
