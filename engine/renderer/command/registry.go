package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCommand is returned when a command name is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Factory creates a new, unconfigured command.
type Factory func() Command

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register("clear", func() Command { return &Clear{} })
	Register("depth_test", func() Command { return &DepthTest{} })
	Register("depth_write", func() Command { return &DepthWrite{} })
	Register("depth_func", func() Command { return &DepthFunc{} })
	Register("bind_output_fbo", func() Command { return &BindOutputFBO{} })
	Register("bind_fbo", func() Command { return &BindFBOByName{} })
	Register("push_depth_state", func() Command { return &PushDepthState{} })
	Register("cache_fbo", func() Command { return &CacheOrCreateFBO{} })
	Register("cache_texture", func() Command { return &CacheOrCreateTexture{} })
	Register("dispatch", func() Command { return &Dispatch{} })
	Register("memory_barrier", func() Command { return &MemoryBarrier{} })
	Register("render_meshes", func() Command { return &RenderMeshesPass{} })
	Register("render_ui", func() Command { return &RenderUI{} })
	Register("run", func() Command { return &Run{} })
}

// Register adds a named command factory to the registry. It panics if the name is empty, the factory is
// nil or the name is already taken.
//
// Parameters:
//   - name: the name pipeline files use for the command
//   - factory: creates a new instance of the command
func Register(name string, factory Factory) {
	if name == "" || factory == nil {
		panic("command: Register requires a name and a factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("command: %q already registered", name))
	}
	registry[name] = factory
}

// Unregister removes a named command factory. Unknown names are ignored.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// IsRegistered reports whether a factory is registered under name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Names returns the registered command names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates and initializes the command registered under name.
//
// Parameters:
//   - name: the registered command name
//
// Returns:
//   - Command: the new command
//   - error: an error wrapping ErrUnknownCommand if no factory is registered under name
func New(name string) (Command, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
	cmd := factory()
	if cmd == nil {
		return nil, fmt.Errorf("command: factory %q returned nil", name)
	}
	initialize(cmd)
	return cmd, nil
}

// NewWithParams creates the command registered under name and configures it from params.
//
// Parameters:
//   - name: the registered command name
//   - params: the parameter table, may be nil
//
// Returns:
//   - Command: the configured command
//   - error: an error wrapping ErrUnknownCommand or ErrInvalidParam
func NewWithParams(name string, params map[string]any) (Command, error) {
	cmd, err := New(name)
	if err != nil {
		return nil, err
	}
	if decoder, ok := cmd.(ParamDecoder); ok {
		if err := decoder.DecodeParams(NewParams(params)); err != nil {
			return nil, fmt.Errorf("command %q: %w", name, err)
		}
	} else if len(params) > 0 {
		return nil, fmt.Errorf("command %q: %w: takes no parameters", name, ErrInvalidParam)
	}
	return cmd, nil
}
