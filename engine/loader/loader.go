package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

var (
	// ErrMalformedPipeline is returned when a command node does not have the expected shape.
	ErrMalformedPipeline = errors.New("malformed pipeline")
	// ErrUnknownCondition is returned when an "if" node names a condition that was not registered.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrUnknownSwitch is returned when a "switch" node names an evaluator that was not registered.
	ErrUnknownSwitch = errors.New("unknown switch")
	// ErrUnknownShader is returned when a "dispatch" node names a shader that was not registered.
	ErrUnknownShader = errors.New("unknown shader")
	// ErrUnknownAction is returned when a "run" node names an action that was not registered.
	ErrUnknownAction = errors.New("unknown action")
)

// Node keys with structural meaning. Every other key of a node is passed to the command as a parameter.
const (
	keyType      = "type"
	keyBody      = "body"
	keyCondition = "condition"
	keyThen      = "then"
	keyElse      = "else"
	keyKey       = "key"
	keyCases     = "cases"
	keyDefault   = "default"
	keyShader    = "shader"
	keyAction    = "action"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	pipelineCache map[string]*command.Container

	conditions map[string]func(ctx pipeline.Context) bool
	switches   map[string]func(ctx pipeline.Context) int
	shaders    map[string]shader.Shader
	actions    map[string]func(ctx pipeline.Context)

	backends map[Format]loaderBackend
}

// Loader defines the public-facing interface for loading and caching declarative pipeline descriptions.
// It abstracts the file format (TOML, YAML) behind a backend selected by file extension and builds each
// description into a command.Container through the command registry.
//
// A description is a list of command nodes. Every node has a "type" naming a registered command; its
// other keys are the command's parameters. Push commands nest their scope under "body". Two node types
// are structural: "if" (condition, then, else) and "switch" (key, cases, default). Conditions, switch
// evaluators, shaders and run actions are referenced by name and resolved against what was registered
// through the builder options.
type Loader interface {
	// Load reads a pipeline file and caches the result by path.
	// If the pipeline is already cached, the cached container is returned.
	//
	// Parameters:
	//   - path: the file path to the pipeline description
	//
	// Returns:
	//   - *command.Container: the built pipeline
	//   - error: error if reading, decoding or building fails
	Load(path string) (*command.Container, error)

	// LoadReader reads a pipeline description from a stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the pipeline
	//   - r: the reader providing the description
	//   - format: the encoding of the description
	//
	// Returns:
	//   - *command.Container: the built pipeline
	//   - error: error if decoding or building fails
	LoadReader(name string, r io.Reader, format Format) (*command.Container, error)

	// Get retrieves a cached pipeline by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *command.Container: the cached pipeline or nil
	Get(name string) *command.Container

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]*command.Container: all cached pipelines keyed by name
	Pipelines() map[string]*command.Container

	// Evict removes a pipeline from the cache so the next Load reads it again.
	//
	// Parameters:
	//   - name: the cache key to remove
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the TOML and YAML backends and the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		pipelineCache: make(map[string]*command.Container),
		conditions:    make(map[string]func(ctx pipeline.Context) bool),
		switches:      make(map[string]func(ctx pipeline.Context) int),
		shaders:       make(map[string]shader.Shader),
		actions:       make(map[string]func(ctx pipeline.Context)),
		backends: map[Format]loaderBackend{
			FormatTOML: newTOMLLoaderBackend(),
			FormatYAML: newYAMLLoaderBackend(),
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*command.Container, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	defer f.Close()

	return l.LoadReader(path, f, format)
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) (*command.Container, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	nodes, err := backend.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s pipeline %q: %w", format, name, err)
	}

	b := command.NewBuilder()
	if err := l.buildList(b, nodes, "commands"); err != nil {
		return nil, fmt.Errorf("failed to build pipeline %q: %w", name, err)
	}
	c := b.Build()

	l.mu.Lock()
	l.pipelineCache[name] = c
	l.mu.Unlock()

	common.Logger().Info("pipeline loaded", "name", name, "format", format.String(), "commands", c.Len())
	return c, nil
}

func (l *loader) Get(name string) *command.Container {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pipelineCache[name]
}

func (l *loader) Pipelines() map[string]*command.Container {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*command.Container, len(l.pipelineCache))
	for k, v := range l.pipelineCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pipelineCache, name)
}

// buildList appends every node of a list to b in order.
//
// Parameters:
//   - b: the builder receiving the commands
//   - nodes: the command nodes
//   - where: the path of the list within the description, used in errors
//
// Returns:
//   - error: the first node error
func (l *loader) buildList(b *command.Builder, nodes []map[string]any, where string) error {
	for i, node := range nodes {
		if err := l.buildNode(b, node, fmt.Sprintf("%s[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) buildNode(b *command.Builder, node map[string]any, where string) error {
	typ, _ := node[keyType].(string)
	if typ == "" {
		return fmt.Errorf("%s: %w: missing %q", where, ErrMalformedPipeline, keyType)
	}
	where = fmt.Sprintf("%s(%s)", where, typ)

	switch typ {
	case "if":
		return l.buildIf(b, node, where)
	case "switch":
		return l.buildSwitch(b, node, where)
	}

	params, err := l.resolveParams(node, where)
	if err != nil {
		return err
	}

	if _, scoped := node[keyBody]; !scoped {
		if _, err := b.AddNamed(typ, params); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		return nil
	}

	body, err := nodeList(node, keyBody, where)
	if err != nil {
		return err
	}
	var bodyErr error
	if _, err := b.AddUsingNamed(typ, params, func(b *command.Builder) {
		bodyErr = l.buildList(b, body, where+"."+keyBody)
	}); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	return bodyErr
}

// resolveParams copies the parameter keys of a node and replaces named shader and action references
// with the registered values.
func (l *loader) resolveParams(node map[string]any, where string) (map[string]any, error) {
	params := make(map[string]any, len(node))
	for k, v := range node {
		if k == keyType || k == keyBody {
			continue
		}
		params[k] = v
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if name, ok := params[keyShader].(string); ok {
		s, ok := l.shaders[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", where, ErrUnknownShader, name)
		}
		params[keyShader] = s
	}
	if name, ok := params[keyAction].(string); ok {
		action, ok := l.actions[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", where, ErrUnknownAction, name)
		}
		params[keyAction] = action
	}
	return params, nil
}

func (l *loader) buildIf(b *command.Builder, node map[string]any, where string) error {
	name, _ := node[keyCondition].(string)
	l.mu.RLock()
	condition, ok := l.conditions[name]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w %q", where, ErrUnknownCondition, name)
	}

	then, err := nodeList(node, keyThen, where)
	if err != nil {
		return err
	}
	otherwise, err := nodeList(node, keyElse, where)
	if err != nil {
		return err
	}

	var thenErr, elseErr error
	b.If(condition, func(b *command.Builder) {
		thenErr = l.buildList(b, then, where+"."+keyThen)
	}, func(b *command.Builder) {
		elseErr = l.buildList(b, otherwise, where+"."+keyElse)
	})
	return errors.Join(thenErr, elseErr)
}

func (l *loader) buildSwitch(b *command.Builder, node map[string]any, where string) error {
	name, _ := node[keyKey].(string)
	l.mu.RLock()
	evaluator, ok := l.switches[name]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w %q", where, ErrUnknownSwitch, name)
	}

	rawCases, _ := node[keyCases].(map[string]any)
	if _, present := node[keyCases]; present && rawCases == nil {
		return fmt.Errorf("%s: %w: %q must be a table", where, ErrMalformedPipeline, keyCases)
	}

	keys := make([]string, 0, len(rawCases))
	for k := range rawCases {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []error
	cases := make(map[int]func(b *command.Builder), len(rawCases))
	for _, k := range keys {
		key, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%s: %w: case key %q is not an integer", where, ErrMalformedPipeline, k)
		}
		body, err := nodeList(rawCases, k, where+"."+keyCases)
		if err != nil {
			return err
		}
		caseWhere := fmt.Sprintf("%s.%s[%d]", where, keyCases, key)
		cases[key] = func(b *command.Builder) {
			errs = append(errs, l.buildList(b, body, caseWhere))
		}
	}

	var fallback func(b *command.Builder)
	if _, present := node[keyDefault]; present {
		body, err := nodeList(node, keyDefault, where)
		if err != nil {
			return err
		}
		fallback = func(b *command.Builder) {
			errs = append(errs, l.buildList(b, body, where+"."+keyDefault))
		}
	}

	b.Switch(evaluator, cases, fallback)
	return errors.Join(errs...)
}

// nodeList reads the command list stored under key. A missing key is an empty list.
func nodeList(node map[string]any, key, where string) ([]map[string]any, error) {
	raw, ok := node[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q must be a list of commands", where, ErrMalformedPipeline, key)
	}
	nodes := make([]map[string]any, len(list))
	for i, item := range list {
		n, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s[%d]: %w: want a table, got %T", where, key, i, ErrMalformedPipeline, item)
		}
		nodes[i] = n
	}
	return nodes, nil
}
