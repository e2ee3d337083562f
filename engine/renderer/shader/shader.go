package shader

import (
	"fmt"
	"os"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// shader is the implementation of the Shader interface.
// It holds the compute source together with the metadata parsed from it.
type shader struct {
	mu *sync.RWMutex

	key           string
	source        string
	version       uint64
	entryPoint    string
	workGroupSize [3]uint32
	imageBindings map[string]ImageBinding
	module        *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and parsed WGSL compute shader. It exposes the shader's
// unique key, source code, entry point, workgroup size and storage texture bindings needed to
// build a compute program and bind image units to it.
//
// The source can be replaced at runtime with SetSource. Every replacement bumps Version, which is the
// dependency edge a backend compares against the version its compiled program was built from.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching compiled programs.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// SetSource replaces the WGSL source, re-parses its metadata and increments Version.
	// Setting a source identical to the current one is a no-op and does not change Version.
	//
	// Parameters:
	//   - source: the new WGSL source code
	SetSource(source string)

	// Version returns a counter that increases every time the source changes.
	// A freshly constructed shader with a source has version 1.
	//
	// Returns:
	//   - uint64: the current source version
	Version() uint64

	// EntryPoint returns the name of the @compute entry point function.
	//
	// Returns:
	//   - string: the entry point name, or an empty string if the source declares none
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size dimensions declared by the compute entry point.
	// Omitted dimensions default to 1.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// ImageBinding looks up a storage texture declaration by its WGSL variable name.
	//
	// Parameters:
	//   - varName: the variable name used in the WGSL declaration
	//
	// Returns:
	//   - ImageBinding: the parsed declaration
	//   - bool: true if the variable was declared as a storage texture
	ImageBinding(varName string) (ImageBinding, bool)

	// ImageBindings returns every storage texture declaration keyed by variable name.
	//
	// Returns:
	//   - map[string]ImageBinding: a copy of the parsed declarations
	ImageBindings() map[string]ImageBinding

	// Module returns the wgpu.ShaderModuleDescriptor for the current source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Snapshot returns the version, entry point and module descriptor read together, so a program built
	// from it is tagged with the version of the source it was compiled from.
	//
	// Returns:
	//   - Snapshot: the consistent view of the current source
	Snapshot() Snapshot
}

// Snapshot is the compile-relevant state of a shader at one source version.
type Snapshot struct {
	Version    uint64
	EntryPoint string
	Module     *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader creates a new compute Shader with all specified options applied.
// A shader without source is valid and reports version 0 until SetSource is called.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - options: a variadic list of ShaderBuilderOption functions to configure the Shader
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
func NewShader(key string, options ...ShaderBuilderOption) Shader {
	s := &shader{
		mu:            &sync.RWMutex{},
		key:           key,
		workGroupSize: [3]uint32{1, 1, 1},
		imageBindings: make(map[string]ImageBinding),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// LoadShader reads WGSL source from a file and creates a Shader keyed by key.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the loaded shader
//   - error: an error if the file cannot be read
func LoadShader(key, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", path, err)
	}
	return NewShader(key, WithSource(string(data))), nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *shader) SetSource(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if source == s.source && s.version > 0 {
		return
	}
	s.parseSource(source)
}

func (s *shader) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *shader) EntryPoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workGroupSize
}

func (s *shader) ImageBinding(varName string) (ImageBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.imageBindings[varName]
	return b, ok
}

func (s *shader) ImageBindings() map[string]ImageBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ImageBinding, len(s.imageBindings))
	for k, v := range s.imageBindings {
		out[k] = v
	}
	return out
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.module
}

func (s *shader) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Version: s.version, EntryPoint: s.entryPoint, Module: s.module}
}

// parseSource stores the source, bumps the version and rebuilds the module descriptor and parsed metadata.
// The caller must hold the write lock.
func (s *shader) parseSource(source string) {
	s.source = source
	s.version++
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	}
	cleaned := stripComments(source)
	s.entryPoint = parseEntryPoint(cleaned)
	s.workGroupSize = parseWorkgroupSize(cleaned)
	s.imageBindings = parseImageBindings(cleaned)
}
