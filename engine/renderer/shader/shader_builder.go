package shader

import (
	"fmt"
	"os"
)

// ShaderBuilderOption is a functional option applied to a shader during construction via NewShader.
type ShaderBuilderOption func(*shader)

// WithSource sets the WGSL source of the shader.
//
// Parameters:
//   - source: the WGSL source code
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option to a shader
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.parseSource(source)
	}
}

// WithSourceFromPath reads the WGSL source from a file. A missing file is a programming error and panics.
//
// Parameters:
//   - path: the file path to read WGSL source from
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option to a shader
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("shader: failed to read source file %q: %v", path, err))
		}
		s.parseSource(string(data))
	}
}
