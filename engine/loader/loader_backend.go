package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for pipeline files whose extension has no backend.
var ErrUnsupportedFormat = errors.New("unsupported pipeline format")

// Format identifies the encoding of a pipeline description.
type Format int

const (
	// FormatTOML selects the TOML backend (.toml).
	FormatTOML Format = iota
	// FormatYAML selects the YAML backend (.yaml, .yml).
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatForPath selects a Format from a file extension.
//
// Parameters:
//   - path: the pipeline file path
//
// Returns:
//   - Format: the format matching the extension
//   - error: an error wrapping ErrUnsupportedFormat for unknown extensions
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// loaderBackend decodes a pipeline description into its command tree. Each node is a table with a
// "type" key; nested tables and lists are normalized to map[string]any and []any.
type loaderBackend interface {
	// Decode reads the top-level command list.
	//
	// Parameters:
	//   - r: the reader providing the pipeline description
	//
	// Returns:
	//   - []map[string]any: the top-level command nodes in order
	//   - error: error if the description cannot be decoded
	Decode(r io.Reader) ([]map[string]any, error)
}

// normalize converts the map and list shapes decoders produce into map[string]any and []any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
