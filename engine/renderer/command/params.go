package command

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidParam is wrapped by every parameter decoding error.
var ErrInvalidParam = errors.New("invalid command parameter")

// Params is a read-only view over a declarative parameter table, as decoded from a pipeline file.
// Accessors record the first decoding error, which Err reports, so a decoder can read every field
// and check the error once.
type Params struct {
	values map[string]any
	err    error
}

// NewParams wraps a parameter table. A nil table is treated as empty.
//
// Parameters:
//   - values: the parameter table
//
// Returns:
//   - *Params: the parameter view
func NewParams(values map[string]any) *Params {
	if values == nil {
		values = map[string]any{}
	}
	return &Params{values: values}
}

// Err returns the first error recorded by an accessor.
func (p *Params) Err() error {
	return p.err
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the parameter names in sorted order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the raw value stored under key.
func (p *Params) Value(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *Params) fail(key string, format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w %q: %s", ErrInvalidParam, key, fmt.Sprintf(format, args...))
	}
}

// Require records an error for every key that is not present.
func (p *Params) Require(keys ...string) {
	for _, key := range keys {
		if !p.Has(key) {
			p.fail(key, "required")
		}
	}
}

func (p *Params) String(key string, def string) string {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		p.fail(key, "want string, got %T", v)
		return def
	}
	return s
}

func (p *Params) Bool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		p.fail(key, "want bool, got %T", v)
		return def
	}
	return b
}

func (p *Params) Int(key string, def int) int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || f != float64(int(f)) {
		p.fail(key, "want integer, got %v", v)
		return def
	}
	return int(f)
}

// Uint decodes a non-negative integer that fits in 32 bits. Fractions and negative values are errors.
func (p *Params) Uint(key string, def uint32) uint32 {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	n, ok := toUint32(v)
	if !ok {
		p.fail(key, "want non-negative integer, got %v", v)
		return def
	}
	return n
}

func (p *Params) Float(key string, def float64) float64 {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		p.fail(key, "want number, got %v", v)
		return def
	}
	return f
}

// Floats decodes a list of numbers. It returns nil if key is absent.
func (p *Params) Floats(key string) []float64 {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	list, ok := toList(v)
	if !ok {
		p.fail(key, "want list, got %T", v)
		return nil
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			p.fail(key, "item %d: want number, got %v", i, item)
			return nil
		}
		out[i] = f
	}
	return out
}

// Uints decodes a list of non-negative 32-bit integers. It returns nil if key is absent.
func (p *Params) Uints(key string) []uint32 {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	list, ok := toList(v)
	if !ok {
		p.fail(key, "want list, got %T", v)
		return nil
	}
	out := make([]uint32, len(list))
	for i, item := range list {
		n, ok := toUint32(item)
		if !ok {
			p.fail(key, "item %d: want non-negative integer, got %v", i, item)
			return nil
		}
		out[i] = n
	}
	return out
}

// Strings decodes a list of strings. A single string is accepted as a list of one.
func (p *Params) Strings(key string) []string {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		return []string{s}
	}
	list, ok := toList(v)
	if !ok {
		p.fail(key, "want list, got %T", v)
		return nil
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			p.fail(key, "item %d: want string, got %T", i, item)
			return nil
		}
		out[i] = s
	}
	return out
}

// Tables decodes a list of nested parameter tables.
func (p *Params) Tables(key string) []*Params {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	if tables, ok := v.([]map[string]any); ok {
		out := make([]*Params, len(tables))
		for i, t := range tables {
			out[i] = NewParams(t)
		}
		return out
	}
	list, ok := toList(v)
	if !ok {
		p.fail(key, "want list of tables, got %T", v)
		return nil
	}
	out := make([]*Params, len(list))
	for i, item := range list {
		t, ok := item.(map[string]any)
		if !ok {
			p.fail(key, "item %d: want table, got %T", i, item)
			return nil
		}
		out[i] = NewParams(t)
	}
	return out
}

// CompareFunction decodes a depth compare function name such as "less" or "greater_equal".
func (p *Params) CompareFunction(key string, def wgpu.CompareFunction) wgpu.CompareFunction {
	name := p.String(key, "")
	if name == "" {
		return def
	}
	fn, ok := renderer.ParseCompareFunction(name)
	if !ok {
		p.fail(key, "unknown compare function %q", name)
		return def
	}
	return fn
}

// TextureFormat decodes a texture format name such as "rgba8unorm" or "depth24plus".
func (p *Params) TextureFormat(key string, def wgpu.TextureFormat) wgpu.TextureFormat {
	name := p.String(key, "")
	if name == "" {
		return def
	}
	format, ok := textureFormats[normalizeName(name)]
	if !ok {
		p.fail(key, "unknown texture format %q", name)
		return def
	}
	return format
}

var textureFormats = map[string]wgpu.TextureFormat{
	"rgba8unorm":          wgpu.TextureFormatRGBA8Unorm,
	"rgba8unormsrgb":      wgpu.TextureFormatRGBA8UnormSrgb,
	"bgra8unorm":          wgpu.TextureFormatBGRA8Unorm,
	"bgra8unormsrgb":      wgpu.TextureFormatBGRA8UnormSrgb,
	"rgba16float":         wgpu.TextureFormatRGBA16Float,
	"rgba32float":         wgpu.TextureFormatRGBA32Float,
	"r32float":            wgpu.TextureFormatR32Float,
	"r32uint":             wgpu.TextureFormatR32Uint,
	"depth16unorm":        wgpu.TextureFormatDepth16Unorm,
	"depth24plus":         wgpu.TextureFormatDepth24Plus,
	"depth24plusstencil8": wgpu.TextureFormatDepth24PlusStencil8,
	"depth32float":        wgpu.TextureFormatDepth32Float,
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "")
	return strings.ReplaceAll(name, "-", "")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toUint32(v any) (uint32, bool) {
	f, ok := toFloat(v)
	if !ok || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, false
	}
	return uint32(f), true
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	case []int64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
