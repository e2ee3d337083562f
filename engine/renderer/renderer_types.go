package renderer

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// DepthState is the depth test configuration applied to subsequent draws.
type DepthState struct {
	// Test enables depth testing.
	Test bool
	// Write enables writes to the depth buffer.
	Write bool
	// Func is the comparison used when Test is enabled.
	Func wgpu.CompareFunction
}

// DefaultDepthState is the state a renderer starts with: testing and writing enabled with a Less comparison.
var DefaultDepthState = DepthState{Test: true, Write: true, Func: wgpu.CompareFunctionLess}

// Descriptor returns the depth/stencil state a render pipeline drawing into an attachment of the given
// format is built with, or nil when format is undefined. A disabled test compares Always and never writes.
//
// Parameters:
//   - format: the depth attachment format of the target
//
// Returns:
//   - *wgpu.DepthStencilState: the pipeline depth/stencil state
func (d DepthState) Descriptor(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	if format == wgpu.TextureFormatUndefined {
		return nil
	}
	compare, write := d.Func, d.Write
	if !d.Test {
		compare, write = wgpu.CompareFunctionAlways, false
	}
	return &wgpu.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: write,
		DepthCompare:      compare,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilReadMask:  0xFFFFFFFF,
		StencilWriteMask: 0xFFFFFFFF,
	}
}

// DrawPass is a render pass opened on the bound target with the depth state current when it was opened.
// Mesh draw calls are recorded into it and the pass must be ended before the next clear or dispatch.
type DrawPass interface {
	// Target returns the framebuffer drawn into, or nil for the surface.
	//
	// Returns:
	//   - Framebuffer: the draw target
	Target() Framebuffer

	// DepthState returns the depth state the pass was opened with.
	//
	// Returns:
	//   - DepthState: the depth state draw pipelines must honor
	DepthState() DepthState

	// ColorFormat returns the format of the color attachment.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color attachment format
	ColorFormat() wgpu.TextureFormat

	// SampleCount returns the sample count of the attachments.
	//
	// Returns:
	//   - uint32: the attachment sample count
	SampleCount() uint32

	// DepthStencil returns the depth/stencil state for render pipelines drawing in this pass.
	//
	// Returns:
	//   - *wgpu.DepthStencilState: the state, or nil when the target has no depth attachment
	DepthStencil() *wgpu.DepthStencilState

	// Device returns the GPU device for creating pipelines and buffers.
	//
	// Returns:
	//   - *wgpu.Device: the device, or nil on backends without a GPU
	Device() *wgpu.Device

	// Encoder returns the render pass encoder draw calls are recorded into.
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the encoder, or nil on backends without a GPU
	Encoder() *wgpu.RenderPassEncoder

	// End closes the pass.
	End()
}

// ClearOptions selects which aspects of the bound target are cleared and the values they are cleared to.
type ClearOptions struct {
	Color   bool
	Depth   bool
	Stencil bool

	ColorValue   wgpu.Color
	DepthValue   float32
	StencilValue uint32
}

// Any reports whether at least one aspect is selected.
func (o ClearOptions) Any() bool {
	return o.Color || o.Depth || o.Stencil
}

// BarrierMask selects which kinds of GPU memory access must observe writes issued before a barrier.
type BarrierMask uint32

const (
	// BarrierShaderImageAccess orders storage image writes before later storage image reads.
	BarrierShaderImageAccess BarrierMask = 1 << iota
	// BarrierTextureFetch orders storage image writes before later sampled texture reads.
	BarrierTextureFetch
	// BarrierFramebuffer orders storage image writes before later framebuffer attachment access.
	BarrierFramebuffer

	// BarrierAll orders every kind of access.
	BarrierAll = BarrierShaderImageAccess | BarrierTextureFetch | BarrierFramebuffer
)

// ImageBinding binds a texture to an image unit for a compute dispatch.
// Unit is the @binding index and Group the @group index of the image variable in the compute shader.
// Backends bind images in group 0 only.
type ImageBinding struct {
	Group   uint32
	Unit    uint32
	Texture Texture
}

// FramebufferDescriptor describes an off-screen render target.
type FramebufferDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	// ColorFormat of the color attachment. Undefined selects the surface format (or RGBA8Unorm when headless).
	ColorFormat wgpu.TextureFormat
	// DepthFormat of the depth/stencil attachment. Undefined creates a color-only framebuffer.
	DepthFormat wgpu.TextureFormat
	// SampleCount of all attachments. Zero is treated as 1.
	SampleCount uint32
}

// TextureDescriptor describes a standalone 2D texture, typically a compute target.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	// Format of the texture. Undefined is treated as RGBA8Unorm.
	Format wgpu.TextureFormat
	// Usage flags. Zero selects texture binding, storage binding and copy usage.
	Usage wgpu.TextureUsage
}

// Framebuffer is a named off-screen render target. Resizing keeps the same instance.
type Framebuffer interface {
	// Name returns the name the framebuffer is registered under, or an empty string.
	Name() string

	// SetName tags the framebuffer with the name it is registered under.
	//
	// Parameters:
	//   - name: the registry name
	SetName(name string)

	// Size returns the current attachment size in pixels.
	//
	// Returns:
	//   - uint32: the width in pixels
	//   - uint32: the height in pixels
	Size() (uint32, uint32)

	// Resize reallocates the attachments at a new size while keeping this instance.
	// Resizing to the current size is a no-op.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the attachments could not be reallocated
	Resize(width, height uint32) error

	// Descriptor returns the descriptor reflecting the current size.
	//
	// Returns:
	//   - FramebufferDescriptor: the descriptor the attachments were allocated from
	Descriptor() FramebufferDescriptor

	// Release frees the GPU attachments. Release is idempotent.
	Release()
}

// Texture is a named standalone texture. Textures are immutable in size; a change means a new Texture.
type Texture interface {
	// Name returns the name the texture is registered under, or an empty string.
	Name() string

	// SetName tags the texture with the name it is registered under.
	//
	// Parameters:
	//   - name: the registry name
	SetName(name string)

	// Size returns the texture size in pixels.
	//
	// Returns:
	//   - uint32: the width in pixels
	//   - uint32: the height in pixels
	Size() (uint32, uint32)

	// Format returns the texel format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the texture format
	Format() wgpu.TextureFormat

	// Release frees the GPU texture. Release is idempotent.
	Release()
}

var compareFunctionNames = map[wgpu.CompareFunction]string{
	wgpu.CompareFunctionNever:        "never",
	wgpu.CompareFunctionLess:         "less",
	wgpu.CompareFunctionLessEqual:    "less_equal",
	wgpu.CompareFunctionGreater:      "greater",
	wgpu.CompareFunctionGreaterEqual: "greater_equal",
	wgpu.CompareFunctionEqual:        "equal",
	wgpu.CompareFunctionNotEqual:     "not_equal",
	wgpu.CompareFunctionAlways:       "always",
}

// CompareFunctionName returns the lower snake case name of a depth comparison, e.g. "less_equal".
// Unknown values return "undefined".
//
// Parameters:
//   - fn: the comparison function
//
// Returns:
//   - string: the comparison name
func CompareFunctionName(fn wgpu.CompareFunction) string {
	if name, ok := compareFunctionNames[fn]; ok {
		return name
	}
	return "undefined"
}

// ParseCompareFunction converts a comparison name produced by CompareFunctionName back to its value.
// Matching is case insensitive.
//
// Parameters:
//   - name: the comparison name, e.g. "less" or "GREATER_EQUAL"
//
// Returns:
//   - wgpu.CompareFunction: the comparison function
//   - bool: false if the name is unknown
func ParseCompareFunction(name string) (wgpu.CompareFunction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for fn, n := range compareFunctionNames {
		if n == name {
			return fn, true
		}
	}
	return wgpu.CompareFunctionUndefined, false
}

// hasStencil reports whether a depth format carries a stencil aspect.
func hasStencil(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatDepth24PlusStencil8, wgpu.TextureFormatDepth32FloatStencil8, wgpu.TextureFormatStencil8:
		return true
	}
	return false
}
