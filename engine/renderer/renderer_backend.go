package renderer

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeRecording selects an in-memory backend that records every call as a line of text.
	// It needs no GPU and is used to test and dry-run pipelines.
	BackendTypeRecording
)

// String returns a readable backend name.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the GPU-facing half of the Renderer. The renderer keeps the logical state
// (bound target, depth state) and forwards every operation here together with that state.
type RendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when the surface size changes,
	// such as when the window is resized. Headless backends only record the size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. A call to ConfigureSurface is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetDepthState applies the depth configuration used by subsequent draws.
	//
	// Parameters:
	//   - state: the new depth state
	SetDepthState(state DepthState)

	// BindTarget selects the render target for subsequent clears and draws. Nil selects the surface.
	//
	// Parameters:
	//   - fb: the framebuffer to bind, or nil for the surface
	BindTarget(fb Framebuffer)

	// Clear clears the selected aspects of a target.
	//
	// Parameters:
	//   - target: the framebuffer to clear, or nil for the surface
	//   - opts: the aspects to clear and their clear values
	Clear(target Framebuffer, opts ClearOptions)

	// BeginDraw opens a render pass on the target selected by BindTarget, built with the depth state
	// last passed to SetDepthState. Existing attachment contents are loaded.
	//
	// Returns:
	//   - DrawPass: the open pass
	//   - error: an error if no frame is open or the target has no color attachment
	BeginDraw() (DrawPass, error)

	// Dispatch encodes a compute dispatch with the given image units bound to group 0.
	// The compiled program is cached by shader key and rebuilt when the shader version changes.
	//
	// Parameters:
	//   - s: the compute shader to run
	//   - groups: the number of workgroups in x, y and z
	//   - images: the textures bound to image units for this dispatch
	//
	// Returns:
	//   - error: an error if the program could not be built or an image could not be bound
	Dispatch(s shader.Shader, groups [3]uint32, images []ImageBinding) error

	// Flush makes prior GPU writes visible to the access kinds in mask.
	//
	// Parameters:
	//   - mask: the kinds of access that must observe prior writes
	Flush(mask BarrierMask)

	// CreateFramebuffer allocates an off-screen render target.
	//
	// Parameters:
	//   - desc: the framebuffer descriptor
	//
	// Returns:
	//   - Framebuffer: the new framebuffer
	//   - error: an error if allocation fails
	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)

	// CreateTexture allocates a standalone texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if allocation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// BeginFrame opens the frame's command encoder and, when a surface exists, acquires the swapchain texture.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// EndFrame submits all work encoded since BeginFrame or the last Flush.
	EndFrame()

	// Present presents the surface and releases the swapchain texture. No-op when headless.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}
