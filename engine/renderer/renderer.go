package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	depth DepthState
	bound Framebuffer

	// Pre-creation config collected from builder options
	window               window.Window
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingSize          *[2]int
}

// Renderer defines the rendering-state capability consumed by pipeline commands.
//
// It tracks the logical state a frame pipeline mutates (the bound render target and the depth state),
// exposes clears, compute dispatches and memory barriers against that state, and creates the
// framebuffers and textures that the pipeline caches by name. GPU work is delegated to a backend,
// allowing multiple backend implementations to exist.
type Renderer interface {
	// BackendType returns the type of backend this renderer was created with.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Backend returns the backend GPU work is delegated to.
	//
	// Returns:
	//   - RendererBackend: the active backend
	Backend() RendererBackend

	// SetDepthTest enables or disables depth testing.
	//
	// Parameters:
	//   - enabled: true to enable depth testing
	SetDepthTest(enabled bool)

	// SetDepthWrite enables or disables depth buffer writes.
	//
	// Parameters:
	//   - enabled: true to enable depth writes
	SetDepthWrite(enabled bool)

	// SetDepthFunc sets the depth comparison function.
	//
	// Parameters:
	//   - fn: the comparison used by the depth test
	SetDepthFunc(fn wgpu.CompareFunction)

	// DepthState returns the current depth state.
	//
	// Returns:
	//   - DepthState: the current depth configuration
	DepthState() DepthState

	// SetDepthState replaces the whole depth state at once.
	//
	// Parameters:
	//   - state: the new depth state
	SetDepthState(state DepthState)

	// Clear clears the selected aspects of the bound target, or of the surface when nothing is bound.
	// Options selecting no aspect are ignored.
	//
	// Parameters:
	//   - opts: the aspects to clear and their values
	Clear(opts ClearOptions)

	// BindFramebuffer binds a framebuffer as the current render target. Binding nil is the same as UnbindFramebuffer.
	//
	// Parameters:
	//   - fb: the framebuffer to bind
	BindFramebuffer(fb Framebuffer)

	// UnbindFramebuffer restores the surface as the current render target.
	UnbindFramebuffer()

	// BoundFramebuffer returns the currently bound framebuffer.
	//
	// Returns:
	//   - Framebuffer: the bound framebuffer, or nil when the surface is the target
	BoundFramebuffer() Framebuffer

	// Dispatch runs a compute shader with textures bound to image units.
	// A dispatch with any zero group count is skipped and returns nil.
	//
	// Parameters:
	//   - s: the compute shader
	//   - groups: the workgroup counts in x, y and z
	//   - images: the image unit bindings
	//
	// Returns:
	//   - error: an error if the shader is nil or the backend rejects the dispatch
	Dispatch(s shader.Shader, groups [3]uint32, images []ImageBinding) error

	// BeginDraw opens a render pass on the bound target, or on the surface when nothing is bound, for mesh
	// draw calls. The pass carries the current depth state. The caller must End it.
	//
	// Returns:
	//   - DrawPass: the open pass
	//   - error: an error if no frame is open or the target cannot be drawn into
	BeginDraw() (DrawPass, error)

	// MemoryBarrier makes prior compute writes visible to the access kinds selected by mask.
	//
	// Parameters:
	//   - mask: the kinds of access that must observe prior writes
	MemoryBarrier(mask BarrierMask)

	// CreateFramebuffer allocates an off-screen render target.
	//
	// Parameters:
	//   - desc: the framebuffer descriptor; width and height must be non-zero
	//
	// Returns:
	//   - Framebuffer: the new framebuffer
	//   - error: an error if the descriptor is invalid or allocation fails
	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)

	// CreateTexture allocates a standalone texture.
	//
	// Parameters:
	//   - desc: the texture descriptor; width and height must be non-zero
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if the descriptor is invalid or allocation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame starts a frame. The bound target is reset to the surface.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// EndFrame submits the frame's GPU work.
	// Does not present the surface; call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display. Must be called once per frame after EndFrame.
	Present()

	// Release frees the backend and every GPU object it owns.
	Release()
}

var _ Renderer = &renderer{}

// ErrInvalidDescriptor is returned when a framebuffer or texture descriptor has a zero dimension.
var ErrInvalidDescriptor = errors.New("renderer: invalid resource descriptor")

// ErrImageGroup is returned when a dispatch binds an image outside bind group 0.
var ErrImageGroup = errors.New("renderer: image binding outside group 0")

// NewRenderer creates a new Renderer with the specified backend type.
// The WGPU backend renders to the window given with WithWindow, or runs headless without one.
// Backend creation failures are fatal and panic, matching GPU device setup elsewhere in the engine.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., BackendTypeWGPU)
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		depth:       DefaultDepthState,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeRecording:
			r.backend = NewRecordingBackend()
		case BackendTypeWGPU:
			fallthrough
		default:
			var surfaceDescriptor *wgpu.SurfaceDescriptor
			if r.window != nil {
				surfaceDescriptor = r.window.SurfaceDescriptor()
			}
			r.backend = newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter)
		}
	}
	common.Logger().Info("renderer created", "backend", backendType.String())

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	switch {
	case r.pendingSize != nil:
		r.backend.ConfigureSurface(r.pendingSize[0], r.pendingSize[1])
	case r.window != nil:
		r.backend.ConfigureSurface(r.window.Width(), r.window.Height())
	}
	r.backend.SetDepthState(r.depth)
	return r
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) SetDepthTest(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth.Test = enabled
	r.backend.SetDepthState(r.depth)
}

func (r *renderer) SetDepthWrite(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth.Write = enabled
	r.backend.SetDepthState(r.depth)
}

func (r *renderer) SetDepthFunc(fn wgpu.CompareFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth.Func = fn
	r.backend.SetDepthState(r.depth)
}

func (r *renderer) DepthState() DepthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth
}

func (r *renderer) SetDepthState(state DepthState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth = state
	r.backend.SetDepthState(r.depth)
}

func (r *renderer) Clear(opts ClearOptions) {
	if !opts.Any() {
		return
	}
	r.mu.Lock()
	target := r.bound
	r.mu.Unlock()
	r.backend.Clear(target, opts)
}

func (r *renderer) BindFramebuffer(fb Framebuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = fb
	r.backend.BindTarget(fb)
}

func (r *renderer) UnbindFramebuffer() {
	r.BindFramebuffer(nil)
}

func (r *renderer) BoundFramebuffer() Framebuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound
}

func (r *renderer) Dispatch(s shader.Shader, groups [3]uint32, images []ImageBinding) error {
	if s == nil {
		return errors.New("renderer: dispatch without a shader")
	}
	if groups[0] == 0 || groups[1] == 0 || groups[2] == 0 {
		return nil
	}
	for _, img := range images {
		if img.Group != 0 {
			return fmt.Errorf("%w: %q binds unit %d in group %d", ErrImageGroup, s.Key(), img.Unit, img.Group)
		}
	}
	if err := r.backend.Dispatch(s, groups, images); err != nil {
		return fmt.Errorf("renderer: dispatch %q: %w", s.Key(), err)
	}
	return nil
}

func (r *renderer) BeginDraw() (DrawPass, error) {
	p, err := r.backend.BeginDraw()
	if err != nil {
		return nil, fmt.Errorf("renderer: begin draw: %w", err)
	}
	return p, nil
}

func (r *renderer) MemoryBarrier(mask BarrierMask) {
	if mask == 0 {
		return
	}
	r.backend.Flush(mask)
}

func (r *renderer) CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: framebuffer %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	desc.SampleCount = common.Coalesce(desc.SampleCount, 1)
	return r.backend.CreateFramebuffer(desc)
}

func (r *renderer) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	desc.Format = common.Coalesce(desc.Format, wgpu.TextureFormatRGBA8Unorm)
	desc.Usage = common.Coalesce(desc.Usage, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageStorageBinding|wgpu.TextureUsageCopySrc|wgpu.TextureUsageCopyDst)
	return r.backend.CreateTexture(desc)
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.BindFramebuffer(nil)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	r.bound = nil
	r.mu.Unlock()
	r.backend.Release()
}
