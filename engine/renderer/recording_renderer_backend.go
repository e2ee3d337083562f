package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// RecordingBackend is a RendererBackend that performs no GPU work. Every call is appended to a trace
// as one line of text, and framebuffers and textures are plain in-memory objects.
type RecordingBackend struct {
	mu    *sync.Mutex
	trace []string

	width, height int
	presentMode   PresentMode

	target Framebuffer
	depth  DepthState

	// versions remembers the shader version each key was last "compiled" at, mirroring the WGPU program cache.
	versions map[string]uint64

	// DispatchErr, when set, is returned from every Dispatch call.
	DispatchErr error
	// BeginFrameErr, when set, is returned from every BeginFrame call.
	BeginFrameErr error
}

var _ RendererBackend = &RecordingBackend{}

// NewRecordingBackend creates an empty RecordingBackend.
//
// Returns:
//   - *RecordingBackend: the new backend
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{
		mu:       &sync.Mutex{},
		depth:    DefaultDepthState,
		versions: make(map[string]uint64),
	}
}

// Trace returns a copy of the recorded calls in order.
//
// Returns:
//   - []string: one line per recorded call
func (b *RecordingBackend) Trace() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.trace...)
}

// Reset clears the recorded trace.
func (b *RecordingBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trace = b.trace[:0]
}

// SurfaceSize returns the size last passed to ConfigureSurface.
func (b *RecordingBackend) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *RecordingBackend) record(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trace = append(b.trace, fmt.Sprintf(format, args...))
}

func (b *RecordingBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
	b.record("configure %dx%d", width, height)
}

func (b *RecordingBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *RecordingBackend) SetDepthState(state DepthState) {
	b.mu.Lock()
	b.depth = state
	b.mu.Unlock()
	b.record("depth test=%t write=%t func=%s", state.Test, state.Write, CompareFunctionName(state.Func))
}

func (b *RecordingBackend) BindTarget(fb Framebuffer) {
	b.mu.Lock()
	b.target = fb
	b.mu.Unlock()
	b.record("bind %s", targetName(fb))
}

// BeginDraw records "draw <target> depth test=.. write=.. func=.." and returns a pass without a GPU encoder.
// Ending it records "end draw".
func (b *RecordingBackend) BeginDraw() (DrawPass, error) {
	b.mu.Lock()
	p := &memoryDrawPass{backend: b, target: b.target, depth: b.depth}
	b.mu.Unlock()
	b.record("draw %s depth test=%t write=%t func=%s", targetName(p.target), p.depth.Test, p.depth.Write, CompareFunctionName(p.depth.Func))
	return p, nil
}

func (b *RecordingBackend) Clear(target Framebuffer, opts ClearOptions) {
	b.record("clear %s color=%t depth=%t stencil=%t", targetName(target), opts.Color, opts.Depth, opts.Stencil)
}

func (b *RecordingBackend) Dispatch(s shader.Shader, groups [3]uint32, images []ImageBinding) error {
	if b.DispatchErr != nil {
		return b.DispatchErr
	}
	snap := s.Snapshot()
	b.mu.Lock()
	if v, ok := b.versions[s.Key()]; !ok || v != snap.Version {
		b.versions[s.Key()] = snap.Version
		b.trace = append(b.trace, fmt.Sprintf("build %s v%d", s.Key(), snap.Version))
	}
	b.mu.Unlock()

	units := make([]string, 0, len(images))
	for _, img := range images {
		units = append(units, fmt.Sprintf("%d:%s", img.Unit, img.Texture.Name()))
	}
	b.record("dispatch %s %dx%dx%d [%s]", s.Key(), groups[0], groups[1], groups[2], strings.Join(units, " "))
	return nil
}

func (b *RecordingBackend) Flush(mask BarrierMask) {
	b.record("barrier %d", mask)
}

func (b *RecordingBackend) CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error) {
	b.record("create framebuffer %s %dx%d", desc.Label, desc.Width, desc.Height)
	return &memoryFramebuffer{backend: b, desc: desc}, nil
}

func (b *RecordingBackend) CreateTexture(desc TextureDescriptor) (Texture, error) {
	b.record("create texture %s %dx%d", desc.Label, desc.Width, desc.Height)
	return &memoryTexture{backend: b, desc: desc}, nil
}

func (b *RecordingBackend) BeginFrame() error {
	if b.BeginFrameErr != nil {
		return b.BeginFrameErr
	}
	b.record("begin frame")
	return nil
}

func (b *RecordingBackend) EndFrame() {
	b.record("end frame")
}

func (b *RecordingBackend) Present() {
	b.record("present")
}

func (b *RecordingBackend) Release() {
	b.record("release")
}

func targetName(fb Framebuffer) string {
	if fb == nil {
		return "surface"
	}
	return "framebuffer " + fb.Name()
}

// memoryFramebuffer is the RecordingBackend framebuffer. It only tracks its descriptor.
type memoryFramebuffer struct {
	backend  *RecordingBackend
	name     string
	desc     FramebufferDescriptor
	released bool
}

func (f *memoryFramebuffer) Name() string                      { return f.name }
func (f *memoryFramebuffer) SetName(name string)               { f.name = name }
func (f *memoryFramebuffer) Size() (uint32, uint32)            { return f.desc.Width, f.desc.Height }
func (f *memoryFramebuffer) Descriptor() FramebufferDescriptor { return f.desc }

func (f *memoryFramebuffer) Resize(width, height uint32) error {
	if width == f.desc.Width && height == f.desc.Height {
		return nil
	}
	f.desc.Width, f.desc.Height = width, height
	f.backend.record("resize framebuffer %s %dx%d", f.name, width, height)
	return nil
}

func (f *memoryFramebuffer) Release() {
	if f.released {
		return
	}
	f.released = true
	f.backend.record("release framebuffer %s", f.name)
}

// memoryDrawPass is the RecordingBackend draw pass. Formats come from the target's descriptor.
type memoryDrawPass struct {
	backend *RecordingBackend
	target  Framebuffer
	depth   DepthState
	ended   bool
}

func (p *memoryDrawPass) Target() Framebuffer              { return p.target }
func (p *memoryDrawPass) DepthState() DepthState           { return p.depth }
func (p *memoryDrawPass) Device() *wgpu.Device             { return nil }
func (p *memoryDrawPass) Encoder() *wgpu.RenderPassEncoder { return nil }

func (p *memoryDrawPass) ColorFormat() wgpu.TextureFormat {
	if p.target == nil {
		return wgpu.TextureFormatBGRA8Unorm
	}
	return p.target.Descriptor().ColorFormat
}

func (p *memoryDrawPass) SampleCount() uint32 {
	if p.target == nil {
		return 1
	}
	return max(p.target.Descriptor().SampleCount, 1)
}

func (p *memoryDrawPass) DepthStencil() *wgpu.DepthStencilState {
	if p.target == nil {
		return p.depth.Descriptor(surfaceDepthFormat)
	}
	return p.depth.Descriptor(p.target.Descriptor().DepthFormat)
}

func (p *memoryDrawPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.backend.record("end draw")
}

// memoryTexture is the RecordingBackend texture.
type memoryTexture struct {
	backend  *RecordingBackend
	name     string
	desc     TextureDescriptor
	released bool
}

func (t *memoryTexture) Name() string               { return t.name }
func (t *memoryTexture) SetName(name string)        { t.name = name }
func (t *memoryTexture) Size() (uint32, uint32)     { return t.desc.Width, t.desc.Height }
func (t *memoryTexture) Format() wgpu.TextureFormat { return t.desc.Format }

func (t *memoryTexture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.backend.record("release texture %s", t.name)
}
