package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// surfaceDepthFormat is the depth/stencil format of the depth buffer paired with the surface.
const surfaceDepthFormat = wgpu.TextureFormatDepth24PlusStencil8

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	surfaceDepth     *wgpu.Texture
	surfaceDepthView *wgpu.TextureView
	width, height    uint32

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	target     Framebuffer
	depthState DepthState

	// Frame state: one encoder per frame, re-opened after every Flush.
	frameEncoder    *wgpu.CommandEncoder
	frameSurface    *wgpu.Texture
	frameView       *wgpu.TextureView
	frameBindGroups []*wgpu.BindGroup

	programs map[string]*computeProgram
}

// computeProgram is a compiled compute pipeline together with the shader version it was built from.
type computeProgram struct {
	version  uint64
	pipeline *wgpu.ComputePipeline
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the WGPU instance, adapter and device. When surfaceDescriptor is nil
// the backend is headless: clears of the surface and Present are no-ops.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) *wgpuRendererBackendImpl {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		programs:    make(map[string]*computeProgram),
	}
	if surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Pipeline Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = uint32(max(width, 1)), uint32(max(height, 1))
	if b.surface == nil {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.surfaceDepthView != nil {
		b.surfaceDepthView.Release()
		b.surfaceDepth.Release()
	}
	tex, view, err := b.createAttachment("Surface Depth", b.width, b.height, surfaceDepthFormat, 1, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		panic(err)
	}
	b.surfaceDepth, b.surfaceDepthView = tex, view
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetDepthState(state DepthState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depthState = state
}

func (b *wgpuRendererBackendImpl) BindTarget(fb Framebuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = fb
}

func (b *wgpuRendererBackendImpl) Clear(target Framebuffer, opts ClearOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		common.Logger().Warn("clear outside of a frame ignored")
		return
	}
	views, err := b.attachments(target)
	if err != nil {
		common.Logger().Warn("clear ignored", "error", err)
		return
	}
	desc := views.passDescriptor(opts)
	if len(desc.ColorAttachments) == 0 && desc.DepthStencilAttachment == nil {
		return
	}

	pass := b.frameEncoder.BeginRenderPass(desc)
	pass.End()
	pass.Release()
}

func (b *wgpuRendererBackendImpl) BeginDraw() (DrawPass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil, errors.New("draw outside of a frame")
	}
	views, err := b.attachments(b.target)
	if err != nil {
		return nil, err
	}
	if views.color == nil {
		return nil, fmt.Errorf("%s has no color attachment", targetName(b.target))
	}

	return &wgpuDrawPass{
		device:  b.device,
		encoder: b.frameEncoder.BeginRenderPass(views.passDescriptor(ClearOptions{})),
		target:  b.target,
		depth:   b.depthState,
		views:   views,
	}, nil
}

// targetViews are the attachments of one render target.
type targetViews struct {
	color       *wgpu.TextureView
	depth       *wgpu.TextureView
	colorFormat wgpu.TextureFormat
	depthFormat wgpu.TextureFormat
	samples     uint32
}

// attachments resolves the views of target, or of the surface when target is nil. The caller must hold b.mu.
func (b *wgpuRendererBackendImpl) attachments(target Framebuffer) (targetViews, error) {
	if target == nil {
		return targetViews{
			color:       b.frameView,
			depth:       b.surfaceDepthView,
			colorFormat: b.surfaceFormat,
			depthFormat: surfaceDepthFormat,
			samples:     1,
		}, nil
	}
	fb, ok := target.(*wgpuFramebuffer)
	if !ok {
		return targetViews{}, fmt.Errorf("foreign framebuffer %q", target.Name())
	}
	return targetViews{
		color:       fb.colorView,
		depth:       fb.depthView,
		colorFormat: fb.desc.ColorFormat,
		depthFormat: fb.desc.DepthFormat,
		samples:     common.Coalesce(fb.desc.SampleCount, 1),
	}, nil
}

// passDescriptor builds a render pass over the views. Aspects selected in opts are cleared, the rest are loaded.
func (v targetViews) passDescriptor(opts ClearOptions) *wgpu.RenderPassDescriptor {
	desc := &wgpu.RenderPassDescriptor{}
	if v.color != nil {
		load := wgpu.LoadOpLoad
		if opts.Color {
			load = wgpu.LoadOpClear
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{
			{
				View:       v.color,
				LoadOp:     load,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: opts.ColorValue,
			},
		}
	}
	if v.depth != nil {
		attachment := &wgpu.RenderPassDepthStencilAttachment{
			View:            v.depth,
			DepthLoadOp:     wgpu.LoadOpLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: opts.DepthValue,
		}
		if opts.Depth {
			attachment.DepthLoadOp = wgpu.LoadOpClear
		}
		if hasStencil(v.depthFormat) {
			attachment.StencilLoadOp = wgpu.LoadOpLoad
			attachment.StencilStoreOp = wgpu.StoreOpStore
			attachment.StencilClearValue = opts.StencilValue
			if opts.Stencil {
				attachment.StencilLoadOp = wgpu.LoadOpClear
			}
		}
		desc.DepthStencilAttachment = attachment
	}
	return desc
}

func (b *wgpuRendererBackendImpl) Dispatch(s shader.Shader, groups [3]uint32, images []ImageBinding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("dispatch outside of a frame")
	}

	program, err := b.program(s)
	if err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(images))
	for _, img := range images {
		if img.Group != 0 {
			return fmt.Errorf("%w: unit %d in group %d", ErrImageGroup, img.Unit, img.Group)
		}
		tex, ok := img.Texture.(*wgpuTexture)
		if !ok || tex.view == nil {
			return fmt.Errorf("image unit %d is not bound to a live texture", img.Unit)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: img.Unit, TextureView: tex.view})
	}

	var bindGroup *wgpu.BindGroup
	if len(entries) > 0 {
		layout := program.pipeline.GetBindGroupLayout(0)
		bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   s.Key() + " Images",
			Layout:  layout,
			Entries: entries,
		})
		layout.Release()
		if err != nil {
			return fmt.Errorf("failed to create image bind group: %w", err)
		}
		b.frameBindGroups = append(b.frameBindGroups, bindGroup)
	}

	pass := b.frameEncoder.BeginComputePass(nil)
	pass.SetPipeline(program.pipeline)
	if bindGroup != nil {
		pass.SetBindGroup(0, bindGroup, nil)
	}
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()
	return nil
}

// program returns the compiled compute pipeline for s, rebuilding it when the shader's source
// version differs from the version the cached program was built from. The caller must hold b.mu.
func (b *wgpuRendererBackendImpl) program(s shader.Shader) (*computeProgram, error) {
	snap := s.Snapshot()
	cached, ok := b.programs[s.Key()]
	if ok && cached.version == snap.Version {
		return cached, nil
	}
	if snap.Module == nil {
		return nil, errors.New("compute shader has no source")
	}

	module, err := b.device.CreateShaderModule(snap.Module)
	if err != nil {
		return nil, err
	}
	defer module.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: s.Key() + " Compute Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: snap.EntryPoint,
		},
	})
	if err != nil {
		return nil, err
	}

	if ok {
		cached.pipeline.Release()
	}
	program := &computeProgram{version: snap.Version, pipeline: created}
	b.programs[s.Key()] = program
	common.Logger().Debug("compute program built", "shader", s.Key(), "version", snap.Version)
	return program, nil
}

func (b *wgpuRendererBackendImpl) Flush(mask BarrierMask) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}
	// WebGPU orders resource access within a submission automatically; a barrier splits the
	// frame into two submissions so work encoded afterwards observes completed writes.
	b.submitLocked()
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		common.Logger().Warn("failed to reopen frame encoder after barrier", "error", err)
		return
	}
	b.frameEncoder = encoder
}

// submitLocked finishes and submits the frame encoder, then releases per-submission bind groups.
func (b *wgpuRendererBackendImpl) submitLocked() {
	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
	} else {
		common.Logger().Warn("failed to finish frame encoder", "error", err)
	}
	b.frameEncoder.Release()
	b.frameEncoder = nil

	for _, bg := range b.frameBindGroups {
		bg.Release()
	}
	b.frameBindGroups = b.frameBindGroups[:0]
}

func (b *wgpuRendererBackendImpl) CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.ColorFormat == wgpu.TextureFormatUndefined {
		desc.ColorFormat = common.Coalesce(b.surfaceFormat, wgpu.TextureFormatRGBA8Unorm)
	}
	fb := &wgpuFramebuffer{backend: b, desc: desc}
	if err := fb.allocate(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	tex, view, err := b.createAttachment(desc.Label, desc.Width, desc.Height, desc.Format, 1, desc.Usage)
	if err != nil {
		return nil, err
	}
	return &wgpuTexture{desc: desc, texture: tex, view: view}, nil
}

// createAttachment creates a 2D texture and its default view.
func (b *wgpuRendererBackendImpl) createAttachment(label string, width, height uint32, format wgpu.TextureFormat, sampleCount uint32, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create view for texture %q: %w", label, err)
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return errors.New("previous frame not ended")
	}

	// If a previous frame's surface texture is still held, avoid acquiring another one.
	// This prevents wgpu-native "Surface image is already acquired" validation errors.
	if b.surface != nil {
		if b.frameSurface != nil {
			return errors.New("previous frame surface not yet presented")
		}
		surfaceTexture, err := b.surface.GetCurrentTexture()
		if err != nil {
			return err
		}
		view, err := surfaceTexture.CreateView(nil)
		if err != nil {
			surfaceTexture.Release()
			return err
		}
		b.frameSurface = surfaceTexture
		b.frameView = view
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrameSurface()
		return err
	}
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}
	b.submitLocked()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()
	for key, p := range b.programs {
		p.pipeline.Release()
		delete(b.programs, key)
	}
	if b.surfaceDepthView != nil {
		b.surfaceDepthView.Release()
		b.surfaceDepth.Release()
		b.surfaceDepthView, b.surfaceDepth = nil, nil
	}
	if b.surface != nil {
		b.surface.Release()
	}
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
}

// wgpuFramebuffer is a color attachment plus an optional depth/stencil attachment.
// Resize reallocates the attachments but keeps the struct, so references held by the pipeline stay valid.
type wgpuFramebuffer struct {
	backend *wgpuRendererBackendImpl
	name    string
	desc    FramebufferDescriptor

	color     *wgpu.Texture
	colorView *wgpu.TextureView
	depth     *wgpu.Texture
	depthView *wgpu.TextureView
}

func (f *wgpuFramebuffer) Name() string                      { return f.name }
func (f *wgpuFramebuffer) SetName(name string)               { f.name = name }
func (f *wgpuFramebuffer) Size() (uint32, uint32)            { return f.desc.Width, f.desc.Height }
func (f *wgpuFramebuffer) Descriptor() FramebufferDescriptor { return f.desc }

func (f *wgpuFramebuffer) Resize(width, height uint32) error {
	if width == f.desc.Width && height == f.desc.Height {
		return nil
	}
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()

	f.Release()
	f.desc.Width, f.desc.Height = width, height
	if err := f.allocate(); err != nil {
		return err
	}
	common.Logger().Debug("framebuffer resized", "name", f.name, "width", width, "height", height)
	return nil
}

// allocate creates the attachments from f.desc. The caller must hold the backend lock.
func (f *wgpuFramebuffer) allocate() error {
	samples := common.Coalesce(f.desc.SampleCount, 1)
	var err error
	f.color, f.colorView, err = f.backend.createAttachment(
		f.desc.Label+" Color", f.desc.Width, f.desc.Height, f.desc.ColorFormat, samples,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc,
	)
	if err != nil {
		return err
	}
	if f.desc.DepthFormat == wgpu.TextureFormatUndefined {
		return nil
	}
	f.depth, f.depthView, err = f.backend.createAttachment(
		f.desc.Label+" Depth", f.desc.Width, f.desc.Height, f.desc.DepthFormat, samples,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding,
	)
	return err
}

func (f *wgpuFramebuffer) Release() {
	if f.colorView != nil {
		f.colorView.Release()
		f.color.Release()
		f.colorView, f.color = nil, nil
	}
	if f.depthView != nil {
		f.depthView.Release()
		f.depth.Release()
		f.depthView, f.depth = nil, nil
	}
}

// wgpuDrawPass is a render pass on the frame encoder, opened by BeginDraw.
type wgpuDrawPass struct {
	device  *wgpu.Device
	encoder *wgpu.RenderPassEncoder
	target  Framebuffer
	depth   DepthState
	views   targetViews
}

func (p *wgpuDrawPass) Target() Framebuffer              { return p.target }
func (p *wgpuDrawPass) DepthState() DepthState           { return p.depth }
func (p *wgpuDrawPass) ColorFormat() wgpu.TextureFormat  { return p.views.colorFormat }
func (p *wgpuDrawPass) SampleCount() uint32              { return p.views.samples }
func (p *wgpuDrawPass) Device() *wgpu.Device             { return p.device }
func (p *wgpuDrawPass) Encoder() *wgpu.RenderPassEncoder { return p.encoder }

func (p *wgpuDrawPass) DepthStencil() *wgpu.DepthStencilState {
	if p.views.depth == nil {
		return nil
	}
	return p.depth.Descriptor(p.views.depthFormat)
}

func (p *wgpuDrawPass) End() {
	if p.encoder == nil {
		return
	}
	p.encoder.End()
	p.encoder.Release()
	p.encoder = nil
}

// wgpuTexture is a standalone 2D texture with its default view.
type wgpuTexture struct {
	name    string
	desc    TextureDescriptor
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) Name() string               { return t.name }
func (t *wgpuTexture) SetName(name string)        { t.name = name }
func (t *wgpuTexture) Size() (uint32, uint32)     { return t.desc.Width, t.desc.Height }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.desc.Format }

func (t *wgpuTexture) Release() {
	if t.view == nil {
		return
	}
	t.view.Release()
	t.texture.Release()
	t.view, t.texture = nil, nil
}
