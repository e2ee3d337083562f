package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
)

// engine implements the Engine interface.
// Coordinates the logic tick, render and window threads around one render pipeline.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	// frameMu serializes the logic-side CollectVisible against the render-side SwapBuffers and guards
	// the pipeline containers.
	frameMu        *sync.Mutex
	ctx            pipeline.Context
	contextOptions []pipeline.ContextBuilderOption
	root           *command.Container
	shadow         *command.Container

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It replays a render pipeline every frame and orchestrates the logic loop, render loop and window management.
type Engine interface {
	// Window returns the underlying window, or nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer the pipeline draws with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Context returns the pipeline context every replay runs against.
	//
	// Returns:
	//   - pipeline.Context: the pipeline context
	Context() pipeline.Context

	// SetPipeline replaces the main render pipeline. It takes effect at the next frame.
	//
	// Parameters:
	//   - c: the pipeline container, nil for none
	SetPipeline(c *command.Container)

	// Pipeline returns the main render pipeline.
	//
	// Returns:
	//   - *command.Container: the pipeline container
	Pipeline() *command.Container

	// SetShadowPipeline replaces the shadow pipeline, replayed before the main pipeline with the
	// context's shadow pass flag set. It takes effect at the next frame.
	//
	// Parameters:
	//   - c: the shadow pipeline container, nil for none
	SetShadowPipeline(c *command.Container)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback and visibility collection run at this rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, before visibility is collected.
	// Use this for game logic, input processing and updating what the mesh collector holds.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// CollectFrame runs the logic-side half of the visibility hand-off on both pipelines.
	CollectFrame()

	// RenderFrame renders one frame: it publishes collected visibility, replays the shadow pipeline
	// and then the main pipeline, presents and advances the frame index.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: error if the frame could not begin; nothing was replayed
	RenderFrame(deltaTime float32) error

	// Resize updates the renderer surface and the pipeline viewport. Empty sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Run starts the logic and render loops and blocks until the window closes or Quit is called.
	// Without a window Run blocks until Quit. The framebuffers and textures cached in the pipeline
	// context are released before Run returns.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine replaying pipelines with the given renderer.
// The pipeline context is created from the renderer, the window viewport and WithContextOptions.
// Panics if r is nil.
//
// Parameters:
//   - r: the renderer the pipelines draw with
//   - options: functional options for engine configuration (pipelines, window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, options ...EngineBuilderOption) Engine {
	if r == nil {
		panic("engine: NewEngine requires a non-nil Renderer")
	}

	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		renderer:         r,
		frameMu:          &sync.Mutex{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	contextOptions := e.contextOptions
	if e.window != nil {
		contextOptions = append([]pipeline.ContextBuilderOption{pipeline.WithViewport(e.window.Viewport())}, contextOptions...)
		e.window.SetResizeCallback(e.Resize)
	}
	e.ctx = pipeline.NewContext(r, contextOptions...)

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Context() pipeline.Context {
	return e.ctx
}

func (e *engine) SetPipeline(c *command.Container) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.root = c
}

func (e *engine) Pipeline() *command.Container {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.root
}

func (e *engine) SetShadowPipeline(c *command.Container) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.shadow = c
}

func (e *engine) CollectFrame() {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.shadow.CollectVisible(e.ctx)
	e.root.CollectVisible(e.ctx)
}

func (e *engine) RenderFrame(deltaTime float32) error {
	e.frameMu.Lock()
	root, shadow := e.root, e.shadow
	shadow.SwapBuffers(e.ctx)
	root.SwapBuffers(e.ctx)
	e.frameMu.Unlock()

	if err := e.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("engine: begin frame: %w", err)
	}

	executed := 0
	if shadow.Len() > 0 {
		e.ctx.SetShadowPass(true)
		executed += shadow.Execute(e.ctx)
		e.ctx.SetShadowPass(false)
	}
	executed += root.Execute(e.ctx)

	e.renderer.EndFrame()
	e.renderer.Present()
	e.ctx.AdvanceFrame()

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.AddCommands(executed)
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	e.ctx.SetViewport(common.Viewport{Width: width, Height: height})
	common.Logger().Debug("viewport resized", "width", width, "height", height)
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
	e.ctx.Release()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.running = true
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// recoverAndQuit logs a recovered panic of a loop goroutine and signals quit.
func (e *engine) recoverAndQuit(loop string) {
	if r := recover(); r != nil {
		common.Logger().Error("goroutine recovered from panic", "loop", loop, "panic", fmt.Sprint(r))
		e.signalQuit()
	}
}

// handleEngine runs the fixed-rate logic loop in its own goroutine.
// Fires the tick callback and then collects visibility at the configured tick rate, and listens for
// dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverAndQuit("engine")

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
			e.CollectFrame()
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverAndQuit("render")

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.RenderFrame(dt); err != nil {
				common.Logger().Warn("frame skipped", "error", err)
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
