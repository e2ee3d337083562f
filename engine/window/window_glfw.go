package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW platform window.
type glfwWindow struct {
	window *glfw.Window
	open   bool
}

var _ platform = &glfwWindow{}

// newGLFWWindow creates a GLFW window without a client API context, applies the size limits of w and
// routes key and framebuffer size events to it. w's size is updated to the actual framebuffer size,
// which differs from the requested size on high-DPI displays.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	// WebGPU owns the surface.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw create window %q: %w", w.title, err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	gw := &glfwWindow{window: win, open: true}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if w.closeOnEscape && key == glfw.KeyEscape && action == glfw.Press {
			gw.open = false
			win.SetShouldClose(true)
			return
		}
		if action == glfw.Release {
			w.key(uint32(key), false)
			return
		}
		w.key(uint32(key), true)
	})

	// The surface and the pipeline viewport are in pixels, so track the framebuffer and not the window.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()

	return gw, nil
}

// surfaceDescriptor uses the wgpuglfw bridge, which covers Windows, X11, Wayland and macOS.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) running() bool {
	return g.open && !g.window.ShouldClose()
}

func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return g.running()
}

// close destroys the window and terminates GLFW.
func (g *glfwWindow) close() {
	g.open = false
	g.window.SetShouldClose(true)
	g.window.Destroy()
	glfw.Terminate()
}
