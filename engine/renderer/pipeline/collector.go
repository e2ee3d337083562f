package pipeline

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
)

// MeshCollector draws every mesh draw call queued for a numbered pass.
type MeshCollector interface {
	Render(pass int)
}

// VisibilityCollector is implemented by mesh collectors that double-buffer their draw lists.
// CollectVisible fills the back buffer for a pass and SwapBuffers publishes it to Render.
// Several commands may share a pass, and conditionals forward both calls to every branch, so a pass can
// be collected and swapped more than once per frame: SwapBuffers must only publish a collection that is
// newer than the last one published.
type VisibilityCollector interface {
	CollectVisible(pass int)
	SwapBuffers(pass int)
}

// UIRenderer composites screen-space UI into target, or into the surface when target is nil.
type UIRenderer interface {
	Render(viewport common.Viewport, target renderer.Framebuffer)
}

// UICollector is implemented by UI renderers that double-buffer their UI draw lists. SwapBuffers
// follows the same rule as VisibilityCollector.SwapBuffers.
type UICollector interface {
	CollectVisible()
	SwapBuffers()
}
