package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
)

// DrawItem is a drawable registered with a Scene for one pass.
type DrawItem interface {
	// Bounds returns the world-space bounding sphere used for frustum culling.
	//
	// Returns:
	//   - common.BoundingSphere: the item's bounds
	Bounds() common.BoundingSphere

	// Draw records the item's draw calls into an open pass. Render pipelines are built against the pass's
	// ColorFormat, SampleCount and DepthStencil so the depth state set by the frame pipeline applies.
	//
	// Parameters:
	//   - p: the draw pass on the current render target
	Draw(p renderer.DrawPass)
}

// Scene is the mesh collector consumed by render pipelines. It keeps one double-buffered draw list per
// numbered pass: CollectVisible culls the registered items of a pass into the back buffer, SwapBuffers
// publishes it and Render draws the published list.
//
// CollectVisible runs on the logic side while Render runs on the render side; the owner serializes
// CollectVisible against SwapBuffers.
type Scene interface {
	pipeline.MeshCollector
	pipeline.VisibilityCollector

	// Name returns the name of the scene.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Add registers items with a pass. They become visible after the next CollectVisible and SwapBuffers.
	//
	// Parameters:
	//   - pass: the pass number
	//   - items: the items to add
	Add(pass int, items ...DrawItem)

	// Remove unregisters an item from a pass.
	//
	// Parameters:
	//   - pass: the pass number
	//   - item: the item to remove
	//
	// Returns:
	//   - bool: true if the item was registered
	Remove(pass int, item DrawItem) bool

	// ClearPass unregisters every item of a pass.
	//
	// Parameters:
	//   - pass: the pass number
	ClearPass(pass int)

	// SetFrustum sets the frustum CollectVisible culls against.
	//
	// Parameters:
	//   - f: the view frustum
	SetFrustum(f common.Frustum)

	// Frustum returns the current frustum.
	//
	// Returns:
	//   - common.Frustum: the frustum
	//   - bool: false if no frustum was set
	Frustum() (common.Frustum, bool)

	// ItemCount returns the number of items registered with a pass.
	ItemCount(pass int) int

	// VisibleCount returns the number of items Render draws for a pass.
	VisibleCount(pass int) int

	// Passes returns the pass numbers with registered items, in ascending order.
	Passes() []int
}

// passList is the draw list state of one pass.
type passList struct {
	items []DrawItem
	back  []DrawItem
	front []DrawItem
	// pending is set once back holds a collection that has not been published yet.
	pending bool
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name string
	r    renderer.Renderer

	passes map[int]*passList

	frustum         common.Frustum
	hasFrustum      bool
	cullingDisabled bool

	// computePool runs the per-chunk culling tasks of CollectVisible. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
	chunkSize      int
}

var _ Scene = &scene{}

// NewScene creates a new Scene drawing with the given renderer. NewScene panics if r is nil.
//
// Parameters:
//   - name: the name of the scene
//   - r: the renderer passed to every DrawItem (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		r:              r,
		passes:         make(map[int]*passList),
		computeWorkers: max(runtime.NumCPU()-1, 1),
		chunkSize:      256,
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) pass(pass int) *passList {
	p, ok := s.passes[pass]
	if !ok {
		p = &passList{}
		s.passes[pass] = p
	}
	return p
}

func (s *scene) Add(pass int, items ...DrawItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pass(pass)
	for _, item := range items {
		if item != nil {
			p.items = append(p.items, item)
		}
	}
}

func (s *scene) Remove(pass int, item DrawItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.passes[pass]
	if !ok {
		return false
	}
	i := slices.Index(p.items, item)
	if i < 0 {
		return false
	}
	p.items = slices.Delete(p.items, i, i+1)
	return true
}

func (s *scene) ClearPass(pass int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.passes[pass]; ok {
		p.items = nil
	}
}

func (s *scene) SetFrustum(f common.Frustum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frustum = f
	s.hasFrustum = true
}

func (s *scene) Frustum() (common.Frustum, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frustum, s.hasFrustum
}

func (s *scene) ItemCount(pass int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.passes[pass]; ok {
		return len(p.items)
	}
	return 0
}

func (s *scene) VisibleCount(pass int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.passes[pass]; ok {
		return len(p.front)
	}
	return 0
}

func (s *scene) Passes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	passes := make([]int, 0, len(s.passes))
	for pass, p := range s.passes {
		if len(p.items) > 0 {
			passes = append(passes, pass)
		}
	}
	slices.Sort(passes)
	return passes
}

// CollectVisible culls the items of a pass against the frustum into the pass's back buffer. Without a
// frustum, or with culling disabled, every item is visible. Chunks of items are culled in parallel on
// the compute pool.
func (s *scene) CollectVisible(pass int) {
	s.mu.RLock()
	p, ok := s.passes[pass]
	if !ok {
		s.mu.RUnlock()
		return
	}
	items := slices.Clone(p.items)
	back := p.back[:0]
	frustum, cull := s.frustum, s.hasFrustum && !s.cullingDisabled
	s.mu.RUnlock()

	if !cull {
		back = append(back, items...)
	} else {
		visible := s.cull(items, frustum)
		for i, item := range items {
			if visible[i] {
				back = append(back, item)
			}
		}
	}

	s.mu.Lock()
	p.back = back
	p.pending = true
	s.mu.Unlock()
}

// cull tests every item against f. Each task writes a disjoint range of the result, and a WaitGroup
// provides the per-call barrier since pool.Wait() blocks until workers idle-exit.
func (s *scene) cull(items []DrawItem, f common.Frustum) []bool {
	visible := make([]bool, len(items))
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(items); start += s.chunkSize {
		end := min(start+s.chunkSize, len(items))
		wg.Add(1)
		id := taskID
		taskID++
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					visible[i] = f.ContainsSphere(items[i].Bounds())
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return visible
}

// SwapBuffers publishes the back buffer of a pass. The previous front buffer's storage becomes the next
// back buffer. Without a CollectVisible since the last swap it is a no-op, so several commands sharing a
// pass publish one collection per frame.
func (s *scene) SwapBuffers(pass int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.passes[pass]
	if !ok || !p.pending {
		return
	}
	p.front, p.back = p.back, p.front[:0]
	p.pending = false
}

func (s *scene) Render(pass int) {
	s.mu.RLock()
	p, ok := s.passes[pass]
	var front []DrawItem
	if ok {
		front = p.front
	}
	s.mu.RUnlock()
	if len(front) == 0 {
		return
	}

	dp, err := s.r.BeginDraw()
	if err != nil {
		common.Logger().Warn("scene pass not drawn", "pass", pass, "error", err)
		return
	}
	defer dp.End()
	for _, item := range front {
		item.Draw(dp)
	}
}
