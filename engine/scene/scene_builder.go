package scene

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithItems registers initial items with a pass.
//
// Parameters:
//   - pass: the pass number
//   - items: the items to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithItems(pass int, items ...DrawItem) SceneBuilderOption {
	return func(s *scene) {
		p := s.pass(pass)
		for _, item := range items {
			if item != nil {
				p.items = append(p.items, item)
			}
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used to cull during CollectVisible.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithChunkSize sets how many items one culling task tests. Defaults to 256.
//
// Parameters:
//   - n: the chunk size (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithChunkSize(n int) SceneBuilderOption {
	return func(s *scene) {
		s.chunkSize = max(n, 1)
	}
}

// WithCullingDisabled disables frustum culling. Every registered item is drawn.
// By default culling is enabled once a frustum is set.
//
// Parameters:
//   - disabled: true to disable frustum culling
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}

// WithFrustum sets the initial culling frustum.
//
// Parameters:
//   - f: the view frustum
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFrustum(f common.Frustum) SceneBuilderOption {
	return func(s *scene) {
		s.frustum = f
		s.hasFrustum = true
	}
}
