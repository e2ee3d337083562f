// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Viewport is the pixel rectangle the pipeline renders into for the current frame.
// It is updated from the window's framebuffer size and read by commands that derive
// resource sizes or dispatch group counts from the output size.
type Viewport struct {
	// X and Y are the top-left corner of the viewport in pixels.
	X, Y int
	// Width and Height are the viewport dimensions in pixels.
	Width, Height int
}

// Size returns the viewport dimensions as unsigned values suitable for GPU resource descriptors.
// Negative dimensions clamp to zero.
//
// Returns:
//   - uint32: the width in pixels
//   - uint32: the height in pixels
func (v Viewport) Size() (uint32, uint32) {
	return uint32(max(v.Width, 0)), uint32(max(v.Height, 0))
}

// Scaled returns the viewport dimensions multiplied by scale, rounded down and clamped to at least 1x1.
// A scale of 0 is treated as 1.
//
// Parameters:
//   - scale: the multiplier applied to both dimensions (e.g. 0.5 for a half resolution target)
//
// Returns:
//   - uint32: the scaled width in pixels
//   - uint32: the scaled height in pixels
func (v Viewport) Scaled(scale float32) (uint32, uint32) {
	scale = Coalesce(scale, 1)
	w, h := v.Size()
	return max(uint32(float32(w)*scale), 1), max(uint32(float32(h)*scale), 1)
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// BoundingSphere is a world-space sphere used for coarse visibility tests.
type BoundingSphere struct {
	Center [3]float32
	Radius float32
}
