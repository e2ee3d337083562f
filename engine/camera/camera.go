package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	up     [3]float32
	target [3]float32

	// Spherical coordinates of the eye around target.
	radius    float32
	azimuth   float32 // around the Y axis
	elevation float32 // from the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	position             [3]float32
	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
}

// Camera is an orbit camera around a target point. It provides the view-projection matrix and the
// culling frustum a scene uses to collect visible draw items.
type Camera interface {
	// Position returns the eye position derived from the orbit parameters.
	//
	// Returns:
	//   - [3]float32: the eye position in world space
	Position() [3]float32

	// Target returns the point the camera orbits and looks at.
	//
	// Returns:
	//   - [3]float32: the target in world space
	Target() [3]float32

	// SetTarget moves the orbit target, keeping radius and angles.
	//
	// Parameters:
	//   - target: the new target in world space
	SetTarget(target [3]float32)

	// Orbit rotates the eye around the target. The elevation is clamped to the configured bounds.
	//
	// Parameters:
	//   - dAzimuth: azimuth change in radians
	//   - dElevation: elevation change in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye towards (positive delta) or away from the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: distance to move towards the target
	Zoom(delta float32)

	// Radius returns the current eye distance from the target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// SetViewport updates the aspect ratio from the viewport. Empty viewports are ignored.
	//
	// Parameters:
	//   - v: the viewport the camera renders into
	SetViewport(v common.Viewport)

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// ViewProjectionMatrix returns the combined projection * view matrix, column-major.
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Frustum returns the culling frustum of the current view-projection matrix.
	//
	// Returns:
	//   - common.Frustum: the frustum with normalized planes
	Frustum() common.Frustum
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new orbit Camera looking at the origin from a 30 degree elevation.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:           &sync.Mutex{},
		up:           [3]float32{0, 1, 0},
		radius:       10,
		elevation:    float32(math.Pi / 6),
		minRadius:    0.5,
		maxRadius:    1000,
		minElevation: float32(-math.Pi/2 + 0.01),
		maxElevation: float32(math.Pi/2 - 0.01),
		fov:          45.0 * (math.Pi / 180.0), // radians
		aspect:       1.0,
		near:         0.1,
		far:          100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.radius = clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = clamp(c.elevation, c.minElevation, c.maxElevation)
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) SetTarget(target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) Orbit(dAzimuth, dElevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth = float32(math.Mod(float64(c.azimuth+dAzimuth), 2*math.Pi))
	c.elevation = clamp(c.elevation+dElevation, c.minElevation, c.maxElevation)
	c.updateMatrices()
}

func (c *cameraImpl) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clamp(c.radius-delta, c.minRadius, c.maxRadius)
	c.updateMatrices()
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) SetViewport(v common.Viewport) {
	if v.Empty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	aspect := float32(v.Width) / float32(v.Height)
	if aspect == c.aspect {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

// updateMatrices recomputes the eye position and the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.position = [3]float32{
		c.target[0] + c.radius*cosElev*sinAzim,
		c.target[1] + c.radius*sinElev,
		c.target[2] + c.radius*cosElev*cosAzim,
	}

	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
