package common

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, float32(1), Coalesce(float32(0), 1))
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		n, d, want uint32
	}{
		{0, 8, 0},
		{1, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{1920, 16, 120},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CeilDiv(tt.n, tt.d), "CeilDiv(%d, %d)", tt.n, tt.d)
	}
}

func TestViewportScaled(t *testing.T) {
	v := Viewport{Width: 1280, Height: 720}

	w, h := v.Scaled(0.5)
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(360), h)

	w, h = v.Scaled(0)
	assert.Equal(t, uint32(1280), w)
	assert.Equal(t, uint32(720), h)

	w, h = Viewport{}.Scaled(0.25)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)

	assert.True(t, Viewport{Width: 10}.Empty())
	assert.False(t, v.Empty())
}

func TestFrustumContainsSphere(t *testing.T) {
	// Orthographic-style identity matrix: the frustum is the [-1, 1] cube.
	identity := []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	f := ExtractFrustumFromMatrix(identity)

	assert.InDelta(t, 1.0, f.Planes[FrustumLeft].Normal[0], 1e-6)
	assert.InDelta(t, -1.0, f.Planes[FrustumRight].Normal[0], 1e-6)

	assert.True(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, 0}, Radius: 0.1}))
	assert.True(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{1.5, 0, 0}, Radius: 0.6}))
	assert.False(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{3, 0, 0}, Radius: 0.5}))
	assert.False(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, -4, 0}, Radius: 1}))
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, Logger())
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	Logger().Info("hello", "frame", 1)
	assert.Contains(t, buf.String(), "hello")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}

func TestMul4Identity(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	id := make([]float32, 16)
	Identity(id)

	out := make([]float32, 16)
	Mul4(out, a, id)
	assert.Equal(t, a, out)
	Mul4(out, id, a)
	assert.Equal(t, a, out)
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	view := make([]float32, 16)
	LookAt(view, [3]float32{0, 0, 5}, [3]float32{}, [3]float32{0, 1, 0})

	// The target lands five units down the negative Z axis.
	assert.InDelta(t, 0, view[12], 1e-6)
	assert.InDelta(t, 0, view[13], 1e-6)
	assert.InDelta(t, -5, view[14], 1e-6)
	assert.InDelta(t, 1, view[0], 1e-6)
	assert.InDelta(t, 1, view[5], 1e-6)
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := make([]float32, 16)
	Perspective(proj, 1, 1, 1, 10)

	// Clip z / w maps the near plane to 0 and the far plane to 1.
	depth := func(viewZ float32) float32 {
		z := proj[10]*viewZ + proj[14]
		w := proj[11] * viewZ
		return z / w
	}
	assert.InDelta(t, 0, depth(-1), 1e-5)
	assert.InDelta(t, 1, depth(-10), 1e-5)
}
