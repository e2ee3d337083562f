package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOptions(t *testing.T) {
	tests := []struct {
		name          string
		options       []WindowBuilderOption
		width, height int
	}{
		{"defaults", nil, 1280, 720},
		{"size", []WindowBuilderOption{WithSize(800, 600)}, 800, 600},
		{"clamped up", []WindowBuilderOption{WithSize(10, 10)}, 320, 200},
		{"clamped by limits", []WindowBuilderOption{WithSize(4000, 100), WithSizeLimits(640, 480, 1920, 1080)}, 1920, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			assert.Equal(t, tt.width, w.Width())
			assert.Equal(t, tt.height, w.Height())
			assert.Equal(t, common.Viewport{Width: tt.width, Height: tt.height}, w.Viewport())
		})
	}
}

func TestWindowCallbacks(t *testing.T) {
	w := newEngineWindow(WithTitle("test"), WithCloseOnEscape(false))
	assert.Equal(t, "test", w.title)
	assert.False(t, w.closeOnEscape)

	var sizes [][2]int
	var keys []uint32
	w.resized(1, 1)
	w.key(1, true)

	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })
	w.SetKeyCallback(func(keyCode uint32, down bool) {
		if down {
			keys = append(keys, keyCode)
		}
	})
	w.resized(1024, 768)
	w.key(65, true)
	w.key(65, false)

	assert.Equal(t, [][2]int{{1024, 768}}, sizes)
	assert.Equal(t, []uint32{65}, keys)
	assert.Equal(t, common.Viewport{Width: 1024, Height: 768}, w.Viewport())
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), ErrNotSpawned)
}

type fakePlatform struct {
	polls  int
	closed bool
}

func (f *fakePlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return &wgpu.SurfaceDescriptor{}
}
func (f *fakePlatform) running() bool { return !f.closed && f.polls < 3 }
func (f *fakePlatform) close()        { f.closed = true }

func (f *fakePlatform) poll() bool {
	f.polls++
	return f.running()
}

func TestProcessMessagesUntilClosed(t *testing.T) {
	fake := &fakePlatform{}
	w := newEngineWindow()
	w.platform = fake

	updates := 0
	w.SetUpdateCallback(func() { updates++ })
	require.True(t, w.IsRunning())
	require.NotNil(t, w.SurfaceDescriptor())

	w.ProcessMessages()
	assert.Equal(t, 3, fake.polls)
	assert.Equal(t, 2, updates, "no update after the poll that saw the window close")

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
	assert.False(t, w.IsRunning())
	assert.ErrorIs(t, w.Close(), ErrNotSpawned)
}
