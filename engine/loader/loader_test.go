package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tonemapSource = `
@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {}
`

const forwardTOML = `
[[commands]]
type = "clear"
color = true
depth = true

[[commands]]
type = "cache_fbo"
name = "Scene"
scale = 0.5

[[commands]]
type = "bind_fbo"
name = "Scene"

  [[commands.body]]
  type = "clear"
  color = true

  [[commands.body]]
  type = "render_meshes"
  pass = 1

[[commands]]
type = "if"
condition = "bloom"

  [[commands.then]]
  type = "dispatch"
  shader = "tonemap"
  groups = [2, 2]

  [[commands.else]]
  type = "memory_barrier"
  mask = ["image"]
`

const qualityYAML = `
commands:
  - type: switch
    key: quality
    cases:
      0:
        - type: clear
          color: true
      1:
        - type: depth_test
          enabled: false
    default:
      - type: run
        action: count
`

func newTestContext(t *testing.T) (pipeline.Context, *renderer.RecordingBackend) {
	t.Helper()
	rec := renderer.NewRecordingBackend()
	r := renderer.NewRenderer(renderer.BackendTypeRecording, renderer.WithBackend(rec))
	rec.Reset()
	return pipeline.NewContext(r, pipeline.WithViewport(common.Viewport{Width: 640, Height: 480})), rec
}

func TestLoadTOML(t *testing.T) {
	bloom := true
	l := NewLoader(
		WithCondition("bloom", func(pipeline.Context) bool { return bloom }),
		WithShader(shader.NewShader("tonemap", shader.WithSource(tonemapSource))),
	)
	c, err := l.LoadReader("forward", strings.NewReader(forwardTOML), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Len())
	assert.Same(t, c, l.Get("forward"))

	ctx, rec := newTestContext(t)
	c.Execute(ctx)
	assert.Equal(t, []string{
		"clear surface color=true depth=true stencil=false",
		"create framebuffer Scene 320x240",
		"bind framebuffer Scene",
		"clear framebuffer Scene color=true depth=false stencil=false",
		"bind surface",
		"build tonemap v1",
		"dispatch tonemap 2x2x1 []",
	}, rec.Trace())

	bloom = false
	rec.Reset()
	c.Execute(ctx)
	assert.Equal(t, "barrier 1", rec.Trace()[len(rec.Trace())-1])
}

func TestLoadYAMLSwitch(t *testing.T) {
	quality, runs := 0, 0
	l := NewLoader(
		WithSwitch("quality", func(pipeline.Context) int { return quality }),
		WithAction("count", func(pipeline.Context) { runs++ }),
	)
	c, err := l.LoadReader("quality", strings.NewReader(qualityYAML), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.IsType(t, &command.Switch{}, c.Commands()[0])

	ctx, rec := newTestContext(t)
	c.Execute(ctx)
	quality = 1
	c.Execute(ctx)
	quality = 9
	c.Execute(ctx)

	assert.Equal(t, []string{
		"clear surface color=true depth=false stencil=false",
		"depth test=false write=true func=less",
	}, rec.Trace())
	assert.Equal(t, 1, runs)
}

func TestLoadFromFileIsCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forward.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[commands]]\ntype = \"clear\"\ncolor = true\n"), 0o644))

	l := NewLoader()
	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, l.Pipelines(), 1)

	l.Evict(path)
	third, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.toml", FormatTOML},
		{"b.YAML", FormatYAML},
		{"dir/c.yml", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatForPath("pipeline.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = NewLoader().Load("pipeline.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown command", "commands:\n  - type: explode\n", command.ErrUnknownCommand},
		{"missing type", "commands:\n  - color: true\n", ErrMalformedPipeline},
		{"bad param", "commands:\n  - type: depth_func\n    func: sideways\n", command.ErrInvalidParam},
		{"push without body", "commands:\n  - type: bind_output_fbo\n", command.ErrPushCommand},
		{"body on terminal", "commands:\n  - type: clear\n    body: []\n", command.ErrNotPushCommand},
		{"body not a list", "commands:\n  - type: bind_output_fbo\n    body: nope\n", ErrMalformedPipeline},
		{"unknown condition", "commands:\n  - type: if\n    condition: nope\n", ErrUnknownCondition},
		{"unknown switch", "commands:\n  - type: switch\n    key: nope\n", ErrUnknownSwitch},
		{"unknown shader", "commands:\n  - type: dispatch\n    shader: nope\n", ErrUnknownShader},
		{"unknown action", "commands:\n  - type: run\n    action: nope\n", ErrUnknownAction},
		{"nested error", "commands:\n  - type: bind_output_fbo\n    body:\n      - type: explode\n", command.ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader()
			_, err := l.LoadReader(tt.name, strings.NewReader(tt.yaml), FormatYAML)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, l.Get(tt.name))
		})
	}
}

func TestNormalize(t *testing.T) {
	got := normalize(map[string]any{
		"cases": map[any]any{0: []any{map[string]any{"type": "clear"}}},
		"list":  []map[string]any{{"a": 1}},
	})
	assert.Equal(t, map[string]any{
		"cases": map[string]any{"0": []any{map[string]any{"type": "clear"}}},
		"list":  []any{map[string]any{"a": 1}},
	}, got)
}
