package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blurSource = `
// @compute fn commented_out() {}
/* @workgroup_size(1, 1) /* nested */ still comment */
@group(0) @binding(0) var srcImage: texture_storage_2d<rgba16float, read>;
@group(0) @binding(1) var dstImage: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(16, 8)
fn blur_main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func TestNewShaderParsesMetadata(t *testing.T) {
	s := NewShader("blur", WithSource(blurSource))

	assert.Equal(t, "blur", s.Key())
	assert.Equal(t, uint64(1), s.Version())
	assert.Equal(t, "blur_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{16, 8, 1}, s.WorkgroupSize())

	dst, ok := s.ImageBinding("dstImage")
	require.True(t, ok)
	assert.Equal(t, uint32(1), dst.Binding)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, dst.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, dst.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, dst.Dimension)

	src, ok := s.ImageBinding("srcImage")
	require.True(t, ok)
	assert.Equal(t, wgpu.StorageTextureAccessReadOnly, src.Access)
	assert.Len(t, s.ImageBindings(), 2)

	require.NotNil(t, s.Module())
	assert.Equal(t, blurSource, s.Module().WGSLDescriptor.Code)
}

func TestSetSourceBumpsVersion(t *testing.T) {
	s := NewShader("empty")
	assert.Equal(t, uint64(0), s.Version())
	assert.Nil(t, s.Module())

	s.SetSource(blurSource)
	assert.Equal(t, uint64(1), s.Version())

	s.SetSource(blurSource)
	assert.Equal(t, uint64(1), s.Version(), "identical source must not dirty the shader")

	s.SetSource("@compute @workgroup_size(64) fn other() {}")
	assert.Equal(t, uint64(2), s.Version())
	assert.Equal(t, "other", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Empty(t, s.ImageBindings())
}

func TestLoadShader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blur.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(blurSource), 0o644))

	s, err := LoadShader("blur", path)
	require.NoError(t, err)
	assert.Equal(t, "blur_main", s.EntryPoint())

	_, err = LoadShader("missing", filepath.Join(t.TempDir(), "nope.wgsl"))
	assert.Error(t, err)
}

func TestWithSourceFromPathPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		NewShader("missing", WithSourceFromPath(filepath.Join(t.TempDir(), "nope.wgsl")))
	})
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a \nb\n", stripComments("a // x\nb"))
	assert.Equal(t, "ab\n", stripComments("a/* x /* y */ z */b"))
}

func TestSnapshotMatchesCurrentSource(t *testing.T) {
	s := NewShader("snap", WithSource("@compute @workgroup_size(1) fn first() {}"))
	snap := s.Snapshot()
	assert.EqualValues(t, 1, snap.Version)
	assert.Equal(t, "first", snap.EntryPoint)
	require.NotNil(t, snap.Module)

	s.SetSource("@compute @workgroup_size(1) fn second() {}")
	next := s.Snapshot()
	assert.EqualValues(t, 2, next.Version)
	assert.Equal(t, "second", next.EntryPoint)
	assert.NotSame(t, snap.Module, next.Module)
	assert.Same(t, next.Module, s.Module())
}
