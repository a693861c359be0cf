package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-orbit/common"
)

// GPUMVPUniformSource is the canonical WGSL definition of the Uniforms struct.
// Matches GPUMVPUniform layout exactly (64 bytes).
//
//go:embed assets/mvp_uniform.wgsl
var GPUMVPUniformSource string

// GPUMVPUniformSize is the byte size of the MVP uniform buffer.
const GPUMVPUniformSize = 64

// GPUMVPUniform is the GPU-aligned representation of the MVP uniform buffer.
// Matches the WGSL Uniforms struct layout exactly (see GPUMVPUniformSource).
// Size: 64 bytes.
type GPUMVPUniform struct {
	MVP common.Matrix4 // offset 0: model-view-projection matrix (mat4x4<f32>, column-major)
}

// Size returns the size of the GPUMVPUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUMVPUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMVPUniform struct into a fresh byte buffer suitable for GPU upload.
// The returned slice never aliases the matrix.
//
// Returns:
//   - []byte: the serialized 64-byte buffer
func (g *GPUMVPUniform) Marshal() []byte {
	buf := make([]byte, GPUMVPUniformSize)
	common.PutFloat32s(buf, g.MVP[:]...)
	return buf
}
