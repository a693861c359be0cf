package model

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-orbit/common"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for ring pipelines.
// Matches GPUVertex layout exactly (12 bytes, one float32x3 attribute at location 0).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexStride is the byte distance between consecutive vertices in a vertex buffer.
const GPUVertexStride = 12

// GPUVertex is a single ring vertex in model space.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 12 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset 0: x, y, z
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 12-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexStride)
	common.PutFloat32s(buf, g.Position[:]...)
	return buf
}

// MarshalVertices packs vertices into one contiguous little-endian buffer with a 12-byte stride.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*12 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexStride)
	for i := range vertices {
		common.PutFloat32s(buf[i*GPUVertexStride:], vertices[i].Position[:]...)
	}
	return buf
}
