package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("ring_mesh", WithVertexCount(129))

	assert.Equal(t, "ring_mesh", p.Label())
	assert.Equal(t, 129, p.VertexCount())
	assert.Nil(t, p.VertexBuffer())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
}

func TestReleaseWithoutGPUResources(t *testing.T) {
	p := NewBindGroupProvider("camera_0")
	p.SetVertexCount(12)
	assert.NotPanics(t, p.Release)
	assert.Equal(t, 0, p.VertexCount())
}

func TestBufferWriteLen(t *testing.T) {
	w := BufferWrite{Binding: 0, Data: make([]byte, 64)}
	assert.Equal(t, 64, w.Len())
}
