package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRingDefault(t *testing.T) {
	vertices, err := BuildRing(RingDescriptor{Radius: 0.7, SampleCount: 128, Closed: true})
	require.NoError(t, err)
	require.Len(t, vertices, 129)

	assert.InDelta(t, 0.7, vertices[0].Position[0], 1e-6)
	assert.InDelta(t, 0, vertices[0].Position[1], 1e-6)
	assert.InDelta(t, -0.7, vertices[64].Position[0], 1e-6)
	assert.InDelta(t, 0, vertices[64].Position[1], 1e-6)
	assert.Equal(t, vertices[0], vertices[128])
}

func TestBuildRingPointsLieOnCircle(t *testing.T) {
	for _, n := range []int{3, 4, 17, 128, 1000} {
		vertices, err := BuildRing(RingDescriptor{Radius: 1.5, SampleCount: n, Closed: true})
		require.NoError(t, err)
		require.Len(t, vertices, n+1)
		for i, v := range vertices {
			r := math32.Hypot(v.Position[0], v.Position[1])
			assert.InDeltaf(t, 1.5, r, 1e-5, "n=%d vertex %d", n, i)
			assert.Equalf(t, float32(0), v.Position[2], "n=%d vertex %d", n, i)
		}
		assert.Equal(t, vertices[0], vertices[n])
	}
}

func TestBuildRingOpen(t *testing.T) {
	vertices, err := BuildRing(RingDescriptor{Radius: 1, SampleCount: 8})
	require.NoError(t, err)
	assert.Len(t, vertices, 8)
	assert.NotEqual(t, vertices[0], vertices[7])
}

func TestBuildRingIsDeterministic(t *testing.T) {
	desc := DefaultRingDescriptor()
	a, err := BuildRing(desc)
	require.NoError(t, err)
	b, err := BuildRing(desc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRingRejectsInvalidDescriptors(t *testing.T) {
	cases := map[string]RingDescriptor{
		"two samples":     {Radius: 1, SampleCount: 2, Closed: true},
		"zero samples":    {Radius: 1, SampleCount: 0},
		"negative sample": {Radius: 1, SampleCount: -4},
		"zero radius":     {Radius: 0, SampleCount: 16},
		"negative radius": {Radius: -1, SampleCount: 16},
		"nan radius":      {Radius: math32.NaN(), SampleCount: 16},
	}
	for name, desc := range cases {
		t.Run(name, func(t *testing.T) {
			vertices, err := BuildRing(desc)
			assert.ErrorIs(t, err, common.ErrInvalidGeometryParameters)
			assert.Nil(t, vertices)
		})
	}
}

func TestMarshalVertices(t *testing.T) {
	vertices, err := BuildRing(DefaultRingDescriptor())
	require.NoError(t, err)

	buf := MarshalVertices(vertices)
	require.Len(t, buf, 129*GPUVertexStride)

	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	for _, i := range []int{0, 1, 64, 128} {
		base := i * GPUVertexStride
		assert.Equal(t, vertices[i].Position[0], read(base))
		assert.Equal(t, vertices[i].Position[1], read(base+4))
		assert.Equal(t, vertices[i].Position[2], read(base+8))
	}

	single := vertices[1]
	assert.Equal(t, GPUVertexStride, single.Size())
	assert.Equal(t, buf[GPUVertexStride:2*GPUVertexStride], single.Marshal())
}

func TestNewRingModel(t *testing.T) {
	m, err := NewRingModel("ring", DefaultRingDescriptor())
	require.NoError(t, err)
	assert.Equal(t, 129, m.VertexCount())
	assert.Len(t, m.VertexData(), 129*GPUVertexStride)
	assert.Equal(t, "ring_mesh", m.MeshProvider().Label())
	assert.Equal(t, 129, m.MeshProvider().VertexCount())

	m.ReleaseStaging()
	assert.Nil(t, m.VertexData())
	assert.Equal(t, 129, m.VertexCount())

	_, err = NewRingModel("bad", RingDescriptor{Radius: 1, SampleCount: 2})
	assert.ErrorIs(t, err, common.ErrInvalidGeometryParameters)
}
