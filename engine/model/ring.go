package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/chewxy/math32"
)

// RingDescriptor describes a circle of points in the z = 0 plane centred on the origin.
type RingDescriptor struct {
	// Radius is the distance of every point from the origin. Must be positive and finite.
	Radius float32
	// SampleCount is the number of distinct points on the circle. Must be at least 3.
	SampleCount int
	// Closed appends a copy of the first point so a line strip draws a closed loop.
	Closed bool
}

// DefaultRingDescriptor returns the ring drawn by the viewer when no configuration overrides it.
//
// Returns:
//   - RingDescriptor: radius 0.7, 128 samples, closed
func DefaultRingDescriptor() RingDescriptor {
	return RingDescriptor{Radius: 0.7, SampleCount: 128, Closed: true}
}

// VertexCount returns how many vertices BuildRing produces for this descriptor.
//
// Returns:
//   - int: SampleCount+1 when closed, SampleCount otherwise
func (d RingDescriptor) VertexCount() int {
	if d.Closed {
		return d.SampleCount + 1
	}
	return d.SampleCount
}

// Validate reports whether the descriptor can produce a ring.
//
// Returns:
//   - error: wraps common.ErrInvalidGeometryParameters when invalid
func (d RingDescriptor) Validate() error {
	if d.SampleCount < 3 {
		return fmt.Errorf("%w: sample count %d is below 3", common.ErrInvalidGeometryParameters, d.SampleCount)
	}
	if math32.IsNaN(d.Radius) || math32.IsInf(d.Radius, 0) || d.Radius <= 0 {
		return fmt.Errorf("%w: radius %v must be positive and finite", common.ErrInvalidGeometryParameters, d.Radius)
	}
	return nil
}

// BuildRing samples the circle described by desc. Vertex i lies at angle 2π·i/SampleCount.
// When desc.Closed is set the final vertex is an exact copy of vertex 0.
//
// Parameters:
//   - desc: the ring to build
//
// Returns:
//   - []GPUVertex: the sampled vertices
//   - error: wraps common.ErrInvalidGeometryParameters if desc is invalid
func BuildRing(desc RingDescriptor) ([]GPUVertex, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	vertices := make([]GPUVertex, desc.VertexCount())
	step := common.TwoPi / float32(desc.SampleCount)
	for i := range desc.SampleCount {
		s, c := math32.Sincos(float32(i) * step)
		vertices[i] = GPUVertex{Position: [3]float32{desc.Radius * c, desc.Radius * s, 0}}
	}
	if desc.Closed {
		vertices[desc.SampleCount] = vertices[0]
	}
	return vertices, nil
}
