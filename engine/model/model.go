package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
)

// model is the implementation of the Model interface.
type model struct {
	mu           *sync.Mutex
	name         string
	descriptor   RingDescriptor
	meshProvider bind_group_provider.BindGroupProvider
	vertexData   []byte
	vertexCount  int
}

// Model is a GPU-ready container for the ring mesh. It holds the packed vertex bytes until they
// are uploaded, the vertex count used by draw calls, and the BindGroupProvider that owns the
// GPU vertex buffer once uploaded.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Descriptor returns the ring parameters the mesh was built from.
	//
	// Returns:
	//   - RingDescriptor: the source descriptor
	Descriptor() RingDescriptor

	// MeshProvider retrieves the BindGroupProvider holding GPU mesh resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// VertexData returns the packed vertex bytes, or nil after ReleaseStaging.
	//
	// Returns:
	//   - []byte: the staged vertex data
	VertexData() []byte

	// VertexCount returns the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// ReleaseStaging drops the CPU copy of the vertex data once it lives on the GPU.
	ReleaseStaging()

	// Release frees GPU resources held by the mesh provider.
	Release()
}

var _ Model = &model{}

// NewRingModel builds the ring described by desc and stages its vertex bytes for upload.
//
// Parameters:
//   - name: the model identifier, also used as the mesh provider label
//   - desc: the ring to build
//   - options: functional options applied after the mesh is built
//
// Returns:
//   - Model: the staged model
//   - error: wraps common.ErrInvalidGeometryParameters if desc is invalid
func NewRingModel(name string, desc RingDescriptor, options ...ModelBuilderOption) (Model, error) {
	vertices, err := BuildRing(desc)
	if err != nil {
		return nil, err
	}
	m := &model{
		mu:          &sync.Mutex{},
		name:        name,
		descriptor:  desc,
		vertexData:  MarshalVertices(vertices),
		vertexCount: len(vertices),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.meshProvider == nil {
		m.meshProvider = bind_group_provider.NewBindGroupProvider(name+"_mesh", bind_group_provider.WithVertexCount(m.vertexCount))
	}
	return m, nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Descriptor() RingDescriptor {
	return m.descriptor
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) VertexData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexData
}

func (m *model) VertexCount() int {
	return m.vertexCount
}

func (m *model) ReleaseStaging() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vertexData = nil
}

func (m *model) Release() {
	if m.meshProvider != nil {
		m.meshProvider.Release()
	}
}
