package model

import "github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"

// ModelBuilderOption is a functional option used to configure a Model during construction.
type ModelBuilderOption func(*model)

// WithMeshProvider sets the BindGroupProvider that will own the GPU vertex buffer.
// When not set, a provider labelled "<name>_mesh" is created.
//
// Parameters:
//   - provider: the mesh provider
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.meshProvider = provider
	}
}
