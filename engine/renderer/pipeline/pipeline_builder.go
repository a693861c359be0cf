package pipeline

import (
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for this pipeline.
//
// Parameters:
//   - s: the vertex shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for this pipeline.
//
// Parameters:
//   - s: the fragment shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader for this pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithBlendEnabled sets whether the color target blends with the cleared background.
//
// Parameters:
//   - enabled: a boolean indicating whether blending should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend enabled state for this pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use for this pipeline (e.g., wgpu.PrimitiveTopologyLineStrip, wgpu.PrimitiveTopologyLineList)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithBlendState sets the blend state for this pipeline.
//
// Parameters:
//   - blendState: the blend state applied to the color target when blending is enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// BlendMode selects how the line color combines with the cleared background.
type BlendMode string

const (
	// BlendOpaque writes the line color as is. This is the default.
	BlendOpaque BlendMode = "opaque"

	// BlendAlpha mixes the line color over the background by its alpha.
	BlendAlpha BlendMode = "alpha"

	// BlendAdditive adds the alpha-scaled line color to the background.
	BlendAdditive BlendMode = "additive"
)

// ParseBlendMode maps a configuration string to a BlendMode. The empty string is BlendOpaque.
//
// Parameters:
//   - s: the configured mode name
//
// Returns:
//   - BlendMode: the matching mode
//   - bool: false if s names no mode
func ParseBlendMode(s string) (BlendMode, bool) {
	switch mode := BlendMode(s); mode {
	case "", BlendOpaque:
		return BlendOpaque, true
	case BlendAlpha, BlendAdditive:
		return mode, true
	default:
		return BlendOpaque, false
	}
}

// WithBlendMode enables and configures blending for mode.
//
// Parameters:
//   - mode: the blend mode for the color target
//
// Returns:
//   - PipelineBuilderOption: a function that applies the blend mode to this pipeline
func WithBlendMode(mode BlendMode) PipelineBuilderOption {
	switch mode {
	case BlendAlpha:
		return WithBlendEnabled(true)
	case BlendAdditive:
		return func(p *pipeline) {
			WithBlendEnabled(true)(p)
			WithBlendState(&wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOne,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOne,
					Operation: wgpu.BlendOperationAdd,
				},
			})(p)
		}
	default:
		return WithBlendEnabled(false)
	}
}
