package renderer

import (
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a configuration string ("vsync" or "uncapped") to a PresentMode.
//
// Parameters:
//   - s: the configured mode name
//
// Returns:
//   - PresentMode: the matching mode
//   - bool: false if s names no mode
func ParsePresentMode(s string) (PresentMode, bool) {
	switch s {
	case "vsync", "":
		return PresentModeVSync, true
	case "uncapped":
		return PresentModeUncapped, true
	default:
		return PresentModeVSync, false
	}
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// maxSkippedFrames is the number of consecutive surface acquisition failures tolerated before
// the device is reported lost.
const maxSkippedFrames = 3

// SurfaceSource supplies the platform surface and its current pixel size.
// engine/window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// RendererBackend is the GPU API behind a Renderer. The renderer owns the pipeline cache and
// frame sequencing; the backend owns every GPU object.
type RendererBackend interface {
	// ConfigureSurface (re)configures the swapchain and the MSAA target for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface or MSAA texture could not be configured
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the shader modules, layouts and render pipeline for p and
	// attaches the result with p.SetRenderPipeline.
	//
	// Parameters:
	//   - p: the pipeline holding the vertex and fragment shaders and rasterization state
	//
	// Returns:
	//   - error: a *common.ShaderCompilationError if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers creates a vertex buffer sized exactly to vertexData, writes it once and stores
	// it on the provider together with vertexCount.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error

	// InitBindGroup creates the buffers and bind group described by descriptor and stores them on the provider.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers enqueues each write on the device queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the swapchain texture and begins the clearing render pass.
	BeginFrame() error

	// DrawCall encodes a non-indexed draw of the provider's vertex buffer.
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the command buffer.
	EndFrame() error

	// Present presents the acquired surface texture and releases the frame's references.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}
