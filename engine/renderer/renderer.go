package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultClearColor is the background the render pass clears to when no WithClearColor option is given.
var DefaultClearColor = wgpu.Color{R: 0.02, G: 0.02, B: 0.08, A: 1.0}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	// frameMu is held from BeginFrame through Present by RenderFrame, and by anything that
	// reconfigures or frees the surface.
	frameMu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      *slog.Logger
	validate    func(shader.Shader) error

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer owns the GPU device and surface through its backend, keeps a cache of compiled
// pipelines, and exposes the uploads and frame sequencing the render loop needs.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines compiles one or more pipelines and caches them by PipelineKey. Both shader
	// stages are validated offline first so a bad shader reports a readable diagnostic. Pipelines
	// whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a *common.ShaderCompilationError if validation or GPU pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface for a new size.
	// This should be called when re-sizing the window or when the surface size should change.
	// It may be called from any goroutine and waits for a frame in flight to be presented.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// InitMeshBuffers creates a GPU vertex buffer of exactly len(vertexData) bytes, writes the data
	// once, and stores the buffer and vertex count on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffer on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - vertexCount: the number of vertices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation or the upload fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Buffers are sized from MinBindingSize unless overridden.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferSizeOverrides: custom buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers writes all staged buffer writes to the GPU queue. Queue writes are ordered before
	// any later submission, so no caller-side synchronization is needed.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	//
	// Returns:
	//   - error: wraps common.ErrDeviceLost if the queue rejected a write
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all DrawCall invocations within a single frame.
	//
	// Returns:
	//   - error: wraps common.ErrFrameSkipped when the surface was reconfigured, or common.ErrDeviceLost
	BeginFrame() error

	// DrawCall encodes a non-indexed draw of the mesh provider's vertex buffer within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding the vertex buffer and vertex count
	//   - bindGroups: BindGroupProviders whose BindGroups are set at their slice index
	//
	// Returns:
	//   - error: an error if the pipeline is not found or no frame is in progress
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present() after EndFrame to display the frame.
	//
	// Returns:
	//   - error: wraps common.ErrDeviceLost if the command buffer could not be finished
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// RenderFrame runs a full frame: BeginFrame, one DrawCall, EndFrame and Present.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding the vertex buffer
	//   - bindGroups: BindGroupProviders whose BindGroups are set at their slice index
	//
	// Returns:
	//   - error: the draw and submit errors joined; once BeginFrame succeeds the texture is always presented
	RenderFrame(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release frees every cached pipeline and the GPU device. The Renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type, acquiring an adapter and a
// device for the surface and configuring the surface to its current size.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the window or other source of the platform surface descriptor and size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the initialized renderer
//   - error: wraps common.ErrDeviceUnavailable if no adapter or device could be acquired
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		backend, err := newWGPURendererBackend(surface.SurfaceDescriptor(), wgpuBackendConfig{
			forceFallbackAdapter: r.forceFallbackAdapter,
			sampleCount:          r.msaa,
			presentMode:          r.presentMode,
			clearColor:           r.clearColor,
			logger:               r.logger,
		})
		if err != nil {
			return nil, err
		}
		r.backend = backend
	}

	if err := r.backend.ConfigureSurface(surface.Width(), surface.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}
	r.logger.Info("renderer initialized", slog.Int("width", surface.Width()), slog.Int("height", surface.Height()))
	return r, nil
}

// newRenderer applies options over the defaults without creating a backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		frameMu:       &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		logger:        slog.Default(),
		validate:      shader.Validate,
		presentMode:   PresentModeVSync,
		msaa:          MSAA4x,
		clearColor:    DefaultClearColor,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Resize(width, height int) error {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if r.validate != nil {
			for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
				s := p.Shader(stage)
				if s == nil {
					return fmt.Errorf("pipeline %q: missing %s shader", key, stage)
				}
				if err := r.validate(s); err != nil {
					return err
				}
			}
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
		r.logger.Debug("pipeline registered", slog.String("key", key))
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, vertexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferSizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	return r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	return r.backend.DrawCall(p, meshProvider, bindGroups)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) RenderFrame(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	if r.Pipeline(pipelineKey) == nil {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	drawErr := r.DrawCall(pipelineKey, meshProvider, bindGroups)
	// An acquired swapchain texture must be presented before the next BeginFrame.
	endErr := r.backend.EndFrame()
	r.backend.Present()
	return errors.Join(drawErr, endErr)
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	if r.backend != nil {
		r.frameMu.Lock()
		defer r.frameMu.Unlock()
		r.backend.Release()
	}
}

// BindGroupLayoutDescriptor returns the layout of a bind group as seen by both stages of p, with
// visibility merged across stages. InitBindGroup needs this descriptor so the bind group it creates
// matches the pipeline layout.
//
// Parameters:
//   - p: the pipeline whose shaders declare the group
//   - group: the @group index
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the merged descriptor
//   - bool: false if neither stage declares the group
func BindGroupLayoutDescriptor(p pipeline.Pipeline, group int) (wgpu.BindGroupLayoutDescriptor, bool) {
	var vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor
	if vs := p.Shader(shader.ShaderTypeVertex); vs != nil {
		vertexLayouts = vs.BindGroupLayoutDescriptors()
	}
	if fs := p.Shader(shader.ShaderTypeFragment); fs != nil {
		fragmentLayouts = fs.BindGroupLayoutDescriptors()
	}
	desc, ok := mergeBindGroupLayouts(vertexLayouts, fragmentLayouts)[group]
	return desc, ok
}
