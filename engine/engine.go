package engine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/camera"
	"github.com/Carmen-Shannon/oxy-orbit/engine/config"
	"github.com/Carmen-Shannon/oxy-orbit/engine/model"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// RingShaderSource is the WGSL drawing the ring: one position attribute, the MVP uniform and a
// constant line color.
//
//go:embed assets/ring.wgsl
var RingShaderSource string

// RingPipelineKey is the key the ring pipeline is registered under.
const RingPipelineKey = "ring"

// ErrEngineStarted is returned by Run when the engine has already been started.
var ErrEngineStarted = errors.New("engine already started")

// RendererFactory creates the Renderer for a surface. The default creates the WebGPU renderer.
type RendererFactory func(surface renderer.SurfaceSource, options ...renderer.RendererBuilderOption) (renderer.Renderer, error)

// engine implements the Engine interface.
// Sequences GPU initialization and owns the resulting RenderContext and RenderLoop.
type engine struct {
	mu *sync.Mutex

	surface renderer.SurfaceSource
	cfg     config.Config
	logger  *slog.Logger
	status  *recordingStatus

	probe           func() bool
	rendererFactory RendererFactory
	rendererOptions []renderer.RendererBuilderOption
	refresh         RefreshSource

	rc   *RenderContext
	loop RenderLoop
}

// Engine checks for WebGPU support, builds the ring and its GPU resources, and starts the render loop.
// Every failure is terminal and is reported once to the status reporter.
type Engine interface {
	// CheckCapability probes for a usable WebGPU adapter.
	//
	// Returns:
	//   - bool: true if an adapter could be acquired
	CheckCapability() bool

	// Run initializes the renderer, compiles the ring pipeline, uploads the ring and the uniform
	// bind group, and starts the render loop.
	//
	// Parameters:
	//   - ctx: bounds the lifetime of the render loop
	//
	// Returns:
	//   - RenderLoop: the Running loop
	//   - error: common.ErrEngineUnavailable if the probe fails, or the error that ended initialization
	Run(ctx context.Context) (RenderLoop, error)

	// Resize reconfigures the surface and the camera aspect. Safe to call before Run.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	Resize(width, height int)

	// Status returns the last status line reported.
	//
	// Returns:
	//   - string: the status, or "" before Run
	Status() string

	// Loop returns the render loop, or nil before a successful Run.
	//
	// Returns:
	//   - RenderLoop: the loop
	Loop() RenderLoop

	// Release stops the loop and frees every GPU object.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine drawing into surface.
// If surface also provides refresh ticks (as engine/window.Window does), they pace the render loop.
//
// Parameters:
//   - surface: the window or other source of the platform surface
//   - options: functional options for configuration, status reporting and test seams
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(surface renderer.SurfaceSource, options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:      &sync.Mutex{},
		surface: surface,
		cfg:     config.Default(),
		logger:  slog.Default(),
		status:  &recordingStatus{},
		rendererFactory: func(s renderer.SurfaceSource, opts ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
			return renderer.NewRenderer(renderer.BackendTypeWGPU, s, opts...)
		},
	}
	if src, ok := surface.(RefreshSource); ok {
		e.refresh = src
	}

	for _, opt := range options {
		opt(e)
	}

	if e.probe == nil {
		force := e.cfg.Renderer.ForceSoftware
		e.probe = func() bool { return renderer.ProbeCapability(force) }
	}
	if e.status.next == nil {
		e.status.next = LogStatusReporter{Logger: e.logger}
	}
	return e
}

func (e *engine) CheckCapability() bool {
	return e.probe()
}

func (e *engine) Run(ctx context.Context) (RenderLoop, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loop != nil {
		return nil, ErrEngineStarted
	}

	if !e.CheckCapability() {
		e.status.Report(StatusNotSupported)
		return nil, common.ErrEngineUnavailable
	}

	rc, loop, err := e.bootstrap(ctx)
	if err != nil {
		e.status.Report(fmt.Sprintf("%s: %v", StatusUnavailable, err))
		return nil, err
	}
	e.rc = rc
	e.loop = loop
	e.status.Report(StatusReady)
	return loop, nil
}

// bootstrap runs the initialization sequence. On failure everything created so far is released.
func (e *engine) bootstrap(ctx context.Context) (*RenderContext, RenderLoop, error) {
	source, err := e.loadShaderSource()
	if err != nil {
		return nil, nil, err
	}

	r, err := e.rendererFactory(e.surface, e.rendererBuilderOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}
	rc := &RenderContext{Renderer: r, PipelineKey: RingPipelineKey}
	ok := false
	defer func() {
		if !ok {
			rc.Release()
		}
	}()

	p, err := e.compileRingPipeline(r, source)
	if err != nil {
		return nil, nil, err
	}

	rc.Model, err = model.NewRingModel("ring", e.cfg.RingDescriptor())
	if err != nil {
		return nil, nil, err
	}
	if err = r.InitMeshBuffers(rc.Model.MeshProvider(), rc.Model.VertexData(), rc.Model.VertexCount()); err != nil {
		return nil, nil, fmt.Errorf("failed to upload ring: %w", err)
	}
	rc.Model.ReleaseStaging()

	if err = e.initCamera(rc, p); err != nil {
		return nil, nil, err
	}

	loop, err := NewRenderLoop(rc,
		WithRotationStep(e.cfg.Loop.RotationStep),
		WithRefreshSource(e.refresh),
		WithRenderFrameLimit(e.cfg.Loop.FrameLimit),
		WithFramePrepWorkers(e.cfg.Loop.PrepWorkers),
		WithProfiling(e.cfg.Loop.Profiling),
		WithLoopLogger(e.logger),
		WithErrorHandler(func(err error) {
			// Run holds mu until "Engine Ready" is reported, so a stop is never overwritten by it.
			e.mu.Lock()
			defer e.mu.Unlock()
			e.status.Report(fmt.Sprintf("%s: %v", StatusStopped, err))
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	if err = loop.Start(ctx); err != nil {
		return nil, nil, err
	}
	e.logger.Info("engine ready",
		slog.Int("vertices", rc.Model.VertexCount()),
		slog.String("present_mode", e.cfg.Renderer.PresentMode),
	)
	ok = true
	return rc, loop, nil
}

// loadShaderSource returns the configured WGSL override, or the embedded ring shader.
func (e *engine) loadShaderSource() (string, error) {
	if e.cfg.Shader.Path == "" {
		return RingShaderSource, nil
	}
	data, err := os.ReadFile(e.cfg.Shader.Path)
	if err != nil {
		return "", fmt.Errorf("failed to load shader: %w", err)
	}
	return string(data), nil
}

// rendererBuilderOptions maps the renderer config onto builder options. Options given through
// WithRendererOptions are applied last.
func (e *engine) rendererBuilderOptions() []renderer.RendererBuilderOption {
	opts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(e.cfg.PresentMode()),
		renderer.WithMSAA(renderer.MSAASampleCount(e.cfg.Renderer.MSAA)),
		renderer.WithClearColor(e.cfg.Renderer.ClearColor),
		renderer.WithForceSoftwareRenderer(e.cfg.Renderer.ForceSoftware),
		renderer.WithLogger(e.logger),
	}
	return append(opts, e.rendererOptions...)
}

// compileRingPipeline builds both stages from source and registers the line-strip pipeline.
func (e *engine) compileRingPipeline(r renderer.Renderer, source string) (pipeline.Pipeline, error) {
	pp := shader.NewPreProcessor(shader.WithConstant("line_color", e.cfg.Shader.LineColor))

	vs, err := shader.NewShader(RingPipelineKey+"_vs", shader.ShaderTypeVertex, source, shader.WithPreProcessor(pp))
	if err != nil {
		return nil, shaderError(RingPipelineKey+"_vs", shader.ShaderTypeVertex, err)
	}
	fs, err := shader.NewShader(RingPipelineKey+"_fs", shader.ShaderTypeFragment, source, shader.WithPreProcessor(pp))
	if err != nil {
		return nil, shaderError(RingPipelineKey+"_fs", shader.ShaderTypeFragment, err)
	}

	p := pipeline.NewPipeline(RingPipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineStrip),
		pipeline.WithBlendMode(e.cfg.BlendMode()),
	)
	if err := r.RegisterPipelines(p); err != nil {
		return nil, err
	}
	return p, nil
}

// shaderError reports a source that could not be pre-processed or parsed as a compilation failure.
func shaderError(key string, stage shader.ShaderType, err error) error {
	return &common.ShaderCompilationError{Key: key, Stage: stage.String(), Diagnostic: err.Error(), Err: err}
}

// initCamera creates the camera, its uniform buffer and bind group at the group the vertex shader
// declares for the MVP.
func (e *engine) initCamera(rc *RenderContext, p pipeline.Pipeline) error {
	proj := e.cfg.Projection
	aspect := float32(1)
	if w, h := e.surface.Width(), e.surface.Height(); w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	rc.Camera = camera.NewCamera(
		camera.WithFov(proj.Fov),
		camera.WithAspect(aspect),
		camera.WithClipPlanes(proj.Near, proj.Far),
		camera.WithDistance(proj.ViewDistance),
	)
	if err := rc.Camera.Err(); err != nil {
		return err
	}

	group, binding, ok := uniformSlot(p.Shader(shader.ShaderTypeVertex), shader.AnnotationArgMVP)
	if !ok {
		return fmt.Errorf("ring shader declares no %s uniform", shader.AnnotationArgMVP)
	}
	desc, ok := renderer.BindGroupLayoutDescriptor(p, group)
	if !ok {
		return fmt.Errorf("ring shader has no layout for group %d", group)
	}
	if err := rc.Renderer.InitBindGroup(rc.Camera.BindGroupProvider(), desc, nil); err != nil {
		return fmt.Errorf("failed to create uniform bind group: %w", err)
	}

	rc.UniformBinding = binding
	rc.BindGroups = make([]bind_group_provider.BindGroupProvider, group+1)
	rc.BindGroups[group] = rc.Camera.BindGroupProvider()
	return nil
}

// uniformSlot finds the group and binding of the declaration carrying structType.
func uniformSlot(s shader.Shader, structType shader.AnnotationArg) (group, binding int, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	for _, d := range s.Declarations() {
		if d.Type != shader.AnnotationTypeBindingGroup || d.Group == nil || d.Binding == nil {
			continue
		}
		if len(d.Args) > 2 && d.Args[2] == structType {
			return *d.Group, *d.Binding, true
		}
	}
	return 0, 0, false
}

func (e *engine) Resize(width, height int) {
	e.mu.Lock()
	rc := e.rc
	e.mu.Unlock()
	if rc == nil {
		return
	}
	if err := rc.Resize(width, height); err != nil {
		e.logger.Warn("resize failed", slog.Int("width", width), slog.Int("height", height), slog.Any("error", err))
	}
}

func (e *engine) Status() string {
	return e.status.Status()
}

func (e *engine) Loop() RenderLoop {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

func (e *engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop != nil {
		e.loop.Stop()
	}
	if e.rc != nil {
		e.rc.Release()
		e.rc = nil
	}
}
