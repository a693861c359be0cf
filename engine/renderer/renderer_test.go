package renderer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend records the order of frame calls and returns configured errors.
type recordingBackend struct {
	mu         sync.Mutex
	calls      []string
	registered []string
	beginErr   error
	drawErr    error
	endErr     error

	// drawEntered is closed when DrawCall starts; DrawCall then waits for drawRelease.
	drawEntered chan struct{}
	drawRelease chan struct{}
}

func (b *recordingBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *recordingBackend) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *recordingBackend) ConfigureSurface(width, height int) error {
	b.record("configure")
	return nil
}

func (b *recordingBackend) SetPresentMode(mode PresentMode) {}

func (b *recordingBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	b.registered = append(b.registered, p.PipelineKey())
	return nil
}

func (b *recordingBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error {
	provider.SetVertexCount(vertexCount)
	return nil
}

func (b *recordingBackend) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor, map[int]uint64) error {
	return nil
}

func (b *recordingBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	b.record("write")
	return nil
}

func (b *recordingBackend) BeginFrame() error {
	b.record("begin")
	return b.beginErr
}

func (b *recordingBackend) DrawCall(pipeline.Pipeline, bind_group_provider.BindGroupProvider, []bind_group_provider.BindGroupProvider) error {
	b.record("draw")
	if b.drawEntered != nil {
		close(b.drawEntered)
		<-b.drawRelease
	}
	return b.drawErr
}

func (b *recordingBackend) EndFrame() error {
	b.record("end")
	return b.endErr
}

func (b *recordingBackend) Present() {
	b.record("present")
}

func (b *recordingBackend) Release() {
	b.record("release")
}

const testSource = `//@oxy:include vertex
//@oxy:include mvp
//@oxy:group 0 0 storage_uniform uniforms mvp

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = uniforms.mvp * vec4<f32>(in.position, 1.0);
    return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

func testPipeline(t *testing.T, key string) pipeline.Pipeline {
	t.Helper()
	vs, err := shader.NewShader(key+"_vs", shader.ShaderTypeVertex, testSource)
	require.NoError(t, err)
	fs, err := shader.NewShader(key+"_fs", shader.ShaderTypeFragment, testSource)
	require.NoError(t, err)
	return pipeline.NewPipeline(key, pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
}

func newTestRenderer(backend RendererBackend, options ...RendererBuilderOption) *renderer {
	options = append([]RendererBuilderOption{WithShaderValidator(nil)}, options...)
	r := newRenderer(BackendTypeWGPU, options...)
	r.backend = backend
	return r
}

func TestNewRendererDefaults(t *testing.T) {
	r := newRenderer(BackendTypeWGPU)
	assert.Equal(t, PresentModeVSync, r.presentMode)
	assert.Equal(t, MSAA4x, r.msaa)
	assert.Equal(t, DefaultClearColor, r.clearColor)
	assert.NotNil(t, r.validate)
	assert.NotNil(t, r.logger)

	r = newRenderer(BackendTypeWGPU, WithClearColor([4]float64{1, 0, 0, 1}), WithMSAA(MSAAOff), WithPresentMode(PresentModeUncapped))
	assert.Equal(t, wgpu.Color{R: 1, A: 1}, r.clearColor)
	assert.Equal(t, MSAAOff, r.msaa)
	assert.Equal(t, PresentModeUncapped, r.presentMode)
}

func TestRegisterPipelinesCachesAndSkipsDuplicates(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(backend)

	p := testPipeline(t, "ring")
	require.NoError(t, r.RegisterPipelines(p))
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	assert.Equal(t, []string{"ring"}, backend.registered)
	assert.Same(t, p, r.Pipeline("ring"))
	assert.Nil(t, r.Pipeline("missing"))
}

func TestRegisterPipelinesStopsOnValidationError(t *testing.T) {
	backend := &recordingBackend{}
	compileErr := &common.ShaderCompilationError{Key: "ring_vs", Stage: "vertex", Diagnostic: "unexpected token"}
	var validated []string
	r := newTestRenderer(backend, WithShaderValidator(func(s shader.Shader) error {
		validated = append(validated, s.Key())
		return compileErr
	}))

	err := r.RegisterPipelines(testPipeline(t, "ring"))
	assert.ErrorIs(t, err, common.ErrShaderCompilation)
	assert.Equal(t, []string{"ring_vs"}, validated)
	assert.Empty(t, backend.registered)
	assert.Nil(t, r.Pipeline("ring"))
}

func TestRegisterPipelinesRequiresBothStages(t *testing.T) {
	r := newTestRenderer(&recordingBackend{}, WithShaderValidator(func(shader.Shader) error { return nil }))
	err := r.RegisterPipelines(pipeline.NewPipeline("empty"))
	assert.ErrorContains(t, err, "missing vertex shader")
}

func TestRenderFrameSequence(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(backend)
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	mesh := bind_group_provider.NewBindGroupProvider("mesh")
	require.NoError(t, r.RenderFrame("ring", mesh, nil))
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, backend.recorded())
}

func TestResizeWaitsForFrameInFlight(t *testing.T) {
	backend := &recordingBackend{drawEntered: make(chan struct{}), drawRelease: make(chan struct{})}
	r := newTestRenderer(backend)
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	frameDone := make(chan error, 1)
	go func() {
		frameDone <- r.RenderFrame("ring", bind_group_provider.NewBindGroupProvider("mesh"), nil)
	}()
	<-backend.drawEntered

	resized := make(chan error, 1)
	go func() {
		resized <- r.Resize(800, 600)
	}()

	select {
	case <-resized:
		t.Fatal("surface reconfigured while a frame was being drawn")
	case <-time.After(50 * time.Millisecond):
	}

	close(backend.drawRelease)
	require.NoError(t, <-frameDone)
	require.NoError(t, <-resized)
	assert.Equal(t, []string{"begin", "draw", "end", "present", "configure"}, backend.recorded())
}

func TestRenderFrameUnknownPipeline(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(backend)

	err := r.RenderFrame("missing", bind_group_provider.NewBindGroupProvider("mesh"), nil)
	assert.ErrorContains(t, err, "not found")
	assert.Empty(t, backend.recorded())
}

func TestRenderFrameSkipped(t *testing.T) {
	backend := &recordingBackend{beginErr: common.ErrFrameSkipped}
	r := newTestRenderer(backend)
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	err := r.RenderFrame("ring", bind_group_provider.NewBindGroupProvider("mesh"), nil)
	assert.ErrorIs(t, err, common.ErrFrameSkipped)
	assert.Equal(t, []string{"begin"}, backend.recorded())
}

func TestRenderFrameDrawErrorStillPresents(t *testing.T) {
	drawErr := errors.New("no vertex buffer")
	backend := &recordingBackend{drawErr: drawErr, endErr: common.ErrDeviceLost}
	r := newTestRenderer(backend)
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	err := r.RenderFrame("ring", bind_group_provider.NewBindGroupProvider("mesh"), nil)
	assert.ErrorIs(t, err, drawErr)
	assert.ErrorIs(t, err, common.ErrDeviceLost)
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, backend.recorded())
}

func TestReleaseClearsPipelines(t *testing.T) {
	backend := &recordingBackend{}
	r := newTestRenderer(backend)
	require.NoError(t, r.RegisterPipelines(testPipeline(t, "ring")))

	r.Release()
	assert.Nil(t, r.Pipeline("ring"))
	assert.Equal(t, []string{"release"}, backend.recorded())
}

func TestBindGroupLayoutDescriptorMergesStages(t *testing.T) {
	desc, ok := BindGroupLayoutDescriptor(testPipeline(t, "ring"), 0)
	require.True(t, ok)
	require.Len(t, desc.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, desc.Entries[0].Visibility)
	assert.Equal(t, uint64(64), desc.Entries[0].Buffer.MinBindingSize)

	_, ok = BindGroupLayoutDescriptor(testPipeline(t, "ring"), 1)
	assert.False(t, ok)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 1, Visibility: wgpu.ShaderStageVertex}, {Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}, {Binding: 2, Visibility: wgpu.ShaderStageFragment}}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)

	g0 := merged[0].Entries
	require.Len(t, g0, 3)
	assert.Equal(t, uint32(0), g0[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g0[0].Visibility)
	assert.Equal(t, wgpu.ShaderStageVertex, g0[1].Visibility)
	assert.Equal(t, wgpu.ShaderStageFragment, g0[2].Visibility)
	assert.Equal(t, fragment[1], merged[1])
}

func TestParsePresentMode(t *testing.T) {
	mode, ok := ParsePresentMode("uncapped")
	assert.True(t, ok)
	assert.Equal(t, PresentModeUncapped, mode)

	mode, ok = ParsePresentMode("")
	assert.True(t, ok)
	assert.Equal(t, PresentModeVSync, mode)

	_, ok = ParsePresentMode("mailbox")
	assert.False(t, ok)
}
