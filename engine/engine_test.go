package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/config"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusLog collects every reported status.
type statusLog struct {
	mu       sync.Mutex
	statuses []string
}

func (s *statusLog) Report(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *statusLog) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

// factoryCounter hands out one fake renderer and counts calls.
type factoryCounter struct {
	calls    int
	renderer *fakeRenderer
	err      error
}

func (f *factoryCounter) create(renderer.SurfaceSource, ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.renderer, nil
}

func newTestEngine(probe bool, factory *factoryCounter, status *statusLog, options ...EngineBuilderOption) Engine {
	options = append([]EngineBuilderOption{
		WithCapabilityProbe(func() bool { return probe }),
		WithRendererFactory(factory.create),
		WithStatusReporter(status),
		WithEngineRefreshSource(newManualRefresh()),
	}, options...)
	return NewEngine(fakeSurface{width: 800, height: 400}, options...)
}

func TestRunWithoutCapabilityNeverStartsLoop(t *testing.T) {
	factory := &factoryCounter{renderer: newFakeRenderer()}
	status := &statusLog{}
	e := newTestEngine(false, factory, status)

	assert.False(t, e.CheckCapability())
	loop, err := e.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrEngineUnavailable)
	assert.Nil(t, loop)
	assert.Nil(t, e.Loop())
	assert.Equal(t, 0, factory.calls)
	assert.Empty(t, factory.renderer.Calls())
	assert.Equal(t, []string{StatusNotSupported}, status.All())
	assert.Equal(t, StatusNotSupported, e.Status())
}

func TestRunBootstrapsAndStartsLoop(t *testing.T) {
	r := newFakeRenderer()
	factory := &factoryCounter{renderer: r}
	status := &statusLog{}
	e := newTestEngine(true, factory, status)

	loop, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loop)
	assert.Same(t, loop, e.Loop())
	assert.Equal(t, StateRunning, loop.State())
	assert.Equal(t, []string{StatusReady}, status.All())
	assert.Equal(t, 1, factory.calls)

	require.Eventually(t, func() bool { return loop.Frames() == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"register", "mesh", "bind_group", "write", "render"}, r.Calls())

	assert.Equal(t, 129*12, r.vertexSize)

	p := r.Pipeline(RingPipelineKey)
	require.NotNil(t, p)
	assert.Equal(t, wgpu.PrimitiveTopologyLineStrip, p.Topology())
	assert.False(t, p.BlendEnabled())
	vs := p.Shader(shader.ShaderTypeVertex)
	require.NotNil(t, vs)
	require.Len(t, vs.VertexLayout(0), 1)
	assert.Equal(t, uint64(12), vs.VertexLayout(0)[0].ArrayStride)
	assert.Contains(t, p.Shader(shader.ShaderTypeFragment).Source(), "vec4<f32>(0.13, 0.8, 0.55, 1.0)")

	require.Len(t, r.bindGroups, 1)
	entry := r.bindGroups[0].Entries[0]
	assert.Equal(t, uint32(0), entry.Binding)
	assert.Equal(t, uint64(64), entry.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entry.Visibility)

	_, err = e.Run(context.Background())
	assert.ErrorIs(t, err, ErrEngineStarted)

	e.Release()
	assert.Equal(t, StateIdle, loop.State())
	assert.True(t, r.released)
}

func TestEmbeddedRingShaderValidates(t *testing.T) {
	r := newFakeRenderer()
	e := newTestEngine(true, &factoryCounter{renderer: r}, &statusLog{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	defer e.Release()

	p := r.Pipeline(RingPipelineKey)
	require.NotNil(t, p)
	for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(stage)
		require.NotNil(t, s, stage.String())
		assert.NoError(t, shader.Validate(s), stage.String())
	}
}

func TestRunAppliesConfiguredBlendMode(t *testing.T) {
	cfg := config.Default()
	cfg.Shader.Blend = "alpha"
	r := newFakeRenderer()
	e := newTestEngine(true, &factoryCounter{renderer: r}, &statusLog{}, WithConfig(cfg))

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	defer e.Release()

	p := r.Pipeline(RingPipelineKey)
	require.NotNil(t, p)
	assert.True(t, p.BlendEnabled())
}

func TestRunReportsRendererFailure(t *testing.T) {
	factory := &factoryCounter{err: fmt.Errorf("no adapter: %w", common.ErrDeviceUnavailable)}
	status := &statusLog{}
	e := newTestEngine(true, factory, status)

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrDeviceUnavailable)
	assert.Nil(t, e.Loop())

	statuses := status.All()
	require.Len(t, statuses, 1)
	assert.True(t, strings.HasPrefix(statuses[0], StatusUnavailable+": "), statuses[0])
	assert.Contains(t, statuses[0], "no adapter")
}

func TestRunReportsShaderCompilationError(t *testing.T) {
	r := newFakeRenderer()
	r.registerErr = &common.ShaderCompilationError{Key: "ring_vs", Stage: "vertex", Diagnostic: "expected ';'"}
	status := &statusLog{}
	e := newTestEngine(true, &factoryCounter{renderer: r}, status)

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrShaderCompilation)
	assert.True(t, r.released)
	assert.Equal(t, 0, r.count("render"))
	require.Len(t, status.All(), 1)
	assert.Contains(t, status.All()[0], "expected ';'")
}

func TestRunRejectsInvalidRing(t *testing.T) {
	cfg := config.Default()
	cfg.Ring.Samples = 2
	r := newFakeRenderer()
	status := &statusLog{}
	e := newTestEngine(true, &factoryCounter{renderer: r}, status, WithConfig(cfg))

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrInvalidGeometryParameters)
	assert.True(t, r.released)
	assert.Equal(t, 0, r.count("mesh"))
}

func TestRunMissingShaderFile(t *testing.T) {
	cfg := config.Default()
	cfg.Shader.Path = filepath.Join(t.TempDir(), "missing.wgsl")
	factory := &factoryCounter{renderer: newFakeRenderer()}
	status := &statusLog{}
	e := newTestEngine(true, factory, status, WithConfig(cfg))

	_, err := e.Run(context.Background())
	assert.ErrorContains(t, err, "failed to load shader")
	assert.Equal(t, 0, factory.calls)
	assert.Len(t, status.All(), 1)
}

func TestRunShaderWithoutUniform(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "flat.wgsl")
	require.NoError(t, writeFile(path, `//@oxy:include vertex
@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`))
	cfg.Shader.Path = path
	r := newFakeRenderer()
	e := newTestEngine(true, &factoryCounter{renderer: r}, &statusLog{}, WithConfig(cfg))

	_, err := e.Run(context.Background())
	assert.ErrorContains(t, err, "declares no mvp uniform")
	assert.True(t, r.released)
}

func TestRunReleasesEverythingWhenBindGroupFails(t *testing.T) {
	r := newFakeRenderer()
	r.bindGroupErr = errors.New("out of memory")
	status := &statusLog{}
	e := newTestEngine(true, &factoryCounter{renderer: r}, status)

	loop, err := e.Run(context.Background())
	assert.ErrorContains(t, err, "out of memory")
	assert.Nil(t, loop)
	assert.True(t, r.released)
	assert.Equal(t, 1, r.count("mesh"))
	assert.Equal(t, 0, r.count("render"))
	require.Len(t, status.All(), 1)
	assert.True(t, strings.HasPrefix(status.All()[0], StatusUnavailable+": "), status.All()[0])
}

func TestRenderContextReleaseNil(t *testing.T) {
	var rc *RenderContext
	assert.NotPanics(t, rc.Release)
}

func TestResizeUpdatesRendererAndCamera(t *testing.T) {
	r := newFakeRenderer()
	e := newTestEngine(true, &factoryCounter{renderer: r}, &statusLog{})

	e.Resize(100, 100)
	assert.Empty(t, r.resized)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	defer e.Release()

	e.Resize(300, 100)
	e.Resize(0, 200)
	assert.Equal(t, [][2]int{{300, 100}}, r.resized)
	assert.InDelta(t, 3.0, e.(*engine).rc.Camera.Aspect(), 1e-6)
}

func TestLoopErrorIsReportedAsStatus(t *testing.T) {
	r := newFakeRenderer()
	r.frameErrs = []error{common.ErrDeviceLost}
	status := &statusLog{}
	e := newTestEngine(true, &factoryCounter{renderer: r}, status)

	loop, err := e.Run(context.Background())
	require.NoError(t, err)
	defer e.Release()

	require.Eventually(t, func() bool { return len(status.All()) == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, StateIdle, loop.State())
	assert.True(t, strings.HasPrefix(status.All()[1], StatusStopped+": "))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
