package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeRenderer records calls in order and returns queued frame errors.
type fakeRenderer struct {
	mu sync.Mutex

	calls      []string
	writes     []bind_group_provider.BufferWrite
	pipelines  map[string]pipeline.Pipeline
	bindGroups []wgpu.BindGroupLayoutDescriptor
	vertexSize int
	resized    [][2]int
	released   bool

	registerErr  error
	bindGroupErr error
	frameErrs    []error
	onFrame      func()
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRenderer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRenderer) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines[key]
}

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.record("register")
	if f.registerErr != nil {
		return f.registerErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) Resize(width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resized = append(f.resized, [2]int{width, height})
	return nil
}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error {
	f.record("mesh")
	f.mu.Lock()
	f.vertexSize = len(vertexData)
	f.mu.Unlock()
	provider.SetVertexCount(vertexCount)
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, _ map[int]uint64) error {
	f.record("bind_group")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindGroups = append(f.bindGroups, descriptor)
	return f.bindGroupErr
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	f.record("write")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writes...)
	return nil
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) DrawCall(string, bind_group_provider.BindGroupProvider, []bind_group_provider.BindGroupProvider) error {
	return nil
}

func (f *fakeRenderer) EndFrame() error { return nil }

func (f *fakeRenderer) Present() {}

func (f *fakeRenderer) RenderFrame(string, bind_group_provider.BindGroupProvider, []bind_group_provider.BindGroupProvider) error {
	f.record("render")
	if f.onFrame != nil {
		f.onFrame()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frameErrs) == 0 {
		return nil
	}
	err := f.frameErrs[0]
	f.frameErrs = f.frameErrs[1:]
	return err
}

func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

func (f *fakeRenderer) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
}

// manualRefresh delivers a tick only when the test sends one.
type manualRefresh struct {
	ch chan struct{}
}

func newManualRefresh() *manualRefresh {
	return &manualRefresh{ch: make(chan struct{})}
}

func (m *manualRefresh) Ticks() <-chan struct{} {
	return m.ch
}

// fakeSurface satisfies renderer.SurfaceSource without a platform window.
type fakeSurface struct {
	width, height int
}

func (s fakeSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (s fakeSurface) Width() int                                 { return s.width }
func (s fakeSurface) Height() int                                { return s.height }
