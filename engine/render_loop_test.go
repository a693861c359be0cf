package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/camera"
	"github.com/Carmen-Shannon/oxy-orbit/engine/model"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func newTestContext(t *testing.T) (*RenderContext, *fakeRenderer) {
	t.Helper()
	r := newFakeRenderer()
	m, err := model.NewRingModel("ring", model.DefaultRingDescriptor())
	require.NoError(t, err)
	cam := camera.NewCamera()
	return &RenderContext{
		Renderer:    r,
		Model:       m,
		Camera:      cam,
		PipelineKey: RingPipelineKey,
		BindGroups:  []bind_group_provider.BindGroupProvider{cam.BindGroupProvider()},
	}, r
}

func TestNewRenderLoopRequiresContext(t *testing.T) {
	_, err := NewRenderLoop(nil)
	assert.Error(t, err)

	rc, _ := newTestContext(t)
	rc.Camera = nil
	_, err = NewRenderLoop(rc)
	assert.ErrorContains(t, err, "camera")
}

func TestRenderLoopHundredTicks(t *testing.T) {
	rc, r := newTestContext(t)
	refresh := newManualRefresh()

	var (
		loop   RenderLoop
		angles []float32
	)
	r.onFrame = func() {
		angles = append(angles, loop.Angle())
	}
	loop, err := NewRenderLoop(rc, WithRefreshSource(refresh), WithRotationStep(0.01))
	require.NoError(t, err)
	assert.Equal(t, StateIdle, loop.State())

	require.NoError(t, loop.Start(context.Background()))
	assert.Equal(t, StateRunning, loop.State())
	for range 99 {
		refresh.ch <- struct{}{}
	}
	require.Eventually(t, func() bool { return loop.Frames() == 100 }, waitFor, time.Millisecond)
	loop.Stop()
	assert.Equal(t, StateIdle, loop.State())

	expected := make([]string, 0, 200)
	for range 100 {
		expected = append(expected, "write", "render")
	}
	assert.Equal(t, expected, r.Calls())

	require.Len(t, angles, 100)
	assert.InDelta(t, 0.01, angles[0], 1e-6)
	for i := 1; i < len(angles); i++ {
		assert.Greater(t, angles[i], angles[i-1])
		assert.InDelta(t, 0.01, angles[i]-angles[i-1], 1e-5)
	}

	require.Len(t, r.writes, 100)
	for _, w := range r.writes {
		assert.Same(t, rc.Camera.BindGroupProvider(), w.Provider)
		assert.Equal(t, 0, w.Binding)
		assert.Len(t, w.Data, camera.GPUMVPUniformSize)
	}
}

func TestRenderLoopUploadsCameraMVP(t *testing.T) {
	rc, r := newTestContext(t)
	loop, err := NewRenderLoop(rc, WithRefreshSource(newManualRefresh()), WithRotationStep(0.5))
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	require.Eventually(t, func() bool { return loop.Frames() == 1 }, waitFor, time.Millisecond)
	loop.Stop()

	mvp, err := rc.Camera.MVP(0.5)
	require.NoError(t, err)
	expected := camera.GPUMVPUniform{MVP: mvp}
	require.Len(t, r.writes, 1)
	assert.Equal(t, expected.Marshal(), r.writes[0].Data)
}

func TestRenderLoopStartWhileRunning(t *testing.T) {
	rc, _ := newTestContext(t)
	loop, err := NewRenderLoop(rc, WithRefreshSource(newManualRefresh()))
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	assert.ErrorIs(t, loop.Start(context.Background()), ErrLoopRunning)
	loop.Stop()
	loop.Stop()
	assert.Equal(t, StateIdle, loop.State())
}

func TestRenderLoopRestartKeepsRotation(t *testing.T) {
	rc, r := newTestContext(t)
	loop, err := NewRenderLoop(rc, WithRefreshSource(newManualRefresh()), WithRotationStep(0.1))
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	require.Eventually(t, func() bool { return loop.Frames() == 1 }, waitFor, time.Millisecond)
	loop.Stop()

	require.NoError(t, loop.Start(context.Background()))
	require.Eventually(t, func() bool { return loop.Frames() == 2 }, waitFor, time.Millisecond)
	loop.Stop()

	assert.InDelta(t, 0.2, loop.Angle(), 1e-6)
	assert.False(t, r.released)
}

func TestRenderLoopStopsOnContextCancel(t *testing.T) {
	rc, _ := newTestContext(t)
	loop, err := NewRenderLoop(rc, WithRefreshSource(newManualRefresh()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, loop.Start(ctx))
	done := loop.Done()
	require.NotNil(t, done)
	cancel()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("loop did not stop after cancel")
	}
	assert.Equal(t, StateIdle, loop.State())
}

func TestRenderLoopStopsOnDeviceLost(t *testing.T) {
	rc, r := newTestContext(t)
	r.frameErrs = []error{fmt.Errorf("submit: %w", common.ErrDeviceLost)}

	errCh := make(chan error, 2)
	loop, err := NewRenderLoop(rc,
		WithRefreshSource(newManualRefresh()),
		WithErrorHandler(func(err error) { errCh <- err }),
	)
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background()))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, common.ErrDeviceLost)
	case <-time.After(waitFor):
		t.Fatal("error handler was not called")
	}
	assert.Equal(t, StateIdle, loop.State())
	assert.Equal(t, uint64(0), loop.Frames())
	assert.Equal(t, []string{"write", "render"}, r.Calls())
	assert.Empty(t, errCh)
}

func TestRenderLoopToleratesSkippedFrames(t *testing.T) {
	rc, r := newTestContext(t)
	skipped := fmt.Errorf("surface outdated: %w", common.ErrFrameSkipped)
	r.frameErrs = []error{skipped, skipped, skipped, skipped}
	refresh := newManualRefresh()

	loop, err := NewRenderLoop(rc, WithRefreshSource(refresh))
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background()))
	for range 4 {
		refresh.ch <- struct{}{}
	}
	require.Eventually(t, func() bool { return loop.Frames() == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, StateRunning, loop.State())
	assert.Equal(t, 5, r.count("render"))
	loop.Stop()
}

func TestRenderLoopStopsAfterConsecutiveFailures(t *testing.T) {
	rc, r := newTestContext(t)
	frameErr := errors.New("pipeline missing")
	r.frameErrs = []error{frameErr, frameErr, frameErr}
	refresh := newManualRefresh()

	errCh := make(chan error, 1)
	loop, err := NewRenderLoop(rc,
		WithRefreshSource(refresh),
		WithErrorHandler(func(err error) { errCh <- err }),
	)
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background()))
	refresh.ch <- struct{}{}
	refresh.ch <- struct{}{}

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, frameErr)
	case <-time.After(waitFor):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 3, r.count("render"))
	assert.Equal(t, StateIdle, loop.State())
}

func TestRenderLoopPrepWorkers(t *testing.T) {
	rc, r := newTestContext(t)
	refresh := newManualRefresh()
	loop, err := NewRenderLoop(rc, WithRefreshSource(refresh), WithFramePrepWorkers(2), WithRotationStep(0.25))
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	for range 9 {
		refresh.ch <- struct{}{}
	}
	require.Eventually(t, func() bool { return loop.Frames() == 10 }, waitFor, time.Millisecond)
	loop.Stop()

	require.Len(t, r.writes, 10)
	mvp, err := rc.Camera.MVP(common.NormalizeAngle(2.5))
	require.NoError(t, err)
	last := camera.GPUMVPUniform{MVP: mvp}
	assert.Equal(t, last.Marshal(), r.writes[9].Data)
}

func TestRenderLoopDefaultRefresh(t *testing.T) {
	rc, _ := newTestContext(t)
	loop, err := NewRenderLoop(rc, WithRenderFrameLimit(240))
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	require.Eventually(t, func() bool { return loop.Frames() >= 3 }, waitFor, time.Millisecond)
	loop.Stop()
}

func TestRenderLoopErrorHandlerMayRestart(t *testing.T) {
	rc, r := newTestContext(t)
	r.frameErrs = []error{common.ErrDeviceLost}

	var (
		mu       sync.Mutex
		restarts int
		loop     RenderLoop
	)
	loop, err := NewRenderLoop(rc,
		WithRefreshSource(newManualRefresh()),
		WithErrorHandler(func(error) {
			mu.Lock()
			restarts++
			mu.Unlock()
			assert.NoError(t, loop.Start(context.Background()))
		}),
	)
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background()))

	require.Eventually(t, func() bool { return loop.Frames() == 1 }, waitFor, time.Millisecond)
	loop.Stop()
	mu.Lock()
	assert.Equal(t, 1, restarts)
	mu.Unlock()
}

func TestLoopStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "LoopState(7)", LoopState(7).String())
}
