package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/camera"
	"github.com/Carmen-Shannon/oxy-orbit/engine/profiler"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
)

// ErrLoopRunning is returned by Start when the loop is already Running.
var ErrLoopRunning = errors.New("render loop already running")

// maxConsecutiveFrameErrors is how many frames in a row may fail before the loop stops itself.
const maxConsecutiveFrameErrors = 3

// defaultRefreshInterval paces the loop when no RefreshSource is configured.
const defaultRefreshInterval = time.Second / 60

// LoopState is the scheduling state of a RenderLoop.
type LoopState int32

const (
	// StateIdle means no tick is scheduled.
	StateIdle LoopState = iota
	// StateRunning means a tick runs on every refresh signal.
	StateRunning
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("LoopState(%d)", int32(s))
	}
}

// RefreshSource delivers the display refresh signal that paces the loop.
// engine/window.Window satisfies it.
type RefreshSource interface {
	Ticks() <-chan struct{}
}

// renderLoop is the implementation of the RenderLoop interface.
type renderLoop struct {
	mu *sync.Mutex

	rc      *RenderContext
	refresh RefreshSource
	logger  *slog.Logger
	onError func(error)

	state  LoopState
	cancel context.CancelFunc
	done   chan struct{}

	step     float32
	rotation common.RotationState
	frames   atomic.Uint64

	renderFrameLimit time.Duration
	prepWorkers      int

	profiler         *profiler.Profiler
	profilingEnabled bool
}

// RenderLoop drives the ring animation. Each tick advances the rotation, computes the MVP, uploads
// it and renders one frame. Ticks run one at a time on a single goroutine; the next tick waits for
// the refresh signal after the previous one has finished.
type RenderLoop interface {
	// Start moves the loop from Idle to Running and runs the first tick immediately.
	// The loop runs until Stop is called, ctx is cancelled, or a frame fails fatally.
	//
	// Parameters:
	//   - ctx: bounds the lifetime of this run
	//
	// Returns:
	//   - error: ErrLoopRunning if the loop is already Running
	Start(ctx context.Context) error

	// Stop cancels the next tick, waits for a frame in flight to finish and returns the loop to Idle.
	// GPU resources are kept so Start may be called again. Stop on an Idle loop is a no-op.
	Stop()

	// Done returns a channel closed when the current run ends, or nil when Idle.
	//
	// Returns:
	//   - <-chan struct{}: the completion channel
	Done() <-chan struct{}

	// State reports whether the loop is Idle or Running.
	//
	// Returns:
	//   - LoopState: the current state
	State() LoopState

	// Angle returns the rotation angle, in [0, 2π), used by the most recent tick.
	//
	// Returns:
	//   - float32: the angle in radians
	Angle() float32

	// Frames returns how many frames have been rendered successfully across all runs.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ RenderLoop = &renderLoop{}

// NewRenderLoop creates an Idle RenderLoop over rc.
//
// Parameters:
//   - rc: the renderer, model and camera to draw with
//   - options: functional options for scheduling, profiling and error reporting
//
// Returns:
//   - RenderLoop: the Idle loop
//   - error: an error if rc is incomplete
func NewRenderLoop(rc *RenderContext, options ...RenderLoopBuilderOption) (RenderLoop, error) {
	if err := rc.validate(); err != nil {
		return nil, err
	}
	l := &renderLoop{
		mu:     &sync.Mutex{},
		rc:     rc,
		logger: slog.Default(),
		state:  StateIdle,
		step:   0.01,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.profilingEnabled {
		l.profiler = profiler.NewProfiler(profiler.WithLogger(l.logger))
	}
	return l, nil
}

func (l *renderLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateRunning {
		return ErrLoopRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.state = StateRunning
	l.cancel = cancel
	l.done = done

	go l.run(runCtx, done)
	return nil
}

func (l *renderLoop) Stop() {
	l.mu.Lock()
	if l.state == StateIdle {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
}

func (l *renderLoop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *renderLoop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *renderLoop) Angle() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotation.Radians()
}

func (l *renderLoop) Frames() uint64 {
	return l.frames.Load()
}

// run owns one Running period. It returns the loop to Idle before closing done, and reports a
// fatal error only after that so the error handler may call Start or Stop.
func (l *renderLoop) run(ctx context.Context, done chan struct{}) {
	var pool worker.DynamicWorkerPool
	if l.prepWorkers > 0 {
		pool = worker.NewDynamicWorkerPool(l.prepWorkers, 256, 1*time.Second)
	}

	err := l.runTicks(ctx, pool)

	if pool != nil {
		pool.Stop()
	}

	l.mu.Lock()
	if l.done == done {
		l.state = StateIdle
		l.cancel()
		l.cancel = nil
		l.done = nil
	}
	l.mu.Unlock()
	close(done)

	if err != nil {
		l.logger.Error("render loop stopped", slog.Any("error", err), slog.Uint64("frames", l.frames.Load()))
		if l.onError != nil {
			l.onError(err)
		}
		return
	}
	l.logger.Debug("render loop idle", slog.Uint64("frames", l.frames.Load()))
}

// runTicks runs the first tick at once and every later tick on a refresh signal.
func (l *renderLoop) runTicks(ctx context.Context, pool worker.DynamicWorkerPool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render loop recovered from panic: %v", r)
		}
	}()

	ticks, stopTicks := l.refreshTicks()
	defer stopTicks()

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		if err := l.tick(pool); err != nil {
			switch {
			case errors.Is(err, common.ErrDeviceLost):
				return err
			case errors.Is(err, common.ErrFrameSkipped):
				l.logger.Debug("frame skipped", slog.Any("error", err))
			default:
				failures++
				l.logger.Warn("frame failed", slog.Any("error", err), slog.Int("consecutive", failures))
				if failures >= maxConsecutiveFrameErrors {
					return fmt.Errorf("%d consecutive frames failed: %w", failures, err)
				}
			}
		} else {
			failures = 0
		}

		if l.profilingEnabled && l.profiler != nil {
			l.profiler.Tick()
		}

		// Frame rate limiting
		if l.renderFrameLimit > 0 {
			if remaining := l.renderFrameLimit - time.Since(start); remaining > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(remaining):
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		}
	}
}

// refreshTicks returns the configured refresh channel, or a ticker when none is configured.
func (l *renderLoop) refreshTicks() (<-chan struct{}, func()) {
	if l.refresh != nil {
		return l.refresh.Ticks(), func() {}
	}

	ticker := time.NewTicker(defaultRefreshInterval)
	ticks := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case ticks <- struct{}{}:
				case <-stop:
					return
				}
			}
		}
	}()
	return ticks, func() {
		ticker.Stop()
		close(stop)
	}
}

// tick advances the rotation, uploads the new MVP and renders one frame. The angle advances even
// when the frame is skipped so the animation keeps wall-clock pace with the refresh signal.
func (l *renderLoop) tick(pool worker.DynamicWorkerPool) error {
	l.mu.Lock()
	l.rotation = common.AdvanceAngle(l.rotation, l.step)
	angle := l.rotation.Radians()
	l.mu.Unlock()

	uniform, err := l.prepare(pool, angle)
	if err != nil {
		return err
	}

	// The upload is the last write before the frame is submitted.
	if err := l.rc.Renderer.WriteBuffers([]bind_group_provider.BufferWrite{l.rc.uniformWrite(uniform)}); err != nil {
		return err
	}
	if err := l.rc.Renderer.RenderFrame(l.rc.PipelineKey, l.rc.Model.MeshProvider(), l.rc.BindGroups); err != nil {
		return err
	}
	l.frames.Add(1)
	return nil
}

// prepare computes the MVP for angle, on the worker pool when one is running. A WaitGroup is the
// per-frame barrier; pool.Wait is unsuitable because it waits for workers to go idle.
func (l *renderLoop) prepare(pool worker.DynamicWorkerPool, angle float32) (camera.GPUMVPUniform, error) {
	compute := func() (camera.GPUMVPUniform, error) {
		mvp, err := l.rc.Camera.MVP(angle)
		return camera.GPUMVPUniform{MVP: mvp}, err
	}
	if pool == nil {
		return compute()
	}

	var (
		wg      sync.WaitGroup
		uniform camera.GPUMVPUniform
		err     error
	)
	wg.Add(1)
	pool.SubmitTask(worker.Task{
		ID:      int(l.frames.Load()),
		Payload: angle,
		Do: func() (any, error) {
			defer wg.Done()
			uniform, err = compute()
			return nil, err
		},
	})
	wg.Wait()
	return uniform, err
}

// defaultPrepWorkers mirrors the compute pool sizing: one worker per CPU, leaving one for the render goroutine.
func defaultPrepWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}
