package engine

import (
	"log/slog"
	"time"
)

// RenderLoopBuilderOption is a functional option for configuring a RenderLoop.
// Use the With* functions to create options that are applied directly to the loop instance.
type RenderLoopBuilderOption func(*renderLoop)

// WithRotationStep sets the angle in radians added to the rotation each tick.
//
// Parameters:
//   - step: radians per tick (default 0.01)
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithRotationStep(step float32) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		l.step = step
	}
}

// WithRefreshSource paces ticks on the given refresh signal, normally the window.
// Without one the loop ticks at 60Hz.
//
// Parameters:
//   - src: the refresh signal
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithRefreshSource(src RefreshSource) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		l.refresh = src
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to leave pacing to the refresh source (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		if fps <= 0 {
			l.renderFrameLimit = 0
			return
		}
		l.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithFramePrepWorkers computes the MVP on a worker pool instead of the render goroutine.
// 0 disables the pool (default); a negative count sizes it from the CPU count.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithFramePrepWorkers(n int) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		if n < 0 {
			n = defaultPrepWorkers()
		}
		l.prepWorkers = n
	}
}

// WithProfiling enables or disables frame statistics logging.
//
// Parameters:
//   - enabled: if true, logs FPS and memory statistics once per second
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithProfiling(enabled bool) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		l.profilingEnabled = enabled
	}
}

// WithLoopLogger sets the logger for frame failures and loop state changes.
func WithLoopLogger(logger *slog.Logger) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithErrorHandler sets the function called once when the loop stops itself because of an error.
// It runs after the loop has returned to Idle.
//
// Parameters:
//   - handler: receives the error that stopped the loop
//
// Returns:
//   - RenderLoopBuilderOption: option function to apply
func WithErrorHandler(handler func(error)) RenderLoopBuilderOption {
	return func(l *renderLoop) {
		l.onError = handler
	}
}
