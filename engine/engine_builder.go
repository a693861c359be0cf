package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-orbit/engine/config"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the configuration the engine is built from. It should already be validated.
//
// Parameters:
//   - cfg: the configuration (default config.Default())
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger passed to the renderer and the render loop.
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStatusReporter sets where status lines are written. Defaults to a LogStatusReporter.
//
// Parameters:
//   - r: the status sink
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStatusReporter(r StatusReporter) EngineBuilderOption {
	return func(e *engine) {
		e.status.next = r
	}
}

// WithCapabilityProbe replaces the WebGPU adapter probe.
//
// Parameters:
//   - probe: returns true if rendering is possible
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCapabilityProbe(probe func() bool) EngineBuilderOption {
	return func(e *engine) {
		e.probe = probe
	}
}

// WithRendererFactory replaces the function that creates the Renderer.
//
// Parameters:
//   - f: the factory
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererFactory(f RendererFactory) EngineBuilderOption {
	return func(e *engine) {
		if f != nil {
			e.rendererFactory = f
		}
	}
}

// WithRendererOptions appends renderer options applied after those derived from the config.
//
// Parameters:
//   - options: the renderer builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithEngineRefreshSource sets the refresh signal pacing the render loop, overriding the surface's own.
//
// Parameters:
//   - src: the refresh signal
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEngineRefreshSource(src RefreshSource) EngineBuilderOption {
	return func(e *engine) {
		e.refresh = src
	}
}
