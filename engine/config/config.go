// Package config loads the viewer configuration from TOML or YAML and validates it before any
// window or GPU object is created.
package config

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/model"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/chewxy/math32"
)

// Config is the full viewer configuration. A file only needs to name the fields it overrides.
type Config struct {
	Window     WindowConfig     `toml:"window" yaml:"window"`
	Ring       RingConfig       `toml:"ring" yaml:"ring"`
	Projection ProjectionConfig `toml:"projection" yaml:"projection"`
	Loop       LoopConfig       `toml:"loop" yaml:"loop"`
	Renderer   RendererConfig   `toml:"renderer" yaml:"renderer"`
	Shader     ShaderConfig     `toml:"shader" yaml:"shader"`
}

// WindowConfig sizes and names the window.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// RingConfig is the geometry of the ring.
type RingConfig struct {
	Radius  float32 `toml:"radius" yaml:"radius"`
	Samples int     `toml:"samples" yaml:"samples"`
	Closed  bool    `toml:"closed" yaml:"closed"`
}

// ProjectionConfig holds the perspective parameters and the distance of the eye from the ring plane.
type ProjectionConfig struct {
	Fov          float32 `toml:"fov" yaml:"fov"`
	Near         float32 `toml:"near" yaml:"near"`
	Far          float32 `toml:"far" yaml:"far"`
	ViewDistance float32 `toml:"view_distance" yaml:"view_distance"`
}

// LoopConfig controls frame scheduling.
type LoopConfig struct {
	// RotationStep is the angle in radians added every frame.
	RotationStep float32 `toml:"rotation_step" yaml:"rotation_step"`
	// FrameLimit caps frames per second; 0 leaves pacing to the display.
	FrameLimit float64 `toml:"frame_limit" yaml:"frame_limit"`
	// PrepWorkers is the number of workers preparing the MVP off the render goroutine; 0 prepares inline.
	PrepWorkers int  `toml:"prep_workers" yaml:"prep_workers"`
	Profiling   bool `toml:"profiling" yaml:"profiling"`
}

// RendererConfig selects surface and pass options.
type RendererConfig struct {
	PresentMode   string     `toml:"present_mode" yaml:"present_mode"`
	MSAA          int        `toml:"msaa" yaml:"msaa"`
	ClearColor    [4]float64 `toml:"clear_color" yaml:"clear_color"`
	ForceSoftware bool       `toml:"force_software" yaml:"force_software"`
}

// ShaderConfig points at an optional WGSL override and sets the line color and blending.
type ShaderConfig struct {
	// Path replaces the embedded ring shader when set.
	Path      string     `toml:"path" yaml:"path"`
	LineColor [4]float32 `toml:"line_color" yaml:"line_color"`
	// Blend is "opaque", "alpha" or "additive".
	Blend     string     `toml:"blend" yaml:"blend"`
}

// Default returns the configuration the viewer runs with when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	ring := model.DefaultRingDescriptor()
	return Config{
		Window: WindowConfig{Title: "oxy-orbit", Width: 800, Height: 800},
		Ring:   RingConfig{Radius: ring.Radius, Samples: ring.SampleCount, Closed: ring.Closed},
		Projection: ProjectionConfig{
			Fov:          1.2,
			Near:         0.1,
			Far:          10,
			ViewDistance: 2,
		},
		Loop: LoopConfig{RotationStep: 0.01},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        int(renderer.MSAA4x),
			ClearColor:  [4]float64{0.02, 0.02, 0.08, 1},
		},
		Shader: ShaderConfig{LineColor: [4]float32{0.13, 0.8, 0.55, 1}, Blend: string(pipeline.BlendOpaque)},
	}
}

// RingDescriptor converts the ring section into a geometry descriptor.
//
// Returns:
//   - model.RingDescriptor: the descriptor to build the ring from
func (c Config) RingDescriptor() model.RingDescriptor {
	return model.RingDescriptor{Radius: c.Ring.Radius, SampleCount: c.Ring.Samples, Closed: c.Ring.Closed}
}

// PresentMode returns the parsed present mode, falling back to VSync for unknown names.
// Validate reports unknown names.
//
// Returns:
//   - renderer.PresentMode: the present mode
func (c Config) PresentMode() renderer.PresentMode {
	mode, _ := renderer.ParsePresentMode(c.Renderer.PresentMode)
	return mode
}

// BlendMode returns the parsed blend mode, falling back to opaque for unknown names.
func (c Config) BlendMode() pipeline.BlendMode {
	mode, _ := pipeline.ParseBlendMode(c.Shader.Blend)
	return mode
}

// Validate checks every section and returns all problems at once.
//
// Returns:
//   - error: nil, or a joined error whose parts each wrap common.ErrInvalidConfig
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", common.ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		invalid("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}

	if err := c.RingDescriptor().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: ring: %w", common.ErrInvalidConfig, err))
	}

	p := c.Projection
	if _, err := common.Perspective(p.Fov, 1, p.Near, p.Far); err != nil {
		errs = append(errs, fmt.Errorf("%w: projection: %w", common.ErrInvalidConfig, err))
	}
	if !(p.ViewDistance > p.Near && p.ViewDistance < p.Far) {
		invalid("view distance %v must lie between near %v and far %v", p.ViewDistance, p.Near, p.Far)
	}

	if math32.IsNaN(c.Loop.RotationStep) || math32.IsInf(c.Loop.RotationStep, 0) {
		invalid("rotation step %v must be finite", c.Loop.RotationStep)
	}
	if c.Loop.FrameLimit < 0 {
		invalid("frame limit %v must not be negative", c.Loop.FrameLimit)
	}
	if c.Loop.PrepWorkers < 0 {
		invalid("prep workers %d must not be negative", c.Loop.PrepWorkers)
	}

	if _, ok := renderer.ParsePresentMode(c.Renderer.PresentMode); !ok {
		invalid("unknown present mode %q", c.Renderer.PresentMode)
	}
	switch renderer.MSAASampleCount(c.Renderer.MSAA) {
	case renderer.MSAAOff, renderer.MSAA4x:
	default:
		invalid("msaa %d must be 1 or 4", c.Renderer.MSAA)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			invalid("clear color component %d = %v is outside [0, 1]", i, v)
		}
	}
	for i, v := range c.Shader.LineColor {
		if v < 0 || v > 1 {
			invalid("line color component %d = %v is outside [0, 1]", i, v)
		}
	}

	if _, ok := pipeline.ParseBlendMode(c.Shader.Blend); !ok {
		invalid("unknown blend mode %q", c.Shader.Blend)
	}

	return errors.Join(errs...)
}
