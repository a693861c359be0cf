package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	desc := cfg.RingDescriptor()
	assert.Equal(t, float32(0.7), desc.Radius)
	assert.Equal(t, 128, desc.SampleCount)
	assert.True(t, desc.Closed)
	assert.Equal(t, renderer.PresentModeVSync, cfg.PresentMode())
	assert.Equal(t, float32(0.01), cfg.Loop.RotationStep)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Ring.Samples = 2
	cfg.Projection.Near = 0
	cfg.Renderer.PresentMode = "mailbox"
	cfg.Renderer.MSAA = 2
	cfg.Shader.LineColor[0] = 2
	cfg.Shader.Blend = "multiply"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.ErrorIs(t, err, common.ErrInvalidGeometryParameters)
	assert.ErrorIs(t, err, common.ErrInvalidProjectionParameters)
	assert.ErrorContains(t, err, "mailbox")
	assert.ErrorContains(t, err, "msaa 2")
	assert.ErrorContains(t, err, "line color")
	assert.ErrorContains(t, err, "multiply")
}

func TestValidateViewDistanceInsideClipRange(t *testing.T) {
	cfg := Default()
	cfg.Projection.ViewDistance = 20
	assert.ErrorContains(t, cfg.Validate(), "view distance")
}

func TestLoadTOMLOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ring]
radius = 0.5
samples = 64

[renderer]
present_mode = "uncapped"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), cfg.Ring.Radius)
	assert.Equal(t, 64, cfg.Ring.Samples)
	assert.True(t, cfg.Ring.Closed)
	assert.Equal(t, renderer.PresentModeUncapped, cfg.PresentMode())
	assert.Equal(t, float32(1.2), cfg.Projection.Fov)
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
window:
  title: ring
loop:
  prep_workers: 2
  profiling: true
shader:
  line_color: [1.0, 0.5, 0.25, 1.0]
  blend: additive
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ring", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 2, cfg.Loop.PrepWorkers)
	assert.True(t, cfg.Loop.Profiling)
	assert.Equal(t, [4]float32{1, 0.5, 0.25, 1}, cfg.Shader.LineColor)
	assert.Equal(t, pipeline.BlendAdditive, cfg.BlendMode())
}

func TestLoadRejectsUnknownKeysAndFormats(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "orbit.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ring]\nradiuss = 1.0\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "orbit.json"))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadEmptyYAMLUsesDefaults(t *testing.T) {
	f, err := decoderFor("x.yml")
	require.NoError(t, err)

	cfg, err := Read(strings.NewReader(""), f)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
