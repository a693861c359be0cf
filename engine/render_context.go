package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-orbit/engine/camera"
	"github.com/Carmen-Shannon/oxy-orbit/engine/model"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
)

// RenderContext holds everything a frame touches: the renderer, the uploaded ring, the camera that
// owns the MVP uniform, and the pipeline they are drawn with. It is built once by the bootstrap and
// passed to the RenderLoop.
type RenderContext struct {
	Renderer    renderer.Renderer
	Model       model.Model
	Camera      camera.Camera
	PipelineKey string

	// UniformBinding is the binding of the MVP buffer within the camera's bind group.
	UniformBinding int

	// BindGroups are set at their slice index for the draw. The camera's provider sits at its group.
	BindGroups []bind_group_provider.BindGroupProvider
}

// validate reports missing collaborators.
func (rc *RenderContext) validate() error {
	switch {
	case rc == nil:
		return fmt.Errorf("render context is nil")
	case rc.Renderer == nil:
		return fmt.Errorf("render context has no renderer")
	case rc.Model == nil:
		return fmt.Errorf("render context has no model")
	case rc.Camera == nil:
		return fmt.Errorf("render context has no camera")
	case rc.PipelineKey == "":
		return fmt.Errorf("render context has no pipeline key")
	}
	return nil
}

// uniformWrite builds the per-frame upload of mvp into the camera's uniform buffer.
func (rc *RenderContext) uniformWrite(mvp camera.GPUMVPUniform) bind_group_provider.BufferWrite {
	return bind_group_provider.BufferWrite{
		Provider: rc.Camera.BindGroupProvider(),
		Binding:  rc.UniformBinding,
		Data:     mvp.Marshal(),
	}
}

// Resize reconfigures the surface and keeps the camera aspect in step with it.
// Zero sizes (a minimized window) are ignored.
//
// Parameters:
//   - width: the new framebuffer width in pixels
//   - height: the new framebuffer height in pixels
//
// Returns:
//   - error: an error if the surface could not be reconfigured
func (rc *RenderContext) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := rc.Renderer.Resize(width, height); err != nil {
		return err
	}
	rc.Camera.SetAspect(float32(width) / float32(height))
	return nil
}

// Release frees the model buffers, the camera bind group and the renderer.
func (rc *RenderContext) Release() {
	if rc == nil {
		return
	}
	if rc.Model != nil {
		rc.Model.Release()
	}
	if rc.Camera != nil {
		rc.Camera.BindGroupProvider().Release()
	}
	if rc.Renderer != nil {
		rc.Renderer.Release()
	}
}
