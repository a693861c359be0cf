package camera

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/Carmen-Shannon/oxy-orbit/engine/renderer/bind_group_provider"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// DefaultViewDistance is how far the camera sits from the ring along +Z.
const DefaultViewDistance float32 = 2.0

type cameraImpl struct {
	mu *sync.Mutex

	fov      float32
	aspect   float32
	near     float32
	far      float32
	distance float32

	viewMatrix           common.Matrix4
	projectionMatrix     common.Matrix4
	viewProjectionMatrix common.Matrix4
	projectionErr        error

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera holds the perspective settings and fixed viewing distance used to frame the ring.
// It caches projection * view and composes the per-frame Z rotation on request via MVP.
type Camera interface {
	// Fov returns the field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Distance returns the distance from the camera to the ring plane.
	//
	// Returns:
	//   - float32: view distance
	Distance() float32

	// ViewMatrix returns the current view matrix (column-major).
	//
	// Returns:
	//   - common.Matrix4: the view matrix
	ViewMatrix() common.Matrix4

	// ProjectionMatrix returns the current projection matrix (column-major).
	//
	// Returns:
	//   - common.Matrix4: the projection matrix
	ProjectionMatrix() common.Matrix4

	// ViewProjectionMatrix returns projection * view (column-major).
	//
	// Returns:
	//   - common.Matrix4: the combined view-projection matrix
	ViewProjectionMatrix() common.Matrix4

	// MVP composes the cached view-projection with a rotation of angle radians about Z.
	//
	// Parameters:
	//   - angle: the ring rotation in radians
	//
	// Returns:
	//   - common.Matrix4: projection * view * RotationZ(angle)
	//   - error: wraps common.ErrInvalidProjectionParameters if the current settings are invalid
	MVP(angle float32) (common.Matrix4, error)

	// Err reports whether the current perspective settings produce a valid projection.
	//
	// Returns:
	//   - error: nil, or an error wrapping common.ErrInvalidProjectionParameters
	Err() error

	// BindGroupProvider returns the camera's bind group provider, which owns the MVP uniform buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetFov sets the field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far clipping plane distances and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	SetClipPlanes(near, far float32)

	// SetDistance sets the distance from the camera to the ring plane and recomputes matrices.
	//
	// Parameters:
	//   - distance: view distance
	SetDistance(distance float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera looking down -Z at the origin from DefaultViewDistance.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		fov:      1.2,
		aspect:   1.0,
		near:     0.1,
		far:      10.0,
		distance: DefaultViewDistance,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Load(), 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	cameraCount.Add(1)
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Distance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distance
}

func (c *cameraImpl) ViewMatrix() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) MVP(angle float32) (common.Matrix4, error) {
	c.mu.Lock()
	vp, err := c.viewProjectionMatrix, c.projectionErr
	c.mu.Unlock()
	if err != nil {
		return common.Matrix4{}, err
	}
	return common.ComposeRotationZ(vp, angle), nil
}

func (c *cameraImpl) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionErr
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetDistance(distance float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distance = distance
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// An invalid projection keeps the previous matrices and records the error for MVP.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	proj, err := common.Perspective(c.fov, c.aspect, c.near, c.far)
	if err != nil {
		c.projectionErr = fmt.Errorf("camera: %w", err)
		return
	}
	c.projectionErr = nil
	c.projectionMatrix = proj
	c.viewMatrix = common.LookAt(
		0, 0, c.distance,
		0, 0, 0,
		0, 1, 0,
	)
	c.viewProjectionMatrix = common.Mul4(c.projectionMatrix, c.viewMatrix)
}
