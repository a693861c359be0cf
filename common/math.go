package common

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// Matrix4 is a 4x4 float32 matrix stored in column-major order, element [col][row] at col*4+row.
// This matches the memory layout of a WGSL mat4x4<f32>.
type Matrix4 [16]float32

// TwoPi is one full turn in radians.
const TwoPi = 2 * math32.Pi

// RotationState holds the current rotation of the ring about the Z axis.
// Angle is always kept in [0, 2π). It is accumulated in float64 and only narrowed for the GPU.
type RotationState struct {
	Angle float64
}

// Radians returns the angle as the float32 the MVP is built from, in [0, 2π).
func (s RotationState) Radians() float32 {
	a := float32(s.Angle)
	if a >= TwoPi {
		return 0
	}
	return a
}

// Identity returns the 4x4 identity matrix.
//
// Returns:
//   - Matrix4: the identity matrix
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element in the given column and row.
//
// Parameters:
//   - col: column index (0-3)
//   - row: row index (0-3)
//
// Returns:
//   - float32: the element value
func (m Matrix4) At(col, row int) float32 {
	return m[col*4+row]
}

// Mul4 multiplies two 4x4 matrices.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: a * b
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Matrix4: the product a * b
func Mul4(a, b Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Perspective creates a right-handed perspective projection matrix for WebGPU clip space,
// mapping the near plane to depth 0 and the far plane to depth 1.
//
// Parameters:
//   - fovY: vertical field of view in radians, must lie in (0, π)
//   - aspect: viewport aspect ratio (width/height), must be > 0
//   - near: near clipping plane distance, must be > 0
//   - far: far clipping plane distance, must be > near
//
// Returns:
//   - Matrix4: the projection matrix
//   - error: ErrInvalidProjectionParameters if any input is out of range
func Perspective(fovY, aspect, near, far float32) (Matrix4, error) {
	if !isFinite(fovY) || fovY <= 0 || fovY >= math32.Pi {
		return Matrix4{}, fmt.Errorf("%w: fov %v outside (0, π)", ErrInvalidProjectionParameters, fovY)
	}
	if !isFinite(aspect) || aspect <= 0 {
		return Matrix4{}, fmt.Errorf("%w: aspect %v must be positive", ErrInvalidProjectionParameters, aspect)
	}
	if !isFinite(near) || near <= 0 {
		return Matrix4{}, fmt.Errorf("%w: near %v must be positive", ErrInvalidProjectionParameters, near)
	}
	if !isFinite(far) || far <= near {
		return Matrix4{}, fmt.Errorf("%w: far %v must be greater than near %v", ErrInvalidProjectionParameters, far, near)
	}

	f := 1.0 / math32.Tan(fovY/2.0)
	var out Matrix4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out, nil
}

// RotationZ returns a rotation of angle radians about the +Z axis (counter-clockwise when viewed from +Z).
//
// Parameters:
//   - angle: rotation in radians
//
// Returns:
//   - Matrix4: the rotation matrix
func RotationZ(angle float32) Matrix4 {
	s, c := math32.Sincos(angle)
	out := Identity()
	out[0] = c
	out[1] = s
	out[4] = -s
	out[5] = c
	return out
}

// ComposeRotationZ post-multiplies m by a Z rotation, returning m * RotationZ(angle).
// Vertices are rotated first, then transformed by m.
//
// Parameters:
//   - m: the base transform (typically projection * view)
//   - angle: rotation in radians
//
// Returns:
//   - Matrix4: the composed transform
func ComposeRotationZ(m Matrix4, angle float32) Matrix4 {
	return Mul4(m, RotationZ(angle))
}

// Translation returns a matrix translating by (x, y, z).
//
// Parameters:
//   - x, y, z: translation components
//
// Returns:
//   - Matrix4: the translation matrix
func Translation(x, y, z float32) Matrix4 {
	out := Identity()
	out[12] = x
	out[13] = y
	out[14] = z
	return out
}

// LookAt creates a view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view/camera space.
//
// Parameters:
//   - eyeX, eyeY, eyeZ: camera position in world space
//   - centerX, centerY, centerZ: target point the camera looks at
//   - upX, upY, upZ: up vector defining camera orientation (typically 0,1,0)
//
// Returns:
//   - Matrix4: the view matrix
func LookAt(eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) Matrix4 {
	z0 := eyeX - centerX
	z1 := eyeY - centerY
	z2 := eyeZ - centerZ
	l := z0*z0 + z1*z1 + z2*z2
	if l == 0 {
		l = 1
	}
	invLen := 1.0 / math32.Sqrt(l)
	z0 *= invLen
	z1 *= invLen
	z2 *= invLen

	x0 := upY*z2 - upZ*z1
	x1 := upZ*z0 - upX*z2
	x2 := upX*z1 - upY*z0
	l = x0*x0 + x1*x1 + x2*x2
	if l == 0 {
		l = 1
	}
	invLen = 1.0 / math32.Sqrt(l)
	x0 *= invLen
	x1 *= invLen
	x2 *= invLen

	y0 := z1*x2 - z2*x1
	y1 := z2*x0 - z0*x2
	y2 := z0*x1 - z1*x0

	var out Matrix4
	out[0], out[4], out[8], out[12] = x0, x1, x2, -(x0*eyeX + x1*eyeY + x2*eyeZ)
	out[1], out[5], out[9], out[13] = y0, y1, y2, -(y0*eyeX + y1*eyeY + y2*eyeZ)
	out[2], out[6], out[10], out[14] = z0, z1, z2, -(z0*eyeX + z1*eyeY + z2*eyeZ)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
	return out
}

// AdvanceAngle adds step to the state's angle and wraps the result into [0, 2π).
// Non-finite steps leave the state unchanged.
//
// Parameters:
//   - state: the current rotation state
//   - step: the angle delta in radians (may be negative)
//
// Returns:
//   - RotationState: the advanced state
func AdvanceAngle(state RotationState, step float32) RotationState {
	if !isFinite(step) {
		return state
	}
	return RotationState{Angle: normalizeAngle64(state.Angle + float64(step))}
}

// NormalizeAngle wraps angle into [0, 2π).
//
// Parameters:
//   - angle: an angle in radians
//
// Returns:
//   - float32: the equivalent angle in [0, 2π)
func NormalizeAngle(angle float32) float32 {
	if !isFinite(angle) {
		return 0
	}
	a := math32.Mod(angle, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// a+2π can round up to exactly 2π in float32
	if a >= TwoPi {
		a = 0
	}
	return a
}

func normalizeAngle64(angle float64) float64 {
	const twoPi = 2 * math.Pi
	a := math.Mod(angle, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
