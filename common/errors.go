package common

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine. Callers match them with errors.Is; the concrete
// error returned by an operation usually wraps one of these with additional context.
var (
	// ErrInvalidGeometryParameters is returned when a geometry descriptor cannot produce a valid mesh.
	ErrInvalidGeometryParameters = errors.New("invalid geometry parameters")

	// ErrInvalidProjectionParameters is returned when perspective inputs describe an empty or inverted frustum.
	ErrInvalidProjectionParameters = errors.New("invalid projection parameters")

	// ErrDeviceUnavailable is returned when no GPU adapter or device could be acquired for the surface.
	ErrDeviceUnavailable = errors.New("gpu device unavailable")

	// ErrShaderCompilation is matched by every ShaderCompilationError.
	ErrShaderCompilation = errors.New("shader compilation failed")

	// ErrEngineUnavailable is returned by the bootstrap when the capability probe reports no WebGPU support.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrDeviceLost is returned by a frame when the GPU can no longer accept work.
	ErrDeviceLost = errors.New("gpu device lost")

	// ErrFrameSkipped is returned when the surface had no texture to render into and was reconfigured.
	ErrFrameSkipped = errors.New("frame skipped")

	// ErrInvalidConfig is returned when a configuration file or value fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// ShaderCompilationError carries the diagnostic produced while compiling a shader module.
type ShaderCompilationError struct {
	// Key is the shader or pipeline key the source was registered under.
	Key string
	// Stage names the stage being compiled ("vertex", "fragment" or "module" when the whole source failed).
	Stage string
	// Diagnostic is the human-readable compiler output.
	Diagnostic string
	// Err is the underlying error, if any.
	Err error
}

func (e *ShaderCompilationError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("shader %q: %s", e.Key, e.Diagnostic)
	}
	return fmt.Sprintf("shader %q (%s): %s", e.Key, e.Stage, e.Diagnostic)
}

// Is reports ErrShaderCompilation as a match so callers can test the category without a type assertion.
func (e *ShaderCompilationError) Is(target error) bool {
	return target == ErrShaderCompilation
}

func (e *ShaderCompilationError) Unwrap() error {
	return e.Err
}
