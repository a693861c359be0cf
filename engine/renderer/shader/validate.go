package shader

import (
	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/gogpu/naga"
)

// Validate compiles the processed source of s offline and reports any compiler diagnostic as a
// *common.ShaderCompilationError. The driver's own shader compiler returns no diagnostic text, so this
// runs before the module is handed to the device.
//
// Parameters:
//   - s: the shader to validate
//
// Returns:
//   - error: nil if the source compiles, otherwise a *common.ShaderCompilationError
func Validate(s Shader) error {
	if _, err := naga.Compile(s.Source()); err != nil {
		return &common.ShaderCompilationError{
			Key:        s.Key(),
			Stage:      s.ShaderType().String(),
			Diagnostic: err.Error(),
			Err:        err,
		}
	}
	return nil
}
