package common

import (
	"encoding/binary"
	"math"
)

// PutFloat32s writes vals into buf as consecutive little-endian IEEE-754 float32 values.
// buf must hold at least 4*len(vals) bytes.
//
// Parameters:
//   - buf: destination byte slice
//   - vals: the values to encode
//
// Returns:
//   - int: the number of bytes written
func PutFloat32s(buf []byte, vals ...float32) int {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return len(vals) * 4
}
