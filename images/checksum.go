// Package images holds small gocv helpers shared by the pipeline tests and tools.
package images

import (
	"crypto/sha256"
	"encoding/hex"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum of a Mat's pixels, used
// to verify that a frame was left untouched.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded SHA-256 checksum string, or "empty" for an empty Mat.
//
// Example:
//
// ```go
//
//	before := ComputeMatChecksum(frame)
//	p.ProcessFrame(&frame)
//	untouched := before == ComputeMatChecksum(frame)
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		// Region views are not continuous; hash a packed copy instead.
		packed := mat.Clone()
		defer packed.Close()
		data = packed.ToBytes()
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewBlankFrame returns a black 3-channel 8-bit frame of cols×rows pixels.
// The caller owns the Mat and must Close it.
func NewBlankFrame(cols, rows int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
}
