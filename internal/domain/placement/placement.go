// Package placement resolves a viewer-relative offset into a world transform.
//
// Placement is one-shot: the result keeps no link to the reference pose.
package placement

import "github.com/go-gl/mathgl/mgl64"

// Place returns ref * T(offset): the reference pose translated by offset in
// the reference's local frame. The result inherits ref's orientation.
func Place(ref mgl64.Mat4, offset mgl64.Vec3) mgl64.Mat4 {
	return ref.Mul4(mgl64.Translate3D(offset[0], offset[1], offset[2]))
}

// Absolute treats offset as a world position. Used when no viewer pose is known.
func Absolute(offset mgl64.Vec3) mgl64.Mat4 {
	return Place(mgl64.Ident4(), offset)
}

// Resolve places against ref when it is set and falls back to Absolute.
func Resolve(ref *mgl64.Mat4, offset mgl64.Vec3) mgl64.Mat4 {
	if ref == nil {
		return Absolute(offset)
	}
	return Place(*ref, offset)
}

// Origin returns the translation column of m.
func Origin(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// FromSlice builds a matrix from 16 column-major values.
func FromSlice(v []float64) (mgl64.Mat4, bool) {
	var m mgl64.Mat4
	if len(v) != len(m) {
		return m, false
	}
	copy(m[:], v)
	return m, true
}
