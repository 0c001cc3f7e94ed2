// Package tensorfield combines grid and radial basis fields into a single
// anisotropic direction field that road streamlines follow.
package tensorfield

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultCutoff is the multiple of a basis decay radius beyond which the basis
// contributes nothing.
const DefaultCutoff = 3.0

// Which selects one of the two orthogonal eigen directions.
type Which int

const (
	// Major is the eigenvector of the larger eigenvalue: the road direction.
	Major Which = iota
	// Minor is perpendicular to Major: the cross-street direction.
	Minor
)

// Field is an immutable weighted sum of basis fields.
type Field struct {
	basis  []BasisField
	cutoff float64
}

// New returns a field composed of the given basis fields using DefaultCutoff.
func New(basis ...BasisField) *Field {
	return NewWithCutoff(DefaultCutoff, basis...)
}

// NewWithCutoff is like New but with an explicit cutoff factor. A non-positive
// cutoff disables the bounded support.
func NewWithCutoff(cutoff float64, basis ...BasisField) *Field {
	b := make([]BasisField, len(basis))
	copy(b, basis)
	return &Field{basis: b, cutoff: cutoff}
}

// Basis returns a copy of the basis fields in composition order.
func (f *Field) Basis() []BasisField {
	out := make([]BasisField, len(f.basis))
	copy(out, f.basis)
	return out
}

// TensorAt returns the decay-weighted sum of all basis tensors at p.
func (f *Field) TensorAt(p r2.Vec) Tensor {
	var t Tensor
	for _, b := range f.basis {
		w := b.weight(p, f.cutoff)
		if w == 0 {
			continue
		}
		t = t.Add(b.baseTensor(p).Scale(w))
	}
	return t
}

// EigenDirection returns a unit vector along the requested eigen direction at p,
// and the anisotropy there. Callers should treat low anisotropy as "no preferred
// direction"; the returned vector is still finite.
func (f *Field) EigenDirection(p r2.Vec, which Which) (r2.Vec, float64) {
	t := f.TensorAt(p)
	major, l1, l2 := t.Eigen()
	if which == Minor {
		return r2.Vec{X: -major.Y, Y: major.X}, l1 - l2
	}
	return major, l1 - l2
}

// Anisotropy returns the eigenvalue gap of the combined tensor at p.
func (f *Field) Anisotropy(p r2.Vec) float64 {
	return f.TensorAt(p).Anisotropy()
}
