package tensorfield

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Tensor is a symmetric 2×2 tensor [[XX, XY], [XY, YY]].
type Tensor struct {
	XX, XY, YY float64
}

// orientationTensor returns the unit traceless tensor whose major eigenvector
// points along angle theta.
func orientationTensor(theta float64) Tensor {
	c, s := math.Cos(2*theta), math.Sin(2*theta)
	return Tensor{XX: c, XY: s, YY: -c}
}

// Add returns t + o.
func (t Tensor) Add(o Tensor) Tensor {
	return Tensor{XX: t.XX + o.XX, XY: t.XY + o.XY, YY: t.YY + o.YY}
}

// Scale returns t * f.
func (t Tensor) Scale(f float64) Tensor {
	return Tensor{XX: t.XX * f, XY: t.XY * f, YY: t.YY * f}
}

// IsZero reports whether every component is exactly zero.
func (t Tensor) IsZero() bool {
	return t.XX == 0 && t.XY == 0 && t.YY == 0
}

// Eigen returns the unit eigenvector of the larger eigenvalue together with both
// eigenvalues (major first). An isotropic tensor yields the x axis.
func (t Tensor) Eigen() (major r2.Vec, lambdaMajor, lambdaMinor float64) {
	mean := (t.XX + t.YY) / 2
	half := (t.XX - t.YY) / 2
	radius := math.Hypot(half, t.XY)
	if radius == 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return r2.Vec{X: 1, Y: 0}, mean, mean
	}
	angle := 0.5 * math.Atan2(t.XY, half)
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}, mean + radius, mean - radius
}

// Anisotropy is the eigenvalue gap of the tensor. Zero means isotropic and no
// direction is preferred.
func (t Tensor) Anisotropy() float64 {
	_, l1, l2 := t.Eigen()
	return l1 - l2
}
