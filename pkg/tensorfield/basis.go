package tensorfield

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind identifies the shape of a basis field.
type Kind int

const (
	// KindGrid is a uniform field aligned with a fixed orientation.
	KindGrid Kind = iota
	// KindRadial is a field centred on a point, flowing through or around it.
	KindRadial
)

func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindRadial:
		return "radial"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BasisField is a single local contributor to a Field. Only the members
// relevant to Kind are meaningful: Theta for grid fields, Tangential for radial ones.
type BasisField struct {
	Kind   Kind
	Center r2.Vec
	// Decay is the radius at which the contribution has fallen to one half.
	Decay float64
	// Theta is the grid orientation in radians.
	Theta float64
	// Tangential makes a radial field circle around its center instead of
	// pointing through it.
	Tangential bool
}

// Grid returns a grid-aligned basis field.
func Grid(center r2.Vec, theta, decay float64) BasisField {
	return BasisField{Kind: KindGrid, Center: center, Theta: theta, Decay: decay}
}

// Radial returns a point-centred basis field.
func Radial(center r2.Vec, decay float64, tangential bool) BasisField {
	return BasisField{Kind: KindRadial, Center: center, Decay: decay, Tangential: tangential}
}

// weight is the inverse-quadratic falloff 1/(1+(d/r)^2), zero beyond cutoff·r.
func (b BasisField) weight(p r2.Vec, cutoff float64) float64 {
	if b.Decay <= 0 {
		return 0
	}
	d := r2.Norm(r2.Sub(p, b.Center))
	if cutoff > 0 && d > cutoff*b.Decay {
		return 0
	}
	q := d / b.Decay
	return 1 / (1 + q*q)
}

// baseTensor returns the undecayed tensor of the field at p.
func (b BasisField) baseTensor(p r2.Vec) Tensor {
	switch b.Kind {
	case KindGrid:
		return orientationTensor(b.Theta)
	case KindRadial:
		rel := r2.Sub(p, b.Center)
		if r2.Norm2(rel) < 1e-18 {
			return Tensor{}
		}
		angle := math.Atan2(rel.Y, rel.X)
		if b.Tangential {
			angle += math.Pi / 2
		}
		return orientationTensor(angle)
	default:
		panic(fmt.Sprintf("tensorfield: unknown basis kind %v", b.Kind))
	}
}
