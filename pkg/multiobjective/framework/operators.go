package framework

import (
	"math"
	"math/rand/v2"
)

// Crossover recombines two parent chromosomes into two children. Implementations
// must not modify the parents.
type Crossover interface {
	Crossover(rng *rand.Rand, p1, p2 []float64, bounds []Bounds) ([]float64, []float64)
}

// SBX performs Simulated Binary Crossover, blending each gene pair.
type SBX struct {
	// Probability that a pair is recombined at all.
	Probability float64
	// DistributionIndex controls how close children stay to their parents.
	DistributionIndex float64
}

// Crossover implements Crossover.
func (x SBX) Crossover(rng *rand.Rand, p1, p2 []float64, bounds []Bounds) ([]float64, []float64) {
	child1 := append([]float64(nil), p1...)
	child2 := append([]float64(nil), p2...)
	if rng.Float64() >= x.Probability {
		return child1, child2
	}

	exp := 1.0 / (x.DistributionIndex + 1)
	for i := range p1 {
		// Each gene is recombined with probability one half.
		if rng.Float64() > 0.5 {
			continue
		}
		beta := 0.0
		if u := rng.Float64(); u <= 0.5 {
			beta = math.Pow(2*u, exp)
		} else {
			beta = math.Pow(1.0/(2*(1.0-u)), exp)
		}

		child1[i] = 0.5 * ((1+beta)*p1[i] + (1-beta)*p2[i])
		child2[i] = 0.5 * ((1-beta)*p1[i] + (1+beta)*p2[i])

		// Bound checking
		child1[i] = bounds[i].Clip(child1[i])
		child2[i] = bounds[i].Clip(child2[i])
	}
	return child1, child2
}

// TwoPoint exchanges the segment between two random cut points.
type TwoPoint struct {
	Probability float64
}

// Crossover implements Crossover.
func (x TwoPoint) Crossover(rng *rand.Rand, p1, p2 []float64, _ []Bounds) ([]float64, []float64) {
	child1 := append([]float64(nil), p1...)
	child2 := append([]float64(nil), p2...)
	if len(p1) < 2 || rng.Float64() >= x.Probability {
		return child1, child2
	}
	a, b := rng.IntN(len(p1)), rng.IntN(len(p1))
	if a > b {
		a, b = b, a
	}
	for i := a; i <= b; i++ {
		child1[i], child2[i] = child2[i], child1[i]
	}
	return child1, child2
}

// Mutator perturbs a chromosome in place, keeping every gene within bounds.
type Mutator interface {
	Mutate(rng *rand.Rand, vars []float64, bounds []Bounds)
}

// PolynomialMutation perturbs each gene with the given probability by a
// polynomially distributed step proportional to the gene's range.
type PolynomialMutation struct {
	Probability       float64
	DistributionIndex float64
}

// Mutate modifies vars in place and keeps every gene within bounds.
func (m PolynomialMutation) Mutate(rng *rand.Rand, vars []float64, bounds []Bounds) {
	exp := 1.0 / (m.DistributionIndex + 1)
	for i := range vars {
		if rng.Float64() >= m.Probability {
			continue
		}
		delta := 0.0
		if u := rng.Float64(); u <= 0.5 {
			delta = math.Pow(2*u, exp) - 1
		} else {
			delta = 1 - math.Pow(2*(1-u), exp)
		}

		vars[i] += delta * (bounds[i].H - bounds[i].L)
		vars[i] = bounds[i].Clip(vars[i])
	}
}
