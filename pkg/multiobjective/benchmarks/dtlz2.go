package benchmarks

import (
	"context"
	"math"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// DTLZ2 has a spherical Pareto front
// It's easier than DTLZ1 as it has no local fronts
type DTLZ2 struct {
	numVars       int
	numObjectives int
}

func NewDTLZ2(numVars, numObjectives int) *DTLZ2 {
	// Recommended: numVars = numObjectives + k - 1, where k = 10 for DTLZ2
	return &DTLZ2{
		numVars:       numVars,
		numObjectives: numObjectives,
	}
}

func (p *DTLZ2) Name() string {
	return "DTLZ2"
}

func (p *DTLZ2) NumObjectives() int {
	return p.numObjectives
}

func (p *DTLZ2) NumConstraints() int {
	return 0
}

func (p *DTLZ2) Bounds() []framework.Bounds {
	b := make([]framework.Bounds, p.numVars)
	for i := range p.numVars {
		b[i] = framework.Bounds{L: 0.0, H: 1.0}
	}
	return b
}

// Evaluate reports the negated DTLZ2 objectives.
func (p *DTLZ2) Evaluate(_ context.Context, x []float64) (framework.Evaluation, error) {
	objs := make([]float64, p.numObjectives)
	for i := range objs {
		objs[i] = -p.objective(x, i)
	}
	return framework.Evaluation{Objectives: objs}, nil
}

func (p *DTLZ2) g(x []float64) float64 {
	sum := 0.0
	for i := p.numObjectives - 1; i < p.numVars; i++ {
		sum += math.Pow(x[i]-0.5, 2)
	}
	return sum
}

func (p *DTLZ2) objective(x []float64, objIdx int) float64 {
	f := 1 + p.g(x)

	// Product of cos terms
	for i := 0; i < p.numObjectives-objIdx-1; i++ {
		f *= math.Cos(x[i] * math.Pi / 2)
	}

	// Last term is sin for all objectives except the first
	if objIdx > 0 {
		f *= math.Sin(x[p.numObjectives-objIdx-1] * math.Pi / 2)
	}

	return f
}

// Distance returns how far an objective vector (as reported by Evaluate) is
// from the unit sphere the true front lies on.
func (p *DTLZ2) Distance(objs []float64) float64 {
	sum := 0.0
	for _, v := range objs {
		sum += v * v
	}
	return math.Sqrt(sum) - 1
}
