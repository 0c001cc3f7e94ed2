package benchmarks

import (
	"context"
	"math"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

const (
	Name = "ZDT1"
)

// ZDT1 is a benchmark function used to test the correctness
// of multi-objective algorithms. For more details, check the article below:
// https://datacrayon.com/practical-evolutionary-algorithms/synthetic-objective-functions-and-zdt1/
//
// The optimizer maximizes, so both objectives are reported negated.
type ZDT1 struct {
	numVars int
}

func NewZDT1(numVars int) *ZDT1 {
	return &ZDT1{
		numVars,
	}
}

func (p *ZDT1) Name() string {
	return Name
}

func (p *ZDT1) NumObjectives() int {
	return 2
}

// This is an unconstrained problem
func (p *ZDT1) NumConstraints() int {
	return 0
}

func (p *ZDT1) Bounds() []framework.Bounds {
	b := make([]framework.Bounds, p.numVars)
	for i := range p.numVars {
		b[i] = framework.Bounds{
			L: 0.0,
			H: 1.0,
		}
	}
	return b
}

func (p *ZDT1) Evaluate(_ context.Context, x []float64) (framework.Evaluation, error) {
	return framework.Evaluation{
		Objectives: []float64{-p.f1(x), -p.f2(x)},
	}, nil
}

// f1 is the first ZDT1 benchmark objective
func (p *ZDT1) f1(x []float64) float64 {
	return x[0]
}

// f2 is the second ZDT1 benchmark objective
func (p *ZDT1) f2(x []float64) float64 {
	g := 1.0
	for i := 1; i < len(x); i++ {
		g += 9.0 * x[i] / float64(len(x)-1)
	}
	return g * (1.0 - math.Sqrt(x[0]/g))
}

// TrueParetoFront generates numPoints points on the true Pareto front for ZDT1,
// in the original minimization form.
func (p *ZDT1) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint {
	points := make([]framework.ObjectiveSpacePoint, numPoints)
	for i := 0; i < numPoints; i++ {
		x := float64(i) / float64(numPoints-1)
		points[i] = framework.ObjectiveSpacePoint{
			x, 1.0 - math.Sqrt(x),
		}
	}
	return points
}
