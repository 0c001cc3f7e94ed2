package framework

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
)

// Individual represents a solution in the population
type Individual struct {
	Variables   []float64
	Objectives  []float64
	Constraints []float64

	// Violation is the sum of the positive constraint values. Zero means feasible.
	Violation float64
	// Failed marks individuals whose evaluation returned an error.
	Failed bool

	Rank int
}

// Feasible reports whether the individual satisfies every constraint.
func (ind *Individual) Feasible() bool {
	return !ind.Failed && ind.Violation <= 0
}

// Clone returns a deep copy of the individual.
func (ind Individual) Clone() Individual {
	out := ind
	out.Variables = append([]float64(nil), ind.Variables...)
	out.Objectives = append([]float64(nil), ind.Objectives...)
	out.Constraints = append([]float64(nil), ind.Constraints...)
	return out
}

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
type ObjectiveSpacePoint []float64

// Evaluation is the result of evaluating one chromosome. Objectives are
// maximized; a constraint value > 0 is the magnitude of its violation.
type Evaluation struct {
	Objectives  []float64
	Constraints []float64
}

// Violation returns the sum of the positive constraint values.
func (e Evaluation) Violation() float64 {
	total := 0.0
	for _, c := range e.Constraints {
		if c > 0 {
			total += c
		}
	}
	return total
}

// Penalty returns the maximally dominated evaluation used for individuals that
// could not be evaluated.
func Penalty(numObjectives, numConstraints int) Evaluation {
	e := Evaluation{
		Objectives:  make([]float64, numObjectives),
		Constraints: make([]float64, numConstraints),
	}
	for i := range e.Objectives {
		e.Objectives[i] = math.Inf(-1)
	}
	for i := range e.Constraints {
		e.Constraints[i] = math.Inf(1)
	}
	return e
}

// Bounds is the inclusive range of a single gene.
type Bounds struct {
	L float64
	H float64
}

// Clip returns v restricted to [L, H].
func (b Bounds) Clip(v float64) float64 {
	return math.Max(b.L, math.Min(b.H, v))
}

// Problem describes the contract a specific multi-objective problem needs to implement.
type Problem interface {
	Name() string

	// Bounds returns one entry per chromosome gene.
	Bounds() []Bounds
	NumObjectives() int
	NumConstraints() int

	// Evaluate must be safe for concurrent use: it is called from several
	// goroutines with distinct chromosomes.
	Evaluate(ctx context.Context, vars []float64) (Evaluation, error)
}

// Sampler produces n initial chromosomes within bounds. It replaces uniform
// random initialization when a problem knows how to build good starting points.
type Sampler func(rng *rand.Rand, bounds []Bounds, n int) [][]float64

// UniformSampler draws every gene uniformly from its bounds.
func UniformSampler(rng *rand.Rand, bounds []Bounds, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		vars := make([]float64, len(bounds))
		for j, b := range bounds {
			vars[j] = b.L + rng.Float64()*(b.H-b.L)
		}
		out[i] = vars
	}
	return out
}

// EvaluationError reports the failure of a single individual. The driver
// penalizes the individual and carries on.
type EvaluationError struct {
	Index int
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating individual %d: %v", e.Index, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

type generationKey struct{}

// WithGeneration returns a context carrying the current generation index.
func WithGeneration(ctx context.Context, gen int) context.Context {
	return context.WithValue(ctx, generationKey{}, gen)
}

// GenerationFromContext returns the generation index set by the driver, or -1.
// Evaluators use it for generation-dependent constraint tolerances.
func GenerationFromContext(ctx context.Context) int {
	if gen, ok := ctx.Value(generationKey{}).(int); ok {
		return gen
	}
	return -1
}

// Algorithm describes the contract that a MOO algorithm needs to implement.
type Algorithm interface {
	Name() string
}
