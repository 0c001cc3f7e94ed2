package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// ErrBadEvaluation is wrapped by evaluation errors caused by a malformed result
// rather than by the evaluator itself.
var ErrBadEvaluation = errors.New("malformed evaluation")

// Outcome is the result of evaluating one chromosome. Err is a
// *framework.EvaluationError when the evaluation failed.
type Outcome struct {
	Evaluation framework.Evaluation
	Err        error
}

// EvaluatePopulation evaluates every chromosome with at most workers concurrent
// evaluations. Each evaluation gets its own read-only copy of the chromosome
// and, when timeout is positive, its own deadline. Results are returned by
// index; failures are reported per outcome and never abort the batch.
func EvaluatePopulation(ctx context.Context, problem framework.Problem, vars [][]float64, workers int, timeout time.Duration) []Outcome {
	out := make([]Outcome, len(vars))
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i := range vars {
		i := i
		p.Go(func() {
			out[i] = evaluateOne(ctx, problem, i, vars[i], timeout)
		})
	}
	p.Wait()
	return out
}

func evaluateOne(ctx context.Context, problem framework.Problem, index int, vars []float64, timeout time.Duration) Outcome {
	vars = append([]float64(nil), vars...)
	fail := func(err error) Outcome {
		return Outcome{
			Evaluation: framework.Penalty(problem.NumObjectives(), problem.NumConstraints()),
			Err:        &framework.EvaluationError{Index: index, Err: err},
		}
	}

	var (
		eval framework.Evaluation
		err  error
	)
	if timeout > 0 {
		eval, err = evaluateWithTimeout(ctx, problem, vars, timeout)
	} else {
		eval, err = evaluateSafely(ctx, problem, vars)
	}
	if err != nil {
		return fail(err)
	}
	if err := checkEvaluation(eval, problem.NumObjectives(), problem.NumConstraints()); err != nil {
		return fail(err)
	}
	return Outcome{Evaluation: eval}
}

// evaluateWithTimeout runs the evaluation in its own goroutine so that an
// evaluator ignoring its context still cannot hold up the generation.
func evaluateWithTimeout(ctx context.Context, problem framework.Problem, vars []float64, timeout time.Duration) (framework.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		eval framework.Evaluation
		err  error
	}
	done := make(chan result, 1)
	go func() {
		eval, err := evaluateSafely(ctx, problem, vars)
		done <- result{eval, err}
	}()

	select {
	case r := <-done:
		return r.eval, r.err
	case <-ctx.Done():
		return framework.Evaluation{}, ctx.Err()
	}
}

func evaluateSafely(ctx context.Context, problem framework.Problem, vars []float64) (eval framework.Evaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator panicked: %v", r)
		}
	}()
	return problem.Evaluate(ctx, vars)
}

func checkEvaluation(e framework.Evaluation, numObjectives, numConstraints int) error {
	if len(e.Objectives) != numObjectives {
		return fmt.Errorf("%w: %d objectives, want %d", ErrBadEvaluation, len(e.Objectives), numObjectives)
	}
	if len(e.Constraints) != numConstraints {
		return fmt.Errorf("%w: %d constraints, want %d", ErrBadEvaluation, len(e.Constraints), numConstraints)
	}
	for i, v := range e.Objectives {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: objective %d is %v", ErrBadEvaluation, i, v)
		}
	}
	for i, v := range e.Constraints {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: constraint %d is NaN", ErrBadEvaluation, i)
		}
	}
	return nil
}
