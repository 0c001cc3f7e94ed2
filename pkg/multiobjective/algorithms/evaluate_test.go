package algorithms

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// funcProblem adapts a function to framework.Problem with two objectives and
// one constraint.
type funcProblem func(ctx context.Context, x []float64) (framework.Evaluation, error)

func (funcProblem) Name() string                { return "func" }
func (funcProblem) Bounds() []framework.Bounds  { return []framework.Bounds{{L: 0, H: 10}} }
func (funcProblem) NumObjectives() int          { return 2 }
func (funcProblem) NumConstraints() int         { return 1 }
func (f funcProblem) Evaluate(ctx context.Context, x []float64) (framework.Evaluation, error) {
	return f(ctx, x)
}

func TestEvaluatePopulation(t *testing.T) {
	var concurrent, peak atomic.Int32
	problem := funcProblem(func(_ context.Context, x []float64) (framework.Evaluation, error) {
		n := concurrent.Add(1)
		defer concurrent.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		// The chromosome handed to the evaluator is a private copy.
		v := x[0]
		x[0] = -1

		switch v {
		case 1:
			return framework.Evaluation{}, errors.New("boom")
		case 2:
			panic("evaluator bug")
		case 3:
			return framework.Evaluation{Objectives: []float64{1}, Constraints: []float64{0}}, nil
		case 4:
			return framework.Evaluation{Objectives: []float64{math.NaN(), 0}, Constraints: []float64{0}}, nil
		}
		return framework.Evaluation{Objectives: []float64{v, -v}, Constraints: []float64{v - 6}}, nil
	})

	vars := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}, {7}}
	outcomes := EvaluatePopulation(context.Background(), problem, vars, 3, 0)
	require.Len(t, outcomes, len(vars))

	for i, v := range vars {
		assert.NotEqual(t, -1.0, v[0], "chromosome %d was modified", i)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, []float64{0, 0}, outcomes[0].Evaluation.Objectives)
	assert.Equal(t, []float64{7, -7}, outcomes[6].Evaluation.Objectives)
	assert.InDelta(t, 1.0, outcomes[6].Evaluation.Violation(), 1e-12)

	for _, i := range []int{1, 2, 3, 4} {
		var evalErr *framework.EvaluationError
		require.ErrorAs(t, outcomes[i].Err, &evalErr, "outcome %d", i)
		assert.Equal(t, i, evalErr.Index)
		assert.True(t, math.IsInf(outcomes[i].Evaluation.Objectives[0], -1))
		assert.True(t, math.IsInf(outcomes[i].Evaluation.Violation(), 1))
	}
	assert.ErrorContains(t, outcomes[2].Err, "panicked")
	assert.ErrorIs(t, outcomes[3].Err, ErrBadEvaluation)
	assert.ErrorIs(t, outcomes[4].Err, ErrBadEvaluation)
}

func TestEvaluatePopulationTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	problem := funcProblem(func(ctx context.Context, x []float64) (framework.Evaluation, error) {
		if x[0] > 5 {
			// Ignores ctx on purpose.
			<-release
		}
		return framework.Evaluation{Objectives: []float64{x[0], x[0]}, Constraints: []float64{0}}, nil
	})

	start := time.Now()
	outcomes := EvaluatePopulation(context.Background(), problem, [][]float64{{1}, {9}}, 2, 20*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, context.DeadlineExceeded)
}

func TestEvaluatePopulationEmpty(t *testing.T) {
	problem := funcProblem(func(context.Context, []float64) (framework.Evaluation, error) {
		t.Fatal("unexpected evaluation")
		return framework.Evaluation{}, nil
	})
	assert.Empty(t, EvaluatePopulation(context.Background(), problem, nil, 0, 0))
}
