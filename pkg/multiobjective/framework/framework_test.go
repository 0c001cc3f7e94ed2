package framework

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDominatesIsStrictPartialOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	points := make([][]float64, 60)
	for i := range points {
		// Coarse values so that ties and equal points occur.
		points[i] = []float64{float64(rng.IntN(4)), float64(rng.IntN(4)), float64(rng.IntN(4))}
	}

	for _, a := range points {
		assert.False(t, Dominates(a, a), "irreflexive: %v", a)
		for _, b := range points {
			assert.False(t, Dominates(a, b) && Dominates(b, a), "asymmetric: %v %v", a, b)
			for _, c := range points {
				if Dominates(a, b) && Dominates(b, c) {
					assert.True(t, Dominates(a, c), "transitive: %v %v %v", a, b, c)
				}
			}
		}
	}
}

func TestFastNonDominatedSortScenario(t *testing.T) {
	objs := [][]float64{{3, 1}, {2, 2}, {1, 3}, {0, 0}}

	fronts, ranks, err := FastNonDominatedSort(objs)
	require.NoError(t, err)

	for _, f := range fronts {
		sort.Ints(f)
	}
	if diff := cmp.Diff([][]int{{0, 1, 2}, {3}}, fronts); diff != "" {
		t.Errorf("fronts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{0, 0, 0, 1}, ranks)
}

func TestFastNonDominatedSortPartitions(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	objs := make([][]float64, 80)
	for i := range objs {
		objs[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64()}
	}

	fronts, ranks, err := FastNonDominatedSort(objs)
	require.NoError(t, err)

	seen := make(map[int]int)
	for r, f := range fronts {
		require.NotEmpty(t, f)
		for _, idx := range f {
			seen[idx]++
			assert.Equal(t, r, ranks[idx])
		}
	}
	assert.Len(t, seen, len(objs))
	for idx, n := range seen {
		assert.Equal(t, 1, n, "individual %d appears in %d fronts", idx, n)
	}

	for _, i := range fronts[0] {
		for j := range objs {
			assert.False(t, Dominates(objs[j], objs[i]), "front 0 member %d dominated by %d", i, j)
		}
	}
	// Every member of a later front is dominated by someone in the previous one.
	for r := 1; r < len(fronts); r++ {
		for _, i := range fronts[r] {
			found := false
			for _, j := range fronts[r-1] {
				found = found || Dominates(objs[j], objs[i])
			}
			assert.True(t, found)
		}
	}
}

func TestFastNonDominatedSortMalformed(t *testing.T) {
	_, _, err := FastNonDominatedSort([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrMalformedObjectives)

	_, _, err = ConstrainedNonDominatedSort([][]float64{{1, 2}}, nil)
	assert.ErrorIs(t, err, ErrMalformedObjectives)

	fronts, ranks, err := FastNonDominatedSort(nil)
	require.NoError(t, err)
	assert.Empty(t, fronts)
	assert.Empty(t, ranks)
}

func TestConstrainedSortPutsInfeasibleLast(t *testing.T) {
	objs := [][]float64{{10, 10}, {0, 0}, {5, 5}, {1, 1}}
	violations := []float64{2, 0, 0.5, 0}

	fronts, ranks, err := ConstrainedNonDominatedSort(objs, violations)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 2, 0}, []int{fronts[0][0], fronts[1][0], fronts[2][0], fronts[3][0]})
	assert.Equal(t, []int{3, 1, 2, 0}, ranks)
}

func TestNonDominatedSortSetsRank(t *testing.T) {
	pop := []Individual{
		{Objectives: []float64{1, 1}},
		{Objectives: []float64{2, 2}},
		{Objectives: []float64{math.Inf(-1), math.Inf(-1)}, Failed: true},
	}
	fronts, err := NonDominatedSort(pop)
	require.NoError(t, err)
	require.Len(t, fronts, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{pop[0].Rank, pop[1].Rank, pop[2].Rank})
}

func TestOperatorsRespectBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	bounds := []Bounds{{L: 0, H: 1}, {L: -5, H: 5}, {L: 10, H: 20}}
	p1 := []float64{0, -5, 10}
	p2 := []float64{1, 5, 20}

	sbx := SBX{Probability: 1, DistributionIndex: 2}
	two := TwoPoint{Probability: 1}
	mut := PolynomialMutation{Probability: 1, DistributionIndex: 20}
	for i := 0; i < 200; i++ {
		for _, x := range []Crossover{sbx, two} {
			c1, c2 := x.Crossover(rng, p1, p2, bounds)
			mut.Mutate(rng, c1, bounds)
			for j, b := range bounds {
				assert.GreaterOrEqual(t, c1[j], b.L)
				assert.LessOrEqual(t, c1[j], b.H)
				assert.GreaterOrEqual(t, c2[j], b.L)
				assert.LessOrEqual(t, c2[j], b.H)
			}
		}
	}
	assert.Equal(t, []float64{0, -5, 10}, p1, "parents are not modified")
}

func TestCrossoverProbabilityZeroCopiesParents(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	p1, p2 := []float64{1, 2}, []float64{3, 4}
	c1, c2 := SBX{Probability: 0, DistributionIndex: 15}.Crossover(rng, p1, p2, []Bounds{{0, 5}, {0, 5}})
	assert.Equal(t, p1, c1)
	assert.Equal(t, p2, c2)
}

func TestEvaluationHelpers(t *testing.T) {
	e := Evaluation{Objectives: []float64{1}, Constraints: []float64{-1, 2, 0.5}}
	assert.Equal(t, 2.5, e.Violation())

	p := Penalty(2, 1)
	assert.True(t, math.IsInf(p.Objectives[0], -1))
	assert.True(t, math.IsInf(p.Violation(), 1))

	err := &EvaluationError{Index: 3, Err: context.DeadlineExceeded}
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "individual 3")

	ctx := WithGeneration(context.Background(), 4)
	assert.Equal(t, 4, GenerationFromContext(ctx))
	assert.Equal(t, -1, GenerationFromContext(context.Background()))
}
