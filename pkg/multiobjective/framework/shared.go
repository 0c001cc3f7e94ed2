package framework

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedObjectives is returned when an objective matrix is ragged or
// does not line up with its violation vector.
var ErrMalformedObjectives = errors.New("malformed objective matrix")

// Dominates checks if objective vector a dominates b. Objectives are maximized:
// a must be at least as good everywhere and strictly better somewhere.
func Dominates(a, b []float64) bool {
	better := false
	for i := 0; i < len(a); i++ {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			better = true
		}
	}
	return better
}

// ConstraintDominates applies constraint-domination: a feasible solution beats an
// infeasible one, of two infeasible solutions the smaller violation wins, and
// two feasible solutions compare by Pareto dominance.
func ConstraintDominates(a, b []float64, violationA, violationB float64) bool {
	feasibleA, feasibleB := violationA <= 0, violationB <= 0
	switch {
	case feasibleA && !feasibleB:
		return true
	case !feasibleA && feasibleB:
		return false
	case !feasibleA && !feasibleB:
		return violationA < violationB
	default:
		return Dominates(a, b)
	}
}

// FastNonDominatedSort partitions the rows of objs into Pareto fronts. It returns
// the fronts as index lists, best first, and the rank of every row.
func FastNonDominatedSort(objs [][]float64) ([][]int, []int, error) {
	if err := checkMatrix(objs); err != nil {
		return nil, nil, err
	}
	fronts, ranks := sortBy(len(objs), func(i, j int) bool {
		return Dominates(objs[i], objs[j])
	})
	return fronts, ranks, nil
}

// ConstrainedNonDominatedSort is FastNonDominatedSort under constraint-domination.
// Every infeasible row ends up in a later front than every feasible row.
func ConstrainedNonDominatedSort(objs [][]float64, violations []float64) ([][]int, []int, error) {
	if err := checkMatrix(objs); err != nil {
		return nil, nil, err
	}
	if len(violations) != len(objs) {
		return nil, nil, fmt.Errorf("%w: %d violations for %d rows", ErrMalformedObjectives, len(violations), len(objs))
	}
	fronts, ranks := sortBy(len(objs), func(i, j int) bool {
		return ConstraintDominates(objs[i], objs[j], violations[i], violations[j])
	})
	return fronts, ranks, nil
}

// NonDominatedSort performs constrained non-dominated sorting on the population,
// setting Rank on every individual and returning the fronts as index lists.
func NonDominatedSort(population []Individual) ([][]int, error) {
	objs := make([][]float64, len(population))
	violations := make([]float64, len(population))
	for i := range population {
		objs[i] = population[i].Objectives
		violations[i] = population[i].Violation
		if population[i].Failed {
			violations[i] = math.Inf(1)
		}
	}
	fronts, ranks, err := ConstrainedNonDominatedSort(objs, violations)
	if err != nil {
		return nil, err
	}
	for i := range population {
		population[i].Rank = ranks[i]
	}
	return fronts, nil
}

func checkMatrix(objs [][]float64) error {
	if len(objs) == 0 {
		return nil
	}
	m := len(objs[0])
	if m == 0 {
		return fmt.Errorf("%w: rows have no objectives", ErrMalformedObjectives)
	}
	for i, row := range objs {
		if len(row) != m {
			return fmt.Errorf("%w: row %d has %d objectives, want %d", ErrMalformedObjectives, i, len(row), m)
		}
	}
	return nil
}

func sortBy(n int, dominates func(i, j int) bool) ([][]int, []int) {
	ranks := make([]int, n)
	if n == 0 {
		return nil, ranks
	}
	dominated := make([][]int, n)
	domCount := make([]int, n)

	// Calculate domination for each individual
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dominates(i, j) {
				dominated[i] = append(dominated[i], j)
				domCount[j]++
			} else if dominates(j, i) {
				dominated[j] = append(dominated[j], i)
				domCount[i]++
			}
		}
	}

	// Find first front
	currentFront := []int{}
	for i := 0; i < n; i++ {
		if domCount[i] == 0 {
			ranks[i] = 0
			currentFront = append(currentFront, i)
		}
	}
	fronts := [][]int{currentFront}

	// Find subsequent fronts
	for rank := 1; ; rank++ {
		nextFront := []int{}
		for _, idx := range currentFront {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					ranks[dominatedIdx] = rank
					nextFront = append(nextFront, dominatedIdx)
				}
			}
		}
		if len(nextFront) == 0 {
			break
		}
		fronts = append(fronts, nextFront)
		currentFront = nextFront
	}

	return fronts, ranks
}
