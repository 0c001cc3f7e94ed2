package algorithms

import (
	"fmt"

	"gonum.org/v1/gonum/stat/combin"
)

// innerLayerScale is the factor by which the inner lattice of a two-layer
// reference set is shrunk toward the simplex centroid.
const innerLayerScale = 0.5

// NumReferencePoints returns the size of the simplex lattice with the given
// number of objectives and partitions, C(p+m-1, m-1).
func NumReferencePoints(numObjectives, partitions int) int {
	if numObjectives < 1 || partitions < 0 {
		return 0
	}
	return combin.Binomial(partitions+numObjectives-1, numObjectives-1)
}

// ReferencePoints generates the Das–Dennis simplex lattice: every non-negative
// integer composition of partitions into numObjectives parts, divided by
// partitions. Zero partitions yield the single centroid.
func ReferencePoints(numObjectives, partitions int) ([][]float64, error) {
	if numObjectives < 1 {
		return nil, fmt.Errorf("reference points need at least one objective, got %d", numObjectives)
	}
	if partitions < 0 {
		return nil, fmt.Errorf("negative number of partitions %d", partitions)
	}
	if partitions == 0 {
		centroid := make([]float64, numObjectives)
		for i := range centroid {
			centroid[i] = 1 / float64(numObjectives)
		}
		return [][]float64{centroid}, nil
	}

	points := make([][]float64, 0, NumReferencePoints(numObjectives, partitions))
	current := make([]int, numObjectives)
	var recurse func(dim, left int)
	recurse = func(dim, left int) {
		if dim == numObjectives-1 {
			current[dim] = left
			p := make([]float64, numObjectives)
			for i, c := range current {
				p[i] = float64(c) / float64(partitions)
			}
			points = append(points, p)
			return
		}
		for i := 0; i <= left; i++ {
			current[dim] = i
			recurse(dim+1, left-i)
		}
	}
	recurse(0, partitions)
	return points, nil
}

// TwoLayerReferencePoints concatenates a boundary lattice with an inner lattice
// that is shrunk halfway toward the centroid, which improves interior coverage
// when the boundary lattice alone is sparse.
func TwoLayerReferencePoints(numObjectives, outer, inner int) ([][]float64, error) {
	boundary, err := ReferencePoints(numObjectives, outer)
	if err != nil {
		return nil, fmt.Errorf("boundary layer: %w", err)
	}
	interior, err := ReferencePoints(numObjectives, inner)
	if err != nil {
		return nil, fmt.Errorf("inner layer: %w", err)
	}
	centre := (1 - innerLayerScale) / float64(numObjectives)
	for _, p := range interior {
		for i := range p {
			p[i] = centre + innerLayerScale*p[i]
		}
	}
	return append(boundary, interior...), nil
}
