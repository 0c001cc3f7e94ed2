package algorithms

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// epsilon guards divisions by near-zero objective ranges.
const epsilon = 1e-10

// ErrNicheExhausted is returned when niching runs out of candidates before it
// has selected the requested number of solutions.
var ErrNicheExhausted = errors.New("niche selection exhausted all candidates")

// Normalize maps each objective vector to (obj - ideal) / max(nadir - ideal, ε).
// Vectors are expected in the minimization frame, where ideal <= obj.
func Normalize(objs [][]float64, ideal, nadir []float64) [][]float64 {
	scale := make([]float64, len(ideal))
	for i := range ideal {
		scale[i] = math.Max(nadir[i]-ideal[i], epsilon)
	}
	out := make([][]float64, len(objs))
	for i, obj := range objs {
		row := make([]float64, len(obj))
		floats.SubTo(row, obj, ideal)
		floats.Div(row, scale)
		out[i] = row
	}
	return out
}

// Associate links each normalized point to the reference direction with the
// smallest perpendicular distance, returning the reference index and distance.
func Associate(normalized, refs [][]float64) ([]int, []float64) {
	units := make([][]float64, len(refs))
	for j, r := range refs {
		u := append([]float64(nil), r...)
		if n := floats.Norm(u, 2); n > 0 {
			floats.Scale(1/n, u)
		}
		units[j] = u
	}

	assoc := make([]int, len(normalized))
	dist := make([]float64, len(normalized))
	perp := make([]float64, 0)
	for i, p := range normalized {
		best, bestDist := -1, math.Inf(1)
		for j, u := range units {
			perp = append(perp[:0], p...)
			floats.AddScaled(perp, -floats.Dot(p, u), u)
			if d := floats.Norm(perp, 2); d < bestDist {
				best, bestDist = j, d
			}
		}
		assoc[i], dist[i] = best, bestDist
	}
	return assoc, dist
}

// NicheSelect picks nNeeded members of candidates, balancing niche counts.
// candidates index into assoc and dist; nicheCount holds, per reference
// direction, how many solutions were already accepted and is not modified.
// Each round takes a least-crowded niche (ties broken by rng) and adds its
// unselected candidate closest to the reference line; niches without such
// candidates are excluded.
func NicheSelect(rng *rand.Rand, candidates, assoc []int, dist []float64, nicheCount []int, nNeeded int) ([]int, error) {
	if nNeeded <= 0 {
		return nil, nil
	}
	if nNeeded > len(candidates) {
		return nil, fmt.Errorf("%w: need %d from a front of %d", ErrNicheExhausted, nNeeded, len(candidates))
	}

	count := append([]int(nil), nicheCount...)
	excluded := make([]bool, len(count))
	taken := make([]bool, len(candidates))
	selected := make([]int, 0, nNeeded)
	ties := make([]int, 0, len(count))

	for len(selected) < nNeeded {
		ties = ties[:0]
		minCount := math.MaxInt
		for j, c := range count {
			switch {
			case excluded[j]:
			case c < minCount:
				minCount = c
				ties = append(ties[:0], j)
			case c == minCount:
				ties = append(ties, j)
			}
		}
		if len(ties) == 0 {
			return selected, fmt.Errorf("%w: selected %d of %d", ErrNicheExhausted, len(selected), nNeeded)
		}
		niche := ties[rng.IntN(len(ties))]

		best := -1
		for k, c := range candidates {
			if taken[k] || assoc[c] != niche {
				continue
			}
			if best < 0 || dist[c] < dist[candidates[best]] {
				best = k
			}
		}
		if best < 0 {
			excluded[niche] = true
			continue
		}
		taken[best] = true
		selected = append(selected, candidates[best])
		count[niche]++
	}
	return selected, nil
}
