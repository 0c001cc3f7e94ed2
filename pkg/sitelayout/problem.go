// Package sitelayout adapts the composite genotype to the generic optimizer and
// runs layout optimizations described by a v1alpha1.LayoutOptimization.
package sitelayout

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"

	"github.com/siteforge/layout-optimizer/pkg/genotype"
	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
)

const (
	ProblemName = "SiteLayout"
)

// FitnessEvaluator scores a resolved layout. Objectives are maximized and a
// positive constraint value is the magnitude of its violation. Evaluate is
// called concurrently and must treat roads and buildings as read-only.
type FitnessEvaluator interface {
	NumObjectives() int
	NumConstraints() int
	Evaluate(ctx context.Context, boundary geometry.Polygon, roads []roadnet.Road, buildings genotype.BuildingLayout) (objectives, constraints []float64, err error)
}

// ObjectiveNamer is implemented by evaluators that label their objectives.
type ObjectiveNamer interface {
	ObjectiveNames() []string
}

// Problem is the site layout problem seen by the optimizer: it decodes each
// chromosome, generates its road network and hands both to the evaluator.
type Problem struct {
	boundary  geometry.Polygon
	layout    genotype.Layout
	roads     roadnet.Params
	bounds    []framework.Bounds
	evaluator FitnessEvaluator

	// cache maps a hash of the field genes to a cachedRoads entry. Nil when
	// caching is disabled.
	cache        *cache.Cache
	hits, misses atomic.Int64
}

type cachedRoads struct {
	genes []float64
	roads []roadnet.Road
}

var _ framework.Problem = &Problem{}

// NewProblem builds the problem for a site. A positive cacheTTL keeps
// generated road networks for that long, keyed by the field genes.
func NewProblem(boundary geometry.Polygon, layout genotype.Layout, decay genotype.DecayRange, roads roadnet.Params, evaluator FitnessEvaluator, cacheTTL time.Duration) (*Problem, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("site layout problem needs an evaluator")
	}
	if boundary.IsEmpty() {
		return nil, fmt.Errorf("site boundary needs at least 3 vertices, got %d", len(boundary.Vertices))
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	p := &Problem{
		boundary:  boundary,
		layout:    layout,
		roads:     roads,
		bounds:    genotype.Bounds(layout, boundary, decay),
		evaluator: evaluator,
	}
	if cacheTTL > 0 {
		p.cache = cache.New(cacheTTL, cacheTTL)
	}
	return p, nil
}

func (p *Problem) Name() string {
	return ProblemName
}

func (p *Problem) Bounds() []framework.Bounds {
	return p.bounds
}

func (p *Problem) NumObjectives() int {
	return p.evaluator.NumObjectives()
}

func (p *Problem) NumConstraints() int {
	return p.evaluator.NumConstraints()
}

// Layout returns the chromosome layout.
func (p *Problem) Layout() genotype.Layout {
	return p.layout
}

// Boundary returns the site polygon.
func (p *Problem) Boundary() geometry.Polygon {
	return p.boundary
}

func (p *Problem) Evaluate(ctx context.Context, vars []float64) (framework.Evaluation, error) {
	c, roads, err := p.Resolve(ctx, vars)
	if err != nil {
		return framework.Evaluation{}, err
	}
	objectives, constraints, err := p.evaluator.Evaluate(ctx, p.boundary, roads, c.Buildings)
	if err != nil {
		return framework.Evaluation{}, err
	}
	return framework.Evaluation{Objectives: objectives, Constraints: constraints}, nil
}

// Resolve decodes a chromosome and returns it with its road network.
func (p *Problem) Resolve(ctx context.Context, vars []float64) (*genotype.Composite, []roadnet.Road, error) {
	c, err := genotype.Decode(vars, p.layout)
	if err != nil {
		return nil, nil, err
	}
	genes := genotype.FieldGenes(vars, p.layout)
	if p.cache == nil {
		return c, roadnet.Generate(c.DirectionField(), p.boundary, p.roads), nil
	}

	key := fieldKey(genes)
	if v, ok := p.cache.Get(key); ok {
		if entry := v.(*cachedRoads); slices.Equal(entry.genes, genes) {
			p.hits.Add(1)
			return c, entry.roads, nil
		}
	}
	p.misses.Add(1)
	roads := roadnet.Generate(c.DirectionField(), p.boundary, p.roads)
	p.cache.SetDefault(key, &cachedRoads{genes: slices.Clone(genes), roads: roads})
	klog.FromContext(ctx).V(5).Info("road network generated", "roads", len(roads), "length", roadnet.TotalLength(roads))
	return c, roads, nil
}

// CacheStats returns the road cache hit and miss counts.
func (p *Problem) CacheStats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

// fieldKey hashes the bit patterns of the field genes.
func fieldKey(genes []float64) string {
	buf := make([]byte, 0, 8*len(genes))
	for _, g := range genes {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(g))
	}
	return strconv.FormatUint(xxhash.Sum64(buf), 16)
}
