package sitelayout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/genotype"
	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/algorithms"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
	"github.com/siteforge/layout-optimizer/pkg/streamline"
)

// Boundary converts the site spec into a polygon.
func Boundary(site v1alpha1.SiteSpec) geometry.Polygon {
	pts := make([]r2.Vec, len(site.Boundary))
	for i, p := range site.Boundary {
		pts[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return geometry.NewPolygon(pts...)
}

// Layout converts the genotype spec into a chromosome layout.
func Layout(g v1alpha1.GenotypeSpec) genotype.Layout {
	return genotype.Layout{
		Grid:             g.GridFields,
		Radial:           g.RadialFields,
		Buildings:        g.Buildings,
		BuildingTypes:    g.BuildingTypes,
		TangentialRadial: g.TangentialRadial,
	}
}

// Decay returns the decay radius range of a defaulted genotype spec.
func Decay(g v1alpha1.GenotypeSpec) genotype.DecayRange {
	return genotype.DecayRange{Min: ptr.Deref(g.MinDecay, 0), Max: ptr.Deref(g.MaxDecay, 0)}
}

// RoadParams converts a defaulted road spec.
func RoadParams(r v1alpha1.RoadSpec) roadnet.Params {
	def := roadnet.DefaultParams()
	return roadnet.Params{
		SeedSpacing:   ptr.Deref(r.SeedSpacing, def.SeedSpacing),
		MinAnisotropy: ptr.Deref(r.MinAnisotropy, def.MinAnisotropy),
		MinRoadLength: ptr.Deref(r.MinRoadLength, def.MinRoadLength),
		MinSeparation: ptr.Deref(r.MinSeparation, def.MinSeparation),
		MaxRoads:      ptr.Deref(r.MaxRoads, def.MaxRoads),
		Tracer: streamline.Tracer{
			Step:          ptr.Deref(r.StepSize, def.Tracer.Step),
			MaxSteps:      ptr.Deref(r.MaxSteps, def.Tracer.MaxSteps),
			MinAnisotropy: ptr.Deref(r.TracerMinAnisotropy, def.Tracer.MinAnisotropy),
		},
	}
}

// AlgorithmConfig converts a defaulted algorithm spec for a chromosome of
// numVars genes.
func AlgorithmConfig(a v1alpha1.AlgorithmSpec, numVars int) algorithms.Config {
	cfg := algorithms.DefaultConfig(numVars)
	cfg.PopulationSize = ptr.Deref(a.PopulationSize, cfg.PopulationSize)
	cfg.NumGenerations = ptr.Deref(a.Generations, cfg.NumGenerations)
	cfg.Partitions = ptr.Deref(a.Partitions, cfg.Partitions)
	cfg.InnerPartitions = ptr.Deref(a.InnerPartitions, 0)
	cfg.Crossover = framework.SBX{
		Probability:       ptr.Deref(a.CrossoverProbability, 0.9),
		DistributionIndex: ptr.Deref(a.CrossoverDistributionIndex, 30),
	}
	mutation := algorithms.DefaultMutation(numVars)
	cfg.Mutation = framework.PolynomialMutation{
		Probability:       ptr.Deref(a.MutationProbability, mutation.Probability),
		DistributionIndex: ptr.Deref(a.MutationDistributionIndex, mutation.DistributionIndex),
	}
	cfg.Seed = ptr.Deref(a.Seed, 0)
	cfg.Workers = ptr.Deref(a.Workers, 1)
	if a.EvaluationTimeout != nil {
		cfg.EvaluationTimeout = a.EvaluationTimeout.Duration
	}
	return cfg
}

// NewSiteEvaluator builds the built-in evaluator from a defaulted spec.
func NewSiteEvaluator(e v1alpha1.EvaluatorSpec) *SiteEvaluator {
	types := make([]BuildingType, len(e.BuildingTypes))
	for i, t := range e.BuildingTypes {
		types[i] = BuildingType{Name: t.Name, Width: t.Width, Depth: t.Depth, Cost: t.Cost}
	}
	return &SiteEvaluator{
		Types:                types,
		RoadCostPerMetre:     ptr.Deref(e.RoadCostPerMetre, 0),
		RoadWidth:            ptr.Deref(e.RoadWidth, 0),
		MinSeparation:        ptr.Deref(e.MinSeparation, 0),
		Setback:              ptr.Deref(e.Setback, 0),
		RoadAccessDistance:   ptr.Deref(e.RoadAccessDistance, math.Inf(1)),
		Tolerance:            ptr.Deref(e.ConstraintTolerance, 0),
		ToleranceGenerations: ptr.Deref(e.ToleranceGenerations, 0),
	}
}

// ToAPI renders the result as a serialisable OptimizationResult.
func (r *Result) ToAPI() *v1alpha1.OptimizationResult {
	out := &v1alpha1.OptimizationResult{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.SchemeGroupVersion.String(),
			Kind:       v1alpha1.KindOptimizationResult,
		},
		ObjectMeta:     metav1.ObjectMeta{Name: r.Name},
		ObjectiveNames: r.ObjectiveNames,
		Solutions:      make([]v1alpha1.OptimizationSolution, 0, len(r.Solutions)),
		Convergence: v1alpha1.ConvergenceHistory{
			ParetoSize:  r.Convergence.ParetoSize,
			IdealPoint:  r.Convergence.IdealPoint,
			Evaluations: r.Convergence.Evaluations,
		},
		Evaluations: r.Evaluations,
		Generations: r.Generations,
		Interrupted: r.Interrupted,
		GeneratedAt: ptr.To(metav1.Now()),
	}
	for _, s := range r.Solutions {
		sol := v1alpha1.OptimizationSolution{
			Rank:        1,
			Objectives:  s.Objectives,
			Constraints: s.Constraints,
			Violation:   s.Violation,
			Chromosome:  s.Chromosome,
			Roads:       make([][]v1alpha1.Point, len(s.Roads)),
		}
		for i, road := range s.Roads {
			sol.Roads[i] = points(road.Path)
		}
		b := s.Genotype.Buildings
		for i, pos := range b.Positions {
			building := v1alpha1.Building{
				Position:    v1alpha1.Point{X: pos.X, Y: pos.Y},
				Type:        b.Types[i],
				Orientation: b.Orientations[i],
			}
			if b.Types[i] < len(r.TypeNames) {
				building.TypeName = r.TypeNames[b.Types[i]]
			}
			sol.Buildings = append(sol.Buildings, building)
		}
		out.Solutions = append(out.Solutions, sol)
	}
	return out
}

func points(path geometry.Polyline) []v1alpha1.Point {
	out := make([]v1alpha1.Point, len(path))
	for i, p := range path {
		out[i] = v1alpha1.Point{X: p.X, Y: p.Y}
	}
	return out
}
