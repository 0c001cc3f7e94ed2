package sitelayout

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/genotype"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/algorithms"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
)

// Solution is one member of the final Pareto front.
type Solution struct {
	Chromosome  []float64
	Objectives  []float64
	Constraints []float64
	Violation   float64
	Genotype    *genotype.Composite
	Roads       []roadnet.Road
}

// Result is the outcome of Optimize.
type Result struct {
	Name           string
	ObjectiveNames []string
	// TypeNames labels building type codes, when known.
	TypeNames []string

	// Solutions holds the Pareto front members whose evaluation succeeded.
	Solutions   []Solution
	Convergence algorithms.Convergence
	Evaluations int
	Generations int
	// Interrupted is set when the run stopped early on cancellation.
	Interrupted bool

	RoadCacheHits   int64
	RoadCacheMisses int64

	// Run is the raw optimizer result, including the final population.
	Run *algorithms.Result
}

// Optimize runs NSGA-III on the site described by cfg. cfg is defaulted on a
// copy and validated before anything is evaluated. A nil evaluator selects the
// built-in SiteEvaluator configured by cfg.Spec.Evaluator; any other evaluator
// leaves cfg.Spec.Evaluator unchecked.
//
// When ctx is cancelled mid-run the partial result is returned together with
// the context error.
func Optimize(ctx context.Context, cfg *v1alpha1.LayoutOptimization, evaluator FitnessEvaluator) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil %s", v1alpha1.KindLayoutOptimization)
	}
	obj := *cfg
	v1alpha1.SetDefaults(&obj)
	validate := v1alpha1.Validate
	if evaluator != nil {
		validate = v1alpha1.ValidateProblem
	}
	if errs := validate(&obj); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s %q: %w", v1alpha1.KindLayoutOptimization, obj.Name, errs.ToAggregate())
	}
	spec := obj.Spec

	logger := klog.FromContext(ctx).WithValues("layoutOptimization", obj.Name)
	ctx = klog.NewContext(ctx, logger)

	if evaluator == nil {
		evaluator = NewSiteEvaluator(spec.Evaluator)
	}
	boundary := Boundary(spec.Site)
	layout := Layout(spec.Genotype)
	cacheTTL := spec.Roads.CacheTTL.Duration
	problem, err := NewProblem(boundary, layout, Decay(spec.Genotype), RoadParams(spec.Roads), evaluator, cacheTTL)
	if err != nil {
		return nil, err
	}

	algCfg := AlgorithmConfig(spec.Algorithm, layout.Length())
	if ptr.Deref(spec.Algorithm.SmartInitialization, false) {
		algCfg.Sampler = GridSampler(layout, boundary)
	}
	nsga, err := algorithms.NewNSGAIII(algCfg, problem)
	if err != nil {
		return nil, err
	}

	logger.V(2).Info("optimizing site layout",
		"genes", layout.Length(),
		"objectives", problem.NumObjectives(),
		"constraints", problem.NumConstraints(),
		"siteArea", boundary.Area())

	run, runErr := nsga.Run(ctx)
	if run == nil {
		return nil, runErr
	}

	result := &Result{
		Name:        obj.Name,
		Convergence: run.Convergence,
		Evaluations: run.Evaluations,
		Generations: run.Generations,
		Interrupted: runErr != nil,
		Run:         run,
	}
	if namer, ok := evaluator.(ObjectiveNamer); ok {
		result.ObjectiveNames = namer.ObjectiveNames()
	}
	if len(spec.Evaluator.BuildingTypes) == layout.BuildingTypes {
		for _, t := range spec.Evaluator.BuildingTypes {
			result.TypeNames = append(result.TypeNames, t.Name)
		}
	}

	// Resolving uses a fresh context so a cancelled run still reports its front.
	resolveCtx := klog.NewContext(context.Background(), logger)
	for _, ind := range run.ParetoFront {
		if ind.Failed {
			continue
		}
		c, roads, err := problem.Resolve(resolveCtx, ind.Variables)
		if err != nil {
			return nil, fmt.Errorf("resolving Pareto front member: %w", err)
		}
		result.Solutions = append(result.Solutions, Solution{
			Chromosome:  ind.Variables,
			Objectives:  ind.Objectives,
			Constraints: ind.Constraints,
			Violation:   ind.Violation,
			Genotype:    c,
			Roads:       roads,
		})
	}
	result.RoadCacheHits, result.RoadCacheMisses = problem.CacheStats()

	logger.V(2).Info("site layout optimized",
		"solutions", len(result.Solutions),
		"evaluations", result.Evaluations,
		"roadCacheHits", result.RoadCacheHits,
		"interrupted", result.Interrupted)
	return result, runErr
}
