package sitelayout

import (
	"context"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

func smallOptimization() *v1alpha1.LayoutOptimization {
	return &v1alpha1.LayoutOptimization{
		Spec: v1alpha1.LayoutOptimizationSpec{
			Site: v1alpha1.SiteSpec{Boundary: []v1alpha1.Point{
				{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100},
			}},
			Genotype: v1alpha1.GenotypeSpec{GridFields: 1, RadialFields: 1, Buildings: 4},
			Algorithm: v1alpha1.AlgorithmSpec{
				PopulationSize: ptr.To(12),
				Generations:    ptr.To(5),
				Partitions:     ptr.To(3),
				Seed:           ptr.To(uint64(5)),
				Workers:        ptr.To(2),
			},
			Evaluator: v1alpha1.EvaluatorSpec{
				BuildingTypes: []v1alpha1.BuildingType{{Name: "house", Width: 12, Depth: 10, Cost: 80}},
			},
		},
	}
}

func TestOptimize(t *testing.T) {
	cfg := smallOptimization()
	cfg.Name = "small"
	ctx := klog.NewContext(context.Background(), testr.NewWithOptions(t, testr.Options{Verbosity: 3}))
	result, err := Optimize(ctx, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 12*6, result.Evaluations)
	assert.Equal(t, 5, result.Generations)
	assert.False(t, result.Interrupted)
	assert.Equal(t, []string{"cost", "accessibility", "adjacency", "greenRatio"}, result.ObjectiveNames)
	assert.Equal(t, []string{"house"}, result.TypeNames)
	assert.Positive(t, result.RoadCacheMisses)

	require.NotEmpty(t, result.Solutions)
	assert.Len(t, result.Solutions, len(result.Run.ParetoFront))
	for _, s := range result.Solutions {
		assert.Len(t, s.Chromosome, 4+3+4*4)
		assert.Len(t, s.Objectives, 4)
		assert.Len(t, s.Constraints, 4)
		assert.Equal(t, 4, s.Genotype.Buildings.Len())
		for _, r := range s.Roads {
			assert.GreaterOrEqual(t, len(r.Path), 2)
		}
	}

	// The caller's object is not defaulted in place.
	assert.Empty(t, cfg.APIVersion)
	assert.Nil(t, cfg.Spec.Roads.SeedSpacing)

	api := result.ToAPI()
	assert.Equal(t, "small", api.Name)
	require.Len(t, api.Solutions, len(result.Solutions))
	assert.Equal(t, "house", api.Solutions[0].Buildings[0].TypeName)
	data, err := api.Marshal()
	require.NoError(t, err)
	var back v1alpha1.OptimizationResult
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Len(t, back.Solutions, len(result.Solutions))
}

func TestOptimizeDeterministic(t *testing.T) {
	run := func() *Result {
		result, err := Optimize(context.Background(), smallOptimization(), nil)
		require.NoError(t, err)
		return result
	}
	first, second := run(), run()
	if diff := cmp.Diff(first.Run, second.Run); diff != "" {
		t.Errorf("same seed, different runs (-first +second):\n%s", diff)
	}
}

func TestOptimizeCustomEvaluator(t *testing.T) {
	eval := &recordingEvaluator{}
	result, err := Optimize(context.Background(), smallOptimization(), eval)
	require.NoError(t, err)
	assert.Equal(t, 72, eval.calls)
	assert.Nil(t, result.ObjectiveNames)
	for _, s := range result.Solutions {
		assert.Len(t, s.Objectives, 2)
		assert.Equal(t, 4.0, s.Objectives[1])
	}
}

func TestOptimizeCustomEvaluatorIgnoresEvaluatorSpec(t *testing.T) {
	cfg := smallOptimization()
	cfg.Spec.Evaluator = v1alpha1.EvaluatorSpec{}
	cfg.Spec.Genotype.BuildingTypes = 3

	_, err := Optimize(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "spec.evaluator.buildingTypes")

	eval := &recordingEvaluator{}
	result, err := Optimize(context.Background(), cfg, eval)
	require.NoError(t, err)
	assert.Equal(t, 72, eval.calls)
	assert.Empty(t, result.TypeNames)
	for _, s := range result.Solutions {
		for _, typ := range s.Genotype.Buildings.Types {
			assert.GreaterOrEqual(t, typ, 0)
			assert.Less(t, typ, 3)
		}
	}
}

func TestOptimizeInvalidConfig(t *testing.T) {
	cfg := smallOptimization()
	cfg.Spec.Site.Boundary = cfg.Spec.Site.Boundary[:2]
	cfg.Spec.Algorithm.PopulationSize = ptr.To(0)
	eval := &recordingEvaluator{}

	_, err := Optimize(context.Background(), cfg, eval)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec.site.boundary")
	assert.Contains(t, err.Error(), "spec.algorithm.populationSize")
	assert.Zero(t, eval.calls)

	_, err = Optimize(context.Background(), nil, eval)
	assert.Error(t, err)
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eval := &recordingEvaluator{hook: func(ctx context.Context) {
		if framework.GenerationFromContext(ctx) == 1 {
			cancel()
		}
	}}

	result, err := Optimize(ctx, smallOptimization(), eval)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.True(t, result.Interrupted)
	assert.Equal(t, 1, result.Generations)
	assert.NotEmpty(t, result.Solutions)
	assert.True(t, result.ToAPI().Interrupted)
}
