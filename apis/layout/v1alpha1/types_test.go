package v1alpha1

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"
)

const sampleConfig = `
apiVersion: layout.siteforge.io/v1alpha1
kind: LayoutOptimization
metadata:
  name: riverside
spec:
  site:
    boundary:
    - {x: 0, y: 0}
    - {x: 200, y: 0}
    - {x: 200, y: 100}
    - {x: 0, y: 100}
  genotype:
    gridFields: 2
    radialFields: 1
    buildings: 6
  algorithm:
    populationSize: 40
    generations: 20
    evaluationTimeout: 2s
  evaluator:
    buildingTypes:
    - {name: house, width: 12, depth: 10, cost: 80}
    - {name: shop, width: 20, depth: 15, cost: 150}
`

func TestDecodeAppliesDefaults(t *testing.T) {
	obj, err := Decode([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "riverside", obj.Name)
	assert.Equal(t, 2, obj.Spec.Genotype.BuildingTypes)
	assert.InDelta(t, 100.0, *obj.Spec.Genotype.MaxDecay, 1e-12)
	assert.InDelta(t, 10.0, *obj.Spec.Genotype.MinDecay, 1e-12)
	assert.Equal(t, 40, *obj.Spec.Algorithm.PopulationSize)
	assert.Equal(t, 6, *obj.Spec.Algorithm.Partitions)
	assert.Equal(t, 2*time.Second, obj.Spec.Algorithm.EvaluationTimeout.Duration)
	assert.Nil(t, obj.Spec.Algorithm.MutationProbability)
	assert.Equal(t, 10, *obj.Spec.Evaluator.ToleranceGenerations)
	assert.InDelta(t, defaultSeedSpacing, *obj.Spec.Roads.SeedSpacing, 1e-12)
	assert.Equal(t, defaultCacheTTL, obj.Spec.Roads.CacheTTL.Duration)
	assert.InDelta(t, defaultTracerStop, *obj.Spec.Roads.TracerMinAnisotropy, 1e-12)
	assert.True(t, *obj.Spec.Algorithm.SmartInitialization)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte(sampleConfig + "  bogus: 1\n"))
	assert.Error(t, err)
}

func TestDecodeRejectsOtherVersions(t *testing.T) {
	data := strings.Replace(sampleConfig, "v1alpha1", "v1", 1)
	_, err := Decode([]byte(data))
	assert.ErrorContains(t, err, "unsupported apiVersion")
}

func TestDecodeReportsAllErrors(t *testing.T) {
	data := strings.Replace(sampleConfig, "populationSize: 40", "populationSize: 0", 1)
	data = strings.Replace(data, "width: 12", "width: -1", 1)
	_, err := Decode([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec.algorithm.populationSize")
	assert.Contains(t, err.Error(), "spec.evaluator.buildingTypes[0].width")
}

func TestSetDefaultsAddsBuildingType(t *testing.T) {
	obj := &LayoutOptimization{Spec: LayoutOptimizationSpec{
		Site:     SiteSpec{Boundary: []Point{{0, 0}, {50, 0}, {50, 80}}},
		Genotype: GenotypeSpec{Buildings: 3},
	}}
	SetDefaults(obj)

	assert.Equal(t, SchemeGroupVersion.String(), obj.APIVersion)
	assert.Equal(t, KindLayoutOptimization, obj.Kind)
	assert.Equal(t, []BuildingType{DefaultBuildingType}, obj.Spec.Evaluator.BuildingTypes)
	assert.Equal(t, 1, obj.Spec.Genotype.BuildingTypes)
	assert.InDelta(t, 40.0, *obj.Spec.Genotype.MaxDecay, 1e-12)
	assert.Empty(t, Validate(obj))

	// Explicit values survive defaulting.
	obj.Spec.Roads.SeedSpacing = ptr.To(12.5)
	SetDefaults(obj)
	assert.InDelta(t, 12.5, *obj.Spec.Roads.SeedSpacing, 1e-12)
}

func TestValidate(t *testing.T) {
	valid := func() *LayoutOptimization {
		obj := &LayoutOptimization{Spec: LayoutOptimizationSpec{
			Site:     SiteSpec{Boundary: []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}},
			Genotype: GenotypeSpec{GridFields: 1, Buildings: 2},
		}}
		SetDefaults(obj)
		return obj
	}
	require.Empty(t, Validate(valid()))

	for name, tc := range map[string]struct {
		mutate func(*LayoutOptimization)
		field  string
	}{
		"too few vertices": {
			mutate: func(o *LayoutOptimization) { o.Spec.Site.Boundary = o.Spec.Site.Boundary[:2] },
			field:  "spec.site.boundary",
		},
		"collinear boundary": {
			mutate: func(o *LayoutOptimization) { o.Spec.Site.Boundary = []Point{{0, 0}, {1, 1}, {2, 2}} },
			field:  "spec.site.boundary",
		},
		"empty genotype": {
			mutate: func(o *LayoutOptimization) { o.Spec.Genotype.GridFields, o.Spec.Genotype.Buildings = 0, 0 },
			field:  "spec.genotype",
		},
		"decay order": {
			mutate: func(o *LayoutOptimization) { o.Spec.Genotype.MaxDecay = ptr.To(1.0) },
			field:  "spec.genotype.maxDecay",
		},
		"probability": {
			mutate: func(o *LayoutOptimization) { o.Spec.Algorithm.CrossoverProbability = ptr.To(1.5) },
			field:  "spec.algorithm.crossoverProbability",
		},
		"tracer anisotropy": {
			mutate: func(o *LayoutOptimization) { o.Spec.Roads.TracerMinAnisotropy = ptr.To(-0.1) },
			field:  "spec.roads.tracerMinAnisotropy",
		},
		"negative generations": {
			mutate: func(o *LayoutOptimization) { o.Spec.Algorithm.Generations = ptr.To(-1) },
			field:  "spec.algorithm.generations",
		},
		"type count": {
			mutate: func(o *LayoutOptimization) {
				o.Spec.Evaluator.BuildingTypes = append(o.Spec.Evaluator.BuildingTypes, BuildingType{Name: "x", Width: 1, Depth: 1})
			},
			field: "spec.evaluator.buildingTypes",
		},
		"duplicate type": {
			mutate: func(o *LayoutOptimization) {
				o.Spec.Genotype.BuildingTypes = 2
				o.Spec.Evaluator.BuildingTypes = append(o.Spec.Evaluator.BuildingTypes, DefaultBuildingType)
			},
			field: "spec.evaluator.buildingTypes[1].name",
		},
		"kind": {
			mutate: func(o *LayoutOptimization) { o.Kind = "Other" },
			field:  "kind",
		},
	} {
		t.Run(name, func(t *testing.T) {
			obj := valid()
			tc.mutate(obj)
			errs := Validate(obj)
			require.NotEmpty(t, errs)
			assert.Contains(t, fields(errs), tc.field)
		})
	}
}

func TestValidateProblemSkipsEvaluator(t *testing.T) {
	obj := &LayoutOptimization{Spec: LayoutOptimizationSpec{
		Site:     SiteSpec{Boundary: []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}},
		Genotype: GenotypeSpec{GridFields: 1, Buildings: 2, BuildingTypes: 3},
	}}
	SetDefaults(obj)

	assert.Equal(t, []string{"spec.evaluator.buildingTypes"}, fields(Validate(obj)))
	assert.Empty(t, ValidateProblem(obj))

	obj.Spec.Algorithm.PopulationSize = ptr.To(0)
	assert.Equal(t, []string{"spec.algorithm.populationSize"}, fields(ValidateProblem(obj)))
}

func TestOptimizationResultMarshal(t *testing.T) {
	r := &OptimizationResult{
		Solutions: []OptimizationSolution{{
			Rank:       1,
			Objectives: []float64{-10, 0.5},
			Chromosome: []float64{1, 2},
			Roads:      [][]Point{{{0, 0}, {10, 0}}},
			Buildings:  []Building{{Position: Point{5, 5}, Type: 0, TypeName: "house"}},
		}},
		Evaluations: 220,
	}
	data, err := r.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: OptimizationResult")

	var back OptimizationResult
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, r.Solutions, back.Solutions)
	assert.Equal(t, 220, back.Evaluations)
}

func fields(errs field.ErrorList) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}
