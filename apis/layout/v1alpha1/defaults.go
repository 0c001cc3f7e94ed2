/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"math"
	"runtime"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

var (
	defaultSeedSpacing   = 40.0
	defaultMinAnisotropy = 0.1
	defaultMinRoadLength = 20.0
	defaultRoadGap       = 20.0
	defaultStepSize      = 5.0
	defaultMaxSteps      = 400
	defaultTracerStop    = 0.05
	defaultCacheTTL      = 10 * time.Minute

	defaultPopulationSize      = 92
	defaultGenerations         = 100
	defaultPartitions          = 6
	defaultCrossoverProb       = 0.9
	defaultCrossoverIndex      = 30.0
	defaultMutationIndex       = 20.0
	defaultSeed                = uint64(1)
	defaultSmartInitialization = true

	defaultRoadCost           = 1.0
	defaultRoadWidth          = 8.0
	defaultBuildingSeparation = 6.0
	defaultSetback            = 5.0
	defaultRoadAccess         = 60.0

	// DefaultBuildingType is used when buildings are requested without any
	// building type.
	DefaultBuildingType = BuildingType{Name: "block", Width: 20, Depth: 20, Cost: 100}
)

// SetDefaults fills every unset optional field.
func SetDefaults(obj *LayoutOptimization) {
	if obj.APIVersion == "" {
		obj.APIVersion = SchemeGroupVersion.String()
	}
	if obj.Kind == "" {
		obj.Kind = KindLayoutOptimization
	}
	spec := &obj.Spec
	setDefaultsEvaluator(&spec.Evaluator, spec.Genotype.Buildings)
	setDefaultsGenotype(&spec.Genotype, spec.Site, len(spec.Evaluator.BuildingTypes))
	setDefaultsRoads(&spec.Roads)
	setDefaultsAlgorithm(&spec.Algorithm)

	if spec.Evaluator.ToleranceGenerations == nil {
		spec.Evaluator.ToleranceGenerations = ptr.To(*spec.Algorithm.Generations / 2)
	}
}

func setDefaultsGenotype(g *GenotypeSpec, site SiteSpec, types int) {
	if g.BuildingTypes == 0 {
		g.BuildingTypes = types
	}
	if g.MaxDecay == nil {
		g.MaxDecay = ptr.To(siteExtent(site) / 2)
	}
	if g.MinDecay == nil {
		g.MinDecay = ptr.To(*g.MaxDecay / 10)
	}
}

// siteExtent is the longer side of the boundary's bounding box, or 200 for an
// empty boundary.
func siteExtent(site SiteSpec) float64 {
	if len(site.Boundary) == 0 {
		return 200
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range site.Boundary {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return math.Max(maxX-minX, maxY-minY)
}

func setDefaultsRoads(r *RoadSpec) {
	if r.SeedSpacing == nil {
		r.SeedSpacing = ptr.To(defaultSeedSpacing)
	}
	if r.MinAnisotropy == nil {
		r.MinAnisotropy = ptr.To(defaultMinAnisotropy)
	}
	if r.MinRoadLength == nil {
		r.MinRoadLength = ptr.To(defaultMinRoadLength)
	}
	if r.MinSeparation == nil {
		r.MinSeparation = ptr.To(defaultRoadGap)
	}
	if r.MaxRoads == nil {
		r.MaxRoads = ptr.To(0)
	}
	if r.StepSize == nil {
		r.StepSize = ptr.To(defaultStepSize)
	}
	if r.MaxSteps == nil {
		r.MaxSteps = ptr.To(defaultMaxSteps)
	}
	if r.TracerMinAnisotropy == nil {
		r.TracerMinAnisotropy = ptr.To(defaultTracerStop)
	}
	if r.CacheTTL == nil {
		r.CacheTTL = &metav1.Duration{Duration: defaultCacheTTL}
	}
}

func setDefaultsAlgorithm(a *AlgorithmSpec) {
	if a.PopulationSize == nil {
		a.PopulationSize = ptr.To(defaultPopulationSize)
	}
	if a.Generations == nil {
		a.Generations = ptr.To(defaultGenerations)
	}
	if a.Partitions == nil {
		a.Partitions = ptr.To(defaultPartitions)
	}
	if a.InnerPartitions == nil {
		a.InnerPartitions = ptr.To(0)
	}
	if a.CrossoverProbability == nil {
		a.CrossoverProbability = ptr.To(defaultCrossoverProb)
	}
	if a.CrossoverDistributionIndex == nil {
		a.CrossoverDistributionIndex = ptr.To(defaultCrossoverIndex)
	}
	if a.MutationDistributionIndex == nil {
		a.MutationDistributionIndex = ptr.To(defaultMutationIndex)
	}
	if a.Seed == nil {
		a.Seed = ptr.To(defaultSeed)
	}
	if a.Workers == nil {
		a.Workers = ptr.To(runtime.NumCPU())
	}
	if a.EvaluationTimeout == nil {
		a.EvaluationTimeout = &metav1.Duration{}
	}
	if a.SmartInitialization == nil {
		a.SmartInitialization = ptr.To(defaultSmartInitialization)
	}
}

func setDefaultsEvaluator(e *EvaluatorSpec, buildings int) {
	if len(e.BuildingTypes) == 0 && buildings > 0 {
		e.BuildingTypes = []BuildingType{DefaultBuildingType}
	}
	if e.RoadCostPerMetre == nil {
		e.RoadCostPerMetre = ptr.To(defaultRoadCost)
	}
	if e.RoadWidth == nil {
		e.RoadWidth = ptr.To(defaultRoadWidth)
	}
	if e.MinSeparation == nil {
		e.MinSeparation = ptr.To(defaultBuildingSeparation)
	}
	if e.Setback == nil {
		e.Setback = ptr.To(defaultSetback)
	}
	if e.RoadAccessDistance == nil {
		e.RoadAccessDistance = ptr.To(defaultRoadAccess)
	}
	if e.ConstraintTolerance == nil {
		e.ConstraintTolerance = ptr.To(0.0)
	}
}
