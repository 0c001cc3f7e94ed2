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

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Validate checks a defaulted LayoutOptimization, including the settings of
// the built-in evaluator.
func Validate(obj *LayoutOptimization) field.ErrorList {
	allErrs := ValidateProblem(obj)
	return append(allErrs, validateEvaluator(obj.Spec.Evaluator, obj.Spec.Genotype, field.NewPath("spec", "evaluator"))...)
}

// ValidateProblem checks everything Validate does except spec.evaluator, which
// only configures the built-in evaluator.
func ValidateProblem(obj *LayoutOptimization) field.ErrorList {
	var allErrs field.ErrorList
	if obj.APIVersion != SchemeGroupVersion.String() {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("apiVersion"), obj.APIVersion, []string{SchemeGroupVersion.String()}))
	}
	if obj.Kind != KindLayoutOptimization {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("kind"), obj.Kind, []string{KindLayoutOptimization}))
	}

	spec := field.NewPath("spec")
	allErrs = append(allErrs, validateSite(obj.Spec.Site, spec.Child("site"))...)
	allErrs = append(allErrs, validateGenotype(obj.Spec.Genotype, spec.Child("genotype"))...)
	allErrs = append(allErrs, validateRoads(obj.Spec.Roads, spec.Child("roads"))...)
	allErrs = append(allErrs, validateAlgorithm(obj.Spec.Algorithm, spec.Child("algorithm"))...)
	return allErrs
}

func validateSite(site SiteSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	boundary := path.Child("boundary")
	if len(site.Boundary) < 3 {
		return append(allErrs, field.Invalid(boundary, len(site.Boundary), "a site needs at least 3 vertices"))
	}
	area := 0.0
	for i, p := range site.Boundary {
		if !finite(p.X) || !finite(p.Y) {
			allErrs = append(allErrs, field.Invalid(boundary.Index(i), p, "coordinates must be finite"))
			continue
		}
		q := site.Boundary[(i+1)%len(site.Boundary)]
		area += p.X*q.Y - q.X*p.Y
	}
	if len(allErrs) == 0 && math.Abs(area) < 1e-9 {
		allErrs = append(allErrs, field.Invalid(boundary, site.Boundary, "site has zero area"))
	}
	return allErrs
}

func validateGenotype(g GenotypeSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	for name, v := range map[string]int{"gridFields": g.GridFields, "radialFields": g.RadialFields, "buildings": g.Buildings} {
		if v < 0 {
			allErrs = append(allErrs, field.Invalid(path.Child(name), v, "must be non-negative"))
		}
	}
	if g.GridFields+g.RadialFields+g.Buildings <= 0 {
		allErrs = append(allErrs, field.Required(path, "at least one basis field or building is required"))
	}
	if g.Buildings > 0 && g.BuildingTypes < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("buildingTypes"), g.BuildingTypes, "must be positive when buildings are placed"))
	}
	if g.MinDecay == nil || !finite(*g.MinDecay) || *g.MinDecay <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("minDecay"), g.MinDecay, "must be positive"))
	} else if g.MaxDecay == nil || !finite(*g.MaxDecay) || *g.MaxDecay < *g.MinDecay {
		allErrs = append(allErrs, field.Invalid(path.Child("maxDecay"), g.MaxDecay, "must be at least minDecay"))
	}
	return allErrs
}

func validateRoads(r RoadSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	allErrs = append(allErrs, positive(r.SeedSpacing, path.Child("seedSpacing"))...)
	allErrs = append(allErrs, positive(r.StepSize, path.Child("stepSize"))...)
	allErrs = append(allErrs, nonNegative(r.MinAnisotropy, path.Child("minAnisotropy"))...)
	allErrs = append(allErrs, nonNegative(r.TracerMinAnisotropy, path.Child("tracerMinAnisotropy"))...)
	allErrs = append(allErrs, nonNegative(r.MinRoadLength, path.Child("minRoadLength"))...)
	allErrs = append(allErrs, nonNegative(r.MinSeparation, path.Child("minSeparation"))...)
	if r.MaxRoads == nil || *r.MaxRoads < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxRoads"), r.MaxRoads, "must be non-negative"))
	}
	if r.MaxSteps == nil || *r.MaxSteps < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxSteps"), r.MaxSteps, "must be positive"))
	}
	if r.CacheTTL == nil || r.CacheTTL.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("cacheTTL"), r.CacheTTL, "must be non-negative"))
	}
	return allErrs
}

func validateAlgorithm(a AlgorithmSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if a.PopulationSize == nil || *a.PopulationSize < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("populationSize"), a.PopulationSize, "must be positive"))
	}
	for name, v := range map[string]*int{
		"generations":     a.Generations,
		"partitions":      a.Partitions,
		"innerPartitions": a.InnerPartitions,
		"workers":         a.Workers,
	} {
		if v == nil || *v < 0 {
			allErrs = append(allErrs, field.Invalid(path.Child(name), v, "must be non-negative"))
		}
	}
	allErrs = append(allErrs, probability(a.CrossoverProbability, path.Child("crossoverProbability"))...)
	if a.MutationProbability != nil {
		allErrs = append(allErrs, probability(a.MutationProbability, path.Child("mutationProbability"))...)
	}
	allErrs = append(allErrs, nonNegative(a.CrossoverDistributionIndex, path.Child("crossoverDistributionIndex"))...)
	allErrs = append(allErrs, nonNegative(a.MutationDistributionIndex, path.Child("mutationDistributionIndex"))...)
	if a.EvaluationTimeout == nil || a.EvaluationTimeout.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("evaluationTimeout"), a.EvaluationTimeout, "must be non-negative"))
	}
	return allErrs
}

func validateEvaluator(e EvaluatorSpec, g GenotypeSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	types := path.Child("buildingTypes")
	if len(e.BuildingTypes) > 0 && len(e.BuildingTypes) != g.BuildingTypes {
		allErrs = append(allErrs, field.Invalid(types, len(e.BuildingTypes),
			"must list exactly spec.genotype.buildingTypes entries"))
	}
	seen := make(map[string]bool)
	for i, t := range e.BuildingTypes {
		if t.Name != "" {
			if seen[t.Name] {
				allErrs = append(allErrs, field.Duplicate(types.Index(i).Child("name"), t.Name))
			}
			seen[t.Name] = true
		}
		if !finite(t.Width) || t.Width <= 0 {
			allErrs = append(allErrs, field.Invalid(types.Index(i).Child("width"), t.Width, "must be positive"))
		}
		if !finite(t.Depth) || t.Depth <= 0 {
			allErrs = append(allErrs, field.Invalid(types.Index(i).Child("depth"), t.Depth, "must be positive"))
		}
		if !finite(t.Cost) || t.Cost < 0 {
			allErrs = append(allErrs, field.Invalid(types.Index(i).Child("cost"), t.Cost, "must be non-negative"))
		}
	}
	allErrs = append(allErrs, nonNegative(e.RoadCostPerMetre, path.Child("roadCostPerMetre"))...)
	allErrs = append(allErrs, nonNegative(e.RoadWidth, path.Child("roadWidth"))...)
	allErrs = append(allErrs, nonNegative(e.MinSeparation, path.Child("minSeparation"))...)
	allErrs = append(allErrs, nonNegative(e.Setback, path.Child("setback"))...)
	allErrs = append(allErrs, positive(e.RoadAccessDistance, path.Child("roadAccessDistance"))...)
	allErrs = append(allErrs, nonNegative(e.ConstraintTolerance, path.Child("constraintTolerance"))...)
	if e.ToleranceGenerations == nil || *e.ToleranceGenerations < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("toleranceGenerations"), e.ToleranceGenerations, "must be non-negative"))
	}
	return allErrs
}

func positive(v *float64, path *field.Path) field.ErrorList {
	if v == nil || !finite(*v) || *v <= 0 {
		return field.ErrorList{field.Invalid(path, v, "must be positive")}
	}
	return nil
}

func nonNegative(v *float64, path *field.Path) field.ErrorList {
	if v == nil || !finite(*v) || *v < 0 {
		return field.ErrorList{field.Invalid(path, v, "must be non-negative")}
	}
	return nil
}

func probability(v *float64, path *field.Path) field.ErrorList {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > 1 {
		return field.ErrorList{field.Invalid(path, v, "must be within [0, 1]")}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
