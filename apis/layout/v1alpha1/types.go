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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	GroupName = "layout.siteforge.io"
	Version   = "v1alpha1"

	KindLayoutOptimization = "LayoutOptimization"
	KindOptimizationResult = "OptimizationResult"
)

// SchemeGroupVersion is the group version of every object in this package.
var SchemeGroupVersion = schema.GroupVersion{Group: GroupName, Version: Version}

// LayoutOptimization describes one optimization run: the site, the shape of
// the chromosome, the road generator and the optimizer settings.
type LayoutOptimization struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec LayoutOptimizationSpec `json:"spec"`
}

// LayoutOptimizationSpec defines the optimization problem and how to solve it
type LayoutOptimizationSpec struct {
	// Site is the buildable area
	Site SiteSpec `json:"site"`

	// Genotype sets the number of basis fields and buildings encoded per solution
	Genotype GenotypeSpec `json:"genotype"`

	// Roads tunes streamline seeding and tracing
	Roads RoadSpec `json:"roads,omitempty"`

	// Algorithm holds the NSGA-III settings
	Algorithm AlgorithmSpec `json:"algorithm,omitempty"`

	// Evaluator configures the built-in site evaluator. It is ignored when the
	// caller supplies its own evaluator.
	Evaluator EvaluatorSpec `json:"evaluator,omitempty"`
}

// Point is a site coordinate in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SiteSpec defines the site
type SiteSpec struct {
	// Boundary is the site polygon, at least three vertices in either winding order
	Boundary []Point `json:"boundary"`
}

// GenotypeSpec defines the chromosome layout
type GenotypeSpec struct {
	// GridFields is the number of grid basis fields
	GridFields int `json:"gridFields"`

	// RadialFields is the number of radial basis fields
	RadialFields int `json:"radialFields"`

	// TangentialRadial makes radial fields circle their centers instead of pointing at them
	TangentialRadial bool `json:"tangentialRadial,omitempty"`

	// Buildings is the number of buildings placed on the site
	Buildings int `json:"buildings"`

	// BuildingTypes is the number of building type codes. Defaults to the
	// number of evaluator building types.
	BuildingTypes int `json:"buildingTypes,omitempty"`

	// MinDecay and MaxDecay bound the decay radius of every basis field
	MinDecay *float64 `json:"minDecay,omitempty"`
	MaxDecay *float64 `json:"maxDecay,omitempty"`
}

// RoadSpec tunes the road network generator
type RoadSpec struct {
	SeedSpacing   *float64 `json:"seedSpacing,omitempty"`
	MinAnisotropy *float64 `json:"minAnisotropy,omitempty"`
	MinRoadLength *float64 `json:"minRoadLength,omitempty"`
	MinSeparation *float64 `json:"minSeparation,omitempty"`

	// MaxRoads caps the number of roads, 0 means unlimited
	MaxRoads *int `json:"maxRoads,omitempty"`

	// StepSize is the streamline integration step in metres
	StepSize *float64 `json:"stepSize,omitempty"`

	// MaxSteps bounds each direction of a traced streamline
	MaxSteps *int `json:"maxSteps,omitempty"`

	// TracerMinAnisotropy stops a streamline where the field becomes this close to isotropic
	TracerMinAnisotropy *float64 `json:"tracerMinAnisotropy,omitempty"`

	// CacheTTL is how long a generated road network stays cached
	CacheTTL *metav1.Duration `json:"cacheTTL,omitempty"`
}

// AlgorithmSpec holds the optimizer settings
type AlgorithmSpec struct {
	PopulationSize *int `json:"populationSize,omitempty"`
	Generations    *int `json:"generations,omitempty"`

	// Partitions divides each objective axis when laying out reference directions
	Partitions *int `json:"partitions,omitempty"`

	// InnerPartitions adds an inner layer of reference directions when positive
	InnerPartitions *int `json:"innerPartitions,omitempty"`

	CrossoverProbability       *float64 `json:"crossoverProbability,omitempty"`
	CrossoverDistributionIndex *float64 `json:"crossoverDistributionIndex,omitempty"`

	// MutationProbability is per gene. Defaults to 1/chromosome length.
	MutationProbability       *float64 `json:"mutationProbability,omitempty"`
	MutationDistributionIndex *float64 `json:"mutationDistributionIndex,omitempty"`

	// Seed makes runs reproducible
	Seed *uint64 `json:"seed,omitempty"`

	// Workers bounds concurrent evaluations
	Workers *int `json:"workers,omitempty"`

	// EvaluationTimeout bounds a single evaluation; zero disables the limit
	EvaluationTimeout *metav1.Duration `json:"evaluationTimeout,omitempty"`

	// SmartInitialization seeds buildings on a jittered grid inside the site
	SmartInitialization *bool `json:"smartInitialization,omitempty"`
}

// EvaluatorSpec configures the built-in site evaluator
type EvaluatorSpec struct {
	// BuildingTypes are indexed by the decoded building type code
	BuildingTypes []BuildingType `json:"buildingTypes,omitempty"`

	// RoadCostPerMetre is the construction cost of one metre of road
	RoadCostPerMetre *float64 `json:"roadCostPerMetre,omitempty"`

	// RoadWidth is used to compute the paved area
	RoadWidth *float64 `json:"roadWidth,omitempty"`

	// MinSeparation is the clearance required between building footprints
	MinSeparation *float64 `json:"minSeparation,omitempty"`

	// Setback is the clearance required between footprints and the site boundary
	Setback *float64 `json:"setback,omitempty"`

	// RoadAccessDistance is the furthest a building may be from a road
	RoadAccessDistance *float64 `json:"roadAccessDistance,omitempty"`

	// ConstraintTolerance relaxes every constraint at generation zero. The
	// relaxation shrinks linearly to nothing at ToleranceGenerations.
	ConstraintTolerance  *float64 `json:"constraintTolerance,omitempty"`
	ToleranceGenerations *int     `json:"toleranceGenerations,omitempty"`
}

// BuildingType is the footprint and cost of one building type
type BuildingType struct {
	Name  string  `json:"name"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
	Cost  float64 `json:"cost"`
}

// OptimizationResult is the serialised outcome of a run
type OptimizationResult struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// ObjectiveNames labels the objective vectors, when the evaluator names them
	ObjectiveNames []string `json:"objectiveNames,omitempty"`

	// Solutions contains the Pareto front of the final population
	Solutions []OptimizationSolution `json:"solutions"`

	Convergence ConvergenceHistory `json:"convergence"`

	// Evaluations is the number of fitness evaluations spent
	Evaluations int `json:"evaluations"`

	// Generations is the number of completed generations
	Generations int `json:"generations"`

	// Interrupted is set when the run was cancelled before its last generation
	Interrupted bool `json:"interrupted,omitempty"`

	// GeneratedAt indicates when the result was produced
	GeneratedAt *metav1.Time `json:"generatedAt,omitempty"`
}

// OptimizationSolution represents a single solution from multi-objective optimization
type OptimizationSolution struct {
	// Rank is the solution rank in Pareto front (1 = best)
	Rank int `json:"rank"`

	// Objectives contains the objective values, all maximized
	Objectives []float64 `json:"objectives"`

	// Constraints contains the constraint values, positive values are violations
	Constraints []float64 `json:"constraints,omitempty"`

	// Violation is the total constraint violation
	Violation float64 `json:"violation"`

	// Chromosome is the flat genotype the solution decodes from
	Chromosome []float64 `json:"chromosome"`

	Roads     [][]Point  `json:"roads"`
	Buildings []Building `json:"buildings"`
}

// Building is a decoded building placement
type Building struct {
	Position    Point   `json:"position"`
	Type        int     `json:"type"`
	TypeName    string  `json:"typeName,omitempty"`
	Orientation float64 `json:"orientation"`
}

// ConvergenceHistory records per-generation statistics, entry 0 being the
// initial population.
type ConvergenceHistory struct {
	ParetoSize  []int       `json:"paretoSize"`
	IdealPoint  [][]float64 `json:"idealPoint"`
	Evaluations []int       `json:"evaluations"`
}
