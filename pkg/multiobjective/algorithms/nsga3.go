package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

const (
	Name = "NSGA-III"
)

// ErrInvalidConfig wraps every configuration error reported by NewNSGAIII.
var ErrInvalidConfig = errors.New("invalid NSGA-III configuration")

// State is the phase the driver is currently in.
type State int32

const (
	StateIdle State = iota
	StateInitializing
	StateEvaluating
	StateSorting
	StateNiching
	StateNextGeneration
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInitializing:
		return "Initializing"
	case StateEvaluating:
		return "Evaluating"
	case StateSorting:
		return "Sorting"
	case StateNiching:
		return "Niching"
	case StateNextGeneration:
		return "NextGeneration"
	case StateDone:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds the NSGA-III parameters.
type Config struct {
	PopulationSize int
	NumGenerations int
	// Partitions is the number of divisions of each objective axis used to lay
	// out the reference directions.
	Partitions int
	// InnerPartitions, when positive, adds an inner reference layer.
	InnerPartitions int
	// ReferencePoints overrides the generated reference directions.
	ReferencePoints [][]float64

	// Crossover and Mutation default to SBX and DefaultMutation when nil. A
	// PolynomialMutation with zero Probability disables mutation.
	Crossover framework.Crossover
	Mutation  framework.Mutator
	// Sampler builds the initial population. Nil means uniform sampling.
	Sampler framework.Sampler

	Seed uint64
	// Workers bounds concurrent evaluations. Values below one mean one.
	Workers int
	// EvaluationTimeout bounds each individual evaluation. Zero disables it.
	EvaluationTimeout time.Duration
}

// DefaultConfig returns a configuration with the usual NSGA-III operator settings
// for a chromosome of numVars genes.
func DefaultConfig(numVars int) Config {
	return Config{
		PopulationSize: 92,
		NumGenerations: 100,
		Partitions:     12,
		Crossover:      framework.SBX{Probability: 0.9, DistributionIndex: 30},
		Mutation:       DefaultMutation(numVars),
		Workers:        1,
	}
}

// DefaultMutation mutates one gene per chromosome on average.
func DefaultMutation(numVars int) framework.PolynomialMutation {
	probability := 1.0
	if numVars > 0 {
		probability = 1.0 / float64(numVars)
	}
	return framework.PolynomialMutation{Probability: probability, DistributionIndex: 20}
}

// Convergence records per-generation statistics. Entry 0 describes the initial
// population, entry g the population after generation g.
type Convergence struct {
	ParetoSize []int
	// IdealPoint is the running best value of each objective among feasible
	// solutions; nil until a feasible solution has been seen.
	IdealPoint [][]float64
	// Evaluations is the cumulative evaluation count.
	Evaluations []int
}

// Result is the outcome of a run.
type Result struct {
	// ParetoFront is the first front of the final population.
	ParetoFront []framework.Individual
	Population  []framework.Individual
	Convergence Convergence
	Evaluations int
	// Generations is the number of completed generations.
	Generations int
}

// NSGAIII is the reference-point based many-objective optimizer.
type NSGAIII struct {
	cfg     Config
	problem framework.Problem
	bounds  []framework.Bounds
	refs    [][]float64

	state       atomic.Int32
	rng         *rand.Rand
	evaluations int
	// ideal is the running ideal point in the minimization frame.
	ideal []float64
}

var _ framework.Algorithm = &NSGAIII{}

// NewNSGAIII validates the configuration against the problem and prepares the
// reference directions. All configuration errors surface here, before any
// evaluation is spent.
func NewNSGAIII(cfg Config, problem framework.Problem) (*NSGAIII, error) {
	if problem == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrInvalidConfig)
	}
	bounds := problem.Bounds()
	if err := validateConfig(cfg, problem, bounds); err != nil {
		return nil, err
	}
	if cfg.Crossover == nil {
		cfg.Crossover = DefaultConfig(len(bounds)).Crossover
	}
	if cfg.Mutation == nil {
		cfg.Mutation = DefaultMutation(len(bounds))
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	refs := cfg.ReferencePoints
	if refs == nil {
		var err error
		if cfg.InnerPartitions > 0 {
			refs, err = TwoLayerReferencePoints(problem.NumObjectives(), cfg.Partitions, cfg.InnerPartitions)
		} else {
			refs, err = ReferencePoints(problem.NumObjectives(), cfg.Partitions)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	for i, r := range refs {
		if len(r) != problem.NumObjectives() {
			return nil, fmt.Errorf("%w: reference point %d has %d objectives, problem %s has %d",
				ErrInvalidConfig, i, len(r), problem.Name(), problem.NumObjectives())
		}
	}

	return &NSGAIII{
		cfg:     cfg,
		problem: problem,
		bounds:  bounds,
		refs:    refs,
	}, nil
}

func validateConfig(cfg Config, problem framework.Problem, bounds []framework.Bounds) error {
	switch {
	case cfg.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, cfg.PopulationSize)
	case cfg.NumGenerations < 0:
		return fmt.Errorf("%w: negative number of generations %d", ErrInvalidConfig, cfg.NumGenerations)
	case problem.NumObjectives() < 1:
		return fmt.Errorf("%w: problem %s has no objectives", ErrInvalidConfig, problem.Name())
	case problem.NumConstraints() < 0:
		return fmt.Errorf("%w: problem %s reports negative constraints", ErrInvalidConfig, problem.Name())
	case len(bounds) == 0:
		return fmt.Errorf("%w: problem %s has an empty chromosome", ErrInvalidConfig, problem.Name())
	case cfg.ReferencePoints == nil && cfg.Partitions < 0:
		return fmt.Errorf("%w: negative partitions %d", ErrInvalidConfig, cfg.Partitions)
	case cfg.ReferencePoints != nil && len(cfg.ReferencePoints) == 0:
		return fmt.Errorf("%w: empty reference point override", ErrInvalidConfig)
	}
	for i, b := range bounds {
		if math.IsNaN(b.L) || math.IsNaN(b.H) || b.L > b.H {
			return fmt.Errorf("%w: gene %d has invalid bounds [%v, %v]", ErrInvalidConfig, i, b.L, b.H)
		}
	}
	return nil
}

func (n *NSGAIII) Name() string {
	return Name
}

// State returns the current phase. It is safe to call while Run executes.
func (n *NSGAIII) State() State {
	return State(n.state.Load())
}

// ReferenceDirections returns the reference directions used for niching.
func (n *NSGAIII) ReferenceDirections() [][]float64 {
	return n.refs
}

func (n *NSGAIII) setState(logger logr.Logger, s State) {
	n.state.Store(int32(s))
	logger.V(4).Info("state transition", "state", s)
}

// Run executes the generational loop. Cancelling ctx stops the run after the
// current generation; the partial result is returned together with ctx.Err().
func (n *NSGAIII) Run(ctx context.Context) (*Result, error) {
	logger := klog.FromContext(ctx).WithValues("algorithm", Name, "problem", n.problem.Name())
	ctx = klog.NewContext(ctx, logger)
	logger.V(2).Info("starting run",
		"populationSize", n.cfg.PopulationSize,
		"generations", n.cfg.NumGenerations,
		"referencePoints", len(n.refs),
		"genes", len(n.bounds))

	n.rng = rand.New(rand.NewPCG(n.cfg.Seed, n.cfg.Seed^0x9e3779b97f4a7c15))
	n.evaluations = 0
	n.ideal = nil

	n.setState(logger, StateInitializing)
	vars, err := n.initialize()
	if err != nil {
		return nil, err
	}

	n.setState(logger, StateEvaluating)
	population := n.evaluate(ctx, 0, vars)

	n.setState(logger, StateSorting)
	fronts, err := framework.NonDominatedSort(population)
	if err != nil {
		return nil, fmt.Errorf("sorting initial population: %w", err)
	}
	n.updateIdeal(population, fronts[0])

	result := &Result{}
	n.record(result, fronts)

	var runErr error
	for gen := 1; gen <= n.cfg.NumGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			logger.V(2).Info("run cancelled", "completedGenerations", result.Generations)
			runErr = err
			break
		}

		offspring := n.makeOffspring(population)

		n.setState(logger, StateEvaluating)
		merged := append(population, n.evaluate(ctx, gen, offspring)...)

		population, err = n.selectNext(logger, merged)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		n.setState(logger, StateNextGeneration)
		fronts, err = framework.NonDominatedSort(population)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		result.Generations = gen
		n.record(result, fronts)

		logger.V(3).Info("generation complete",
			"generation", gen,
			"paretoSize", len(fronts[0]),
			"evaluations", n.evaluations)
	}

	result.Population = population
	for _, idx := range fronts[0] {
		result.ParetoFront = append(result.ParetoFront, population[idx].Clone())
	}
	result.Evaluations = n.evaluations

	n.setState(logger, StateDone)
	logger.V(2).Info("run finished",
		"generations", result.Generations,
		"paretoSize", len(result.ParetoFront),
		"evaluations", result.Evaluations)
	return result, runErr
}

// initialize samples the starting chromosomes and clips them to the bounds.
func (n *NSGAIII) initialize() ([][]float64, error) {
	sampler := n.cfg.Sampler
	if sampler == nil {
		sampler = framework.UniformSampler
	}
	vars := sampler(n.rng, n.bounds, n.cfg.PopulationSize)
	if len(vars) != n.cfg.PopulationSize {
		return nil, fmt.Errorf("%w: sampler returned %d chromosomes, want %d", ErrInvalidConfig, len(vars), n.cfg.PopulationSize)
	}
	for i, v := range vars {
		if len(v) != len(n.bounds) {
			return nil, fmt.Errorf("%w: sampled chromosome %d has %d genes, want %d", ErrInvalidConfig, i, len(v), len(n.bounds))
		}
		for j := range v {
			v[j] = n.bounds[j].Clip(v[j])
		}
	}
	return vars, nil
}

// evaluate turns chromosomes into individuals, penalizing failures.
func (n *NSGAIII) evaluate(ctx context.Context, gen int, vars [][]float64) []framework.Individual {
	logger := klog.FromContext(ctx)
	outcomes := EvaluatePopulation(framework.WithGeneration(ctx, gen), n.problem, vars, n.cfg.Workers, n.cfg.EvaluationTimeout)
	n.evaluations += len(vars)

	individuals := make([]framework.Individual, len(vars))
	failed := 0
	for i, o := range outcomes {
		ind := framework.Individual{
			Variables:   vars[i],
			Objectives:  o.Evaluation.Objectives,
			Constraints: o.Evaluation.Constraints,
			Violation:   o.Evaluation.Violation(),
		}
		if o.Err != nil {
			failed++
			ind.Failed = true
			ind.Violation = math.Inf(1)
			logger.V(5).Info("individual penalized", "generation", gen, "err", o.Err)
		}
		individuals[i] = ind
	}
	if failed > 0 {
		logger.V(3).Info("evaluation failures", "generation", gen, "failed", failed, "total", len(vars))
	}
	return individuals
}

// TournamentSelect runs a binary tournament on rank, breaking ties at random.
func (n *NSGAIII) TournamentSelect(population []framework.Individual) framework.Individual {
	k := 2 // tournament size
	best := population[n.rng.IntN(len(population))]

	for i := 1; i < k; i++ {
		contestant := population[n.rng.IntN(len(population))]
		if contestant.Rank < best.Rank || (contestant.Rank == best.Rank && n.rng.IntN(2) == 0) {
			best = contestant
		}
	}

	return best
}

// makeOffspring produces PopulationSize children by crossover and mutation.
func (n *NSGAIII) makeOffspring(population []framework.Individual) [][]float64 {
	offspring := make([][]float64, 0, n.cfg.PopulationSize)
	for len(offspring) < n.cfg.PopulationSize {
		parent1 := n.TournamentSelect(population)
		parent2 := n.TournamentSelect(population)

		child1, child2 := n.cfg.Crossover.Crossover(n.rng, parent1.Variables, parent2.Variables, n.bounds)
		n.cfg.Mutation.Mutate(n.rng, child1, n.bounds)
		n.cfg.Mutation.Mutate(n.rng, child2, n.bounds)

		offspring = append(offspring, child1)
		if len(offspring) < n.cfg.PopulationSize {
			offspring = append(offspring, child2)
		}
	}
	return offspring
}

// selectNext performs environmental selection on the merged population:
// whole fronts are accepted while they fit, and the boundary front is cut by
// niching (feasible) or by violation (infeasible).
func (n *NSGAIII) selectNext(logger logr.Logger, merged []framework.Individual) ([]framework.Individual, error) {
	n.setState(logger, StateSorting)
	fronts, err := framework.NonDominatedSort(merged)
	if err != nil {
		return nil, err
	}
	n.updateIdeal(merged, fronts[0])

	selected := make([]int, 0, n.cfg.PopulationSize)
	frontIndex := 0
	for frontIndex < len(fronts) && len(selected)+len(fronts[frontIndex]) <= n.cfg.PopulationSize {
		selected = append(selected, fronts[frontIndex]...)
		frontIndex++
	}

	if needed := n.cfg.PopulationSize - len(selected); needed > 0 && frontIndex < len(fronts) {
		n.setState(logger, StateNiching)
		boundary := fronts[frontIndex]
		var chosen []int
		if merged[boundary[0]].Feasible() {
			chosen, err = n.niche(merged, fronts[0], selected, boundary, needed)
			if err != nil {
				return nil, err
			}
		} else {
			chosen = n.leastViolating(merged, boundary, needed)
		}
		selected = append(selected, chosen...)
	}

	next := make([]framework.Individual, len(selected))
	for i, idx := range selected {
		next[i] = merged[idx]
	}
	return next, nil
}

// niche normalizes the feasible solutions against the first front, associates
// them with reference directions and fills the remaining slots from the
// boundary front.
func (n *NSGAIII) niche(merged []framework.Individual, first, selected, boundary []int, needed int) ([]int, error) {
	members := make([]int, 0, len(selected)+len(boundary))
	members = append(members, selected...)
	members = append(members, boundary...)

	objs := make([][]float64, len(members))
	for i, idx := range members {
		objs[i] = minimizationFrame(merged[idx].Objectives)
	}
	nadir := n.nadir(merged, first)
	assoc, dist := Associate(Normalize(objs, n.ideal, nadir), n.refs)

	nicheCount := make([]int, len(n.refs))
	for i := range selected {
		nicheCount[assoc[i]]++
	}
	candidates := make([]int, len(boundary))
	for i := range boundary {
		candidates[i] = len(selected) + i
	}

	picked, err := NicheSelect(n.rng, candidates, assoc, dist, nicheCount, needed)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(picked))
	for i, p := range picked {
		out[i] = members[p]
	}
	return out, nil
}

// nadir is the worst value of each objective among the feasible members of the
// first front, widened over every feasible solution where that leaves a
// degenerate range.
func (n *NSGAIII) nadir(merged []framework.Individual, first []int) []float64 {
	m := len(n.ideal)
	nadir := make([]float64, m)
	for j := range nadir {
		nadir[j] = math.Inf(-1)
		for _, idx := range first {
			if merged[idx].Feasible() {
				nadir[j] = math.Max(nadir[j], -merged[idx].Objectives[j])
			}
		}
	}
	for j := range nadir {
		if nadir[j]-n.ideal[j] >= epsilon {
			continue
		}
		for _, ind := range merged {
			if ind.Feasible() {
				nadir[j] = math.Max(nadir[j], -ind.Objectives[j])
			}
		}
	}
	return nadir
}

// leastViolating fills the remaining slots with the smallest total violations.
// The boundary is shuffled first so that equal violations are broken by the
// run's seed rather than by position.
func (n *NSGAIII) leastViolating(merged []framework.Individual, boundary []int, needed int) []int {
	order := append([]int(nil), boundary...)
	n.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	sort.SliceStable(order, func(i, j int) bool {
		return merged[order[i]].Violation < merged[order[j]].Violation
	})
	return order[:needed]
}

// updateIdeal folds the feasible members of front into the running ideal point.
func (n *NSGAIII) updateIdeal(population []framework.Individual, front []int) {
	for _, idx := range front {
		ind := population[idx]
		if !ind.Feasible() {
			continue
		}
		obj := minimizationFrame(ind.Objectives)
		if n.ideal == nil {
			n.ideal = obj
			continue
		}
		for j := range n.ideal {
			n.ideal[j] = math.Min(n.ideal[j], obj[j])
		}
	}
}

func (n *NSGAIII) record(result *Result, fronts [][]int) {
	result.Convergence.ParetoSize = append(result.Convergence.ParetoSize, len(fronts[0]))
	var ideal []float64
	if n.ideal != nil {
		ideal = minimizationFrame(n.ideal)
	}
	result.Convergence.IdealPoint = append(result.Convergence.IdealPoint, ideal)
	result.Convergence.Evaluations = append(result.Convergence.Evaluations, n.evaluations)
}

// minimizationFrame negates maximized objectives (and vice versa).
func minimizationFrame(obj []float64) []float64 {
	out := make([]float64, len(obj))
	for i, v := range obj {
		out[i] = -v
	}
	return out
}
