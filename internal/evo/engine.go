package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"symreg/internal/eval"
	"symreg/internal/model"
	"symreg/internal/random"
	"symreg/internal/stats"
)

// EngineConfig wires the operators and run parameters of a generational
// search. Zero values fall back to sensible defaults where noted.
type EngineConfig struct {
	Problem   *eval.Problem
	Creator   Creator
	Evaluator *Evaluator
	Selector  Selector
	Crossover SubtreeCrossover
	Mutators  []WeightedMutator

	PopulationSize int
	Generations    int
	// EliteCount survivors are copied unchanged into the next generation.
	EliteCount int
	Workers    int
	Seed       uint64

	TargetLength int
	MaxDepth     int

	CrossoverProbability float64
	MutationProbability  float64
}

func (cfg *EngineConfig) validate() error {
	if cfg.Problem == nil || cfg.Creator == nil || cfg.Evaluator == nil || cfg.Selector == nil {
		return errors.New("engine: problem, creator, evaluator and selector are required")
	}
	if cfg.PopulationSize <= 0 {
		return errors.New("engine: population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return errors.New("engine: generations must be > 0")
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return fmt.Errorf("engine: invalid elite count %d", cfg.EliteCount)
	}
	return nil
}

// RunResult is the outcome of a full engine run.
type RunResult struct {
	Final       []Individual
	Fronts      [][]int
	Generations []model.GenerationStats
	Evaluations int64
}

// Best returns the lexicographically best individual of the final
// population.
func (r RunResult) Best() Individual {
	best := 0
	for i := range r.Final {
		if LexCompare(r.Final[i].Fitness, r.Final[best].Fitness) < 0 {
			best = i
		}
	}
	return r.Final[best]
}

// Engine drives the generational loop: create, evaluate in parallel, keep
// the elite, breed the rest through crossover and mutation, repeat until the
// generation count or the evaluation budget runs out.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MutationProbability == 0 && len(cfg.Mutators) > 0 {
		cfg.MutationProbability = 0.25
	}
	if cfg.CrossoverProbability == 0 {
		cfg.CrossoverProbability = 1
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	cfg := e.cfg
	master := rand.New(random.NewJsf64(cfg.Seed))

	pop := make([]Individual, cfg.PopulationSize)
	for i := range pop {
		tree, err := cfg.Creator.Create(master, 1+master.Intn(max(cfg.TargetLength, 1)), 1, cfg.MaxDepth)
		if err != nil {
			return RunResult{}, fmt.Errorf("initialize population: %w", err)
		}
		pop[i] = Individual{Genotype: tree}
	}

	var result RunResult
	for gen := 0; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		evaluated, err := cfg.Evaluator.EvaluatePopulation(ctx, master, pop, cfg.Workers)
		result.Evaluations += evaluated
		if err != nil {
			return result, fmt.Errorf("generation %d: %w", gen, err)
		}
		result.Generations = append(result.Generations, e.diagnostics(gen, pop, evaluated))

		if cfg.Evaluator.Remaining() == 0 {
			break
		}
		if gen == cfg.Generations-1 {
			break
		}

		next, err := e.breed(master, pop)
		if err != nil {
			return result, fmt.Errorf("generation %d: %w", gen, err)
		}
		pop = next
	}

	result.Final = pop
	if len(pop) > 0 && len(pop[0].Fitness) > 1 {
		var sorter HierarchicalSorter
		result.Fronts = sorter.Sort(pop)
	}
	return result, nil
}

func (e *Engine) breed(master *rand.Rand, pop []Individual) ([]Individual, error) {
	cfg := e.cfg
	if err := cfg.Selector.Prepare(pop); err != nil {
		return nil, err
	}

	next := make([]Individual, 0, len(pop))

	// elite survive unchanged
	order := make([]int, len(pop))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return LexCompare(pop[order[a]].Fitness, pop[order[b]].Fitness) < 0
	})
	for i := 0; i < cfg.EliteCount; i++ {
		next = append(next, Individual{Genotype: pop[order[i]].Genotype.Clone()})
	}

	for len(next) < len(pop) {
		receiver := pop[cfg.Selector.Select(master)].Genotype
		child := receiver.Clone()
		if master.Float64() < cfg.CrossoverProbability {
			donor := pop[cfg.Selector.Select(master)].Genotype
			child = cfg.Crossover.Cross(master, receiver, donor)
		}
		if len(cfg.Mutators) > 0 && master.Float64() < cfg.MutationProbability {
			mutator, err := PickMutator(master, cfg.Mutators)
			if err != nil {
				return nil, err
			}
			mutated, err := mutator.Mutate(master, child)
			if err != nil {
				return nil, err
			}
			child = mutated
		}
		next = append(next, Individual{Genotype: child})
	}
	return next, nil
}

func (e *Engine) diagnostics(gen int, pop []Individual, evaluated int64) model.GenerationStats {
	var fit, length stats.MeanVarianceCalculator
	best := pop[0].Fitness[0]
	for i := range pop {
		f := pop[i].Fitness[0]
		if f < best {
			best = f
		}
		// sentinel values would swamp the mean
		if f < math.MaxFloat64 {
			fit.Add(f)
		}
		length.Add(float64(pop[i].Genotype.Len()))
	}
	mean := 0.0
	if fit.Count() > 0 {
		mean = fit.Mean()
	}
	return model.GenerationStats{
		Generation:  gen,
		BestFitness: best,
		MeanFitness: mean,
		MeanLength:  length.Mean(),
		Evaluations: evaluated,
	}
}
