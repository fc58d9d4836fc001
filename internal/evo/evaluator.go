package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/optimize"

	"symreg/internal/eval"
	"symreg/internal/random"
)

// ErrBudgetExhausted reports that the shared evaluation budget ran out
// before an evaluation could start.
var ErrBudgetExhausted = errors.New("evaluation budget exhausted")

// EvaluatorConfig tunes a fitness evaluator.
type EvaluatorConfig struct {
	// Budget caps the total number of individual evaluations across the
	// run; zero or negative means unlimited.
	Budget int64
	// LocalIterations caps the per-individual coefficient search; zero
	// disables local search.
	LocalIterations int
	// LengthObjective appends the tree length as a second fitness
	// component for multi-objective runs.
	LengthObjective bool
}

// Evaluator computes fitness vectors for individuals against a problem's
// training range. Safe for concurrent use: per-goroutine interpreter state
// lives in a pool, the budget is decremented atomically.
type Evaluator struct {
	problem *eval.Problem
	metric  eval.Metric
	cfg     EvaluatorConfig

	budget  atomic.Int64
	limited bool
	interps sync.Pool
}

// NewEvaluator builds an evaluator over a problem and metric. The dispatch
// table is built once and shared by all pooled interpreters.
func NewEvaluator(problem *eval.Problem, metric eval.Metric, cfg EvaluatorConfig) *Evaluator {
	table := eval.NewDispatchTable[float32](eval.DefaultDispatchConfig())
	e := &Evaluator{
		problem: problem,
		metric:  metric,
		cfg:     cfg,
		limited: cfg.Budget > 0,
	}
	e.budget.Store(cfg.Budget)
	e.interps.New = func() any { return eval.NewInterpreter[float32](table) }
	return e
}

// Remaining returns the number of evaluations left in the budget, or -1
// when the budget is unlimited.
func (e *Evaluator) Remaining() int64 {
	if !e.limited {
		return -1
	}
	if r := e.budget.Load(); r > 0 {
		return r
	}
	return 0
}

// sentinel builds the worst-case fitness vector. Fitness is minimized
// internally, so higher-is-better metrics flip sign.
func (e *Evaluator) sentinel(ind *Individual) []float64 {
	worst := e.metric.Worst()
	if e.metric.HigherIsBetter() {
		worst = -worst
	}
	if e.cfg.LengthObjective {
		return []float64{worst, float64(ind.Genotype.Len())}
	}
	return []float64{worst}
}

// Evaluate computes the individual's fitness on the training range, running
// the optional coefficient search first. When the budget is exhausted it
// stores the sentinel worst-case fitness and returns ErrBudgetExhausted.
func (e *Evaluator) Evaluate(rng *rand.Rand, ind *Individual) error {
	if e.limited && e.budget.Add(-1) < 0 {
		ind.Fitness = e.sentinel(ind)
		return ErrBudgetExhausted
	}

	ip := e.interps.Get().(*eval.Interpreter[float32])
	defer e.interps.Put(ip)

	if e.cfg.LocalIterations > 0 {
		e.optimizeCoefficients(ip, ind)
	}

	actual := e.problem.TargetValues(e.problem.Training)
	predicted, _, err := ip.Evaluate(ind.Genotype, e.problem.Dataset, e.problem.Training)
	if err != nil {
		return fmt.Errorf("evaluate genotype: %w", err)
	}
	fitness := e.metric.Evaluate(predicted, actual)
	if e.metric.HigherIsBetter() {
		fitness = -fitness
	}
	if e.cfg.LengthObjective {
		ind.Fitness = []float64{fitness, float64(ind.Genotype.Len())}
	} else {
		ind.Fitness = []float64{fitness}
	}
	return nil
}

// optimizeCoefficients runs a bounded Nelder-Mead search over the leaf
// payloads, keeping the best parameters found.
func (e *Evaluator) optimizeCoefficients(ip *eval.Interpreter[float32], ind *Individual) {
	coeffs := ind.Genotype.Coefficients()
	if len(coeffs) == 0 {
		return
	}
	actual := e.problem.TargetValues(e.problem.Training)
	tree := ind.Genotype.Clone()

	loss := func(x []float64) float64 {
		tree.SetCoefficients(x)
		predicted, _, err := ip.Evaluate(tree, e.problem.Dataset, e.problem.Training)
		if err != nil {
			return e.metric.Worst()
		}
		v := e.metric.Evaluate(predicted, actual)
		if e.metric.HigherIsBetter() {
			v = -v
		}
		return v
	}

	base := loss(coeffs)
	problem := optimize.Problem{Func: loss}
	settings := &optimize.Settings{
		MajorIterations: e.cfg.LocalIterations,
		FuncEvaluations: e.cfg.LocalIterations * max(len(coeffs), 4),
	}
	// an iteration-limit stop still carries the best point found, so the
	// error is irrelevant as long as there is a result
	result, _ := optimize.Minimize(problem, coeffs, settings, &optimize.NelderMead{})
	if result == nil {
		return
	}
	if result.F < base {
		ind.Genotype.SetCoefficients(result.X)
	}
}

// EvaluatePopulation fans the population out over a fixed worker pool. Each
// worker evaluates with its own deterministic RNG stream seeded from the
// master generator; an individual is only ever written by its own task.
// The returned count is the number of evaluations that ran before the
// budget was exhausted.
func (e *Evaluator) EvaluatePopulation(ctx context.Context, master *rand.Rand, pop []Individual, workers int) (int64, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(pop) {
		workers = len(pop)
	}

	jobs := make(chan int)
	var evaluated atomic.Int64
	var firstErr error
	var errOnce sync.Once

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		rng := rand.New(random.NewJsf64(master.Uint64()))
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					pop[i].Fitness = e.sentinel(&pop[i])
					continue
				}
				err := e.Evaluate(rng, &pop[i])
				switch {
				case err == nil:
					evaluated.Add(1)
				case errors.Is(err, ErrBudgetExhausted):
					// sentinel fitness already stored
				default:
					errOnce.Do(func() { firstErr = err })
				}
			}
		}()
	}

	for i := range pop {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return evaluated.Load(), firstErr
	}
	return evaluated.Load(), ctx.Err()
}
