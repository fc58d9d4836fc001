package evo

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"symreg/internal/dataset"
	"symreg/internal/eval"
	"symreg/internal/genotype"
)

// lineProblem builds y = 2*x over 32 rows.
func lineProblem(t *testing.T) *eval.Problem {
	t.Helper()
	rows := make([][]float32, 32)
	for i := range rows {
		x := float32(i) / 4
		rows[i] = []float32{x, 2 * x}
	}
	ds, err := dataset.FromRows(rows)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if err := ds.SetVariableNames([]string{"x", "y"}); err != nil {
		t.Fatalf("names: %v", err)
	}
	pset := genotype.NewPrimitiveSet(genotype.Arithmetic)
	full := dataset.Range{Start: 0, Size: ds.Rows()}
	p, err := eval.NewProblem(ds, pset, "y", full, full)
	if err != nil {
		t.Fatalf("problem: %v", err)
	}
	return p
}

func xLeaf(t *testing.T, p *eval.Problem, weight float32) genotype.Node {
	t.Helper()
	v, ok := p.Dataset.GetVariable("x")
	if !ok {
		t.Fatalf("x missing")
	}
	return genotype.NewVariable(v.Hash, weight)
}

func TestEvaluateComputesMetricFitness(t *testing.T) {
	p := lineProblem(t)
	e := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{})
	rng := rand.New(rand.NewSource(1))

	perfect := Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, 2)})}
	perfect.Genotype.UpdateNodes()
	if err := e.Evaluate(rng, &perfect); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(perfect.Fitness) != 1 || perfect.Fitness[0] != 0 {
		t.Fatalf("perfect fit fitness: %v", perfect.Fitness)
	}

	wrong := Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, 1)})}
	wrong.Genotype.UpdateNodes()
	if err := e.Evaluate(rng, &wrong); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if wrong.Fitness[0] <= 0 {
		t.Fatalf("imperfect fit should have positive mse: %v", wrong.Fitness)
	}
}

func TestHigherIsBetterMetricIsNegated(t *testing.T) {
	p := lineProblem(t)
	e := NewEvaluator(p, eval.RSquared{}, EvaluatorConfig{})
	rng := rand.New(rand.NewSource(2))

	perfect := Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, 2)})}
	perfect.Genotype.UpdateNodes()
	if err := e.Evaluate(rng, &perfect); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(perfect.Fitness[0]+1) > 1e-6 {
		t.Fatalf("perfect r2 should minimize to -1, got %v", perfect.Fitness)
	}
}

func TestLengthObjective(t *testing.T) {
	p := lineProblem(t)
	e := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{LengthObjective: true})
	rng := rand.New(rand.NewSource(3))

	ind := Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, 2)})}
	ind.Genotype.UpdateNodes()
	if err := e.Evaluate(rng, &ind); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(ind.Fitness) != 2 || ind.Fitness[1] != 1 {
		t.Fatalf("length objective: %v", ind.Fitness)
	}
}

func TestBudgetExhaustion(t *testing.T) {
	p := lineProblem(t)
	e := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{Budget: 10})

	pop := make([]Individual, 100)
	for i := range pop {
		pop[i] = Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, float32(i))})}
		pop[i].Genotype.UpdateNodes()
	}
	master := rand.New(rand.NewSource(4))
	evaluated, err := e.EvaluatePopulation(context.Background(), master, pop, 4)
	if err != nil {
		t.Fatalf("evaluate population: %v", err)
	}
	if evaluated != 10 {
		t.Fatalf("evaluated %d individuals, want exactly 10", evaluated)
	}
	if e.Remaining() != 0 {
		t.Fatalf("remaining budget %d, want 0", e.Remaining())
	}
	sentinels := 0
	for i := range pop {
		if len(pop[i].Fitness) != 1 {
			t.Fatalf("individual %d has no fitness", i)
		}
		if pop[i].Fitness[0] == math.MaxFloat64 {
			sentinels++
		}
	}
	if sentinels != 90 {
		t.Fatalf("%d sentinel fitness values, want 90", sentinels)
	}
}

func TestLocalSearchImprovesCoefficients(t *testing.T) {
	p := lineProblem(t)
	rng := rand.New(rand.NewSource(5))

	// start from y ~ 0.5*x, let the coefficient search find ~2
	plain := Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, 0.5)})}
	plain.Genotype.UpdateNodes()
	tuned := Individual{Genotype: plain.Genotype.Clone()}

	base := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{})
	if err := base.Evaluate(rng, &plain); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	opt := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{LocalIterations: 100})
	if err := opt.Evaluate(rng, &tuned); err != nil {
		t.Fatalf("evaluate with local search: %v", err)
	}
	if tuned.Fitness[0] >= plain.Fitness[0] {
		t.Fatalf("local search did not improve: %g vs %g", tuned.Fitness[0], plain.Fitness[0])
	}
	coeff := tuned.Genotype.Coefficients()[0]
	if math.Abs(coeff-2) > 0.1 {
		t.Fatalf("coefficient after search: %g, want ~2", coeff)
	}
}

func TestPopulationEvaluationIsDeterministic(t *testing.T) {
	p := lineProblem(t)

	run := func() []float64 {
		e := NewEvaluator(p, eval.MeanSquaredError{}, EvaluatorConfig{})
		pop := make([]Individual, 20)
		for i := range pop {
			pop[i] = Individual{Genotype: genotype.NewTree([]genotype.Node{xLeaf(t, p, float32(i))})}
			pop[i].Genotype.UpdateNodes()
		}
		master := rand.New(rand.NewSource(6))
		if _, err := e.EvaluatePopulation(context.Background(), master, pop, 4); err != nil {
			t.Fatalf("evaluate population: %v", err)
		}
		out := make([]float64, len(pop))
		for i := range pop {
			out[i] = pop[i].Fitness[0]
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fitness %d differs across runs: %g vs %g", i, a[i], b[i])
		}
	}
}
