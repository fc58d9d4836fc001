// Package symreg is the public facade over the symbolic-regression engine:
// it loads a dataset, assembles a problem and a generational search from a
// request, runs it and records the results in a store.
package symreg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"symreg/internal/dataset"
	"symreg/internal/eval"
	"symreg/internal/evo"
	"symreg/internal/genotype"
	"symreg/internal/model"
	"symreg/internal/storage"
)

// Options configures a client.
type Options struct {
	// StoreKind selects the run store backend: "memory" (default) or
	// "sqlite" when compiled in.
	StoreKind string
	DBPath    string
}

// Client ties the engine to a run store.
type Client struct {
	store storage.Store
}

func New(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Store exposes the underlying run store.
func (c *Client) Store() storage.Store { return c.store }

// RunRequest describes one evolutionary run.
type RunRequest struct {
	CSVPath   string
	HasHeader bool
	Target    string

	// TrainFraction splits the leading rows into the training range; the
	// remainder becomes the test range. Defaults to 1 (train on all rows).
	TrainFraction float64

	Metric   string
	Creator  string // "balanced" (default) or "ptc2"
	Selector string // "tournament" (default) or "proportional"

	PopulationSize int
	Generations    int
	EliteCount     int
	Workers        int
	Seed           uint64

	TargetLength     int
	MaxDepth         int
	IrregularityBias float64

	CrossoverProbability float64
	MutationProbability  float64

	LocalIterations int
	Budget          int64
	LengthObjective bool

	StartedAt string
}

func (r *RunRequest) applyDefaults() {
	if r.TrainFraction <= 0 || r.TrainFraction > 1 {
		r.TrainFraction = 1
	}
	if r.PopulationSize <= 0 {
		r.PopulationSize = 100
	}
	if r.Generations <= 0 {
		r.Generations = 50
	}
	if r.EliteCount <= 0 {
		r.EliteCount = 1
	}
	if r.Workers <= 0 {
		r.Workers = 4
	}
	if r.TargetLength <= 0 {
		r.TargetLength = 15
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = 10
	}
	if r.CrossoverProbability <= 0 {
		r.CrossoverProbability = 0.9
	}
	if r.MutationProbability <= 0 {
		r.MutationProbability = 0.25
	}
}

// RunSummary reports the outcome of a run.
type RunSummary struct {
	RunID          string
	BestFitness    float64
	BestExpression string
	Evaluations    int64
	Generations    []model.GenerationStats
	ParetoFront    []model.ExpressionRecord
}

// Run executes a full evolutionary search and persists its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req.applyDefaults()
	if req.CSVPath == "" || req.Target == "" {
		return RunSummary{}, errors.New("csv path and target are required")
	}

	ds, err := dataset.ReadCSVFile(req.CSVPath, req.HasHeader)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load dataset: %w", err)
	}

	metric, err := eval.ParseMetric(req.Metric)
	if err != nil {
		return RunSummary{}, err
	}

	trainRows := int(float64(ds.Rows()) * req.TrainFraction)
	if trainRows < 1 {
		trainRows = 1
	}
	training := dataset.Range{Start: 0, Size: trainRows}
	test := dataset.Range{Start: trainRows, Size: ds.Rows() - trainRows}

	pset := genotype.NewPrimitiveSet(genotype.Arithmetic)
	problem, err := eval.NewProblem(ds, pset, req.Target, training, test)
	if err != nil {
		return RunSummary{}, err
	}

	var creator evo.Creator
	switch req.Creator {
	case "", "balanced":
		creator = evo.NewBalancedCreator(pset, problem.Inputs(), req.IrregularityBias)
	case "ptc2":
		creator = evo.NewProbabilisticCreator(pset, problem.Inputs(), req.IrregularityBias)
	default:
		return RunSummary{}, fmt.Errorf("unknown creator: %s", req.Creator)
	}

	var selector evo.Selector
	switch req.Selector {
	case "", "tournament":
		selector = &evo.TournamentSelector{TournamentSize: 5}
	case "proportional":
		selector = &evo.ProportionalSelector{}
	default:
		return RunSummary{}, fmt.Errorf("unknown selector: %s", req.Selector)
	}

	evaluator := evo.NewEvaluator(problem, metric, evo.EvaluatorConfig{
		Budget:          req.Budget,
		LocalIterations: req.LocalIterations,
		LengthObjective: req.LengthObjective,
	})

	engine, err := evo.NewEngine(evo.EngineConfig{
		Problem:   problem,
		Creator:   creator,
		Evaluator: evaluator,
		Selector:  selector,
		Crossover: evo.SubtreeCrossover{
			InternalProbability: 0.9,
			MaxDepth:            req.MaxDepth,
			MaxLength:           req.TargetLength * 3,
		},
		Mutators: []evo.WeightedMutator{
			{Mutator: evo.PerturbValueMutation{Sigma: 1}, Weight: 1},
			{Mutator: evo.ChangeSymbolMutation{Primitives: pset}, Weight: 1},
			{Mutator: evo.ReplaceSubtreeMutation{Creator: creator, MaxLength: req.TargetLength * 3, MaxDepth: req.MaxDepth}, Weight: 1},
		},
		PopulationSize:       req.PopulationSize,
		Generations:          req.Generations,
		EliteCount:           req.EliteCount,
		Workers:              req.Workers,
		Seed:                 req.Seed,
		TargetLength:         req.TargetLength,
		MaxDepth:             req.MaxDepth,
		CrossoverProbability: req.CrossoverProbability,
		MutationProbability:  req.MutationProbability,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	names := problem.VariableNames()
	best := result.Best()

	summary := RunSummary{
		RunID:          runID,
		BestFitness:    best.Fitness[0],
		BestExpression: genotype.Format(best.Genotype, names),
		Evaluations:    result.Evaluations,
		Generations:    result.Generations,
	}

	archive, err := expressionArchive(runID, result, names)
	if err != nil {
		return RunSummary{}, err
	}
	summary.ParetoFront = archive

	record := model.RunRecord{
		ID:             runID,
		Dataset:        req.CSVPath,
		Target:         req.Target,
		Metric:         metric.Name(),
		Creator:        creator.Name(),
		Selector:       selector.Name(),
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		TargetLength:   req.TargetLength,
		MaxDepth:       req.MaxDepth,
		Seed:           req.Seed,
		Budget:         req.Budget,
		BestFitness:    summary.BestFitness,
		StartedAt:      req.StartedAt,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveGenerationStats(ctx, runID, result.Generations); err != nil {
		return RunSummary{}, fmt.Errorf("save generation stats: %w", err)
	}
	if err := c.store.SaveExpressions(ctx, runID, archive); err != nil {
		return RunSummary{}, fmt.Errorf("save expressions: %w", err)
	}
	return summary, nil
}

// expressionArchive serializes the first Pareto front (or the single best
// individual for single-objective runs).
func expressionArchive(runID string, result evo.RunResult, names map[uint64]string) ([]model.ExpressionRecord, error) {
	var members []evo.Individual
	if len(result.Fronts) > 0 {
		for _, i := range result.Fronts[0] {
			members = append(members, result.Final[i])
		}
	} else {
		members = append(members, result.Best())
	}

	records := make([]model.ExpressionRecord, 0, len(members))
	for rank, ind := range members {
		payload, err := ind.Genotype.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode expression: %w", err)
		}
		records = append(records, model.ExpressionRecord{
			RunID:   runID,
			Rank:    rank,
			Fitness: append([]float64(nil), ind.Fitness...),
			Length:  ind.Genotype.Len(),
			Infix:   genotype.Format(ind.Genotype, names),
			Payload: payload,
		})
	}
	return records, nil
}
