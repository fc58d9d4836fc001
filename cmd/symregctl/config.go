package main

import (
	"flag"
	"fmt"

	"symreg/pkg/symreg"
)

type runConfig struct {
	storeKind string
	dbPath    string
	request   symreg.RunRequest
}

func parseRunFlags(args []string) (runConfig, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)

	var cfg runConfig
	fs.StringVar(&cfg.storeKind, "store", "memory", "run store backend (memory|sqlite)")
	fs.StringVar(&cfg.dbPath, "db", "symreg.db", "sqlite database path")

	fs.StringVar(&cfg.request.CSVPath, "data", "", "path to the csv dataset")
	noHeader := fs.Bool("no-header", false, "dataset has no header row")
	fs.StringVar(&cfg.request.Target, "target", "Y", "target column name")
	fs.Float64Var(&cfg.request.TrainFraction, "train", 1, "fraction of leading rows used for training")

	fs.StringVar(&cfg.request.Metric, "metric", "nmse", "fitness metric (mse|mae|nmse|r2)")
	fs.StringVar(&cfg.request.Creator, "creator", "balanced", "tree creator (balanced|ptc2)")
	fs.StringVar(&cfg.request.Selector, "selector", "tournament", "parent selector (tournament|proportional)")

	fs.IntVar(&cfg.request.PopulationSize, "population", 500, "population size")
	fs.IntVar(&cfg.request.Generations, "generations", 100, "generation count")
	fs.IntVar(&cfg.request.EliteCount, "elite", 1, "elite survivors per generation")
	fs.IntVar(&cfg.request.Workers, "workers", 4, "evaluation workers")
	seed := fs.Uint64("seed", 1234, "master random seed")

	fs.IntVar(&cfg.request.TargetLength, "length", 15, "target expression length in nodes")
	fs.IntVar(&cfg.request.MaxDepth, "depth", 10, "maximum tree depth")
	fs.Float64Var(&cfg.request.IrregularityBias, "irregularity", 0, "per-child probability of forcing a leaf")

	fs.Float64Var(&cfg.request.CrossoverProbability, "crossover", 0.9, "crossover probability")
	fs.Float64Var(&cfg.request.MutationProbability, "mutation", 0.25, "mutation probability")

	fs.IntVar(&cfg.request.LocalIterations, "local-iterations", 0, "coefficient search iterations per individual (0 disables)")
	fs.Int64Var(&cfg.request.Budget, "budget", 0, "total evaluation budget (0 means unlimited)")
	fs.BoolVar(&cfg.request.LengthObjective, "pareto-length", false, "add tree length as a second objective")

	if err := fs.Parse(args); err != nil {
		return runConfig{}, err
	}
	cfg.request.HasHeader = !*noHeader
	cfg.request.Seed = *seed

	if cfg.request.CSVPath == "" {
		return runConfig{}, fmt.Errorf("-data is required")
	}
	return cfg, nil
}

type infoConfig struct {
	csvPath   string
	hasHeader bool
}

func parseInfoFlags(args []string) (infoConfig, error) {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var cfg infoConfig
	fs.StringVar(&cfg.csvPath, "data", "", "path to the csv dataset")
	noHeader := fs.Bool("no-header", false, "dataset has no header row")
	if err := fs.Parse(args); err != nil {
		return infoConfig{}, err
	}
	cfg.hasHeader = !*noHeader
	if cfg.csvPath == "" {
		return infoConfig{}, fmt.Errorf("-data is required")
	}
	return cfg, nil
}
