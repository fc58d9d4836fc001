// symregctl runs symbolic-regression searches from the command line.
//
// Usage:
//
//	symregctl run -data path.csv -target Y [flags]
//	symregctl info -data path.csv
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"symreg/internal/dataset"
	"symreg/internal/stats"
	"symreg/pkg/symreg"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:])
	case "info":
		err = infoCommand(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: symregctl <run|info> [flags]")
}

func runCommand(args []string) error {
	cfg, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	ctx := context.Background()

	client, err := symreg.New(ctx, symreg.Options{StoreKind: cfg.storeKind, DBPath: cfg.dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	cfg.request.StartedAt = time.Now().UTC().Format(time.RFC3339)
	start := time.Now()
	summary, err := client.Run(ctx, cfg.request)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("run %s finished in %s\n", summary.RunID, elapsed.Round(time.Millisecond))
	fmt.Printf("evaluations: %d\n", summary.Evaluations)
	fmt.Printf("best fitness (%s): %g\n", cfg.request.Metric, summary.BestFitness)
	fmt.Printf("best expression: %s\n", summary.BestExpression)
	if len(summary.ParetoFront) > 1 {
		fmt.Printf("pareto front (%d members):\n", len(summary.ParetoFront))
		for _, rec := range summary.ParetoFront {
			fmt.Printf("  %2d  fitness=%v  length=%d  %s\n", rec.Rank, rec.Fitness, rec.Length, rec.Infix)
		}
	}
	return nil
}

func infoCommand(args []string) error {
	cfg, err := parseInfoFlags(args)
	if err != nil {
		return err
	}
	ds, err := dataset.ReadCSVFile(cfg.csvPath, cfg.hasHeader)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows, %d columns\n", cfg.csvPath, ds.Rows(), ds.Cols())
	for _, v := range ds.Variables() {
		col := ds.Column(v.Index)
		var calc stats.MeanVarianceCalculator
		for _, x := range col {
			calc.Add(float64(x))
		}
		fmt.Printf("  %-16s mean=%-12g stddev=%-12g\n", v.Name, calc.Mean(), calc.StandardDeviation())
	}
	return nil
}
