package symreg

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"symreg/internal/genotype"
)

func writeLineCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "line.csv")
	var b []byte
	b = append(b, "x,y\n"...)
	for i := 0; i < 40; i++ {
		x := float64(i) / 4
		b = append(b, strconv.FormatFloat(x, 'g', -1, 32)...)
		b = append(b, ',')
		b = append(b, strconv.FormatFloat(2*x+1, 'g', -1, 32)...)
		b = append(b, '\n')
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestClientRunPersistsArtifacts(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	summary, err := client.Run(ctx, RunRequest{
		CSVPath:        writeLineCSV(t),
		HasHeader:      true,
		Target:         "y",
		Metric:         "mse",
		PopulationSize: 30,
		Generations:    5,
		Workers:        2,
		Seed:           99,
		TargetLength:   9,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatalf("empty run id")
	}
	if summary.BestExpression == "" {
		t.Fatalf("empty best expression")
	}
	if len(summary.Generations) != 5 {
		t.Fatalf("got %d generation stats", len(summary.Generations))
	}

	run, ok, err := client.Store().GetRun(ctx, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("run record not stored: ok=%v err=%v", ok, err)
	}
	if run.Target != "y" || run.Metric != "mse" {
		t.Fatalf("run record mismatch: %+v", run)
	}

	stats, ok, err := client.Store().GetGenerationStats(ctx, summary.RunID)
	if err != nil || !ok || len(stats) != 5 {
		t.Fatalf("generation stats not stored: ok=%v err=%v n=%d", ok, err, len(stats))
	}

	exprs, ok, err := client.Store().GetExpressions(ctx, summary.RunID)
	if err != nil || !ok || len(exprs) == 0 {
		t.Fatalf("expressions not stored: ok=%v err=%v", ok, err)
	}
	var tree genotype.Tree
	if err := tree.UnmarshalBinary(exprs[0].Payload); err != nil {
		t.Fatalf("stored payload does not decode: %v", err)
	}
	if tree.Len() != exprs[0].Length {
		t.Fatalf("decoded length %d, record says %d", tree.Len(), exprs[0].Length)
	}
}

func TestClientRunValidatesRequest(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.Run(ctx, RunRequest{}); err == nil {
		t.Fatalf("expected error for missing csv path")
	}
	if _, err := client.Run(ctx, RunRequest{CSVPath: writeLineCSV(t), HasHeader: true, Target: "nope", Generations: 1, PopulationSize: 5}); err == nil {
		t.Fatalf("expected error for unknown target")
	}
	if _, err := client.Run(ctx, RunRequest{CSVPath: writeLineCSV(t), HasHeader: true, Target: "y", Creator: "weird"}); err == nil {
		t.Fatalf("expected error for unknown creator")
	}
}

func TestClientMultiObjectiveRun(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	summary, err := client.Run(ctx, RunRequest{
		CSVPath:         writeLineCSV(t),
		HasHeader:       true,
		Target:          "y",
		PopulationSize:  20,
		Generations:     3,
		Seed:            7,
		LengthObjective: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.ParetoFront) == 0 {
		t.Fatalf("expected a pareto archive")
	}
	for _, rec := range summary.ParetoFront {
		if len(rec.Fitness) != 2 {
			t.Fatalf("expected two objectives, got %v", rec.Fitness)
		}
	}
}
