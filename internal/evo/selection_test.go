package evo

import (
	"math"
	"math/rand"
	"testing"
)

func popWithFitness(values ...float64) []Individual {
	pop := make([]Individual, len(values))
	for i, v := range values {
		pop[i] = Individual{Fitness: []float64{v}}
	}
	return pop
}

func TestProportionalSelectorPrefixSums(t *testing.T) {
	s := &ProportionalSelector{}
	if err := s.Prepare(popWithFitness(1, 2, 3)); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	// transformed weights (vmax - f) are [2, 1, 0]; sorted ascending with
	// inclusive prefix sums [0, 1, 3] over indices [2, 1, 0]
	wantPrefix := []float64{0, 1, 3}
	wantIndices := []int{2, 1, 0}
	for i := range wantPrefix {
		if s.prefix[i] != wantPrefix[i] {
			t.Fatalf("prefix[%d]: got %g want %g", i, s.prefix[i], wantPrefix[i])
		}
		if s.indices[i] != wantIndices[i] {
			t.Fatalf("indices[%d]: got %d want %d", i, s.indices[i], wantIndices[i])
		}
	}
	if s.total != 3 {
		t.Fatalf("total: got %g want 3", s.total)
	}
}

func TestProportionalSelectionFrequencies(t *testing.T) {
	s := &ProportionalSelector{}
	// weights (vmax - f): [2, 1, 0] -> expect picks ~2/3, ~1/3, ~0
	if err := s.Prepare(popWithFitness(1, 2, 3)); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	rng := rand.New(rand.NewSource(11))
	counts := make([]int, 3)
	const draws = 30000
	for i := 0; i < draws; i++ {
		counts[s.Select(rng)]++
	}
	if math.Abs(float64(counts[0])/draws-2.0/3) > 0.02 {
		t.Fatalf("index 0 frequency %f, want ~0.667", float64(counts[0])/draws)
	}
	if math.Abs(float64(counts[1])/draws-1.0/3) > 0.02 {
		t.Fatalf("index 1 frequency %f, want ~0.333", float64(counts[1])/draws)
	}
	if float64(counts[2])/draws > 0.001 {
		t.Fatalf("zero-weight index selected %d times", counts[2])
	}
}

func TestProportionalSelectorObjectiveOutOfRange(t *testing.T) {
	s := &ProportionalSelector{Objective: 1}
	if err := s.Prepare(popWithFitness(1, 2)); err == nil {
		t.Fatalf("expected error for missing objective")
	}
	if err := (&ProportionalSelector{}).Prepare(nil); err == nil {
		t.Fatalf("expected error for empty population")
	}
}

func TestTournamentSelectorPrefersBetterFitness(t *testing.T) {
	s := &TournamentSelector{TournamentSize: 3}
	if err := s.Prepare(popWithFitness(5, 1, 3, 4, 2)); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	rng := rand.New(rand.NewSource(12))
	counts := make([]int, 5)
	for i := 0; i < 5000; i++ {
		counts[s.Select(rng)]++
	}
	if counts[1] <= counts[0] || counts[1] <= counts[4] {
		t.Fatalf("best individual not preferred: %v", counts)
	}
}
