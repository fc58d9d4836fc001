package evo

import (
	"math/rand"
	"sort"
	"testing"
)

func pop2(values ...[2]float64) []Individual {
	pop := make([]Individual, len(values))
	for i, v := range values {
		pop[i] = Individual{Fitness: []float64{v[0], v[1]}}
	}
	return pop
}

func TestParetoCompare(t *testing.T) {
	cases := []struct {
		a, b []float64
		want Dominance
	}{
		{[]float64{1, 1}, []float64{2, 2}, DominanceLeft},
		{[]float64{2, 2}, []float64{1, 1}, DominanceRight},
		{[]float64{1, 2}, []float64{1, 2}, DominanceEqual},
		{[]float64{1, 3}, []float64{3, 1}, DominanceNone},
		{[]float64{1, 2}, []float64{1, 3}, DominanceLeft},
		{[]float64{2, 2}, []float64{1, 4}, DominanceNone},
	}
	for _, c := range cases {
		if got := ParetoCompare(c.a, c.b); got != c.want {
			t.Fatalf("ParetoCompare(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func frontsContain(fronts [][]int, front int, indices ...int) bool {
	if front >= len(fronts) {
		return false
	}
	got := append([]int(nil), fronts[front]...)
	sort.Ints(got)
	want := append([]int(nil), indices...)
	sort.Ints(want)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestHierarchicalSortLayering(t *testing.T) {
	// {(1,4), (2,3), (3,2), (4,1), (2,2)}: (2,2) dominates (2,3) and (3,2),
	// so the first front is {(1,4), (4,1), (2,2)} and the second {(2,3), (3,2)}
	pop := pop2([2]float64{1, 4}, [2]float64{2, 3}, [2]float64{3, 2}, [2]float64{4, 1}, [2]float64{2, 2})
	var sorter HierarchicalSorter
	fronts := sorter.Sort(pop)
	if len(fronts) != 2 {
		t.Fatalf("got %d fronts, want 2: %v", len(fronts), fronts)
	}
	if !frontsContain(fronts, 0, 0, 3, 4) {
		t.Fatalf("front 0: got %v want {0, 3, 4}", fronts[0])
	}
	if !frontsContain(fronts, 1, 1, 2) {
		t.Fatalf("front 1: got %v want {1, 2}", fronts[1])
	}
	if sorter.Stats.DominanceComparisons == 0 {
		t.Fatalf("sorter stats not recorded")
	}
}

func TestHierarchicalSortSingleFront(t *testing.T) {
	pop := pop2([2]float64{1, 3}, [2]float64{2, 2}, [2]float64{3, 1})
	var sorter HierarchicalSorter
	fronts := sorter.Sort(pop)
	if len(fronts) != 1 || len(fronts[0]) != 3 {
		t.Fatalf("got %v, want one front of 3", fronts)
	}
}

func TestHierarchicalSortChain(t *testing.T) {
	// strictly dominated chain: each individual its own front
	pop := pop2([2]float64{1, 1}, [2]float64{2, 2}, [2]float64{3, 3})
	var sorter HierarchicalSorter
	fronts := sorter.Sort(pop)
	if len(fronts) != 3 {
		t.Fatalf("got %d fronts, want 3: %v", len(fronts), fronts)
	}
	for i, f := range fronts {
		if len(f) != 1 || f[0] != i {
			t.Fatalf("front %d: got %v", i, f)
		}
	}
}

func TestHierarchicalSortMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	pop := make([]Individual, 60)
	for i := range pop {
		pop[i] = Individual{Fitness: []float64{rng.Float64(), rng.Float64()}}
	}

	var sorter HierarchicalSorter
	fronts := sorter.Sort(pop)

	// brute-force rank: peel non-dominated sets
	remaining := map[int]bool{}
	for i := range pop {
		remaining[i] = true
	}
	rank := make([]int, len(pop))
	level := 0
	for len(remaining) > 0 {
		var front []int
		for i := range remaining {
			dominated := false
			for j := range remaining {
				if i != j && ParetoCompare(pop[j].Fitness, pop[i].Fitness) == DominanceLeft {
					dominated = true
					break
				}
			}
			if !dominated {
				front = append(front, i)
			}
		}
		for _, i := range front {
			rank[i] = level
			delete(remaining, i)
		}
		level++
	}

	for f, front := range fronts {
		for _, i := range front {
			if rank[i] != f {
				t.Fatalf("index %d placed in front %d, brute force says %d", i, f, rank[i])
			}
		}
	}
}
