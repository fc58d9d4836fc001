package evo

import "sort"

// SorterStats counts the work performed by a non-dominated sort. Each sorter
// instance owns its stats; per-instance counters from parallel sorters are
// merged with Combine.
type SorterStats struct {
	DominanceComparisons int
	InnerOps             int
}

func (s *SorterStats) Reset() { *s = SorterStats{} }

func (s *SorterStats) Combine(other SorterStats) {
	s.DominanceComparisons += other.DominanceComparisons
	s.InnerOps += other.InnerOps
}

// HierarchicalSorter partitions a population into Pareto fronts by repeated
// two-queue sweeps: candidates that survive a full pass against the current
// front members are kept, dominated ones are demoted to the next round.
type HierarchicalSorter struct {
	Stats SorterStats
}

// Sort returns the population indices grouped into fronts, best first.
// Fitness vectors are compared under minimization.
func (h *HierarchicalSorter) Sort(pop []Individual) [][]int {
	q := make([]int, len(pop))
	for i := range q {
		q[i] = i
	}
	sort.SliceStable(q, func(a, b int) bool {
		return LexCompare(pop[q[a]].Fitness, pop[q[b]].Fitness) < 0
	})
	dominated := make([]int, 0, len(pop))

	var fronts [][]int
	for len(q) > 0 {
		h.Stats.InnerOps++
		var front []int
		for len(q) > 0 {
			q1 := q[0]
			q = q[1:]
			front = append(front, q1)
			nonDominated := 0
			for len(q) > nonDominated {
				qj := q[0]
				q = q[1:]
				h.Stats.DominanceComparisons++
				if ParetoCompare(pop[q1].Fitness, pop[qj].Fitness) == DominanceNone {
					q = append(q, qj)
					nonDominated++
				} else {
					dominated = append(dominated, qj)
				}
			}
		}
		fronts = append(fronts, front)
		q = append(q, dominated...)
		dominated = dominated[:0]
		sort.SliceStable(q, func(a, b int) bool {
			return LexCompare(pop[q[a]].Fitness, pop[q[b]].Fitness) < 0
		})
	}
	return fronts
}
