package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"symreg/internal/genotype"
)

// Mutator perturbs a genotype, returning a new tree.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, t genotype.Tree) (genotype.Tree, error)
}

// WeightedMutator pairs a mutator with a sampling weight.
type WeightedMutator struct {
	Mutator Mutator
	Weight  float64
}

// PickMutator samples a mutator proportionally to weight.
func PickMutator(rng *rand.Rand, mutators []WeightedMutator) (Mutator, error) {
	var total float64
	for _, m := range mutators {
		total += m.Weight
	}
	if total <= 0 {
		return nil, errors.New("no mutator with positive weight")
	}
	r := rng.Float64() * total
	for _, m := range mutators {
		if r < m.Weight {
			return m.Mutator, nil
		}
		r -= m.Weight
	}
	return mutators[len(mutators)-1].Mutator, nil
}

// PerturbValueMutation nudges one random leaf payload with Gaussian noise.
type PerturbValueMutation struct {
	Sigma float64
}

func (PerturbValueMutation) Name() string { return "perturb_value" }

func (m PerturbValueMutation) Mutate(rng *rand.Rand, t genotype.Tree) (genotype.Tree, error) {
	out := t.Clone()
	var leaves []int
	for i, n := range out.Nodes {
		if n.IsLeaf() {
			leaves = append(leaves, i)
		}
	}
	if len(leaves) == 0 {
		return out, nil
	}
	sigma := m.Sigma
	if sigma <= 0 {
		sigma = 1
	}
	i := leaves[rng.Intn(len(leaves))]
	out.Nodes[i].Value += float32(rng.NormFloat64() * sigma)
	return out, nil
}

// ChangeSymbolMutation swaps one random function node for a randomly drawn
// enabled symbol of the same arity, which may be the symbol it already has.
type ChangeSymbolMutation struct {
	Primitives *genotype.PrimitiveSet
}

func (ChangeSymbolMutation) Name() string { return "change_symbol" }

func (m ChangeSymbolMutation) Mutate(rng *rand.Rand, t genotype.Tree) (genotype.Tree, error) {
	out := t.Clone()
	var internal []int
	for i, n := range out.Nodes {
		if !n.IsLeaf() {
			internal = append(internal, i)
		}
	}
	if len(internal) == 0 {
		return out, nil
	}
	i := internal[rng.Intn(len(internal))]
	arity := out.Nodes[i].Arity
	replacement, err := m.Primitives.SampleRandomSymbol(rng, arity, arity)
	if err != nil {
		// nothing else fits this arity, keep the clone untouched
		return out, nil
	}
	replacement.Arity = arity
	out.Nodes[i].Type = replacement.Type
	out.Nodes[i].CalculatedHashValue = replacement.CalculatedHashValue
	out.UpdateNodes()
	return out, nil
}

// ReplaceSubtreeMutation swaps a random subtree for a freshly grown one.
type ReplaceSubtreeMutation struct {
	Creator   Creator
	MaxLength int
	MaxDepth  int
}

func (ReplaceSubtreeMutation) Name() string { return "replace_subtree" }

func (m ReplaceSubtreeMutation) Mutate(rng *rand.Rand, t genotype.Tree) (genotype.Tree, error) {
	i := rng.Intn(t.Len())
	lo, hi := t.Subtree(i)

	budget := m.MaxLength
	if budget <= 0 {
		budget = t.Len()
	}
	target := 1 + rng.Intn(max(hi-lo, 1))
	if remaining := budget - (t.Len() - (hi - lo)); remaining >= 1 && target > remaining {
		target = remaining
	}
	replacement, err := m.Creator.Create(rng, target, 1, m.MaxDepth)
	if err != nil {
		return genotype.Tree{}, fmt.Errorf("grow replacement subtree: %w", err)
	}

	nodes := make([]genotype.Node, 0, lo+replacement.Len()+(t.Len()-hi))
	nodes = append(nodes, t.Nodes[:lo]...)
	nodes = append(nodes, replacement.Nodes...)
	nodes = append(nodes, t.Nodes[hi:]...)
	out := genotype.NewTree(nodes)
	out.UpdateNodes()
	return out, nil
}
