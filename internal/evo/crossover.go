package evo

import (
	"math/rand"

	"symreg/internal/genotype"
)

// SubtreeCrossover splices a random subtree of the donor into a random cut
// point of the receiver. Cut points prefer internal nodes with the
// configured probability; offspring violating the depth or length limits
// trigger a bounded retry before falling back to a copy of the receiver.
type SubtreeCrossover struct {
	InternalProbability float64
	MaxDepth            int
	MaxLength           int
}

const crossoverRetries = 8

// cutPoint picks a node index, biased towards internal nodes.
func (c SubtreeCrossover) cutPoint(rng *rand.Rand, t genotype.Tree) int {
	nodes := t.Nodes
	var internal, leaves []int
	for i, n := range nodes {
		if n.IsLeaf() {
			leaves = append(leaves, i)
		} else {
			internal = append(internal, i)
		}
	}
	if len(internal) > 0 && (len(leaves) == 0 || rng.Float64() < c.InternalProbability) {
		return internal[rng.Intn(len(internal))]
	}
	return leaves[rng.Intn(len(leaves))]
}

// Cross builds one offspring from two parents.
func (c SubtreeCrossover) Cross(rng *rand.Rand, receiver, donor genotype.Tree) genotype.Tree {
	for attempt := 0; attempt < crossoverRetries; attempt++ {
		i := c.cutPoint(rng, receiver)
		j := c.cutPoint(rng, donor)

		rlo, rhi := receiver.Subtree(i)
		dlo, dhi := donor.Subtree(j)

		nodes := make([]genotype.Node, 0, rlo+(dhi-dlo)+(receiver.Len()-rhi))
		nodes = append(nodes, receiver.Nodes[:rlo]...)
		nodes = append(nodes, donor.Nodes[dlo:dhi]...)
		nodes = append(nodes, receiver.Nodes[rhi:]...)

		child := genotype.NewTree(nodes)
		child.UpdateNodes()
		if c.MaxLength > 0 && child.Len() > c.MaxLength {
			continue
		}
		if c.MaxDepth > 0 && child.Depth() > c.MaxDepth {
			continue
		}
		return child
	}
	return receiver.Clone()
}
