package evo

import (
	"math/rand"

	"symreg/internal/dataset"
	"symreg/internal/genotype"
)

// BalancedCreator grows trees breadth-first, regulating every child's
// maximum arity against the remaining node budget. The resulting length
// distribution concentrates tightly around the target.
type BalancedCreator struct {
	creatorBase
}

// NewBalancedCreator builds a balanced creator over the given primitive set
// and input variables.
func NewBalancedCreator(pset *genotype.PrimitiveSet, variables []dataset.Variable, irregularityBias float64) *BalancedCreator {
	return &BalancedCreator{creatorBase{pset: pset, variables: variables, irregularityBias: irregularityBias}}
}

func (c *BalancedCreator) Name() string { return "balanced" }

func (c *BalancedCreator) Create(rng *rand.Rand, targetLength, minDepth, maxDepth int) (genotype.Tree, error) {
	if err := checkCreatorArgs(targetLength, c.variables); err != nil {
		return genotype.Tree{}, err
	}
	minFunctionArity, maxFunctionArity := c.pset.FunctionArityLimits()
	targetLength = clipTarget(targetLength, int(minFunctionArity))

	maxArity := min(int(maxFunctionArity), targetLength-1)
	minArity := min(int(minFunctionArity), maxArity)

	root, err := c.sample(rng, minArity, maxArity)
	if err != nil {
		return genotype.Tree{}, err
	}
	c.initLeaf(rng, &root)
	if root.IsLeaf() {
		t := genotype.NewTree([]genotype.Node{root})
		t.UpdateNodes()
		return t, nil
	}

	type entry struct {
		node       genotype.Node
		depth      int
		childIndex int
	}
	tuples := make([]entry, 0, targetLength)
	tuples = append(tuples, entry{node: root, depth: 1})
	openSlots := int(root.Arity)

	for i := 0; i < len(tuples); i++ {
		node := tuples[i].node
		childDepth := tuples[i].depth + 1
		tuples[i].childIndex = len(tuples)
		for j := 0; j < int(node.Arity); j++ {
			forceLeaf := maxDepth > 0 && childDepth >= maxDepth
			if !forceLeaf && openSlots-len(tuples) > 1 && c.irregularityBias > 0 {
				forceLeaf = rng.Float64() < c.irregularityBias
			}
			maxArity = 0
			if !forceLeaf {
				maxArity = min(int(maxFunctionArity), targetLength-openSlots-1)
			}
			minArity = min(int(minFunctionArity), maxArity)
			if maxArity < int(minFunctionArity) {
				minArity, maxArity = 0, 0
			}

			child, err := c.sample(rng, minArity, maxArity)
			if err != nil {
				return genotype.Tree{}, err
			}
			c.initLeaf(rng, &child)
			tuples = append(tuples, entry{node: child, depth: childDepth})
			openSlots += int(child.Arity)
		}
	}

	// linearize by postorder, filling the postfix array from the back
	postfix := make([]genotype.Node, len(tuples))
	idx := len(tuples)
	var add func(e entry)
	add = func(e entry) {
		idx--
		postfix[idx] = e.node
		for i := e.childIndex; i < e.childIndex+int(e.node.Arity); i++ {
			add(tuples[i])
		}
	}
	add(tuples[0])

	t := genotype.NewTree(postfix)
	t.UpdateNodes()
	return t, nil
}
