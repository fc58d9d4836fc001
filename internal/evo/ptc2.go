package evo

import (
	"math/rand"
	"sort"

	"symreg/internal/dataset"
	"symreg/internal/genotype"
)

// ProbabilisticCreator implements the PTC2 growth procedure: pending child
// slots are kept in a deque and expanded in random order, which trades the
// balanced creator's tight length control for more shape diversity while
// still matching the target length closely.
type ProbabilisticCreator struct {
	creatorBase
}

// NewProbabilisticCreator builds a PTC2 creator over the given primitive set
// and input variables.
func NewProbabilisticCreator(pset *genotype.PrimitiveSet, variables []dataset.Variable, irregularityBias float64) *ProbabilisticCreator {
	return &ProbabilisticCreator{creatorBase{pset: pset, variables: variables, irregularityBias: irregularityBias}}
}

func (c *ProbabilisticCreator) Name() string { return "ptc2" }

func (c *ProbabilisticCreator) Create(rng *rand.Rand, targetLength, minDepth, maxDepth int) (genotype.Tree, error) {
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
		node  genotype.Node
		depth int
	}
	nodes := make([]entry, 0, targetLength)
	nodes = append(nodes, entry{node: root, depth: 1})

	// pending child slots, keyed by depth
	q := make([]int, 0, targetLength)
	for i := 0; i < int(root.Arity); i++ {
		q = append(q, 2)
	}

	randomDequeue := func() int {
		j := rng.Intn(len(q))
		q[j], q[0] = q[0], q[j]
		d := q[0]
		q = q[1:]
		return d
	}

	for len(q) > 0 {
		childDepth := randomDequeue()

		forceLeaf := maxDepth > 0 && childDepth >= maxDepth
		if !forceLeaf && len(q) > 1 && c.irregularityBias > 0 {
			forceLeaf = rng.Float64() < c.irregularityBias
		}
		maxArity = 0
		if !forceLeaf {
			maxArity = min(int(maxFunctionArity), targetLength-len(q)-len(nodes)-1)
		}

		// certain lengths cannot be generated with the available symbols;
		// push the target length towards an achievable value
		if maxArity > 0 && maxArity < int(minFunctionArity) {
			targetLength += int(minFunctionArity) - maxArity
			maxArity = min(int(maxFunctionArity), targetLength-len(q)-len(nodes)-1)
			if maxArity < 0 {
				maxArity = 0
			}
		}
		minArity = min(int(minFunctionArity), maxArity)

		node, err := c.sample(rng, minArity, maxArity)
		if err != nil {
			return genotype.Tree{}, err
		}
		c.initLeaf(rng, &node)

		for i := 0; i < int(node.Arity); i++ {
			q = append(q, childDepth+1)
		}
		nodes = append(nodes, entry{node: node, depth: childDepth})
	}

	sort.SliceStable(nodes, func(a, b int) bool { return nodes[a].depth < nodes[b].depth })

	// assign each function node its children's start offset in depth order
	childIndices := make([]int, len(nodes))
	c0 := 1
	for i := range nodes {
		if nodes[i].node.IsLeaf() {
			continue
		}
		childIndices[i] = c0
		c0 += int(nodes[i].node.Arity)
	}

	postfix := make([]genotype.Node, len(nodes))
	idx := len(nodes)
	var add func(i int)
	add = func(i int) {
		idx--
		postfix[idx] = nodes[i].node
		if nodes[i].node.IsLeaf() {
			return
		}
		for j := 0; j < int(nodes[i].node.Arity); j++ {
			add(childIndices[i] + j)
		}
	}
	add(0)

	t := genotype.NewTree(postfix)
	t.UpdateNodes()
	return t, nil
}
