package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"symreg/internal/dataset"
	"symreg/internal/genotype"
)

// ErrUnreachableTargetLength reports that the primitive set cannot satisfy
// the requested tree size at any inflation, e.g. because no leaf symbol is
// enabled.
var ErrUnreachableTargetLength = errors.New("target length unreachable with this primitive set")

// Creator produces random expression trees of a soft target size, subject
// to the primitive set's arity constraints and a hard depth ceiling.
type Creator interface {
	Name() string
	Create(rng *rand.Rand, targetLength, minDepth, maxDepth int) (genotype.Tree, error)
}

// creatorBase carries the state shared by both synthesis procedures.
type creatorBase struct {
	pset      *genotype.PrimitiveSet
	variables []dataset.Variable

	// IrregularityBias is the per-child probability of forcing a leaf,
	// diversifying tree shapes; the node count is still regulated against
	// the target, so the bias changes shape rather than size.
	irregularityBias float64
}

// initLeaf binds variable leaves to a uniformly drawn input variable and
// draws leaf payloads from the standard normal.
func (c *creatorBase) initLeaf(rng *rand.Rand, node *genotype.Node) {
	if !node.IsLeaf() {
		return
	}
	if node.IsVariable() {
		v := c.variables[rng.Intn(len(c.variables))]
		node.HashValue = v.Hash
		node.CalculatedHashValue = v.Hash
	}
	node.Value = float32(rng.NormFloat64())
}

// clipTarget raises an unreachable small target to the smallest tree with a
// function root.
func clipTarget(targetLength, minFunctionArity int) int {
	if targetLength > 1 && targetLength < minFunctionArity+1 {
		return minFunctionArity + 1
	}
	return targetLength
}

func (c *creatorBase) sample(rng *rand.Rand, minArity, maxArity int) (genotype.Node, error) {
	node, err := c.pset.SampleRandomSymbol(rng, uint16(minArity), uint16(maxArity))
	if err != nil {
		return genotype.Node{}, fmt.Errorf("%w: %v", ErrUnreachableTargetLength, err)
	}
	return node, nil
}

func checkCreatorArgs(targetLength int, variables []dataset.Variable) error {
	if targetLength < 1 {
		return fmt.Errorf("target length must be >= 1, got %d", targetLength)
	}
	if len(variables) == 0 {
		return errors.New("at least one input variable is required")
	}
	return nil
}
