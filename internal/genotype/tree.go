package genotype

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// ErrInvalidTree reports a malformed postfix layout: arities that reach
// outside the array or a node list that does not collapse to a single root.
var ErrInvalidTree = errors.New("invalid tree")

// Tree is an expression tree stored as a postfix node sequence: every node
// appears after all of its descendants and the root sits at the last index.
type Tree struct {
	Nodes []Node
}

// NewTree takes ownership of the given node slice.
func NewTree(nodes []Node) Tree {
	return Tree{Nodes: nodes}
}

// Clone returns a deep copy.
func (t Tree) Clone() Tree {
	nodes := make([]Node, len(t.Nodes))
	copy(nodes, t.Nodes)
	return Tree{Nodes: nodes}
}

// Len returns the number of nodes.
func (t Tree) Len() int { return len(t.Nodes) }

// Depth returns the height of the tree.
func (t Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return int(t.Nodes[len(t.Nodes)-1].Depth)
}

// Validate checks the postfix invariant: simulated evaluation must consume
// exactly the declared arities and leave a single value on the stack.
func (t Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty node list", ErrInvalidTree)
	}
	depth := 0
	for i, n := range t.Nodes {
		if depth < int(n.Arity) {
			return fmt.Errorf("%w: node %d (%s) wants %d children, %d available", ErrInvalidTree, i, n.Type, n.Arity, depth)
		}
		depth -= int(n.Arity)
		depth++
	}
	if depth != 1 {
		return fmt.Errorf("%w: %d roots", ErrInvalidTree, depth)
	}
	return nil
}

// UpdateNodes recomputes the derived fields (Length, Depth, Parent, Level)
// from the arities and the postfix layout. The first pass walks child roots
// by back-jumping Length+1 slots; the reverse pass assigns levels from the
// root down.
func (t *Tree) UpdateNodes() *Tree {
	nodes := t.Nodes
	for i := range nodes {
		s := &nodes[i]
		s.Depth = 1
		s.Length = s.Arity
		if s.IsLeaf() {
			continue
		}
		j := i - 1
		for k := 0; k < int(s.Arity); k++ {
			p := &nodes[j]
			s.Length += p.Length
			if p.Depth > s.Depth {
				s.Depth = p.Depth
			}
			p.Parent = uint16(i)
			j -= int(p.Length) + 1
		}
		s.Depth++
	}
	nodes[len(nodes)-1].Level = 1
	for i := len(nodes) - 2; i >= 0; i-- {
		nodes[i].Level = nodes[nodes[i].Parent].Level + 1
	}
	return t
}

// Children yields the indices of node i's children by the back-jump walk,
// starting with the child nearest to i: reverse array order, last argument
// first. The sequence is finite and restartable.
func (t Tree) Children(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		n := t.Nodes[i]
		j := i - 1
		for k := 0; k < int(n.Arity); k++ {
			if !yield(j) {
				return
			}
			j -= int(t.Nodes[j].Length) + 1
		}
	}
}

// ChildIndices returns the indices of node i's children in the same order as
// Children: nearest to i first, so the last argument comes first.
func (t Tree) ChildIndices(i int) []int {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return nil
	}
	indices := make([]int, 0, n.Arity)
	j := i - 1
	for k := 0; k < int(n.Arity); k++ {
		indices = append(indices, j)
		j -= int(t.Nodes[j].Length) + 1
	}
	return indices
}

// Subtree returns the index range [lo, hi) spanned by the subtree rooted at
// node i, including i itself.
func (t Tree) Subtree(i int) (lo, hi int) {
	return i - int(t.Nodes[i].Length), i + 1
}

// Coefficients returns the leaf payloads in array order.
func (t Tree) Coefficients() []float64 {
	var coeffs []float64
	for _, n := range t.Nodes {
		if n.IsLeaf() {
			coeffs = append(coeffs, float64(n.Value))
		}
	}
	return coeffs
}

// SetCoefficients writes leaf payloads back in array order.
func (t *Tree) SetCoefficients(coeffs []float64) {
	idx := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			t.Nodes[i].Value = float32(coeffs[idx])
			idx++
		}
	}
}

// Reduce collapses duplicate arguments under commutative operators: a child
// whose structural hash equals its parent's is disabled and its own children
// are absorbed into the parent. Hashes must already be computed. Derived
// fields are refreshed afterwards.
func (t *Tree) Reduce() error {
	if err := t.Validate(); err != nil {
		return err
	}
	nodes := t.Nodes
	reduced := false
	for i := range nodes {
		s := &nodes[i]
		if s.IsLeaf() || !s.IsCommutative() {
			continue
		}
		for _, c := range t.ChildIndices(i) {
			if s.HashValue == nodes[c].HashValue {
				nodes[c].Enabled = false
				s.Arity = uint16(int(s.Arity) + int(nodes[c].Arity) - 1)
				reduced = true
			}
		}
	}
	if reduced {
		kept := nodes[:0]
		for _, n := range nodes {
			if n.Enabled {
				kept = append(kept, n)
			}
		}
		t.Nodes = kept
	}
	t.UpdateNodes()
	return nil
}

// Sort canonicalizes argument order under commutative operators: for each
// commutative node the child subtrees are reordered as contiguous blocks by
// (type, hash). Hashes must already be computed.
func (t *Tree) Sort() error {
	if err := t.Validate(); err != nil {
		return err
	}
	nodes := t.Nodes
	var scratch []Node
	for i := range nodes {
		s := nodes[i]
		if s.IsLeaf() || !s.IsCommutative() {
			continue
		}
		children := t.ChildIndices(i)
		sort.SliceStable(children, func(a, b int) bool {
			return nodes[children[a]].Less(nodes[children[b]])
		})

		size := int(s.Length)
		scratch = scratch[:0]
		for _, c := range children {
			lo, hi := t.Subtree(c)
			scratch = append(scratch, nodes[lo:hi]...)
		}
		copy(nodes[i-size:i], scratch)
	}
	t.UpdateNodes()
	return nil
}
