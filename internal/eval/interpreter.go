package eval

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"symreg/internal/dataset"
	"symreg/internal/genotype"
)

// Interpreter walks a postfix tree over a dataset row range, producing one
// prediction per row. Instances are thread-compatible: share the dispatch
// table, give each goroutine its own interpreter.
type Interpreter[T constraints.Float] struct {
	table *DispatchTable[T]

	// scratch buffers, reused across evaluations on the same instance
	slab []T
	args [][]T
}

// NewInterpreter builds an interpreter over the given dispatch table.
func NewInterpreter[T constraints.Float](table *DispatchTable[T]) *Interpreter[T] {
	return &Interpreter[T]{table: table}
}

// Evaluate computes the tree's predictions over the row range. The returned
// flag reports whether every output value is finite; non-finite values are
// not an error, the metric decides what they cost. The returned slice aliases
// interpreter scratch memory and is valid until the next Evaluate call.
func (ip *Interpreter[T]) Evaluate(t genotype.Tree, ds *dataset.Dataset, r dataset.Range) ([]T, bool, error) {
	if err := t.Validate(); err != nil {
		return nil, false, err
	}
	if r.Start < 0 || r.End() > ds.Rows() {
		return nil, false, fmt.Errorf("range [%d, %d) outside %d rows", r.Start, r.End(), ds.Rows())
	}

	nodes := t.Nodes
	size := r.Size
	if need := len(nodes) * size; cap(ip.slab) < need {
		ip.slab = make([]T, need)
	}
	buf := func(i int) []T { return ip.slab[i*size : (i+1)*size] }

	for i, n := range nodes {
		dst := buf(i)
		switch {
		case n.IsConstant():
			v := T(n.Value)
			for k := range dst {
				dst[k] = v
			}
		case n.IsVariable():
			col, ok := ds.ValuesByHash(n.CalculatedHashValue)
			if !ok {
				return nil, false, fmt.Errorf("node %d: unbound variable hash %016x", i, n.CalculatedHashValue)
			}
			w := T(n.Value)
			for k := range dst {
				dst[k] = T(col[r.Start+k]) * w
			}
		default:
			handler, ok := ip.table.Handler(n.Type)
			if !ok {
				return nil, false, fmt.Errorf("%w: %s", ErrInvalidNodeType, n.Type)
			}
			ip.args = ip.args[:0]
			j := i - 1
			for k := 0; k < int(n.Arity); k++ {
				ip.args = append(ip.args, buf(j))
				j -= int(nodes[j].Length) + 1
			}
			// back-jump yields children last-argument first
			for a, b := 0, len(ip.args)-1; a < b; a, b = a+1, b-1 {
				ip.args[a], ip.args[b] = ip.args[b], ip.args[a]
			}
			handler(ip.args, dst)
		}
	}

	out := buf(len(nodes) - 1)
	finite := true
	for _, v := range out {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			finite = false
			break
		}
	}
	return out, finite, nil
}
