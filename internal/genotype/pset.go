package genotype

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrNoSymbolAvailable reports an empty sampling window: no enabled symbol
// with positive frequency intersects the requested arity range.
var ErrNoSymbolAvailable = errors.New("no symbol available")

// Primitive is the sampling configuration for one node type.
type Primitive struct {
	Frequency uint32
	MinArity  uint16
	MaxArity  uint16
	Enabled   bool
}

// PrimitiveSet is the alphabet of node types available to tree synthesis,
// with per-type sampling weight, enable flag and arity bounds.
type PrimitiveSet struct {
	primitives [typeCount]Primitive
}

// NewPrimitiveSet enables the types present in the given configuration mask
// with frequency 1 and their default arity bounds.
func NewPrimitiveSet(config NodeType) *PrimitiveSet {
	ps := &PrimitiveSet{}
	ps.SetConfig(config | Constant | Variable)
	return ps
}

// SetConfig resets the enabled set to exactly the types in the mask.
func (ps *PrimitiveSet) SetConfig(config NodeType) {
	for i := 0; i < typeCount; i++ {
		t := NodeType(1 << i)
		n := NewNode(t)
		ps.primitives[i] = Primitive{
			Frequency: 1,
			MinArity:  n.Arity,
			MaxArity:  n.Arity,
			Enabled:   config&t != 0,
		}
	}
}

func (ps *PrimitiveSet) Primitive(t NodeType) Primitive {
	return ps.primitives[t.BitIndex()]
}

func (ps *PrimitiveSet) SetFrequency(t NodeType, freq uint32) {
	ps.primitives[t.BitIndex()].Frequency = freq
}

func (ps *PrimitiveSet) SetEnabled(t NodeType, enabled bool) {
	ps.primitives[t.BitIndex()].Enabled = enabled
}

// SetMinMaxArity widens or narrows the arity window sampled for a type.
func (ps *PrimitiveSet) SetMinMaxArity(t NodeType, min, max uint16) {
	p := &ps.primitives[t.BitIndex()]
	p.MinArity, p.MaxArity = min, max
}

// EnabledTypes returns the enabled types in bit order.
func (ps *PrimitiveSet) EnabledTypes() []NodeType {
	var types []NodeType
	for i := 0; i < typeCount; i++ {
		if ps.primitives[i].Enabled {
			types = append(types, NodeType(1<<i))
		}
	}
	return types
}

// FunctionArityLimits returns the tightest [min, max] envelope over all
// enabled function (arity >= 1) types.
func (ps *PrimitiveSet) FunctionArityLimits() (min, max uint16) {
	min, max = ^uint16(0), 0
	for i := 0; i < typeCount; i++ {
		p := ps.primitives[i]
		if !p.Enabled || p.MaxArity == 0 {
			continue
		}
		lo := p.MinArity
		if lo == 0 {
			lo = 1
		}
		if lo < min {
			min = lo
		}
		if p.MaxArity > max {
			max = p.MaxArity
		}
	}
	if max == 0 {
		min = 0
	}
	return min, max
}

// SampleRandomSymbol draws a node among the enabled types whose arity window
// intersects [minArity, maxArity], weighted by frequency; the node's arity is
// then drawn uniformly from the intersection.
func (ps *PrimitiveSet) SampleRandomSymbol(rng *rand.Rand, minArity, maxArity uint16) (Node, error) {
	type candidate struct {
		t      NodeType
		lo, hi uint16
		weight uint32
	}
	var candidates []candidate
	var total uint64
	for i := 0; i < typeCount; i++ {
		p := ps.primitives[i]
		if !p.Enabled || p.Frequency == 0 {
			continue
		}
		lo, hi := p.MinArity, p.MaxArity
		if lo < minArity {
			lo = minArity
		}
		if hi > maxArity {
			hi = maxArity
		}
		if lo > hi {
			continue
		}
		candidates = append(candidates, candidate{t: NodeType(1 << i), lo: lo, hi: hi, weight: p.Frequency})
		total += uint64(p.Frequency)
	}
	if len(candidates) == 0 {
		return Node{}, fmt.Errorf("%w: arity window [%d, %d]", ErrNoSymbolAvailable, minArity, maxArity)
	}
	r := uint64(rng.Int63n(int64(total)))
	var chosen candidate
	for _, c := range candidates {
		if r < uint64(c.weight) {
			chosen = c
			break
		}
		r -= uint64(c.weight)
	}
	node := NewNode(chosen.t)
	node.Arity = chosen.lo
	if chosen.hi > chosen.lo {
		node.Arity += uint16(rng.Intn(int(chosen.hi-chosen.lo) + 1))
	}
	return node, nil
}
