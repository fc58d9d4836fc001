// Package eval implements the evaluation pipeline: a register-based postfix
// interpreter over a columnar dataset, the fitness metrics reduced from its
// predictions, and the problem descriptor binding dataset, primitive set and
// row ranges together.
package eval

import (
	"errors"
	"math"

	"golang.org/x/exp/constraints"

	"symreg/internal/genotype"
)

// ErrInvalidNodeType reports a node type with no registered handler.
var ErrInvalidNodeType = errors.New("invalid node type")

// Handler computes one operator element-wise: args holds the child buffers
// in argument order, dst is the node's own buffer.
type Handler[T constraints.Float] func(args [][]T, dst []T)

// DispatchConfig controls the numeric semantics baked into a table.
type DispatchConfig struct {
	// ProtectedDivision replaces x/y with Fallback when |y| < Epsilon.
	ProtectedDivision bool
	Epsilon           float64
	Fallback          float64
}

// DefaultDispatchConfig returns protected division with a zero fallback.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{ProtectedDivision: true, Epsilon: 1e-6, Fallback: 0}
}

// DispatchTable maps node types to element-wise handlers. Immutable after
// construction and safe to share between interpreter instances.
type DispatchTable[T constraints.Float] struct {
	handlers map[genotype.NodeType]Handler[T]
}

// NewDispatchTable builds the full handler set for the closed node-type
// alphabet under the given numeric semantics.
func NewDispatchTable[T constraints.Float](cfg DispatchConfig) *DispatchTable[T] {
	eps := T(cfg.Epsilon)
	fallback := T(cfg.Fallback)

	div := func(a, b T) T {
		if cfg.ProtectedDivision {
			if b < eps && b > -eps {
				return fallback
			}
		}
		return a / b
	}

	unary := func(f func(float64) float64) Handler[T] {
		return func(args [][]T, dst []T) {
			for i := range dst {
				dst[i] = T(f(float64(args[0][i])))
			}
		}
	}

	h := map[genotype.NodeType]Handler[T]{
		genotype.Add: func(args [][]T, dst []T) {
			copy(dst, args[0])
			for _, a := range args[1:] {
				for i := range dst {
					dst[i] += a[i]
				}
			}
		},
		genotype.Sub: func(args [][]T, dst []T) {
			if len(args) == 1 {
				for i := range dst {
					dst[i] = -args[0][i]
				}
				return
			}
			copy(dst, args[0])
			for _, a := range args[1:] {
				for i := range dst {
					dst[i] -= a[i]
				}
			}
		},
		genotype.Mul: func(args [][]T, dst []T) {
			copy(dst, args[0])
			for _, a := range args[1:] {
				for i := range dst {
					dst[i] *= a[i]
				}
			}
		},
		genotype.Div: func(args [][]T, dst []T) {
			if len(args) == 1 {
				for i := range dst {
					dst[i] = div(1, args[0][i])
				}
				return
			}
			copy(dst, args[0])
			for _, a := range args[1:] {
				for i := range dst {
					dst[i] = div(dst[i], a[i])
				}
			}
		},
		genotype.Aq: func(args [][]T, dst []T) {
			for i := range dst {
				dst[i] = T(float64(args[0][i]) / math.Sqrt(1+float64(args[1][i])*float64(args[1][i])))
			}
		},
		genotype.Pow: func(args [][]T, dst []T) {
			for i := range dst {
				dst[i] = T(math.Pow(float64(args[0][i]), float64(args[1][i])))
			}
		},
		genotype.Exp:  unary(math.Exp),
		genotype.Log:  unary(math.Log),
		genotype.Sin:  unary(math.Sin),
		genotype.Cos:  unary(math.Cos),
		genotype.Tan:  unary(math.Tan),
		genotype.Sqrt: unary(math.Sqrt),
		genotype.Cbrt: unary(math.Cbrt),
		genotype.Square: func(args [][]T, dst []T) {
			for i := range dst {
				dst[i] = args[0][i] * args[0][i]
			}
		},
	}
	return &DispatchTable[T]{handlers: h}
}

// Handler returns the handler for a node type.
func (dt *DispatchTable[T]) Handler(t genotype.NodeType) (Handler[T], bool) {
	h, ok := dt.handlers[t]
	return h, ok
}
