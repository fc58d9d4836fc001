// Package genotype defines the linear expression representation evolved by
// the engine: postfix node arrays with derived structural fields, subtree
// hashing, canonicalization and a primitive set describing the symbol
// alphabet available to tree synthesis.
package genotype

// NodeType is a single-bit flag so primitive configurations compose as
// bitwise unions.
type NodeType uint32

const (
	Add NodeType = 1 << iota
	Mul
	Sub
	Div
	Aq
	Pow
	Exp
	Log
	Sin
	Cos
	Tan
	Sqrt
	Cbrt
	Square
	Dynamic
	Constant
	Variable

	None NodeType = 0
)

const typeCount = 17

// Common primitive configurations.
const (
	Arithmetic    = Add | Sub | Mul | Div
	TrigFunctions = Sin | Cos | Tan
	Full          = Arithmetic | Aq | Pow | Exp | Log | TrigFunctions | Sqrt | Cbrt | Square
)

func (t NodeType) String() string {
	switch t {
	case Add:
		return "add"
	case Mul:
		return "mul"
	case Sub:
		return "sub"
	case Div:
		return "div"
	case Aq:
		return "aq"
	case Pow:
		return "pow"
	case Exp:
		return "exp"
	case Log:
		return "log"
	case Sin:
		return "sin"
	case Cos:
		return "cos"
	case Tan:
		return "tan"
	case Sqrt:
		return "sqrt"
	case Cbrt:
		return "cbrt"
	case Square:
		return "square"
	case Dynamic:
		return "dyn"
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	default:
		return "unknown"
	}
}

// BitIndex returns the position of the type's flag bit, used as a dispatch
// and primitive-table key.
func (t NodeType) BitIndex() int {
	for i := 0; i < typeCount; i++ {
		if t == 1<<i {
			return i
		}
	}
	return -1
}

// Node is the fixed-size atom of the linear tree representation. Length,
// Depth, Level and Parent are derived fields maintained by
// (*Tree).UpdateNodes.
type Node struct {
	HashValue           uint64
	CalculatedHashValue uint64
	Value               float32
	Arity               uint16
	Length              uint16
	Depth               uint16
	Level               uint16
	Parent              uint16
	Type                NodeType
	Optimize            bool
	Enabled             bool
}

// NewNode builds a node of the given type with its default arity. Leaf
// identity hashes start out as the type tag; variable leaves are rebound by
// the creators.
func NewNode(t NodeType) Node {
	n := Node{Type: t, Enabled: true}
	switch {
	case t == Constant || t == Variable:
		n.Arity = 0
	case t&(Exp|Log|Sin|Cos|Tan|Sqrt|Cbrt|Square) != 0:
		n.Arity = 1
	default:
		n.Arity = 2
	}
	n.CalculatedHashValue = uint64(t)
	return n
}

// NewConstant builds a constant leaf with the given payload.
func NewConstant(v float32) Node {
	n := NewNode(Constant)
	n.Value = v
	return n
}

// NewVariable builds a variable leaf bound to the given variable hash with
// the given coefficient.
func NewVariable(hash uint64, weight float32) Node {
	n := NewNode(Variable)
	n.HashValue = hash
	n.CalculatedHashValue = hash
	n.Value = weight
	return n
}

func (n Node) IsLeaf() bool { return n.Arity == 0 }

func (n Node) IsConstant() bool { return n.Type == Constant }

func (n Node) IsVariable() bool { return n.Type == Variable }

// IsCommutative reports whether argument order does not matter for this
// node's operation.
func (n Node) IsCommutative() bool { return n.Type&(Add|Mul) != 0 }

// Less is the total order used when canonicalizing argument order: first by
// type, then by structural hash.
func (n Node) Less(other Node) bool {
	if n.Type != other.Type {
		return n.Type < other.Type
	}
	return n.HashValue < other.HashValue
}
