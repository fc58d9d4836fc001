package genotype

import (
	"fmt"
	"strings"
)

// Format renders the tree as infix text. Variable leaves are resolved
// through names, a map from variable hash to column name; unresolved hashes
// render as their hex value.
func Format(t Tree, names map[uint64]string) string {
	if len(t.Nodes) == 0 {
		return ""
	}
	var render func(i int) string
	render = func(i int) string {
		n := t.Nodes[i]
		switch {
		case n.IsConstant():
			return fmt.Sprintf("%g", n.Value)
		case n.IsVariable():
			name, ok := names[n.CalculatedHashValue]
			if !ok {
				name = fmt.Sprintf("{%016x}", n.CalculatedHashValue)
			}
			if n.Value == 1 {
				return name
			}
			return fmt.Sprintf("(%g * %s)", n.Value, name)
		}
		children := t.ChildIndices(i)
		args := make([]string, len(children))
		for k, c := range children {
			// children appear right-to-left in the postfix array
			args[len(children)-1-k] = render(c)
		}
		switch n.Type {
		case Add:
			return "(" + strings.Join(args, " + ") + ")"
		case Sub:
			if len(args) == 1 {
				return "(-" + args[0] + ")"
			}
			return "(" + strings.Join(args, " - ") + ")"
		case Mul:
			return "(" + strings.Join(args, " * ") + ")"
		case Div:
			if len(args) == 1 {
				return "(1 / " + args[0] + ")"
			}
			return "(" + strings.Join(args, " / ") + ")"
		case Pow:
			return "(" + strings.Join(args, " ^ ") + ")"
		case Square:
			return "(" + args[0] + " ^ 2)"
		default:
			return n.Type.String() + "(" + strings.Join(args, ", ") + ")"
		}
	}
	return render(len(t.Nodes) - 1)
}
