package genotype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Binary layout: a uint32 node count followed by fixed-width node records.
// The encoding preserves every field, including derived ones, so a decoded
// tree is byte-for-byte the tree that was encoded.

const nodeEncodedSize = 8 + 8 + 4 + 5*2 + 4 + 1

// MarshalBinary serializes the tree's postfix node array.
func (t Tree) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 4+len(t.Nodes)*nodeEncodedSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Nodes)))
	for _, n := range t.Nodes {
		buf = binary.LittleEndian.AppendUint64(buf, n.HashValue)
		buf = binary.LittleEndian.AppendUint64(buf, n.CalculatedHashValue)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(n.Value))
		buf = binary.LittleEndian.AppendUint16(buf, n.Arity)
		buf = binary.LittleEndian.AppendUint16(buf, n.Length)
		buf = binary.LittleEndian.AppendUint16(buf, n.Depth)
		buf = binary.LittleEndian.AppendUint16(buf, n.Level)
		buf = binary.LittleEndian.AppendUint16(buf, n.Parent)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(n.Type))
		var flags byte
		if n.Optimize {
			flags |= 1
		}
		if n.Enabled {
			flags |= 2
		}
		buf = append(buf, flags)
	}
	return buf, nil
}

// UnmarshalBinary replaces the receiver with the encoded tree.
func (t *Tree) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: truncated header", ErrInvalidTree)
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if len(data) != int(count)*nodeEncodedSize {
		return fmt.Errorf("%w: payload size %d does not match %d nodes", ErrInvalidTree, len(data), count)
	}
	nodes := make([]Node, count)
	for i := range nodes {
		n := &nodes[i]
		n.HashValue = binary.LittleEndian.Uint64(data)
		n.CalculatedHashValue = binary.LittleEndian.Uint64(data[8:])
		n.Value = math.Float32frombits(binary.LittleEndian.Uint32(data[16:]))
		n.Arity = binary.LittleEndian.Uint16(data[20:])
		n.Length = binary.LittleEndian.Uint16(data[22:])
		n.Depth = binary.LittleEndian.Uint16(data[24:])
		n.Level = binary.LittleEndian.Uint16(data[26:])
		n.Parent = binary.LittleEndian.Uint16(data[28:])
		n.Type = NodeType(binary.LittleEndian.Uint32(data[30:]))
		flags := data[34]
		n.Optimize = flags&1 != 0
		n.Enabled = flags&2 != 0
		data = data[nodeEncodedSize:]
	}
	tree := Tree{Nodes: nodes}
	if err := tree.Validate(); err != nil {
		return err
	}
	*t = tree
	return nil
}
