package genotype

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
	metro "github.com/dgryski/go-metro"
)

// HashFunction selects the hash used for structural subtree hashing.
type HashFunction int

const (
	HashXXHash HashFunction = iota
	HashMetro
	HashFNV1
)

// HashMode controls whether leaf identity takes part in the hash. Strict
// hashing distinguishes x+y from x+z; relaxed hashing only sees shape.
type HashMode int

const (
	HashStrict HashMode = iota
	HashRelaxed
)

// HashBytes hashes a raw byte string with the selected function. Dataset
// variable names are hashed through this at bind time.
func HashBytes(f HashFunction, data []byte) uint64 {
	switch f {
	case HashMetro:
		return metro.Hash64(data, 0)
	case HashFNV1:
		h := fnv.New64()
		h.Write(data)
		return h.Sum64()
	default:
		return xxhash.Sum64(data)
	}
}

// Hash computes the structural hash of every subtree and stores it in each
// node's HashValue. Internal nodes hash (type, arity, child hashes in
// current order); leaves hash (type, identity) in strict mode and (type)
// alone in relaxed mode.
func (t *Tree) Hash(f HashFunction, m HashMode) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.UpdateNodes()
	nodes := t.Nodes
	buf := make([]byte, 0, 64)
	for i := range nodes {
		n := &nodes[i]
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(n.Type))
		if n.IsLeaf() {
			if m == HashStrict {
				buf = binary.LittleEndian.AppendUint64(buf, n.CalculatedHashValue)
			}
			n.HashValue = HashBytes(f, buf)
			continue
		}
		buf = binary.LittleEndian.AppendUint16(buf, n.Arity)
		j := i - 1
		for k := 0; k < int(n.Arity); k++ {
			buf = binary.LittleEndian.AppendUint64(buf, nodes[j].HashValue)
			j -= int(nodes[j].Length) + 1
		}
		n.HashValue = HashBytes(f, buf)
	}
	return nil
}
