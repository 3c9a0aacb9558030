// Package bytecode implements the code generator and the wire layout
// it emits: a StateConfig of 256-bit constants plus per-source packed
// instruction buffers (spec §3, §4.6, §6).
package bytecode

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Instruction is one emitted 32-bit record: opcode_id and operand, each
// a little-endian u16 (spec §3, §6).
type Instruction struct {
	OpcodeID uint16
	Operand  uint16
}

// Bytes packs the instruction as spec §6 requires: opcode_id_u16 ||
// operand_u16, both little-endian.
func (in Instruction) Bytes() []byte {
	var b [4]byte
	binary.LittleEndian.PutUint16(b[0:2], in.OpcodeID)
	binary.LittleEndian.PutUint16(b[2:4], in.Operand)
	return b[:]
}

// StateConfig is the deployable artifact: an ordered constant pool and
// one packed instruction buffer per source, source 0 being the entry
// point.
type StateConfig struct {
	Constants []uint256.Int
	Sources   [][]byte
}

// Empty is the sentinel returned whenever code generation encounters
// any error anywhere in the tree (spec §4.6: "the generator returns the
// empty StateConfig").
func Empty() StateConfig {
	return StateConfig{Constants: nil, Sources: nil}
}

// constantPool de-duplicates integer constants by linear search, per
// spec §4.6 ("allocate/lookup constant: linear search; on miss append").
type constantPool struct {
	values []uint256.Int
}

// indexOf returns the index of v in the pool, appending it if this is
// its first occurrence.
func (cp *constantPool) indexOf(v *uint256.Int) int {
	for i := range cp.values {
		if cp.values[i].Eq(v) {
			return i
		}
	}
	cp.values = append(cp.values, *v)
	return len(cp.values) - 1
}

// maxUint256 is the canonical sentinel value for the MaxUint256/Infinity
// literal (spec §4.6: "the canonical 32-byte hex value 0xff...ff").
func maxUint256() *uint256.Int {
	return new(uint256.Int).Not(uint256.NewInt(0))
}
