package bytecode

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"rain/internal/ast"
	"rain/internal/opcode"
)

// pseudoComparison is satisfied by internal/parser's unexported
// pseudo-opcode marker; the code generator reads it back by interface
// rather than importing internal/parser, keeping bytecode below parser
// in the dependency graph.
type pseudoComparison interface {
	Comparison() string
}

// pendingArg records one arg(n) sentinel's position in a source buffer,
// to be rewritten by updateArgs once every source has been generated.
type pendingArg struct {
	source int
	offset int
	n      int64
}

type generator struct {
	registry   *opcode.Registry
	pool       constantPool
	pending    []pendingArg
	argOffsets []int64
}

// Generate lowers tree to a StateConfig with all arg-offsets at zero
// and an empty starting constant pool. Any error anywhere in tree
// makes code generation fail entirely (spec §4.6).
func Generate(tree *ast.Tree, registry *opcode.Registry) StateConfig {
	return GenerateWithOffsets(tree, registry, nil, nil)
}

// GenerateWithOffsets is Generate generalised with a per-source
// arg_offset vector (spec §4.6, §9 note 1, and the `build_bytes(...,
// offset?, ...)` surface of spec §6) and a starting constant pool
// (`build_bytes(..., constants?)`) that callers building several trees
// against one shared constant index space can seed and grow across
// calls; a nil or short argOffsets vector is treated as all zeroes, and
// a nil seedConstants starts from an empty pool.
func GenerateWithOffsets(tree *ast.Tree, registry *opcode.Registry, argOffsets []int64, seedConstants []uint256.Int) StateConfig {
	if tree.HasErrors() {
		return Empty()
	}

	g := &generator{registry: registry, argOffsets: argOffsets}
	if len(seedConstants) > 0 {
		g.pool.values = append(g.pool.values, seedConstants...)
	}
	sources := make([][]byte, len(tree.SubExprs))
	for i, se := range tree.SubExprs {
		var buf []byte
		for _, root := range se.RootNodes {
			buf = g.emit(buf, root, i)
		}
		sources[i] = buf
	}
	g.updateArgs(sources)
	return StateConfig{Constants: g.pool.values, Sources: sources}
}

func (g *generator) argOffset(sourceIndex int) int64 {
	if sourceIndex < len(g.argOffsets) {
		return g.argOffsets[sourceIndex]
	}
	return 0
}

// emit appends n's post-order instruction stream to buf (spec §4.6:
// "post-order traversal ... emitting a byte buffer").
func (g *generator) emit(buf []byte, n ast.Node, sourceIndex int) []byte {
	switch v := n.(type) {
	case *ast.Value:
		return g.emitValue(buf, v, sourceIndex)
	case *ast.Op:
		return g.emitOp(buf, v, sourceIndex)
	default:
		return buf
	}
}

func (g *generator) emitValue(buf []byte, v *ast.Value, sourceIndex int) []byte {
	switch v.Kind {
	case ast.KindLiteral:
		idx := g.pool.indexOf(parseLiteral(v.Text))
		return append(buf, g.stateBytes(opcode.StateMemoryConstant, idx)...)
	case ast.KindMaxUint:
		idx := g.pool.indexOf(maxUint256())
		return append(buf, g.stateBytes(opcode.StateMemoryConstant, idx)...)
	case ast.KindArgRef:
		g.pending = append(g.pending, pendingArg{source: sourceIndex, offset: len(buf), n: v.ArgN})
		in := Instruction{OpcodeID: uint16(g.registry.Size()), Operand: uint16(v.ArgN + g.argOffset(sourceIndex))}
		return append(buf, in.Bytes()...)
	default:
		// KindPlaceholder / KindOutputPlaceholder: pure stack-position
		// markers, nothing to emit.
		return buf
	}
}

func (g *generator) emitOp(buf []byte, op *ast.Op, sourceIndex int) []byte {
	for _, param := range op.Parameters {
		buf = g.emit(buf, param, sourceIndex)
	}

	if pd, ok := op.Data.(pseudoComparison); ok {
		return g.emitPseudo(buf, pd.Comparison())
	}

	desc, ok := op.Data.(*opcode.Descriptor)
	if !ok {
		return buf
	}
	in := Instruction{OpcodeID: desc.ID, Operand: uint16(op.Operand)}
	return append(buf, in.Bytes()...)
}

// emitPseudo lowers a GTE/LTE/INEQ node to its comparison followed by
// ISZERO, both with operand 0 (spec §4.6, §4.4 step 2).
func (g *generator) emitPseudo(buf []byte, comparison string) []byte {
	cmp, ok := g.registry.Get(comparison)
	if !ok {
		return buf
	}
	isZero, ok := g.registry.Get("ISZERO")
	if !ok {
		return buf
	}
	buf = append(buf, Instruction{OpcodeID: cmp.ID, Operand: 0}.Bytes()...)
	return append(buf, Instruction{OpcodeID: isZero.ID, Operand: 0}.Bytes()...)
}

func (g *generator) stateBytes(kind, index int) []byte {
	desc, ok := g.registry.GetByID(opcode.IDState)
	opcodeID := uint16(opcode.IDState)
	if ok {
		opcodeID = desc.ID
	}
	in := Instruction{OpcodeID: opcodeID, Operand: opcode.StateInstruction(kind, index)}
	return in.Bytes()
}

// updateArgs rewrites every arg(n) sentinel into STATE(constant, n +
// arg_offset of its source + constants.length_at_rewrite_time), the
// ZIPMAP-style numbering spec §4.6 describes: arguments resolve to
// constants appended after every source has already contributed its
// own literals.
func (g *generator) updateArgs(sources [][]byte) {
	base := len(g.pool.values)
	for _, pa := range g.pending {
		idx := base + int(pa.n+g.argOffset(pa.source))
		copy(sources[pa.source][pa.offset:pa.offset+4], g.stateBytes(opcode.StateMemoryConstant, idx))
	}
}

// parseLiteral converts a literal token (decimal or 0x-hex, spec §6's
// grammar) into its 256-bit value.
func parseLiteral(text string) *uint256.Int {
	v := new(uint256.Int)
	if len(text) > 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		hex, err := uint256.FromHex(text)
		if err == nil {
			return hex
		}
		return v
	}
	if err := v.SetFromDecimal(strings.TrimPrefix(text, "+")); err == nil {
		return v
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil && n >= 0 {
		return uint256.NewInt(uint64(n))
	}
	return v
}
