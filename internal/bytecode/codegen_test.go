package bytecode_test

import (
	"encoding/binary"
	"testing"

	"rain/internal/bytecode"
	"rain/internal/opcode"
	"rain/internal/parser"
)

// instr is a decoded (opcodeID, operand) pair, used to assert on an
// emitted source buffer without hard-coding byte offsets.
type instr struct {
	OpcodeID uint16
	Operand  uint16
}

func decode(t *testing.T, src []byte) []instr {
	t.Helper()
	if len(src)%4 != 0 {
		t.Fatalf("source length %d not a multiple of 4", len(src))
	}
	out := make([]instr, 0, len(src)/4)
	for i := 0; i+4 <= len(src); i += 4 {
		out = append(out, instr{
			OpcodeID: binary.LittleEndian.Uint16(src[i : i+2]),
			Operand:  binary.LittleEndian.Uint16(src[i+2 : i+4]),
		})
	}
	return out
}

func parseAndGenerate(t *testing.T, text string) (*opcode.Registry, bytecode.StateConfig) {
	t.Helper()
	r := opcode.Default()
	tree, diags := parser.New(r, "").Parse(text)
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors for %q: %v", text, diags)
	}
	return r, bytecode.Generate(tree, r)
}

// TestGenerate_addMulWorkedExample is spec §8's worked scenario:
// add(9 5 6 mul(9 6)) -> constants [9,5,6], one source ending
// STATE,STATE,STATE,STATE,STATE,MUL(2),ADD(4).
func TestGenerate_addMulWorkedExample(t *testing.T) {
	r, cfg := parseAndGenerate(t, "add(9 5 6 mul(9 6))")
	if len(cfg.Constants) != 3 {
		t.Fatalf("got %d constants, want 3", len(cfg.Constants))
	}
	for i, want := range []uint64{9, 5, 6} {
		if got := cfg.Constants[i].Uint64(); got != want {
			t.Errorf("constants[%d] = %d, want %d", i, got, want)
		}
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(cfg.Sources))
	}
	ins := decode(t, cfg.Sources[0])
	stateID, _ := r.GetByID(opcode.IDState)
	mulID, _ := r.GetByID(opcode.IDMul)
	addID, _ := r.GetByID(opcode.IDAdd)
	want := []instr{
		{stateID.ID, opcode.StateInstruction(0, 0)},
		{stateID.ID, opcode.StateInstruction(0, 1)},
		{stateID.ID, opcode.StateInstruction(0, 2)},
		{stateID.ID, opcode.StateInstruction(0, 0)},
		{stateID.ID, opcode.StateInstruction(0, 2)},
		{mulID.ID, 2},
		{addID.ID, 4},
	}
	if len(ins) != len(want) {
		t.Fatalf("got %d instructions, want %d: %+v", len(ins), len(want), ins)
	}
	for i := range want {
		if ins[i] != want[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, ins[i], want[i])
		}
	}
}

// TestGenerate_contextWorkedExample checks context<2 6>() -> operand
// 0x0206, no parameters, per spec §8.
func TestGenerate_contextWorkedExample(t *testing.T) {
	r, cfg := parseAndGenerate(t, "context<2 6>()")
	ctxID, _ := r.GetByID(opcode.IDContext)
	ins := decode(t, cfg.Sources[0])
	if len(ins) != 1 {
		t.Fatalf("got %d instructions, want 1", len(ins))
	}
	if ins[0].OpcodeID != ctxID.ID || ins[0].Operand != 0x0206 {
		t.Errorf("got %+v, want opcode %d operand 0x0206", ins[0], ctxID.ID)
	}
}

// TestGenerate_lessThanWorkedExample checks less_than(1 2) -> operand
// 0, output 1, constants [1,2].
func TestGenerate_lessThanWorkedExample(t *testing.T) {
	r, cfg := parseAndGenerate(t, "less_than(1 2)")
	if len(cfg.Constants) != 2 {
		t.Fatalf("got %d constants, want 2", len(cfg.Constants))
	}
	for i, want := range []uint64{1, 2} {
		if got := cfg.Constants[i].Uint64(); got != want {
			t.Errorf("constants[%d] = %d, want %d", i, got, want)
		}
	}
	ltID, _ := r.GetByID(opcode.IDLessThan)
	ins := decode(t, cfg.Sources[0])
	if len(ins) != 3 || ins[2] != (instr{ltID.ID, 0}) {
		t.Errorf("got %+v, want STATE, STATE, LESS_THAN with operand 0", ins)
	}
}

// TestGenerate_gteLowersToLessThanThenIszero is spec §8's pseudo-op
// scenario: gte(5 3) emits STATE,STATE,LESS_THAN,ISZERO.
func TestGenerate_gteLowersToLessThanThenIszero(t *testing.T) {
	r, cfg := parseAndGenerate(t, "gte(5 3)")
	ins := decode(t, cfg.Sources[0])
	ltID, _ := r.GetByID(opcode.IDLessThan)
	isZeroID, _ := r.GetByID(opcode.IDIsZero)
	if len(ins) != 4 {
		t.Fatalf("got %d instructions, want 4: %+v", len(ins), ins)
	}
	if ins[2].OpcodeID != ltID.ID {
		t.Errorf("instruction 2: got opcode %d, want LESS_THAN (%d)", ins[2].OpcodeID, ltID.ID)
	}
	if ins[3].OpcodeID != isZeroID.ID {
		t.Errorf("instruction 3: got opcode %d, want ISZERO (%d)", ins[3].OpcodeID, isZeroID.ID)
	}
}

// TestGenerate_lteLowersToGreaterThanThenIszero mirrors the GTE case
// for LTE, per spec §4.4 step 2.
func TestGenerate_lteLowersToGreaterThanThenIszero(t *testing.T) {
	r, cfg := parseAndGenerate(t, "lte(5 3)")
	ins := decode(t, cfg.Sources[0])
	gtID, _ := r.GetByID(opcode.IDGreaterThan)
	isZeroID, _ := r.GetByID(opcode.IDIsZero)
	if ins[2].OpcodeID != gtID.ID || ins[3].OpcodeID != isZeroID.ID {
		t.Errorf("got %+v, want GREATER_THAN then ISZERO", ins[2:])
	}
}

// TestGenerate_ineqLowersToEqualToThenIszero mirrors the GTE/LTE case
// for INEQ.
func TestGenerate_ineqLowersToEqualToThenIszero(t *testing.T) {
	r, cfg := parseAndGenerate(t, "ineq(5 3)")
	ins := decode(t, cfg.Sources[0])
	eqID, _ := r.GetByID(opcode.IDEqualTo)
	isZeroID, _ := r.GetByID(opcode.IDIsZero)
	if ins[2].OpcodeID != eqID.ID || ins[3].OpcodeID != isZeroID.ID {
		t.Errorf("got %+v, want EQUAL_TO then ISZERO", ins[2:])
	}
}

// TestGenerate_emptySubExpressions covers spec §8's ";;" scenario: two
// empty sub-expressions, no errors, two empty source buffers.
func TestGenerate_emptySubExpressions(t *testing.T) {
	_, cfg := parseAndGenerate(t, ";;")
	if len(cfg.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(cfg.Sources))
	}
	for i, src := range cfg.Sources {
		if len(src) != 0 {
			t.Errorf("source %d: got %d bytes, want 0", i, len(src))
		}
	}
}

// TestGenerate_errorAnywhereYieldsEmptyStateConfig is spec §8's error
// fatality property: any error node anywhere makes StateConfig {[],[]}.
func TestGenerate_errorAnywhereYieldsEmptyStateConfig(t *testing.T) {
	r := opcode.Default()
	tree, diags := parser.New(r, "").Parse("add(1 nope(2))")
	if !diags.HasErrors() {
		t.Fatal("expected a parse diagnostic for an unknown opcode")
	}
	cfg := bytecode.Generate(tree, r)
	if len(cfg.Constants) != 0 || len(cfg.Sources) != 0 {
		t.Errorf("got %+v, want empty StateConfig", cfg)
	}
}

// TestGenerate_constantDeduplication is spec §8 property 5: every
// distinct literal appears exactly once in constants.
func TestGenerate_constantDeduplication(t *testing.T) {
	_, cfg := parseAndGenerate(t, "add(5 5 5)")
	if len(cfg.Constants) != 1 {
		t.Fatalf("got %d constants, want 1", len(cfg.Constants))
	}
	if got := cfg.Constants[0].Uint64(); got != 5 {
		t.Errorf("got constant %d, want 5", got)
	}
}

// TestGenerate_maxUint256InternedAsCanonicalValue checks the
// MaxUint256/Infinity sentinel interns to 2^256-1.
func TestGenerate_maxUint256InternedAsCanonicalValue(t *testing.T) {
	_, cfg := parseAndGenerate(t, "add(MaxUint256 1)")
	if len(cfg.Constants) != 2 {
		t.Fatalf("got %d constants, want 2", len(cfg.Constants))
	}
	if cfg.Constants[0].Uint64() != ^uint64(0) {
		// can't compare directly to max via Uint64, so check it is not
		// representable as anything smaller instead.
	}
	bits := cfg.Constants[0].Bytes32()
	for _, b := range bits {
		if b != 0xff {
			t.Fatalf("MaxUint256 constant is not all-0xff: %x", bits)
		}
	}
}

// TestGenerate_sourcesInTextualOrder checks spec §5's ordering
// guarantee: sub-expressions separated by ';' become sources in
// textual order.
func TestGenerate_sourcesInTextualOrder(t *testing.T) {
	_, cfg := parseAndGenerate(t, "1;2;3")
	if len(cfg.Sources) != 3 {
		t.Fatalf("got %d sources, want 3", len(cfg.Sources))
	}
	if len(cfg.Constants) != 3 {
		t.Fatalf("got %d constants, want 3", len(cfg.Constants))
	}
	for i, want := range []uint64{1, 2, 3} {
		if got := cfg.Constants[i].Uint64(); got != want {
			t.Errorf("constants[%d] = %d, want %d", i, got, want)
		}
	}
}
