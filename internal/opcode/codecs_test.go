package opcode_test

import (
	"fmt"
	"testing"

	"rain/internal/opcode"
)

func TestContextCodec_matchesWorkedExample(t *testing.T) {
	r := opcode.Default()
	d, _ := r.GetByID(opcode.IDContext)
	operand, err := d.Codec.Encode([]int64{2, 6}, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if operand != 0x0206 {
		t.Fatalf("context<2 6>(): got operand %#04x, want 0x0206", operand)
	}
	args := d.Codec.Decode(operand)
	if len(args) != 2 || args[0] != 2 || args[1] != 6 {
		t.Fatalf("decode: got %v, want [2 6]", args)
	}
}

func TestCallCodec_roundTrip(t *testing.T) {
	r := opcode.Default()
	d, _ := r.GetByID(opcode.IDCall)
	operand, err := d.Codec.Encode([]int64{2, 1, 3}, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	args := d.Codec.Decode(operand)
	if len(args) != 3 || args[0] != 2 || args[1] != 1 || args[2] != 3 {
		t.Fatalf("decode: got %v, want [2 1 3]", args)
	}
	if got := d.InputArity(operand); got != 2 {
		t.Errorf("InputArity: got %d, want 2", got)
	}
	if got := d.OutputArity(operand); got != 1 {
		t.Errorf("OutputArity: got %d, want 1", got)
	}
}

func TestCallCodec_outOfBoundIndexedError(t *testing.T) {
	r := opcode.Default()
	d, _ := r.GetByID(opcode.IDCall)
	data := []struct {
		name string
		args []int64
		pc   int
		want int
	}{
		{"inputSize mismatch", []int64{3, 1, 2}, 2, 0},
		{"outputSize zero", []int64{2, 0, 2}, 2, 1},
		{"sourceIndex zero", []int64{2, 1, 0}, 2, 2},
	}
	for _, d2 := range data {
		_, err := d.Codec.Encode(d2.args, d2.pc)
		if err == nil {
			t.Errorf("%s: expected error", d2.name)
			continue
		}
		if want := fmt.Sprintf("out-of-bound operand argument at index %d", d2.want); err.Error() != want {
			t.Errorf("%s: got %q, want %q", d2.name, err.Error(), want)
		}
	}
}

func TestScaleByCodec_negativeRoundTrip(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDScaleBy)
	operand, err := codec.Encode([]int64{-18}, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	args := codec.Decode(operand)
	if len(args) != 1 || args[0] != -18 {
		t.Fatalf("decode: got %v, want [-18]", args)
	}
}

func TestScaleByCodec_outOfRange(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDScaleBy)
	if _, err := codec.Encode([]int64{200}, 1); err == nil {
		t.Error("expected out-of-bound error for scale 200")
	}
}

func TestSelectLteCodec_lengthTiedToParamCount(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDSelectLte)
	operand, err := codec.Encode([]int64{1, 0, 4}, 5)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	args := codec.Decode(operand)
	if len(args) != 3 || args[0] != 1 || args[1] != 0 || args[2] != 4 {
		t.Fatalf("decode: got %v, want [1 0 4]", args)
	}
	if _, err := codec.Encode([]int64{1, 0, 4}, 6); err == nil {
		t.Error("expected error when length does not match paramCount-1")
	}
}

func TestItierV2ReportCodec_legalParamCounts(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDItierV2Report)
	for _, pc := range []int{2, 3, 10} {
		operand, err := codec.Encode(nil, pc)
		if err != nil {
			t.Errorf("paramCount %d: unexpected error %v", pc, err)
			continue
		}
		got := codec.Decode(operand)
		if len(got) != 1 || got[0] != int64(pc) {
			t.Errorf("paramCount %d: decode got %v", pc, got)
		}
	}
	if _, err := codec.Encode(nil, 4); err == nil {
		t.Error("expected error for illegal paramCount 4")
	}
}

func TestUpdateTimesForTierRangeCodec_decodeMaskIsFour(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDUpdateTimesForTierRange)
	operand, err := codec.Encode([]int64{8, 8}, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	args := codec.Decode(operand)
	if len(args) != 2 || args[0] != 8 || args[1] != 8 {
		t.Fatalf("decode: got %v, want [8 8]", args)
	}
}

func TestIerc1155BalanceOfBatchCodec_roundTripsParamCount(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDIerc1155BalanceOfBatch)
	operand, err := codec.Encode(nil, 5)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := codec.Decode(operand)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("decode: got %v, want [5]", got)
	}
	if _, err := codec.Encode(nil, 4); err == nil {
		t.Error("expected error for even paramCount")
	}
	if _, err := codec.Encode(nil, 1); err == nil {
		t.Error("expected error for paramCount <= 2")
	}
}

func TestDynamicReducerCodec_operandIsParamCount(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDAdd)
	operand, err := codec.Encode(nil, 7)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if operand != 7 {
		t.Fatalf("got operand %d, want 7", operand)
	}
	if got := codec.Decode(operand); len(got) != 1 || got[0] != 7 {
		t.Fatalf("decode: got %v", got)
	}
}

func TestZeroCodec_isAlwaysZero(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDLessThan)
	if !codec.IsZero {
		t.Fatal("expected IsZero")
	}
	operand, err := codec.Encode(nil, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if operand != 0 {
		t.Fatalf("got %d, want 0", operand)
	}
	if got := codec.Decode(operand); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestStateInstruction_directHelperMatchesCodec(t *testing.T) {
	codec := mustGetCodec(t, opcode.IDState)
	viaCodec, err := codec.Encode([]int64{opcode.StateMemoryStack, 42}, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	viaHelper := opcode.StateInstruction(opcode.StateMemoryStack, 42)
	if viaCodec != viaHelper {
		t.Fatalf("codec gave %#04x, helper gave %#04x", viaCodec, viaHelper)
	}
}

func mustGetCodec(t *testing.T, id uint16) opcode.Codec {
	t.Helper()
	r := opcode.Default()
	d, ok := r.GetByID(id)
	if !ok {
		t.Fatalf("opcode id %d not registered", id)
	}
	return d.Codec
}
