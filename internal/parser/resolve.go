package parser

import (
	"rain/internal/ast"
	rerrors "rain/internal/errors"
	"rain/internal/opcode"
)

// pseudoData marks an Op as one of the three runtime-overridable
// pseudo-opcodes (spec §4.4 step 2); code generation reads this back
// to know which fixed instruction sequence to lower the node to.
// Comparison is identified by slot identity (Gte/Lte/Ineq), not by the
// pseudo-opcode's current (possibly overridden) name.
type pseudoData struct {
	comparison string // "LESS_THAN", "GREATER_THAN", or "EQUAL_TO"
}

// Comparison satisfies internal/bytecode's pseudoComparison interface,
// letting the code generator read this back without importing
// internal/parser.
func (d pseudoData) Comparison() string { return d.comparison }

// resolveOp runs the tree resolver's per-Op steps (spec §4.4, steps 2–3)
// the moment an Op's closing delimiter is reached: pseudo-opcode
// marking, operand/output-arity resolution through the registry, and
// staging of any multi-output placeholders this Op produces.
func (p *Parser) resolveOp(op *ast.Op) {
	if op.Name == "(group)" {
		return
	}

	if pseudo := p.registry.GetPseudo(op.Name); pseudo != nil {
		p.resolvePseudoOp(op, pseudo)
		return
	}

	desc, ok := p.registry.Get(op.Name)
	if !ok {
		op.Error = p.errorAt(rerrors.OpcodeResolution, op.NameSpan, "unknown opcode")
		return
	}

	paramCount := len(op.Parameters)

	if desc.Codec.IsZero && len(op.OperandArgs) > 0 {
		op.Error = p.errorAt(rerrors.Operand, op.FullSpan, "invalid operand arguments")
		return
	}

	operand, err := desc.Codec.Encode(op.OperandArgs, paramCount)
	if err != nil {
		op.Error = p.errorAt(rerrors.Operand, op.FullSpan, "%s", err.Error())
		return
	}
	if !desc.ParamsValid(paramCount) {
		op.Error = p.errorAt(rerrors.Arity, op.FullSpan, "invalid number of parameters")
		return
	}

	op.Operand = int(operand)
	op.OutputArity = desc.ResolveOutputArity(operand, paramCount)
	op.Data = desc

	p.stageMultiOutput(op)
}

// resolvePseudoOp handles GTE/LTE/INEQ: operand=0, output=1, exactly
// two parameters, expansion deferred to code generation (spec §4.4
// step 2).
func (p *Parser) resolvePseudoOp(op *ast.Op, pseudo *opcode.PseudoDescriptor) {
	if len(op.Parameters) != 2 {
		op.Error = p.errorAt(rerrors.Arity, op.FullSpan, "invalid number of parameters, need 2 items to compare")
		return
	}
	comparison := "EQUAL_TO"
	switch pseudo {
	case p.registry.Gte():
		comparison = "LESS_THAN"
	case p.registry.Lte():
		comparison = "GREATER_THAN"
	case p.registry.Ineq():
		comparison = "EQUAL_TO"
	}
	op.Operand = 0
	op.OutputArity = 1
	op.Data = pseudoData{comparison: comparison}
}

// stageMultiOutput pushes output_arity-1 placeholder nodes for op onto
// the multi-output cache, to be claimed by trailing `_` siblings at the
// enclosing group (spec §4.4 step 4).
func (p *Parser) stageMultiOutput(op *ast.Op) {
	if op.OutputArity <= 1 {
		return
	}
	frame := make([]*ast.Value, 0, op.OutputArity-1)
	for k := 1; k < op.OutputArity; k++ {
		frame = append(frame, &ast.Value{
			Kind: ast.KindOutputPlaceholder,
			Text: op.Name + " output placeholder",
			At:   op.FullSpan,
		})
	}
	p.moCache = append(p.moCache, frame)
}
