// Package parser implements the notation-aware recursive-descent state
// machine: it consumes one sub-expression at a time and, in the same
// pass, resolves prefix/postfix/infix notation, attaches `<...>`
// operand arguments, and expands multi-output placeholders.
package parser

import (
	"fmt"
	"strconv"

	"rain/internal/ast"
	rerrors "rain/internal/errors"
	"rain/internal/lexer"
	"rain/internal/opcode"
)

// Parser holds the per-call mutable state spec §5 requires to be reset
// on every Parse: nothing here is process-wide or shared across calls.
type Parser struct {
	registry    *opcode.Registry
	placeholder string
	diags       rerrors.List

	// moCache is the stack of pending multi-output placeholder vectors,
	// one entry per currently-unresolved multi-output Op (spec §9:
	// "modelled as a stack of vectors of placeholder nodes").
	moCache [][]*ast.Value
}

// New builds a Parser bound to registry and using placeholder as the
// multi-output sentinel text (defaults to "_").
func New(registry *opcode.Registry, placeholder string) *Parser {
	if placeholder == "" {
		placeholder = "_"
	}
	return &Parser{registry: registry, placeholder: placeholder}
}

// Parse splits text into ';'-terminated sub-expressions and parses each
// independently, returning the resulting tree and every diagnostic
// raised across all of them.
func (p *Parser) Parse(text string) (*ast.Tree, rerrors.List) {
	p.diags = nil

	tree := &ast.Tree{}
	for _, se := range lexer.Split(text) {
		p.moCache = nil
		roots := p.parseGroup(se.Text, se.Start)
		tree.SubExprs = append(tree.SubExprs, ast.SubExpr{
			SourceSpan: ast.Span{Start: se.Start, End: se.End},
			RootNodes:  roots,
		})
	}
	return tree, p.diags
}

func (p *Parser) errorAt(kind rerrors.Kind, span ast.Span, format string, args ...interface{}) *ast.Err {
	msg := fmt.Sprintf(format, args...)
	rs := rerrors.Span{Start: span.Start, End: span.End}
	p.diags = append(p.diags, rerrors.New(kind, rs, "%s", msg))
	return &ast.Err{Message: msg, At: span}
}

type opToken struct {
	name string
	span ast.Span
}

// parseGroup parses one sub_expr production (spec §6's grammar): a
// SEP-separated run of elements, which may include a chain of bare
// operator words sharing one canonical opcode name (an infix group).
func (p *Parser) parseGroup(s string, base int) []ast.Node {
	var siblings []ast.Node
	var ops []opToken
	firstToken := true

	i := 0
	for i < len(s) {
		rest, n := lexer.TrimLeading(s[i:])
		i += n
		if rest == "" {
			break
		}
		elemStart := base + i
		node, consumed, isOp, opName := p.parseElement(s[i:], elemStart, firstToken)
		if consumed <= 0 {
			consumed = 1
		}
		i += consumed
		firstToken = false
		if isOp {
			ops = append(ops, opToken{name: opName, span: ast.Span{Start: elemStart, End: elemStart + consumed}})
			continue
		}
		siblings = p.appendSibling(siblings, node)
	}

	if len(ops) == 0 {
		return siblings
	}

	canonical := func(name string) string {
		if d, ok := p.registry.Get(name); ok {
			return d.Name
		}
		if ps := p.registry.GetPseudo(name); ps != nil {
			return normalizeName(ps.Name)
		}
		return normalizeName(name)
	}
	canon := canonical(ops[0].name)
	for _, t := range ops[1:] {
		if canonical(t.name) != canon {
			full := ast.Span{Start: base, End: base + len(s)}
			errNode := p.errorAt(rerrors.Structural, full, "invalid infix expression")
			return append(siblings, errNode)
		}
	}

	op := &ast.Op{
		Name:        canon,
		NameSpan:    ops[0].span,
		FullSpan:    ast.Span{Start: base, End: base + len(s)},
		Parameters:  siblings,
		InfixFlag:   true,
		Operand:     ast.Unresolved,
		OutputArity: ast.Unresolved,
	}
	p.resolveOp(op)
	return []ast.Node{op}
}

// appendSibling appends n to siblings, first letting any pending
// multi-output placeholder vector claim trailing `_` sentinels already
// present in siblings (spec §4.4 step 4).
func (p *Parser) appendSibling(siblings []ast.Node, n ast.Node) []ast.Node {
	if len(p.moCache) > 0 {
		frame := p.moCache[len(p.moCache)-1]
		if len(frame) > 0 {
			need := len(frame)
			have := 0
			for j := len(siblings) - 1; j >= 0 && have < need; j-- {
				v, ok := siblings[j].(*ast.Value)
				if !ok || !v.IsPlaceholder(p.placeholder) {
					break
				}
				have++
			}
			if have == need {
				k := len(frame) - 1
				for j := len(siblings) - need; j < len(siblings); j++ {
					siblings[j] = frame[k]
					k--
				}
				p.moCache = p.moCache[:len(p.moCache)-1]
			} else {
				errNode := p.errorAt(rerrors.MultiOutput, n.Span(),
					"illegal placement of outputs, parameter %d cannot be accessed by this opcode", have)
				if op, ok := n.(*ast.Op); ok && op.Error == nil {
					op.Error = errNode
				} else {
					siblings = append(siblings, errNode)
				}
				p.moCache = p.moCache[:len(p.moCache)-1]
			}
		}
	}
	return append(siblings, n)
}

// parseElement consumes one element at s[0:], returning the node (or,
// for a bare word recognised as an infix operator, isOp=true and the
// opcode name instead of a node), and how many bytes were consumed.
func (p *Parser) parseElement(s string, base int, firstToken bool) (node ast.Node, consumed int, isOp bool, opName string) {
	switch s[0] {
	case '(':
		return p.parseParenGroup(s, base)
	case '<':
		return p.parseStrayOperandArgs(s, base)
	case ')', '>':
		end := base + 1
		return p.errorAt(rerrors.Structural, ast.Span{Start: base, End: end}, "invalid closing paren"), 1, false, ""
	}

	wordLen := lexer.NextBoundary(s)
	if wordLen < 0 {
		wordLen = len(s)
	}
	if wordLen == 0 {
		return p.errorAt(rerrors.Lexical, ast.Span{Start: base, End: base + 1}, "invalid comma: unexpected separator"), 1, false, ""
	}
	word := s[:wordLen]
	span := ast.Span{Start: base, End: base + wordLen}

	// Operand-args attach to the word immediately to their left; whether
	// this is actually a prefix head is decided after the matching '>'
	// (spec §4.5: "<...> not followed by '(' is an error").
	if wordLen < len(s) && s[wordLen] == '<' {
		return p.parseOperandArgHead(s, base, word, span, wordLen)
	}
	if wordLen < len(s) && s[wordLen] == '(' {
		return p.parsePrefixOp(s, base, word, span, wordLen, nil)
	}

	return p.classifyBareWord(word, span, firstToken)
}

// parseStrayOperandArgs handles a '<' not immediately following a word
// — always an error per spec §4.5.
func (p *Parser) parseStrayOperandArgs(s string, base int) (ast.Node, int, bool, string) {
	_, consumed, ok := p.parseOperandArgs(s[1:], base+1)
	total := 1 + consumed
	if !ok {
		return p.errorAt(rerrors.Operand, ast.Span{Start: base, End: base + total}, "expected \">\""), total, false, ""
	}
	return p.errorAt(rerrors.Operand, ast.Span{Start: base, End: base + total}, "invalid use of <...>"), total, false, ""
}

func (p *Parser) parseOperandArgHead(s string, base int, word string, wordSpan ast.Span, wordLen int) (ast.Node, int, bool, string) {
	args, argsConsumed, ok := p.parseOperandArgs(s[wordLen+1:], base+wordLen+1)
	total := wordLen + 1 + argsConsumed
	if !ok {
		return p.errorAt(rerrors.Operand, ast.Span{Start: base, End: base + total}, "expected \">\""), total, false, ""
	}
	if total < len(s) && s[total] == '(' {
		return p.parsePrefixOp(s, base, word, wordSpan, total, args)
	}
	return p.errorAt(rerrors.Operand, ast.Span{Start: base, End: base + total}, "invalid use of <...>"), total, false, ""
}

// parsePrefixOp parses `word<args>(content)` or `word(content)`;
// parenStart is the offset (within s) of the opening '('.
func (p *Parser) parsePrefixOp(s string, base int, word string, wordSpan ast.Span, parenStart int, operandArgs []int64) (ast.Node, int, bool, string) {
	closeOffset, content, ok := matchParen(s, parenStart)
	if !ok {
		full := ast.Span{Start: base, End: base + len(s)}
		return p.errorAt(rerrors.Structural, full, "no closing parenthesis"), len(s), false, ""
	}
	if isArgRefHead(word) {
		return p.parseArgRef(content, base, parenStart, closeOffset, wordSpan)
	}
	params := p.parseGroup(content, base+parenStart+1)
	op := &ast.Op{
		Name:     normalizeName(word),
		NameSpan: wordSpan,
		FullSpan: ast.Span{Start: base, End: base + closeOffset + 1},
		ParenSpans: []ast.Span{
			{Start: base + parenStart, End: base + parenStart + 1},
			{Start: base + closeOffset, End: base + closeOffset + 1},
		},
		Parameters:  params,
		OperandArgs: operandArgs,
		Operand:     ast.Unresolved,
		OutputArity: ast.Unresolved,
	}
	p.resolveOp(op)
	return op, closeOffset + 1, false, ""
}

// parseArgRef parses `arg(n)`, an integer-valued reference resolved by
// the code generator's updateArgs pass rather than by the registry.
func (p *Parser) parseArgRef(content string, base, parenStart, closeOffset int, wordSpan ast.Span) (ast.Node, int, bool, string) {
	full := ast.Span{Start: base, End: base + closeOffset + 1}
	trimmed, _ := lexer.TrimLeading(content)
	n, err := strconv.ParseInt(trimmed, 0, 64)
	if err != nil {
		return p.errorAt(rerrors.Arity, full, "invalid number of parameters"), closeOffset + 1, false, ""
	}
	return &ast.Value{Kind: ast.KindArgRef, Text: "arg(" + trimmed + ")", ArgN: n, At: full}, closeOffset + 1, false, ""
}

// parseParenGroup parses a '(' ... ')' span that is not a prefix head
// (no word precedes it): either a postfix op (')' followed by a known
// opcode name) or a plain grouping.
func (p *Parser) parseParenGroup(s string, base int) (ast.Node, int, bool, string) {
	closeOffset, content, ok := matchParen(s, 0)
	if !ok {
		full := ast.Span{Start: base, End: base + len(s)}
		return p.errorAt(rerrors.Structural, full, "no closing parenthesis"), len(s), false, ""
	}
	params := p.parseGroup(content, base+1)

	after := s[closeOffset+1:]
	trimmed, skip := lexer.TrimLeading(after)
	tailLen := lexer.NextBoundary(trimmed)
	if tailLen < 0 {
		tailLen = len(trimmed)
	}
	if tailLen > 0 {
		tail := trimmed[:tailLen]
		d, isReal := p.registry.Get(tail)
		isPseudo := p.registry.GetPseudo(tail) != nil
		if isReal || isPseudo {
			tailStart := base + closeOffset + 1 + skip
			tailSpan := ast.Span{Start: tailStart, End: tailStart + tailLen}
			afterTailOff := closeOffset + 1 + skip + tailLen
			if afterTailOff < len(s) && s[afterTailOff] == '(' {
				full := ast.Span{Start: base, End: base + afterTailOff + 1}
				return p.errorAt(rerrors.Structural, full, "invalid notation"), afterTailOff + 1, false, ""
			}
			name := tail
			if isReal {
				name = d.Name
			}
			op := &ast.Op{
				Name:     normalizeName(name),
				NameSpan: tailSpan,
				FullSpan: ast.Span{Start: base, End: tailSpan.End},
				ParenSpans: []ast.Span{
					{Start: base, End: base + 1},
					{Start: base + closeOffset, End: base + closeOffset + 1},
				},
				Parameters:  params,
				Operand:     ast.Unresolved,
				OutputArity: ast.Unresolved,
			}
			p.resolveOp(op)
			return op, afterTailOff, false, ""
		}
	}

	if len(params) == 1 {
		return params[0], closeOffset + 1, false, ""
	}
	full := ast.Span{Start: base, End: base + closeOffset + 1}
	grouped := &ast.Op{Name: "(group)", FullSpan: full, Parameters: params, Operand: ast.Unresolved, OutputArity: ast.Unresolved}
	return grouped, closeOffset + 1, false, ""
}

// classifyBareWord handles a word with no adjoining '(' or '<': a
// literal, the placeholder sentinel, the MaxUint256/Infinity sentinel,
// a known opcode name used as an infix operator token, or a plain
// variable value.
//
// Spec §4.3's tie-break rule resolves a word that is both a valid
// opcode alias and a valid variable name by preferring the opcode
// reading when the word is immediately followed by '(' — already
// guaranteed by the caller never reaching classifyBareWord in that
// case — and otherwise flagging the node ambiguous. A non-first word
// matching the registry still has a well-defined grammar role (it is
// the infix operator of spec §4.3's third notation), so only the
// first-token position is genuinely ambiguous: it can be neither
// prefix (no '(' follows) nor infix (first tokens never are), yet it
// spells a known opcode name/alias.
func (p *Parser) classifyBareWord(word string, span ast.Span, firstToken bool) (ast.Node, int, bool, string) {
	switch {
	case word == p.placeholder:
		return &ast.Value{Kind: ast.KindPlaceholder, Text: word, At: span}, len(word), false, ""
	case normalizeName(word) == "MAXUINT256" || normalizeName(word) == "INFINITY":
		return &ast.Value{Kind: ast.KindMaxUint, Text: word, At: span}, len(word), false, ""
	case isLiteral(word):
		return &ast.Value{Kind: ast.KindLiteral, Text: word, At: span}, len(word), false, ""
	}

	if !firstToken {
		if _, ok := p.registry.Get(word); ok {
			return nil, len(word), true, word
		}
		if p.registry.GetPseudo(word) != nil {
			return nil, len(word), true, word
		}
		return &ast.Value{Kind: ast.KindLiteral, Text: word, At: span}, len(word), false, ""
	}

	if _, ok := p.registry.Get(word); ok {
		return p.errorAt(rerrors.OpcodeResolution, span, "ambiguous expression/opcode"), len(word), false, ""
	}
	if p.registry.GetPseudo(word) != nil {
		return p.errorAt(rerrors.OpcodeResolution, span, "ambiguous expression/opcode"), len(word), false, ""
	}

	return &ast.Value{Kind: ast.KindLiteral, Text: word, At: span}, len(word), false, ""
}

func isArgRefHead(word string) bool {
	return normalizeName(word) == "ARG"
}

// matchParen finds the ')' matching the '(' at s[openOffset], honouring
// nesting. It returns the offset of the matching ')', the content
// between them, and ok=false if none was found.
func matchParen(s string, openOffset int) (closeOffset int, content string, ok bool) {
	depth := 0
	for i := openOffset; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, s[openOffset+1 : i], true
			}
		}
	}
	return 0, "", false
}
