package parser

import (
	"strconv"
	"strings"

	"rain/internal/ast"
	rerrors "rain/internal/errors"
)

// parseOperandArgs parses the content between a `<` and its matching `>`,
// per spec §4.5: whitespace/comma-separated integer literals, none of
// `(`, `)`, `<` allowed inside. s starts just after the `<`; it returns
// the parsed integers, the number of bytes consumed up to and
// including the closing `>`, and ok=true. On a `(`, `)` or `<` it
// records an error and stops just after that byte, still with ok=true.
// It returns ok=false only when the input ends with no `>` and none of
// those three bytes.
func (p *Parser) parseOperandArgs(s string, base int) (args []int64, consumed int, ok bool) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '>' {
			return args, i + 1, true
		}
		if c == '(' || c == ')' || c == '<' {
			p.errorAt(rerrors.Operand, ast.Span{Start: base + i, End: base + i + 1}, "found invalid character in operand arguments")
			return args, i + 1, true
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			i++
			continue
		}
		start := i
		for i < len(s) && s[i] != '>' && s[i] != '(' && s[i] != ')' && s[i] != '<' &&
			s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' && s[i] != ',' {
			i++
		}
		word := s[start:i]
		n, err := strconv.ParseInt(word, 0, 64)
		if err != nil {
			p.errorAt(rerrors.Operand, ast.Span{Start: base + start, End: base + i}, "found invalid character in operand arguments")
			continue
		}
		args = append(args, n)
	}
	return args, i, false
}

// isHexLiteral reports whether word looks like a 0x-prefixed hex
// integer literal.
func isHexLiteral(word string) bool {
	return len(word) > 2 && word[0] == '0' && (word[1] == 'x' || word[1] == 'X')
}

func isDecimalLiteral(word string) bool {
	if word == "" {
		return false
	}
	start := 0
	if word[0] == '-' || word[0] == '+' {
		start = 1
	}
	if start >= len(word) {
		return false
	}
	for i := start; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

func isLiteral(word string) bool {
	return isHexLiteral(word) || isDecimalLiteral(word)
}

// normalizeName upper-cases and folds '-' to '_', spec §4.2's
// identifier normalisation.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			b.WriteByte('_')
			continue
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
