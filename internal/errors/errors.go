// Package errors defines the in-tree diagnostic carried by parse nodes
// and the wrapping helpers used for genuine internal-invariant failures.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind tags a Diagnostic with the error taxonomy from the specification:
// lexical, structural, opcode-resolution, arity, operand, and multi-output
// errors.
type Kind string

const (
	Lexical           Kind = "lexical"
	Structural        Kind = "structural"
	OpcodeResolution  Kind = "opcode resolution"
	Arity             Kind = "arity"
	Operand           Kind = "operand"
	MultiOutput       Kind = "multi-output"
)

// Span is a byte-offset range into the original, pre-trim input.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// Diagnostic is the error value attached to an Err node or to an Op's
// Error field. It never aborts parsing; it is collected and rendered
// later, or checked for fatality before code generation.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
}

// New builds a Diagnostic of the given kind at the given span.
func New(kind Kind, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// Error implements the error interface with a plain "kind: message (at
// span)" rendering; use Render for a source-anchored, caret-pointing rendering.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", d.Kind, d.Message, d.Span)
}

// Render renders the diagnostic against the original source text,
// underlining the offending span with a caret line, the way a compiler
// front-end reports a syntax error against its source listing.
func (d *Diagnostic) Render(src string) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')
	if d.Span.Start < 0 || d.Span.Start > len(src) {
		return sb.String()
	}
	end := d.Span.End
	if end > len(src) {
		end = len(src)
	}
	if end < d.Span.Start {
		end = d.Span.Start
	}
	lineStart := strings.LastIndexByte(src[:d.Span.Start], '\n') + 1
	lineEnd := strings.IndexByte(src[d.Span.Start:], '\n')
	if lineEnd == -1 {
		lineEnd = len(src)
	} else {
		lineEnd += d.Span.Start
	}
	sb.WriteString("  ")
	sb.WriteString(src[lineStart:lineEnd])
	sb.WriteByte('\n')
	sb.WriteString("  ")
	sb.WriteString(strings.Repeat(" ", d.Span.Start-lineStart))
	width := end - d.Span.Start
	if width < 1 {
		width = 1
	}
	sb.WriteString(strings.Repeat("^", width))
	return sb.String()
}

// List is an ordered collection of diagnostics gathered during a single
// parse call. It is nil when the parse recorded no diagnostics.
type List []*Diagnostic

func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, d := range l {
		msgs = append(msgs, d.Error())
	}
	return strings.Join(msgs, "\n")
}

// HasErrors reports whether any diagnostic was recorded.
func (l List) HasErrors() bool { return len(l) > 0 }

// Wrap annotates an unexpected internal-invariant failure (not a source
// diagnostic - something that indicates a registry or codec bug) with a
// stack trace, for panics/returns that should never reach a well-formed
// program's happy path.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, message)
}

// Cause unwraps an error wrapped with Wrap back to its root cause.
func Cause(err error) error {
	return pkgerrors.Cause(err)
}
