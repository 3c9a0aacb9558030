// Package ast defines the parse tree produced by internal/parser: a
// closed tagged variant of Value, Op, and Err nodes, never an open
// inheritance hierarchy.
package ast

// Span is a byte range in the pre-trim original input.
type Span struct {
	Start int
	End   int
}

// Node is the sum type Value | Op | Err. The unexported marker method
// keeps the variant closed to this package.
type Node interface {
	node()
	Span() Span
}

// Unresolved marks an Op's Operand/OutputArity before the tree resolver
// has run.
const Unresolved = -1

// ValueKind discriminates the four leaf forms spec §3 groups under the
// single Value variant.
type ValueKind int

const (
	KindLiteral ValueKind = iota
	KindPlaceholder
	KindArgRef
	KindMaxUint
	// KindOutputPlaceholder marks a node synthesised by the multi-output
	// cache (spec §4.4 step 4): it occupies a sibling slot that a prior
	// `_` held, but carries no literal value of its own and emits no
	// instruction at code-gen time.
	KindOutputPlaceholder
)

// Value is a literal integer, the placeholder sentinel, an arg(n)
// reference, the MaxUint256/Infinity sentinel, or a resolved
// multi-output placeholder.
type Value struct {
	Kind ValueKind
	Text string
	ArgN int64 // valid when Kind == KindArgRef
	At   Span
}

func (*Value) node()         {}
func (v *Value) Span() Span { return v.At }

// IsPlaceholder reports whether this Value is the still-unresolved `_`
// sentinel, available to be claimed by a multi-output Op to its right.
func (v *Value) IsPlaceholder(placeholder string) bool {
	return v.Kind == KindPlaceholder && v.Text == placeholder
}

// Op is an operator application: a prefix, postfix, or (after
// resolution) lowered infix node.
type Op struct {
	Name        string
	NameSpan    Span
	Operand     int // u16 once resolved, Unresolved before
	OutputArity int // Unresolved before resolution
	FullSpan    Span
	ParenSpans  []Span
	Parameters  []Node
	OperandArgs []int64
	Data        interface{}
	Error       *Err
	InfixFlag   bool
}

func (*Op) node()         {}
func (o *Op) Span() Span { return o.FullSpan }

// Err is a free-standing diagnostic node (not attached to any Op).
type Err struct {
	Message string
	At      Span
}

func (*Err) node()         {}
func (e *Err) Span() Span { return e.At }

// Walk visits n and every node reachable through Op.Parameters,
// post-order (children before parent), matching the code generator's
// traversal order.
func Walk(n Node, visit func(Node)) {
	if op, ok := n.(*Op); ok {
		for _, p := range op.Parameters {
			Walk(p, visit)
		}
	}
	visit(n)
}

// HasError reports whether n or any descendant carries an error: either
// an *Err node, or an *Op with a non-nil Error field.
func HasError(n Node) bool {
	found := false
	Walk(n, func(n Node) {
		switch v := n.(type) {
		case *Err:
			found = true
		case *Op:
			if v.Error != nil {
				found = true
			}
		}
	})
	return found
}
