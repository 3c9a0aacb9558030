package ast

// SubExpr is one ';'-terminated sub-expression's parsed result: its
// source span and the root-level nodes parsed from it (normally one,
// but multi-output placeholder resolution can leave more than one
// sibling at the top level, and an empty sub-expression has none).
type SubExpr struct {
	SourceSpan Span
	RootNodes  []Node
}

// Tree is a mapping from sub-expression index to its SubExpr, in
// textual (and therefore source-index) order.
type Tree struct {
	SubExprs []SubExpr
}

// HasErrors reports whether any sub-expression in t contains an error
// node anywhere in its root nodes.
func (t *Tree) HasErrors() bool {
	for _, se := range t.SubExprs {
		for _, n := range se.RootNodes {
			if HasError(n) {
				return true
			}
		}
	}
	return false
}

// CollectErrors walks every sub-expression and returns every Err node
// and every Op's attached error, in tree order.
func (t *Tree) CollectErrors() []*Err {
	var out []*Err
	for _, se := range t.SubExprs {
		for _, n := range se.RootNodes {
			Walk(n, func(n Node) {
				switch v := n.(type) {
				case *Err:
					out = append(out, v)
				case *Op:
					if v.Error != nil {
						out = append(out, v.Error)
					}
				}
			})
		}
	}
	return out
}
