package text

import (
	"fmt"

	"github.com/dshills/treewright/internal/tree"
)

// Visitor is implemented by passes that traverse text documents. The
// traversal framework itself lives with the callers; the node type only
// offers dispatch.
type Visitor interface {
	// VisitDocument visits a document and returns its replacement,
	// which may be the document itself.
	VisitDocument(d *Document, ctx any) (tree.Tree, error)

	// VisitSnippet visits one fragment and returns its replacement.
	VisitSnippet(s Snippet, ctx any) (tree.Tree, error)
}

// Acceptable reports whether v can traverse this node type.
func (d *Document) Acceptable(v any) bool {
	_, ok := v.(Visitor)
	return ok
}

// Accept dispatches v over the document.
func (d *Document) Accept(v any, ctx any) (tree.Tree, error) {
	visitor, ok := v.(Visitor)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrVisitorMismatch, v)
	}
	return visitor.VisitDocument(d, ctx)
}

// Acceptable reports whether v can traverse this node type.
func (s Snippet) Acceptable(v any) bool {
	_, ok := v.(Visitor)
	return ok
}

// Accept dispatches v over the fragment.
func (s Snippet) Accept(v any, ctx any) (tree.Tree, error) {
	visitor, ok := v.(Visitor)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrVisitorMismatch, v)
	}
	return visitor.VisitSnippet(s, ctx)
}
