package text

import "strings"

// Printer renders a document back to text: the content first, then the
// fragments in order.
type Printer struct{}

// Print renders d as UTF-8 text.
func (Printer) Print(d *Document) string {
	if len(d.snippets) == 0 {
		return d.text
	}
	var b strings.Builder
	b.Grow(len(d.text))
	b.WriteString(d.text)
	for _, s := range d.snippets {
		b.WriteString(s.text)
	}
	return b.String()
}

// PrintBytes renders d in its recorded charset, re-applying the
// byte-order mark when the original input carried one. This is the
// write-back form: parsing the result reproduces the document.
func (Printer) PrintBytes(d *Document) ([]byte, error) {
	encoded, err := d.Charset().Encode(Printer{}.Print(d))
	if err != nil {
		return nil, err
	}
	if !d.HasBOM() {
		return encoded, nil
	}
	bom := d.Charset().BOM()
	out := make([]byte, 0, len(bom)+len(encoded))
	out = append(out, bom...)
	return append(out, encoded...), nil
}

// Print renders the document as UTF-8 text.
func (d *Document) Print() string {
	return Printer{}.Print(d)
}

// Printer returns the renderer for this node type. Rendering plain
// text needs no position, so the traversal cursor goes unused.
func (d *Document) Printer(cursor any) Printer {
	return Printer{}
}

// Printer returns the renderer for the document tree the fragment
// belongs to.
func (s Snippet) Printer(cursor any) Printer {
	return Printer{}
}
