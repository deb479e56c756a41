package text

import "github.com/dshills/treewright/internal/tree"

// Snippet is an ordered fragment appended to a document's content, used
// for generated or templated additions that keep their own identity and
// markers. Snippets are small values; copying is the sharing model.
type Snippet struct {
	id      tree.ID
	markers tree.Markers
	text    string
}

var _ tree.Tree = Snippet{}

// NewSnippet creates a fragment with a fresh identity and an empty
// marker bag.
func NewSnippet(content string) Snippet {
	return Snippet{
		id:      tree.NewID(),
		markers: tree.EmptyMarkers(),
		text:    content,
	}
}

// ID returns the fragment's stable identity.
func (s Snippet) ID() tree.ID {
	return s.id
}

// Markers returns the fragment's metadata bag.
func (s Snippet) Markers() tree.Markers {
	return s.markers
}

// Text returns the fragment's content.
func (s Snippet) Text() string {
	return s.text
}

// WithText returns the fragment with new content, or the receiver
// unchanged when the content is equal.
func (s Snippet) WithText(content string) Snippet {
	if s.text == content {
		return s
	}
	s.text = content
	return s
}

// WithMarkers returns the fragment carrying the new marker bag, or the
// receiver unchanged when the bag is structurally equal.
func (s Snippet) WithMarkers(markers tree.Markers) Snippet {
	if s.markers.Equal(markers) {
		return s
	}
	s.markers = markers
	return s
}
