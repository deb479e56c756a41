package text

import (
	"github.com/dshills/treewright/internal/charset"
	"github.com/dshills/treewright/internal/tree"
)

// Document is the unstructured-text leaf of a source tree. Its identity
// is the ID alone: every edit produces a new value carrying the same ID,
// and peers pair revisions by it. All fields are reachable only through
// accessors and With operations, keeping values safe to share across
// goroutines and to retain as delta baselines.
type Document struct {
	id          tree.ID
	sourcePath  string
	markers     tree.Markers
	charsetName string
	charsetBOM  bool
	checksum    *tree.Checksum
	attributes  *tree.FileAttributes
	text        string
	snippets    []Snippet
	cache       *indexCache
}

var _ tree.SourceFile = (*Document)(nil)

// New creates a document with a fresh identity, an empty marker bag,
// and the given content. The charset defaults to UTF-8.
func New(sourcePath, content string) *Document {
	return &Document{
		id:         tree.NewID(),
		sourcePath: sourcePath,
		markers:    tree.EmptyMarkers(),
		text:       content,
		cache:      newIndexCache(),
	}
}

// ID returns the document's stable identity.
func (d *Document) ID() tree.ID {
	return d.id
}

// SourcePath returns the document's logical location in the workspace.
func (d *Document) SourcePath() string {
	return d.sourcePath
}

// Markers returns the metadata bag.
func (d *Document) Markers() tree.Markers {
	return d.markers
}

// Charset resolves the document's stored charset name. Names only enter
// through resolved Charset values or a validated decode, so resolution
// here cannot fail; an empty name is UTF-8.
func (d *Document) Charset() charset.Charset {
	cs, err := charset.ForName(d.charsetName)
	if err != nil {
		return charset.UTF8
	}
	return cs
}

// HasBOM reports whether the original input carried a byte-order mark.
func (d *Document) HasBOM() bool {
	return d.charsetBOM
}

// Checksum returns the digest of the raw input, or nil.
func (d *Document) Checksum() *tree.Checksum {
	return d.checksum
}

// Attributes returns the filesystem metadata, or nil.
func (d *Document) Attributes() *tree.FileAttributes {
	return d.attributes
}

// Text returns the content as UTF-8.
func (d *Document) Text() string {
	return d.text
}

// Snippets returns the ordered fragments. The result is never nil and
// must be treated as read-only.
func (d *Document) Snippets() []Snippet {
	if d.snippets == nil {
		return []Snippet{}
	}
	return d.snippets
}

// Weight estimates the node's footprint in abstract units, one unit per
// ten bytes of content, truncating. The seen predicate belongs to the
// SourceFile contract for node types with shared subtrees; a flat text
// document has none and ignores it.
func (d *Document) Weight(seen func(any) bool) int64 {
	return int64(len(d.text) / 10)
}

// WithSourcePath returns a document at the new location, or the
// receiver unchanged when the path is equal.
func (d *Document) WithSourcePath(sourcePath string) *Document {
	if d.sourcePath == sourcePath {
		return d
	}
	next := *d
	next.sourcePath = sourcePath
	return &next
}

// WithMarkers returns a document carrying the new marker bag, or the
// receiver unchanged when the bag is structurally equal.
func (d *Document) WithMarkers(markers tree.Markers) *Document {
	if d.markers.Equal(markers) {
		return d
	}
	next := *d
	next.markers = markers
	return &next
}

// WithCharset returns a document recorded in the given charset, or the
// receiver unchanged when it already is.
func (d *Document) WithCharset(cs charset.Charset) *Document {
	return d.withCharsetName(cs.Name())
}

func (d *Document) withCharsetName(name string) *Document {
	if d.Charset().Name() == name {
		return d
	}
	next := *d
	next.charsetName = name
	return &next
}

// WithBOM returns a document with the byte-order mark flag set, or the
// receiver unchanged.
func (d *Document) WithBOM(marked bool) *Document {
	if d.charsetBOM == marked {
		return d
	}
	next := *d
	next.charsetBOM = marked
	return &next
}

// WithChecksum returns a document carrying the new digest, or the
// receiver unchanged when the digest is equal. Nil clears it.
func (d *Document) WithChecksum(sum *tree.Checksum) *Document {
	if equalChecksum(d.checksum, sum) {
		return d
	}
	next := *d
	next.checksum = sum
	return &next
}

// WithAttributes returns a document carrying the new file attributes,
// or the receiver unchanged when they are equal. Nil clears them.
func (d *Document) WithAttributes(attrs *tree.FileAttributes) *Document {
	if d.attributes.Equal(attrs) {
		return d
	}
	next := *d
	next.attributes = attrs
	return &next
}

// WithText returns a document with new content, or the receiver itself
// when the content is equal. A content change starts a fresh derived
// view; metadata updates share the old one.
func (d *Document) WithText(content string) *Document {
	if d.text == content {
		return d
	}
	next := *d
	next.text = content
	next.cache = newIndexCache()
	return &next
}

// WithSnippets returns a document with a new fragment list. An empty
// list is stored as nil; readers cannot tell the two apart. The
// receiver comes back unchanged only when the normalized list is the
// same slice it already holds. A fragment change starts a fresh derived
// view.
func (d *Document) WithSnippets(snippets []Snippet) *Document {
	if len(snippets) == 0 {
		snippets = nil
	}
	if sameSnippets(d.snippets, snippets) {
		return d
	}
	next := *d
	next.snippets = snippets
	next.cache = newIndexCache()
	return &next
}

// withID is the decode path for identity. Identity never changes for a
// live document; a different id on the wire means a different document.
func (d *Document) withID(id tree.ID) *Document {
	if d.id == id {
		return d
	}
	next := *d
	next.id = id
	return &next
}

// sameSnippets reports slice identity: both empty, or the same backing
// array with the same length.
func sameSnippets(a, b []Snippet) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func equalChecksum(a, b *tree.Checksum) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
