package text

import (
	"sort"
	"strings"
	"sync/atomic"
	"weak"

	"github.com/rivo/uniseg"
)

// Index is the derived view of a document's content: the line table, the
// grapheme cluster count, and the spans of URI-shaped references. It is
// a pure function of the content, computed lazily and safe to discard;
// an equal view can always be rebuilt.
type Index struct {
	lineStarts []int
	graphemes  int
	refs       []Span
}

// Span marks a half-open byte range of the content.
type Span struct {
	Start int
	End   int
}

// buildIndex computes the full view of content in one pass over the
// bytes plus a grapheme segmentation pass. Every newline starts a line,
// so content ending in one has a final empty line, matching editor
// conventions.
func buildIndex(content string) *Index {
	idx := &Index{lineStarts: []int{0}}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}
	idx.graphemes = uniseg.GraphemeClusterCount(content)
	idx.refs = scanReferences(content)
	return idx
}

// scanReferences finds URI-shaped tokens: a scheme of letters, digits,
// '+', '-', or '.' followed by "://" and at least one more character.
func scanReferences(content string) []Span {
	var refs []Span
	pos := 0
	for pos < len(content) {
		marker := strings.Index(content[pos:], "://")
		if marker < 0 {
			break
		}
		marker += pos
		start := marker
		for start > 0 && isSchemeByte(content[start-1]) {
			start--
		}
		end := marker + len("://")
		for end < len(content) && !isTokenBoundary(content[end]) {
			end++
		}
		if start < marker && end > marker+len("://") {
			refs = append(refs, Span{Start: start, End: end})
		}
		pos = end
	}
	return refs
}

func isSchemeByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '-' || b == '.':
		return true
	}
	return false
}

func isTokenBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '"', '\'', '<', '>', ')', ']', '}':
		return true
	}
	return false
}

// LineCount returns the number of lines. Empty content has one line.
func (idx *Index) LineCount() int {
	return len(idx.lineStarts)
}

// LineStart returns the byte offset where line n (zero-based) begins.
func (idx *Index) LineStart(n int) (int, bool) {
	if n < 0 || n >= len(idx.lineStarts) {
		return 0, false
	}
	return idx.lineStarts[n], true
}

// LineOf returns the zero-based line holding the byte offset.
func (idx *Index) LineOf(offset int) int {
	return sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
}

// Graphemes returns the number of grapheme clusters in the content.
func (idx *Index) Graphemes() int {
	return idx.graphemes
}

// References returns the URI-shaped spans found in the content, in
// order of appearance.
func (idx *Index) References() []Span {
	return idx.refs
}

// Equal reports whether two views describe the same content.
func (idx *Index) Equal(o *Index) bool {
	if idx == nil || o == nil {
		return idx == o
	}
	if idx.graphemes != o.graphemes ||
		len(idx.lineStarts) != len(o.lineStarts) ||
		len(idx.refs) != len(o.refs) {
		return false
	}
	for i := range idx.lineStarts {
		if idx.lineStarts[i] != o.lineStarts[i] {
			return false
		}
	}
	for i := range idx.refs {
		if idx.refs[i] != o.refs[i] {
			return false
		}
	}
	return true
}

// indexCache is the reclaimable slot holding a document's derived view.
// Metadata updates share the slot between revisions; content updates
// allocate a fresh empty one, which is the whole invalidation story.
// The view is held weakly, so the collector may reclaim it between
// uses. Racing readers may compute the view twice; the slot swap is
// atomic, so they only ever observe a whole view or none.
type indexCache struct {
	ref atomic.Pointer[weak.Pointer[Index]]
}

func newIndexCache() *indexCache {
	return &indexCache{}
}

// get returns the cached view, or nil when absent or reclaimed.
func (c *indexCache) get() *Index {
	wp := c.ref.Load()
	if wp == nil {
		return nil
	}
	return wp.Value()
}

// put stores v weakly.
func (c *indexCache) put(v *Index) {
	wp := weak.Make(v)
	c.ref.Store(&wp)
}

// drop empties the slot, simulating collector reclamation.
func (c *indexCache) drop() {
	c.ref.Store(nil)
}

// Index returns the derived view of the rendered content, fragments
// included, computing it on first use. The view is held through a weak
// reference: the collector may reclaim it under memory pressure, and a
// later call recomputes an equal view. Racing callers may both compute;
// either result may land in the slot and both are equal.
func (d *Document) Index() *Index {
	if v := d.cache.get(); v != nil {
		return v
	}
	v := buildIndex(d.Print())
	d.cache.put(v)
	return v
}
