package text

import (
	"testing"
	"time"

	"github.com/dshills/treewright/internal/charset"
	"github.com/dshills/treewright/internal/tree"
)

func TestDocumentIdentity(t *testing.T) {
	t.Run("edits preserve identity", func(t *testing.T) {
		doc := New("notes.txt", "draft one")
		edited := doc.WithText("draft two")
		if !tree.Same(doc, edited) {
			t.Error("revisions of one document are the same element")
		}
		if doc.ID() != edited.ID() {
			t.Error("edit must not reassign the id")
		}
	})

	t.Run("equal content is not identity", func(t *testing.T) {
		a := New("a.txt", "same words")
		b := New("b.txt", "same words")
		if tree.Same(a, b) {
			t.Error("fresh documents are distinct regardless of content")
		}
	})
}

func TestWithText(t *testing.T) {
	doc := New("notes.txt", "hello")

	t.Run("equal content is a no-op", func(t *testing.T) {
		if doc.WithText("hello") != doc {
			t.Error("expected the receiver itself for equal content")
		}
	})

	t.Run("new content keeps everything but text", func(t *testing.T) {
		sum := tree.SHA256Checksum([]byte("hello"))
		tagged := doc.WithChecksum(&sum)
		edited := tagged.WithText("goodbye")
		if edited == tagged {
			t.Fatal("expected a new value for new content")
		}
		if edited.ID() != tagged.ID() {
			t.Error("id must survive the edit")
		}
		if edited.Text() != "goodbye" {
			t.Errorf("expected new text, got %q", edited.Text())
		}
		if edited.SourcePath() != tagged.SourcePath() {
			t.Error("path must survive the edit")
		}
		if edited.Checksum() != tagged.Checksum() {
			t.Error("checksum must survive the edit")
		}
		if tagged.Text() != "hello" {
			t.Error("the original must be untouched")
		}
	})
}

func TestMetadataWiths(t *testing.T) {
	doc := New("notes.txt", "content")

	t.Run("no-ops return the receiver", func(t *testing.T) {
		if doc.WithSourcePath("notes.txt") != doc {
			t.Error("WithSourcePath with the same path should be a no-op")
		}
		if doc.WithMarkers(doc.Markers()) != doc {
			t.Error("WithMarkers with an equal bag should be a no-op")
		}
		if doc.WithCharset(charset.UTF8) != doc {
			t.Error("WithCharset with the default should be a no-op")
		}
		if doc.WithBOM(false) != doc {
			t.Error("WithBOM with the same flag should be a no-op")
		}
		if doc.WithChecksum(nil) != doc {
			t.Error("WithChecksum(nil) on an untagged document should be a no-op")
		}
		if doc.WithAttributes(nil) != doc {
			t.Error("WithAttributes(nil) on a bare document should be a no-op")
		}
	})

	t.Run("changes copy and keep identity", func(t *testing.T) {
		latin1, err := charset.ForName("ISO-8859-1")
		if err != nil {
			t.Fatalf("ForName failed: %v", err)
		}
		moved := doc.WithSourcePath("renamed.txt")
		encoded := moved.WithCharset(latin1).WithBOM(true)
		attrs := &tree.FileAttributes{LastModifiedTime: time.Now(), Size: 7}
		full := encoded.WithAttributes(attrs)

		if full == doc {
			t.Fatal("expected new values along the chain")
		}
		if full.ID() != doc.ID() {
			t.Error("metadata updates must keep the id")
		}
		if full.SourcePath() != "renamed.txt" {
			t.Errorf("expected renamed.txt, got %q", full.SourcePath())
		}
		if full.Charset().Name() != "ISO-8859-1" || !full.HasBOM() {
			t.Errorf("expected ISO-8859-1 with bom, got %s bom=%v", full.Charset().Name(), full.HasBOM())
		}
		if !full.Attributes().Equal(attrs) {
			t.Error("attributes should be carried")
		}
		if doc.SourcePath() != "notes.txt" || doc.HasBOM() {
			t.Error("the original must be untouched")
		}
	})

	t.Run("checksum replacement and clearing", func(t *testing.T) {
		sum := tree.SHA256Checksum([]byte("content"))
		tagged := doc.WithChecksum(&sum)
		if tagged.Checksum() == nil || !tagged.Checksum().Equal(sum) {
			t.Fatal("checksum should be carried")
		}
		same := tree.SHA256Checksum([]byte("content"))
		if tagged.WithChecksum(&same) != tagged {
			t.Error("an equal digest should be a no-op even from another pointer")
		}
		cleared := tagged.WithChecksum(nil)
		if cleared == tagged || cleared.Checksum() != nil {
			t.Error("nil should clear the checksum on a new value")
		}
	})
}

func TestWeight(t *testing.T) {
	tests := []struct {
		length int
		want   int64
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{11, 1},
		{1000, 100},
	}
	for _, tt := range tests {
		content := make([]byte, tt.length)
		for i := range content {
			content[i] = 'x'
		}
		doc := New("w.txt", string(content))
		if got := doc.Weight(nil); got != tt.want {
			t.Errorf("Weight of %d bytes: expected %d, got %d", tt.length, tt.want, got)
		}
	}
}

func TestWithSnippets(t *testing.T) {
	doc := New("notes.txt", "body\n")

	t.Run("empty and nil are indistinguishable", func(t *testing.T) {
		fromNil := doc.WithSnippets(nil)
		fromEmpty := doc.WithSnippets([]Snippet{})
		if fromNil != doc || fromEmpty != doc {
			t.Error("clearing an already empty list should be a no-op")
		}
		if doc.Snippets() == nil || len(doc.Snippets()) != 0 {
			t.Error("Snippets must be empty but never nil")
		}
	})

	t.Run("emptying a populated list normalizes", func(t *testing.T) {
		populated := doc.WithSnippets([]Snippet{NewSnippet("extra")})
		viaNil := populated.WithSnippets(nil)
		viaEmpty := populated.WithSnippets([]Snippet{})
		if len(viaNil.Snippets()) != 0 || len(viaEmpty.Snippets()) != 0 {
			t.Error("both spellings should clear the list")
		}
		if viaNil.Snippets() == nil || viaEmpty.Snippets() == nil {
			t.Error("Snippets must stay non-nil after clearing")
		}
	})

	t.Run("same slice is a no-op, equal copy is not", func(t *testing.T) {
		list := []Snippet{NewSnippet("extra")}
		populated := doc.WithSnippets(list)
		if populated.WithSnippets(list) != populated {
			t.Error("the same slice should be a no-op")
		}
		clone := make([]Snippet, len(list))
		copy(clone, list)
		if populated.WithSnippets(clone) == populated {
			t.Error("a copied slice is a new list, not a no-op")
		}
	})

	t.Run("fragment order is preserved", func(t *testing.T) {
		first := NewSnippet("one")
		second := NewSnippet("two")
		populated := doc.WithSnippets([]Snippet{first, second})
		got := populated.Snippets()
		if len(got) != 2 || got[0].ID() != first.ID() || got[1].ID() != second.ID() {
			t.Errorf("expected [one two] order, got %d fragments", len(got))
		}
	})
}

func TestSnippetWiths(t *testing.T) {
	s := NewSnippet("fragment")

	t.Run("identity survives edits", func(t *testing.T) {
		edited := s.WithText("fragment two")
		if edited.ID() != s.ID() {
			t.Error("edit must not reassign the id")
		}
		if !tree.Same(s, edited) {
			t.Error("revisions of one fragment are the same element")
		}
	})

	t.Run("no-ops keep the value as is", func(t *testing.T) {
		same := s.WithText("fragment")
		if same.ID() != s.ID() || same.Text() != s.Text() {
			t.Error("equal content should leave the fragment unchanged")
		}
		m, err := tree.NewMarker("generated", nil)
		if err != nil {
			t.Fatalf("NewMarker failed: %v", err)
		}
		tagged := s.WithMarkers(s.Markers().WithMarker(m))
		retagged := tagged.WithMarkers(tagged.Markers())
		if &retagged.Markers().List[0] != &tagged.Markers().List[0] {
			t.Error("an equal bag should keep the same backing list")
		}
	})

	t.Run("marker changes copy", func(t *testing.T) {
		m, err := tree.NewMarker("generated", nil)
		if err != nil {
			t.Fatalf("NewMarker failed: %v", err)
		}
		tagged := s.WithMarkers(s.Markers().WithMarker(m))
		if tagged.Markers().Len() != 1 {
			t.Error("marker should be carried")
		}
		if s.Markers().Len() != 0 {
			t.Error("the original must be untouched")
		}
	})
}
