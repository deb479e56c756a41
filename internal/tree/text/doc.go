// Package text implements the unstructured-text leaf of a Treewright
// source tree: the Document node, its ordered Snippet fragments, and the
// machinery that moves them between mirrored trees.
//
// # Immutability
//
// Documents are immutable. Every With operation either returns the
// receiver itself, when the new value equals the old one under that
// operation's contract, or a new Document carrying the same identity.
// Metadata updates (path, markers, charset, checksum, attributes) share
// content and the derived-view cache with their source; content updates
// (text, snippets) start a fresh cache. Values can therefore be shared
// freely across goroutines and retained as baselines indefinitely.
//
// # Derived View
//
// Index is an expensive secondary view of the content: line table,
// grapheme count, reference spans. Documents compute it on first use and
// hold it through a weak reference, so the collector may reclaim it
// under memory pressure and a later use recomputes an equal view. See
// Document.Index.
//
// # Synchronization
//
// SendDocument and ReceiveDocument are the two halves of the delta
// protocol for this node type. Both walk the same fixed field order:
//
//	id, markers, sourcePath, charset, bom, checksum, attributes,
//	text, snippets (per snippet: id, markers, text)
//
// A sender diffs (before, after) into an event stream; the receiver
// replays the stream over its own copy of before. Unchanged fields are
// shared structurally with the baseline, so an unchanged document
// decodes to the baseline pointer itself. A full encode (nil before)
// never emits Unchanged markers and therefore decodes the same over
// any baseline, which is what makes re-pulling after a
// desynchronization safe.
//
// # Parsing and Printing
//
// Parser builds Documents from raw bytes (byte-order mark detection,
// charset decoding, checksum and file attributes); Printer renders them
// back out. Neither understands any source language; content stays an
// opaque string.
package text
