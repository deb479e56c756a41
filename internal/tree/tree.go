package tree

// Tree is implemented by every element of a source tree.
type Tree interface {
	// ID returns the element's stable identity.
	ID() ID
}

// Same reports whether a and b are revisions of the same logical element.
// It compares identity only; matching IDs say nothing about content. Two
// nil trees are the same, a nil and a non-nil tree are not.
func Same(a, b Tree) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// SourceFile is a tree element that is the root of a parsed source file.
type SourceFile interface {
	Tree

	// SourcePath returns the file's logical location within the
	// workspace namespace.
	SourcePath() string

	// Markers returns the metadata bag attached to the file.
	Markers() Markers

	// Checksum returns the digest of the file's raw input, or nil when
	// none was recorded.
	Checksum() *Checksum

	// Attributes returns the filesystem metadata captured at parse
	// time, or nil when none was recorded.
	Attributes() *FileAttributes

	// Weight estimates the element's in-memory footprint in abstract
	// units. The seen predicate reports whether a shared subtree was
	// already counted; node types without shared subtrees ignore it.
	Weight(seen func(any) bool) int64
}
