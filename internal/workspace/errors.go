package workspace

import "errors"

// Errors returned by workspace operations.
var (
	// ErrUnknownSource indicates the path names no file under the root
	// and no cached document.
	ErrUnknownSource = errors.New("unknown source")

	// ErrOutsideRoot indicates a path that escapes the workspace root.
	ErrOutsideRoot = errors.New("path outside workspace root")

	// ErrNilDocument indicates an update with no document.
	ErrNilDocument = errors.New("nil document")
)
