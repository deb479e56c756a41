package text

import "errors"

// Errors returned by text node operations.
var (
	// ErrVisitorMismatch indicates a visitor that cannot traverse text
	// documents.
	ErrVisitorMismatch = errors.New("visitor cannot traverse text documents")

	// ErrNilDocument indicates a nil document where a value is required.
	ErrNilDocument = errors.New("nil document")
)
