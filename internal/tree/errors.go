package tree

import "errors"

// Errors returned by tree value types.
var (
	// ErrChecksumFormat indicates a checksum string is not "<algorithm>:<hex>".
	ErrChecksumFormat = errors.New("malformed checksum")

	// ErrMarkerPayload indicates a marker payload could not be encoded as JSON.
	ErrMarkerPayload = errors.New("invalid marker payload")

	// ErrIDFormat indicates an identifier string is not a valid UUID.
	ErrIDFormat = errors.New("malformed id")
)
