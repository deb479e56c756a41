package rpc

import "errors"

// Errors returned by delta encoding and decoding.
var (
	// ErrDesync indicates an event stream that does not line up with
	// the receiver's baseline. The decode pass is unusable and the
	// caller must re-baseline.
	ErrDesync = errors.New("protocol desync")
)
