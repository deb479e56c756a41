package remote

import (
	"errors"
	"fmt"
)

// Errors returned by the connection and client.
var (
	// ErrShutdown indicates the connection has been closed.
	ErrShutdown = errors.New("remote connection shut down")

	// ErrNoMirror indicates an apply for a source that was never
	// pulled.
	ErrNoMirror = errors.New("source not mirrored")
)

// RPCError represents a JSON-RPC error from the peer.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// JSON-RPC error codes.
const (
	// JSON-RPC standard errors
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Protocol-specific errors
	CodeSourceNotFound = -32010
	CodeDesync         = -32011
)

// IsCode reports whether err carries an RPCError with the given code.
func IsCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}
