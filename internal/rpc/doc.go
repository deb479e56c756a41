// Package rpc implements the delta encoding that keeps mirrored source
// trees in sync without re-transmitting unchanged state.
//
// # Protocol Shape
//
// A sender and a receiver each hold a revision of the same element: the
// sender holds (before, after), the receiver holds before. One send pass
// walks the element's fields in a fixed order both sides agree on and
// emits one Event per field: an Unchanged marker when the field survived
// the edit, or a Change carrying the new value. The receiver walks the
// same order, keeping its baseline value for Unchanged fields and
// decoding new values for Change fields. The field order is the entire
// contract; there are no field names on the wire.
//
// # Keyed Lists
//
// Ordered child lists diff by element identity rather than position.
// SendList emits a header describing membership and order (removed ids
// first, then the new order with each id tagged add, unchanged, or
// changed), followed by the event streams of added and changed elements.
// Unchanged elements are referenced by id only and never re-encoded; the
// receiver takes them from its baseline by reference. A list that kept
// its membership, order, and contents collapses to a single Unchanged
// event.
//
// # Desynchronization
//
// The protocol has no resync path. An event stream that does not line
// up with the receiver's baseline (an unexpected state, a reference to
// an unknown id, a short stream) fails the decode pass with ErrDesync
// and the caller must re-baseline, typically by requesting a full
// encode. Nothing is patched up silently.
//
// Full encodes stand alone. Sent against a nil baseline, every field
// travels as a value or an explicit delete, never as an Unchanged
// marker, so a peer can decode one over whatever baseline it still
// holds.
//
// # Concurrency
//
// Queues are single-pass, single-goroutine values. Concurrency control
// lives with the caller: one send pass per channel at a time.
package rpc
