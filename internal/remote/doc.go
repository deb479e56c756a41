// Package remote carries documents between a host process and the
// engine as deltas over JSON-RPC 2.0 with Content-Length framing.
//
// # Protocol
//
// The engine serves five methods:
//
//   - source/get: delta for one source against the caller's baseline
//   - source/apply: host-produced delta applied to the engine's copy
//   - source/print: rendered document text
//   - workspace/sources: relative paths of files under the root
//   - recipe/list: configured recipe activations
//
// and emits one notification, source/changed, when a source is
// re-parsed from disk. Hosts react by pulling again.
//
// # Baselines
//
// Both sides keep a baseline per source path: the Session on the
// engine side, the Client's mirror on the host side. A sync pass
// encodes the difference between a baseline and the current document,
// and a successful exchange advances both, so syncing an unchanged
// document costs one Unchanged event per field. source/get carries
// the host's baseline identity; when it does not match the engine's
// session, the engine answers with a full encode, which decodes
// correctly over any mirror state. An apply against a lost or
// mismatched baseline fails with CodeDesync and the host recovers by
// pulling fresh.
//
// # Concurrency
//
// Conn serializes writes, and incoming requests are handled one at a
// time in arrival order, which keeps baseline advancement coherent
// without further locking in the server. Notification handlers run on
// their own goroutines. A request handler must not issue a Call on
// its own connection; the response could never be read.
package remote
