// Package charset resolves IANA charset names to concrete encodings and
// converts raw source bytes to UTF-8 text.
//
// Treewright stores document content as UTF-8 internally and remembers
// the on-disk charset by canonical name only. This package is the single
// place where names meet encodings: ForName resolves a name against the
// IANA registry (via golang.org/x/text), DetectBOM recognizes byte-order
// marks at the head of a file, and Charset.Decode/Encode convert between
// the on-disk encoding and UTF-8.
//
// An unrecognized name is an error at the resolution boundary, reported
// as *UnsupportedError. Once a Charset value exists it is always usable;
// the rest of the system never deals in unresolved names.
package charset
