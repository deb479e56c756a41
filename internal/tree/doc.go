// Package tree defines the identity model shared by every element of a
// Treewright source tree.
//
// Tree elements are immutable values linked by a stable identity: an ID
// assigned when the element is first created and carried unchanged through
// every subsequent revision. Two elements are the "same" element exactly
// when their IDs match; content is free to differ between revisions. This
// is the property the delta protocol in internal/rpc relies on to pair
// before/after revisions and to diff keyed lists.
//
// # Identity vs. Structure
//
// The package deliberately separates the two notions of equality:
//
//   - Same(a, b) compares identity only. It answers "are these revisions
//     of one logical element?" and says nothing about content.
//   - The Equal methods on value objects (Markers, Checksum,
//     FileAttributes) compare structure field by field. They answer "did
//     anything change?" and drive delta suppression.
//
// Code that accidentally substitutes one for the other tends to either
// re-send unchanged state or silently drop edits, so consumers should be
// explicit about which question they are asking.
//
// # Value Objects
//
// Alongside the Tree and SourceFile interfaces the package carries the
// small value objects every source file exposes:
//
//   - Markers: an ordered bag of opaque metadata attachments with JSON
//     payloads, addressed by marker ID.
//   - Checksum: an algorithm-tagged digest of the file's raw input.
//   - FileAttributes: filesystem metadata captured at parse time.
//
// All of them are plain values; copying is cheap and none of them carry
// hidden mutability.
package tree
