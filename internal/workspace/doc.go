// Package workspace holds the engine's view of the source files under
// a root directory.
//
// A Workspace is a registry keyed by workspace-relative slash paths.
// Source parses a file on first use and caches the resulting document;
// Update replaces a cached document after refreshing its checksum over
// the printed bytes, optionally writing those bytes back to disk.
// Documents are immutable, so readers never see partial updates.
//
// # Exclusions
//
// Discovery and watching skip hidden entries and anything matched by
// the workspace's IgnoreSet, which combines DefaultIgnorePatterns, the
// root's .treewrightignore file, and patterns supplied with
// WithIgnore. Exclusions never block an explicit Source request.
//
// # Watching
//
// Watcher layers fsnotify over a workspace. Raw file system events are
// debounced per path, hidden entries are skipped, and the registry is
// kept current before a change is delivered: a write to a loaded
// source re-parses it (the fresh document carries a new identity), a
// removal drops it. Consumers read coalesced changes from Changes()
// and surface Errors() however they see fit; watch errors are never
// fatal to the workspace itself.
//
// With both write-back and watching enabled, an Update's own disk
// write comes back around as a change event and re-parses the source.
// The content is identical but the identity is fresh; sync layers must
// tolerate identity turnover, which the delta protocol does.
package workspace
