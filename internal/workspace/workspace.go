package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/treewright/internal/tree"
	"github.com/dshills/treewright/internal/tree/text"
)

// Workspace is a registry of parsed sources under a root directory.
// Paths are workspace-relative with forward slashes. The registry is
// safe for concurrent use.
type Workspace struct {
	root      string
	parser    *text.Parser
	writeBack bool
	ignore    *IgnoreSet

	mu   sync.RWMutex
	docs map[string]*text.Document
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithParser sets the parser used to load sources.
func WithParser(p *text.Parser) Option {
	return func(w *Workspace) {
		w.parser = p
	}
}

// WithWriteBack makes Update persist the printed bytes to disk.
func WithWriteBack(enabled bool) Option {
	return func(w *Workspace) {
		w.writeBack = enabled
	}
}

// WithIgnore appends exclusion patterns to the workspace ignore set.
// Patterns added here override the defaults and the workspace ignore
// file.
func WithIgnore(patterns ...string) Option {
	return func(w *Workspace) {
		w.ignore.AddAll(patterns)
	}
}

// New opens a workspace rooted at dir. Exclusion rules start from
// DefaultIgnorePatterns plus the root's ignore file when present.
func New(dir string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open workspace: %s is not a directory", abs)
	}

	w := &Workspace{
		root:   abs,
		parser: text.NewParser(),
		ignore: NewIgnoreSet(DefaultIgnorePatterns...),
		docs:   make(map[string]*text.Document),
	}
	if err := w.ignore.LoadFile(filepath.Join(abs, IgnoreFile)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", IgnoreFile, err)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Ignored reports whether a workspace-relative slash path is excluded
// from discovery and watching.
func (w *Workspace) Ignored(rel string, isDir bool) bool {
	return w.ignore.Ignored(rel, isDir)
}

// normalize validates a workspace-relative path and returns its
// canonical slash form plus the absolute on-disk path.
func (w *Workspace) normalize(path string) (rel, abs string, err error) {
	rel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))
	if rel == "" || rel == "." || filepath.IsAbs(rel) || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return rel, filepath.Join(w.root, filepath.FromSlash(rel)), nil
}

// Source returns the document for a workspace-relative path, parsing
// the file on first use.
func (w *Workspace) Source(path string) (*text.Document, error) {
	rel, abs, err := w.normalize(path)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	doc, ok := w.docs[rel]
	w.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err = w.parse(rel, abs)
	if err != nil {
		return nil, err
	}

	// Raced first loads keep whichever document was stored first.
	w.mu.Lock()
	defer w.mu.Unlock()
	if prior, ok := w.docs[rel]; ok {
		return prior, nil
	}
	w.docs[rel] = doc
	return doc, nil
}

// Refresh re-parses path from disk, replacing any cached document.
// The fresh document carries a new identity.
func (w *Workspace) Refresh(path string) (*text.Document, error) {
	rel, abs, err := w.normalize(path)
	if err != nil {
		return nil, err
	}
	doc, err := w.parse(rel, abs)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.docs[rel] = doc
	w.mu.Unlock()
	return doc, nil
}

// Update replaces the cached document for path after refreshing its
// checksum over the printed bytes. With write-back enabled the printed
// bytes are written to disk as well. The path must already be loaded.
func (w *Workspace) Update(path string, doc *text.Document) (*text.Document, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	rel, abs, err := w.normalize(path)
	if err != nil {
		return nil, err
	}

	if !w.Loaded(rel) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, rel)
	}

	printed, err := text.Printer{}.PrintBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("print %s: %w", rel, err)
	}
	sum := tree.SHA256Checksum(printed)
	doc = doc.WithChecksum(&sum)

	if w.writeBack {
		if err := os.WriteFile(abs, printed, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
	}

	w.mu.Lock()
	w.docs[rel] = doc
	w.mu.Unlock()
	return doc, nil
}

// Forget drops path from the registry. It reports whether a document
// was cached.
func (w *Workspace) Forget(path string) bool {
	rel, _, err := w.normalize(path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.docs[rel]
	delete(w.docs, rel)
	return ok
}

// Loaded reports whether path has a cached document.
func (w *Workspace) Loaded(path string) bool {
	rel, _, err := w.normalize(path)
	if err != nil {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.docs[rel]
	return ok
}

// Sources returns the loaded workspace-relative paths, sorted.
func (w *Workspace) Sources() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.docs))
	for rel := range w.docs {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

// Discover walks the workspace and returns the relative paths of all
// regular files, sorted. Hidden and ignored entries are skipped.
func (w *Workspace) Discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if p == w.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if w.ignore.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || w.ignore.Ignored(rel, false) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// parse reads and parses the file for rel at abs.
func (w *Workspace) parse(rel, abs string) (*text.Document, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, rel)
		}
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	doc, err := w.parser.ParseBytes(rel, data)
	if err != nil {
		return nil, err
	}
	return doc.WithAttributes(tree.AttributesFromFileInfo(info)), nil
}
