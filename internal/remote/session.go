package remote

import (
	"sync"

	"github.com/dshills/treewright/internal/tree/text"
)

// Session tracks the engine's per-path sync baselines for one
// connection: the last document each side agreed on. Documents are
// immutable, so a baseline is shared, never copied.
type Session struct {
	mu        sync.Mutex
	baselines map[string]*text.Document
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{baselines: make(map[string]*text.Document)}
}

// Baseline returns the baseline for path, or nil when the path has
// never synced.
func (s *Session) Baseline(path string) *text.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baselines[path]
}

// Advance records doc as the new baseline for path.
func (s *Session) Advance(path string, doc *text.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[path] = doc
}

// Forget drops the baseline for path. The next sync of the path is a
// full encode.
func (s *Session) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.baselines, path)
}

// Len returns the number of paths with a baseline.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.baselines)
}
