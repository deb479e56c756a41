package workspace

import (
	"bufio"
	"os"
	"path"
	"strings"
	"sync"
)

// IgnoreFile is the workspace-local exclusion file loaded by New when
// present at the root.
const IgnoreFile = ".treewrightignore"

// IgnoreSet holds gitignore-style exclusion rules applied to
// workspace-relative paths during discovery and watching. Rules are
// evaluated in order; later rules override earlier ones, and a rule
// starting with "!" re-includes what an earlier rule excluded.
//
// Supported forms:
//
//	*.log           names matching a glob, at any depth
//	build/          a directory and everything under it
//	/docs           only at the workspace root
//	**/testdata/**  a component appearing anywhere
//
// Explicit Source requests are never filtered; exclusion shapes what
// Discover lists and what the watcher reports.
type IgnoreSet struct {
	mu    sync.RWMutex
	rules []ignoreRule
}

// ignoreRule is one parsed pattern.
type ignoreRule struct {
	original string
	glob     string
	negated  bool
	dirOnly  bool
	rooted   bool
}

// NewIgnoreSet creates an ignore set from the given patterns. Empty
// lines and "#" comments are skipped.
func NewIgnoreSet(patterns ...string) *IgnoreSet {
	s := &IgnoreSet{}
	s.AddAll(patterns)
	return s
}

// Add parses one pattern into the set.
func (s *IgnoreSet) Add(pattern string) {
	pattern = strings.TrimRight(pattern, " \t")
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	r := ignoreRule{original: pattern}
	if strings.HasPrefix(pattern, "!") {
		r.negated = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.rooted = true
		pattern = pattern[1:]
	}
	r.glob = pattern
	if r.glob == "" {
		return
	}

	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
}

// AddAll parses each pattern into the set.
func (s *IgnoreSet) AddAll(patterns []string) {
	for _, p := range patterns {
		s.Add(p)
	}
}

// LoadFile appends the patterns in path, one per line.
func (s *IgnoreSet) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s.Add(scanner.Text())
	}
	return scanner.Err()
}

// Ignored reports whether the workspace-relative slash path rel is
// excluded. A path inside an excluded directory is excluded with it.
func (s *IgnoreSet) Ignored(rel string, isDir bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ignored := false
	for _, r := range s.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

// Len returns the number of rules.
func (s *IgnoreSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Patterns returns the original pattern strings in order.
func (s *IgnoreSet) Patterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.original
	}
	return out
}

// matches reports whether the rule excludes rel or one of its
// ancestor directories.
func (r ignoreRule) matches(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if r.matchPath(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return r.matchPath(rel, isDir)
}

// matchPath tests the rule against one exact path.
func (r ignoreRule) matchPath(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if strings.Contains(r.glob, "**") {
		return r.matchRecursive(rel)
	}
	if r.rooted {
		return globMatch(r.glob, rel)
	}
	if !strings.Contains(r.glob, "/") {
		// A bare name matches any single component.
		for _, part := range strings.Split(rel, "/") {
			if globMatch(r.glob, part) {
				return true
			}
		}
		return false
	}

	// Unrooted patterns with a separator match at any depth.
	parts := strings.Split(rel, "/")
	for i := range parts {
		if globMatch(r.glob, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

// matchRecursive handles the ** forms.
func (r ignoreRule) matchRecursive(rel string) bool {
	glob := r.glob
	parts := strings.Split(rel, "/")

	// **/name/** excludes any path containing a matching component.
	if strings.HasPrefix(glob, "**/") && strings.HasSuffix(glob, "/**") {
		middle := strings.TrimSuffix(strings.TrimPrefix(glob, "**/"), "/**")
		for _, part := range parts {
			if globMatch(middle, part) {
				return true
			}
		}
		return false
	}

	// name/** excludes everything under a matching prefix.
	if strings.HasSuffix(glob, "/**") {
		prefix := strings.TrimSuffix(glob, "/**")
		for i := 1; i < len(parts); i++ {
			if globMatch(prefix, strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}

	// **/name matches a suffix at any component boundary.
	if strings.HasPrefix(glob, "**/") {
		suffix := strings.TrimPrefix(glob, "**/")
		for i := range parts {
			if globMatch(suffix, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	// head/**/tail bridges a fixed prefix and suffix.
	head, tail, found := strings.Cut(glob, "/**/")
	if !found {
		return globMatch(glob, rel)
	}
	hp := strings.Split(head, "/")
	tp := strings.Split(tail, "/")
	if len(parts) < len(hp)+len(tp) {
		return false
	}
	for i, seg := range hp {
		if !globMatch(seg, parts[i]) {
			return false
		}
	}
	for i, seg := range tp {
		if !globMatch(seg, parts[len(parts)-len(tp)+i]) {
			return false
		}
	}
	return true
}

// globMatch matches one glob against a slash path or component.
// Invalid patterns match nothing.
func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}

// DefaultIgnorePatterns are exclusions applied to every workspace.
// Hidden entries are skipped before these are consulted.
var DefaultIgnorePatterns = []string{
	// Dependencies
	"node_modules/",
	"vendor/",
	"__pycache__/",

	// Build outputs
	"dist/",
	"build/",
	"out/",
	"target/",

	// Editor droppings
	"*.swp",
	"*.swo",
	"*~",

	// OS
	"Thumbs.db",

	// Temp
	"tmp/",
}
