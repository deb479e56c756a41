package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op represents the kind of change the watcher observed. Coalesced
// changes may carry several bits.
type Op uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// Has reports whether the operation includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// String returns a human-readable form such as "CREATE|WRITE".
func (op Op) String() string {
	if op == 0 {
		return "NONE"
	}
	parts := make([]string, 0, 4)
	if op.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	return strings.Join(parts, "|")
}

// Change is a debounced change to one path under the workspace root.
type Change struct {
	// Path is workspace-relative with forward slashes.
	Path string

	// Op is the coalesced set of operations observed.
	Op Op

	// Time is when the last underlying event arrived.
	Time time.Time
}

// Watcher emits debounced change events for files under a workspace
// root and keeps the registry current: a write to a loaded source
// re-parses it, a removal drops it.
type Watcher struct {
	ws      *Workspace
	fsw     *fsnotify.Watcher
	delay   time.Duration
	bufSize int

	mu      sync.Mutex
	pending map[string]*pendingChange
	changes chan Change
	errs    chan error
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// pendingChange tracks one debounced path.
type pendingChange struct {
	change Change
	timer  *time.Timer
	ops    Op
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the coalescing window for change events.
// Default: 100ms.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithChangeBuffer sets the capacity of the change and error channels.
// Default: 100.
func WithChangeBuffer(n int) WatcherOption {
	return func(w *Watcher) {
		w.bufSize = n
	}
}

// NewWatcher creates a watcher over ws and registers the root and
// every non-hidden subdirectory.
func NewWatcher(ws *Workspace, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		ws:      ws,
		fsw:     fsw,
		delay:   100 * time.Millisecond,
		bufSize: 100,
		pending: make(map[string]*pendingChange),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.delay <= 0 {
		w.delay = 100 * time.Millisecond
	}
	if w.bufSize <= 0 {
		w.bufSize = 100
	}
	w.changes = make(chan Change, w.bufSize)
	w.errs = make(chan error, w.bufSize)

	if err := w.watchTree(ws.Root()); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Changes returns the debounced change channel. It is closed when the
// watcher is closed.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of watch errors. Errors are advisory; the
// watcher keeps running after reporting one.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. Pending debounced changes are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for rel, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, rel)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.changes)
	close(w.errs)
	return err
}

// PendingCount returns the number of debounced changes not yet fired.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush fires all pending changes immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for rel, p := range w.pending {
		p.timer.Stop()
		paths = append(paths, rel)
	}
	w.mu.Unlock()

	for _, rel := range paths {
		w.fire(rel)
	}
}

// watchTree registers dir and every non-hidden, non-ignored
// subdirectory.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if rel, err := filepath.Rel(dir, p); err == nil && w.ws.Ignored(filepath.ToSlash(rel), true) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(p); err != nil {
			w.sendError(err)
		}
		return nil
	})
}

// processLoop drains the underlying fsnotify channels.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handleEvent converts one fsnotify event into a scheduled change.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		// Chmod carries no content change.
		return
	}

	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}

	rel, err := filepath.Rel(w.ws.Root(), ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}
	if w.ws.Ignored(rel, isDir) {
		return
	}

	// New directories join the watch instead of becoming changes.
	if op.Has(OpCreate) && isDir {
		if err := w.fsw.Add(ev.Name); err != nil {
			w.sendError(err)
		}
		return
	}

	w.schedule(rel, op)
}

// schedule coalesces the operation into the pending change for rel,
// resetting its debounce timer.
func (w *Watcher) schedule(rel string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if p, ok := w.pending[rel]; ok {
		p.ops |= op
		p.change.Op = p.ops
		p.change.Time = time.Now()
		p.timer.Reset(w.delay)
		return
	}

	p := &pendingChange{
		change: Change{Path: rel, Op: op, Time: time.Now()},
		ops:    op,
	}
	p.timer = time.AfterFunc(w.delay, func() {
		w.fire(rel)
	})
	w.pending[rel] = p
}

// fire delivers the pending change for rel after syncing the registry.
func (w *Watcher) fire(rel string) {
	w.mu.Lock()
	p, ok := w.pending[rel]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.pending, rel)
	change := p.change
	w.mu.Unlock()

	w.apply(change)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.changes <- change:
	default:
		// Channel full, drop the change.
	}
}

// apply keeps the registry in step with a change before delivery.
// Removals win over recreation; the next Source call reloads.
func (w *Watcher) apply(change Change) {
	switch {
	case change.Op.Has(OpRemove) || change.Op.Has(OpRename):
		w.ws.Forget(change.Path)
	case w.ws.Loaded(change.Path):
		if _, err := w.ws.Refresh(change.Path); err != nil {
			w.sendError(err)
		}
	}
}

// sendError reports a watch error without blocking.
func (w *Watcher) sendError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}

// convertOp maps fsnotify operations onto watcher operations.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
