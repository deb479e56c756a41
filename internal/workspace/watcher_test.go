package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newWatchedWorkspace builds a workspace over a temp dir with a short
// debounce window and registers cleanup.
func newWatchedWorkspace(t *testing.T) (*Workspace, *Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	ws, err := New(dir)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	w, err := NewWatcher(ws, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return ws, w, dir
}

// waitChange drains the change channel until a change for rel arrives
// or the timeout expires.
func waitChange(t *testing.T, w *Watcher, rel string, timeout time.Duration) (Change, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case change, ok := <-w.Changes():
			if !ok {
				return Change{}, false
			}
			if change.Path == rel {
				return change, true
			}
		case <-deadline:
			return Change{}, false
		}
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	ws, w, dir := newWatchedWorkspace(t)
	writeSource(t, dir, "a.txt", "alpha\n")

	if _, ok := waitChange(t, w, "a.txt", 2*time.Second); !ok {
		t.Fatal("timeout waiting for create change")
	}

	before, err := ws.Source("a.txt")
	if err != nil {
		t.Fatalf("Source error = %v", err)
	}

	writeSource(t, dir, "a.txt", "beta\n")
	change, ok := waitChange(t, w, "a.txt", 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for write change")
	}
	if !change.Op.Has(OpWrite) && !change.Op.Has(OpCreate) {
		t.Errorf("change op = %v, expected WRITE or CREATE", change.Op)
	}

	// Loaded sources are re-parsed before the change is delivered.
	after, err := ws.Source("a.txt")
	if err != nil {
		t.Fatalf("Source error = %v", err)
	}
	if after.Text() != "beta\n" {
		t.Errorf("refreshed text = %q, expected %q", after.Text(), "beta\n")
	}
	if after == before {
		t.Error("expected a fresh document after the write")
	}
}

func TestWatcherRemoveForgets(t *testing.T) {
	ws, w, dir := newWatchedWorkspace(t)
	writeSource(t, dir, "a.txt", "alpha\n")
	if _, ok := waitChange(t, w, "a.txt", 2*time.Second); !ok {
		t.Fatal("timeout waiting for create change")
	}
	if _, err := ws.Source("a.txt"); err != nil {
		t.Fatalf("Source error = %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	change, ok := waitChange(t, w, "a.txt", 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for remove change")
	}
	if !change.Op.Has(OpRemove) && !change.Op.Has(OpRename) {
		t.Errorf("change op = %v, expected REMOVE or RENAME", change.Op)
	}
	if ws.Loaded("a.txt") {
		t.Error("expected the removed source to be forgotten")
	}
}

func TestWatcherSubdirectory(t *testing.T) {
	ws, w, dir := newWatchedWorkspace(t)

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir error = %v", err)
	}
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(200 * time.Millisecond)

	writeSource(t, dir, "sub/c.txt", "gamma\n")
	if _, ok := waitChange(t, w, "sub/c.txt", 2*time.Second); !ok {
		t.Fatal("timeout waiting for change in new subdirectory")
	}
	if ws.Loaded("sub/c.txt") {
		t.Error("unloaded sources should not be parsed eagerly")
	}
}

func TestWatcherIgnoresHidden(t *testing.T) {
	_, w, dir := newWatchedWorkspace(t)
	writeSource(t, dir, ".hidden.txt", "x")

	if change, ok := waitChange(t, w, ".hidden.txt", 300*time.Millisecond); ok {
		t.Errorf("unexpected change for hidden file: %+v", change)
	}
}

func TestWatcherIgnoresExcluded(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir, WithIgnore("*.gen.txt"))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	w, err := NewWatcher(ws, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	writeSource(t, dir, "b.gen.txt", "x")
	writeSource(t, dir, "tmp/scratch.txt", "x")
	writeSource(t, dir, "a.txt", "x")

	// The unexcluded write arrives; the excluded ones never do.
	if _, ok := waitChange(t, w, "a.txt", 2*time.Second); !ok {
		t.Fatal("timeout waiting for unexcluded change")
	}
	if change, ok := waitChange(t, w, "b.gen.txt", 300*time.Millisecond); ok {
		t.Errorf("unexpected change for excluded file: %+v", change)
	}
	if change, ok := waitChange(t, w, "tmp/scratch.txt", 300*time.Millisecond); ok {
		t.Errorf("unexpected change for excluded directory: %+v", change)
	}
}

func TestWatcherFlush(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	w, err := NewWatcher(ws, WithDebounce(10*time.Second))
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	writeSource(t, dir, "slow.txt", "x")

	deadline := time.Now().Add(2 * time.Second)
	for w.PendingCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for a pending change")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Flush()
	if _, ok := waitChange(t, w, "slow.txt", 500*time.Millisecond); !ok {
		t.Fatal("expected a change immediately after Flush")
	}
}

func TestWatcherClose(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	w, err := NewWatcher(ws)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close again error = %v", err)
	}

	if _, ok := <-w.Changes(); ok {
		t.Error("expected the change channel to be closed")
	}
	if _, ok := <-w.Errors(); ok {
		t.Error("expected the error channel to be closed")
	}
}
