package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/treewright/internal/config"
	"github.com/dshills/treewright/internal/remote"
	"github.com/dshills/treewright/internal/tree/text"
)

// newApp creates an application over a fresh workspace directory and
// registers shutdown.
func newApp(t *testing.T, opts Options) *Application {
	t.Helper()

	if opts.Workspace == "" {
		opts.Workspace = t.TempDir()
	}
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}

	app, err := New(opts)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app
}

// served holds the host side of a running Serve call.
type served struct {
	client *remote.Client
	conn   *remote.Conn
	errCh  chan error
}

// serveApp starts Serve over in-process pipes and connects a host
// client to it.
func serveApp(t *testing.T, app *Application) *served {
	t.Helper()

	engineReader, hostWriter := io.Pipe()
	hostReader, engineWriter := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Serve(ctx, engineReader, engineWriter, engineReader)
		close(errCh)
	}()

	host := remote.NewConn(hostReader, hostWriter, hostReader)
	host.Start(ctx)

	t.Cleanup(func() {
		cancel()
		_ = host.Close()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for !app.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("application did not start serving")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return &served{client: remote.NewClient(host), conn: host, errCh: errCh}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_Defaults(t *testing.T) {
	app := newApp(t, Options{})

	cfg := app.Config()
	if cfg == nil {
		t.Fatal("Config() returned nil")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, expected %q", cfg.Log.Level, "info")
	}
	if app.Workspace() == nil {
		t.Fatal("Workspace() returned nil")
	}
	if app.Watcher() == nil {
		t.Error("expected a watcher with default config")
	}
	if app.Manifest() != nil {
		t.Error("expected no manifest without recipe_path")
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.IsRunning() {
		t.Error("expected IsRunning() false before Serve")
	}
}

func TestNew_ConfigFile(t *testing.T) {
	cfgDir := t.TempDir()
	wsDir := t.TempDir()

	recipePath := filepath.Join(cfgDir, "recipes.yaml")
	writeFile(t, recipePath, "recipes:\n  - name: format/trailing-newline\n")

	cfgPath := filepath.Join(cfgDir, "treewright.toml")
	writeFile(t, cfgPath, fmt.Sprintf(`
recipe_path = %q
watch = false

[log]
level = "debug"
`, recipePath))

	app := newApp(t, Options{ConfigPath: cfgPath, Workspace: wsDir})

	if app.Config().Log.Level != "debug" {
		t.Errorf("Log.Level = %q, expected %q", app.Config().Log.Level, "debug")
	}
	if app.Watcher() != nil {
		t.Error("expected no watcher with watch = false")
	}
	manifest := app.Manifest()
	if manifest == nil {
		t.Fatal("expected a manifest")
	}
	names := manifest.Names()
	if len(names) != 1 || names[0] != "format/trailing-newline" {
		t.Errorf("Names() = %v", names)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Options{Workspace: t.TempDir(), LogLevel: "loud", LogOutput: io.Discard})

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("New error = %v, expected *InitError", err)
	}
	if initErr.Component != "config" {
		t.Errorf("Component = %q, expected %q", initErr.Component, "config")
	}
	var valErr *config.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("expected a wrapped *config.ValidationError, got %v", err)
	}
}

func TestNew_MissingWorkspace(t *testing.T) {
	_, err := New(Options{
		Workspace: filepath.Join(t.TempDir(), "missing"),
		LogOutput: io.Discard,
	})

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("New error = %v, expected *InitError", err)
	}
	if initErr.Component != "workspace" {
		t.Errorf("Component = %q, expected %q", initErr.Component, "workspace")
	}
}

func TestServe_SyncRoundTrip(t *testing.T) {
	wsDir := t.TempDir()
	writeFile(t, filepath.Join(wsDir, "a.txt"), "alpha\n")

	app := newApp(t, Options{Workspace: wsDir})
	s := serveApp(t, app)

	doc, err := s.client.Source(callCtx(t), "a.txt")
	if err != nil {
		t.Fatalf("Source error = %v", err)
	}
	if doc.Text() != "alpha\n" {
		t.Errorf("Text() = %q, expected %q", doc.Text(), "alpha\n")
	}

	if _, err := s.client.Apply(callCtx(t), "a.txt", func(d *text.Document) *text.Document {
		return d.WithText("beta\n")
	}); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	printed, err := s.client.Print(callCtx(t), "a.txt")
	if err != nil {
		t.Fatalf("Print error = %v", err)
	}
	if printed != "beta\n" {
		t.Errorf("Print = %q, expected %q", printed, "beta\n")
	}

	snapshot := app.Metrics().Snapshot()
	if snapshot.PullCount == 0 {
		t.Error("expected recorded pulls after Source")
	}
	if snapshot.FullPulls == 0 {
		t.Error("expected the first pull to be recorded as full")
	}
	if snapshot.ApplyCount != 1 {
		t.Errorf("ApplyCount = %d, expected 1", snapshot.ApplyCount)
	}
}

func TestServe_AlreadyRunning(t *testing.T) {
	app := newApp(t, Options{})
	serveApp(t, app)

	err := app.Serve(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, nil)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Serve error = %v, expected ErrAlreadyRunning", err)
	}
}

func TestServe_ShutdownReturns(t *testing.T) {
	app := newApp(t, Options{})
	s := serveApp(t, app)

	app.Shutdown()

	select {
	case err := <-s.errCh:
		if err != nil {
			t.Errorf("Serve error = %v, expected nil after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}

	if app.IsRunning() {
		t.Error("expected IsRunning() false after Shutdown")
	}
	err := app.Serve(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, nil)
	if !errors.Is(err, ErrShutdown) {
		t.Errorf("Serve after Shutdown error = %v, expected ErrShutdown", err)
	}
}

func TestServe_WatcherNotification(t *testing.T) {
	cfgDir := t.TempDir()
	wsDir := t.TempDir()
	writeFile(t, filepath.Join(wsDir, "a.txt"), "alpha\n")

	cfgPath := filepath.Join(cfgDir, "treewright.toml")
	writeFile(t, cfgPath, "[sync]\ndebounce_ms = 20\n")

	app := newApp(t, Options{ConfigPath: cfgPath, Workspace: wsDir})
	s := serveApp(t, app)

	changed := make(chan string, 4)
	s.client.OnSourceChanged(func(path string) {
		changed <- path
	})

	writeFile(t, filepath.Join(wsDir, "a.txt"), "beta\n")

	select {
	case path := <-changed:
		if path != "a.txt" {
			t.Errorf("changed path = %q, expected %q", path, "a.txt")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a source/changed notification")
	}

	doc, err := s.client.Source(callCtx(t), "a.txt")
	if err != nil {
		t.Fatalf("Source error = %v", err)
	}
	if doc.Text() != "beta\n" {
		t.Errorf("Text() = %q, expected %q", doc.Text(), "beta\n")
	}

	if app.Metrics().Snapshot().ChangeCount == 0 {
		t.Error("expected recorded watcher changes")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	app := newApp(t, Options{})

	app.Shutdown()
	app.Shutdown()

	if app.IsRunning() {
		t.Error("expected IsRunning() false after Shutdown")
	}
}
