// Package app provides the main application structure and coordination
// for the Treewright engine. It wires together configuration, logging,
// the workspace, recipes, and the sync server, and manages the
// application lifecycle.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/treewright/internal/config"
	"github.com/dshills/treewright/internal/recipe"
	"github.com/dshills/treewright/internal/remote"
	"github.com/dshills/treewright/internal/workspace"
)

// Application is the central coordinator for the engine. It owns the
// long-lived components and serves the sync protocol over one
// connection at a time.
type Application struct {
	// Core infrastructure
	config  *config.Config
	logger  *Logger
	logFile *os.File
	metrics *Metrics

	// Sync components
	ws       *workspace.Workspace
	manifest *recipe.Manifest
	watcher  *workspace.Watcher

	// State
	running      atomic.Bool
	done         chan struct{}
	shutdownOnce sync.Once

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty loads
	// defaults plus environment overrides.
	ConfigPath string

	// Workspace overrides the configured workspace root.
	Workspace string

	// LogLevel overrides the configured log level.
	LogLevel string

	// LogOutput overrides the log destination. When nil, logs go to
	// the configured log file or stderr.
	LogOutput io.Writer
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.Workspace != "" {
		cfg.Workspace = app.opts.Workspace
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg

	// 2. Logging
	logCfg := DefaultLoggerConfig()
	logCfg.Level = ParseLogLevel(cfg.Log.Level)
	switch {
	case app.opts.LogOutput != nil:
		logCfg.Output = app.opts.LogOutput
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &InitError{Component: "log file", Err: err}
		}
		app.logFile = f
		logCfg.Output = f
	}
	app.logger = NewLogger(logCfg)
	SetLogger(app.logger)

	// 3. Metrics
	app.metrics = NewMetrics()
	SetMetrics(app.metrics)

	// 4. Workspace
	ws, err := workspace.New(cfg.Workspace,
		workspace.WithWriteBack(cfg.WriteBack),
		workspace.WithIgnore(cfg.Ignore...),
	)
	if err != nil {
		return &InitError{Component: "workspace", Err: err}
	}
	app.ws = ws

	// 5. Recipe manifest
	if cfg.RecipePath != "" {
		manifest, err := recipe.Load(cfg.RecipePath)
		if err != nil {
			// A broken manifest disables recipes, not the engine.
			app.logger.Warn("recipe manifest: %v", err)
		} else {
			app.manifest = manifest
			app.logger.Debug("loaded %d recipe activations", len(manifest.Recipes))
		}
	}

	// 6. File watcher
	if cfg.Watch {
		w, err := workspace.NewWatcher(ws,
			workspace.WithDebounce(time.Duration(cfg.Sync.DebounceMS)*time.Millisecond),
			workspace.WithChangeBuffer(cfg.Sync.BatchSize),
		)
		if err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
		app.watcher = w
	}

	return nil
}

// Serve runs the sync protocol over r and w until the context is
// canceled, Shutdown is called, or the peer ends the stream. When c is
// non-nil it is closed with the connection.
func (app *Application) Serve(ctx context.Context, r io.Reader, w io.Writer, c io.Closer) error {
	select {
	case <-app.done:
		return ErrShutdown
	default:
	}

	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := remote.NewConn(r, w, c)
	serverOpts := []remote.ServerOption{remote.WithStats(app.metrics)}
	if app.manifest != nil {
		serverOpts = append(serverOpts, remote.WithManifest(app.manifest))
	}
	server := remote.NewServer(conn, app.ws, serverOpts...)
	conn.Start(ctx)

	var wg sync.WaitGroup
	if app.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.forwardChanges(ctx, server)
		}()
	}

	app.logger.Info("serving workspace %s", app.ws.Root())

	select {
	case <-ctx.Done():
	case <-app.done:
	case <-conn.Done():
	}

	_ = conn.Close()
	cancel()
	wg.Wait()

	app.logger.Info("connection closed")
	return nil
}

// forwardChanges relays watcher activity to the connected host and
// keeps the log and metrics current.
func (app *Application) forwardChanges(ctx context.Context, server *remote.Server) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-app.watcher.Changes():
			if !ok {
				return
			}
			app.metrics.RecordChange()
			app.logger.Debug("%s %s", change.Op, change.Path)
			if err := server.NotifySourceChanged(ctx, change.Path); err != nil {
				app.metrics.RecordNotifyFailure()
				app.logger.Warn("notify %s: %v", change.Path, err)
			}
		case err, ok := <-app.watcher.Errors():
			if !ok {
				return
			}
			app.metrics.RecordWatchError()
			app.logger.Warn("watch: %v", err)
		}
	}
}

// Shutdown stops serving and releases the watcher and log file. It is
// safe to call more than once.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.logger.Info("shutting down")
		close(app.done)

		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				app.logger.Warn("close watcher: %v", err)
			}
		}
		if app.logFile != nil {
			_ = app.logFile.Close()
		}
	})
}

// IsRunning returns true if the application is serving a connection.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	if app.logger == nil {
		return GetLogger()
	}
	return app.logger
}

// Workspace returns the source registry.
func (app *Application) Workspace() *workspace.Workspace {
	return app.ws
}

// Manifest returns the recipe manifest (may be nil).
func (app *Application) Manifest() *recipe.Manifest {
	return app.manifest
}

// Watcher returns the file watcher (may be nil when watching is
// disabled).
func (app *Application) Watcher() *workspace.Watcher {
	return app.watcher
}
