package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/treewright/internal/recipe"
	"github.com/dshills/treewright/internal/rpc"
	"github.com/dshills/treewright/internal/tree/text"
	"github.com/dshills/treewright/internal/workspace"
)

// Server serves the engine side of the sync protocol over one
// connection. Request ordering comes from the connection, which
// handles one request at a time, so baseline reads and advances never
// interleave.
type Server struct {
	conn     *Conn
	ws       *workspace.Workspace
	manifest *recipe.Manifest
	session  *Session
	stats    Stats
}

// Stats receives sync activity callbacks from the server.
// Implementations must be safe for concurrent use.
type Stats interface {
	// RecordPull is called after a successful source/get. full is true
	// when the document was encoded without a shared baseline.
	RecordPull(full bool, d time.Duration)

	// RecordApply is called after a successful source/apply.
	RecordApply(d time.Duration)

	// RecordDesync is called each time a request is refused with
	// CodeDesync.
	RecordDesync()
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithManifest supplies the recipe manifest served by recipe/list.
func WithManifest(m *recipe.Manifest) ServerOption {
	return func(s *Server) {
		s.manifest = m
	}
}

// WithStats registers a stats recorder for sync activity.
func WithStats(st Stats) ServerOption {
	return func(s *Server) {
		s.stats = st
	}
}

// NewServer creates a server over conn backed by ws and registers its
// handlers. The caller starts the connection.
func NewServer(conn *Conn, ws *workspace.Workspace, opts ...ServerOption) *Server {
	s := &Server{
		conn:    conn,
		ws:      ws,
		session: NewSession(),
	}
	for _, opt := range opts {
		opt(s)
	}

	conn.Handle(MethodSourceGet, s.handleSourceGet)
	conn.Handle(MethodSourceApply, s.handleSourceApply)
	conn.Handle(MethodSourcePrint, s.handleSourcePrint)
	conn.Handle(MethodWorkspaceSources, s.handleWorkspaceSources)
	conn.Handle(MethodRecipeList, s.handleRecipeList)
	return s
}

// Session exposes the per-connection baseline ledger.
func (s *Server) Session() *Session {
	return s.session
}

// NotifySourceChanged tells the host that path was re-parsed from
// disk. Hosts react by pulling the source again.
func (s *Server) NotifySourceChanged(ctx context.Context, path string) error {
	return s.conn.Notify(ctx, MethodSourceChanged, &SourceChangedParams{Path: path})
}

// handleSourceGet encodes the delta between the caller's baseline and
// the current document, then advances the session.
func (s *Server) handleSourceGet(_ context.Context, raw json.RawMessage) (any, error) {
	start := time.Now()

	var params SourceGetParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	doc, err := s.ws.Source(params.Path)
	if err != nil {
		if errors.Is(err, workspace.ErrUnknownSource) || errors.Is(err, workspace.ErrOutsideRoot) {
			s.session.Forget(params.Path)
			return nil, &RPCError{Code: CodeSourceNotFound, Message: err.Error()}
		}
		return nil, err
	}

	// A delta only makes sense when both sides agree on the baseline.
	before := s.session.Baseline(params.Path)
	if params.Baseline == nil || before == nil || before.ID() != *params.Baseline {
		before = nil
		s.session.Forget(params.Path)
	}

	q := rpc.NewSendQueue()
	if err := text.SendDocument(q, before, doc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", params.Path, err)
	}
	s.session.Advance(params.Path, doc)
	s.recordPull(before == nil, time.Since(start))

	return &SourceDelta{Path: params.Path, Events: q.Events()}, nil
}

// handleSourceApply decodes a host delta over the session baseline and
// stores the result. The session advances to the document the host
// sent; the checksum refresh reaches the host on its next pull.
func (s *Server) handleSourceApply(_ context.Context, raw json.RawMessage) (any, error) {
	start := time.Now()

	var delta SourceDelta
	if err := json.Unmarshal(raw, &delta); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	before := s.session.Baseline(delta.Path)
	if before == nil {
		s.recordDesync()
		return nil, &RPCError{
			Code:    CodeDesync,
			Message: fmt.Sprintf("no baseline for %s; pull before applying", delta.Path),
		}
	}

	q := rpc.NewReceiveQueue(delta.Events)
	doc, err := text.ReceiveDocument(q, before)
	if err != nil {
		if errors.Is(err, rpc.ErrDesync) {
			s.session.Forget(delta.Path)
			s.recordDesync()
			return nil, &RPCError{Code: CodeDesync, Message: err.Error()}
		}
		return nil, fmt.Errorf("decode %s: %w", delta.Path, err)
	}
	if rest := q.Remaining(); rest != 0 {
		s.session.Forget(delta.Path)
		s.recordDesync()
		return nil, &RPCError{
			Code:    CodeDesync,
			Message: fmt.Sprintf("%d trailing events after %s", rest, delta.Path),
		}
	}

	updated, err := s.ws.Update(delta.Path, doc)
	if err != nil {
		if errors.Is(err, workspace.ErrUnknownSource) {
			return nil, &RPCError{Code: CodeSourceNotFound, Message: err.Error()}
		}
		return nil, fmt.Errorf("store %s: %w", delta.Path, err)
	}
	s.session.Advance(delta.Path, doc)
	s.recordApply(time.Since(start))

	return &SourceApplyResult{Checksum: updated.Checksum().String()}, nil
}

// handleSourcePrint renders the current document.
func (s *Server) handleSourcePrint(_ context.Context, raw json.RawMessage) (any, error) {
	var params SourcePrintParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	doc, err := s.ws.Source(params.Path)
	if err != nil {
		if errors.Is(err, workspace.ErrUnknownSource) || errors.Is(err, workspace.ErrOutsideRoot) {
			return nil, &RPCError{Code: CodeSourceNotFound, Message: err.Error()}
		}
		return nil, err
	}
	return &SourcePrintResult{Text: doc.Print()}, nil
}

// handleWorkspaceSources lists the files under the workspace root.
func (s *Server) handleWorkspaceSources(_ context.Context, _ json.RawMessage) (any, error) {
	paths, err := s.ws.Discover()
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}
	return &WorkspaceSourcesResult{Paths: paths}, nil
}

// handleRecipeList serves the configured activations, or none when no
// manifest is loaded.
func (s *Server) handleRecipeList(_ context.Context, _ json.RawMessage) (any, error) {
	result := &RecipeListResult{Recipes: []recipe.Activation{}}
	if s.manifest != nil {
		result.Recipes = s.manifest.Recipes
	}
	return result, nil
}

func (s *Server) recordPull(full bool, d time.Duration) {
	if s.stats != nil {
		s.stats.RecordPull(full, d)
	}
}

func (s *Server) recordApply(d time.Duration) {
	if s.stats != nil {
		s.stats.RecordApply(d)
	}
}

func (s *Server) recordDesync() {
	if s.stats != nil {
		s.stats.RecordDesync()
	}
}
