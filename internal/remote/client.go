package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/treewright/internal/recipe"
	"github.com/dshills/treewright/internal/rpc"
	"github.com/dshills/treewright/internal/tree/text"
)

// Client is the host side of the sync protocol. It mirrors engine
// documents per path and exchanges deltas against those mirrors. One
// sync pass runs at a time; Source and Apply serialize.
type Client struct {
	conn *Conn

	mu      sync.Mutex
	mirrors map[string]*text.Document
}

// NewClient creates a client over conn. The caller starts the
// connection.
func NewClient(conn *Conn) *Client {
	return &Client{
		conn:    conn,
		mirrors: make(map[string]*text.Document),
	}
}

// Source pulls the engine's current document for path. Unchanged
// fields decode by reference to the mirror, so an unchanged document
// comes back as the mirror pointer itself.
func (c *Client) Source(ctx context.Context, path string) (*text.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.mirrors[path]
	params := &SourceGetParams{Path: path}
	if before != nil {
		id := before.ID()
		params.Baseline = &id
	}

	var delta SourceDelta
	if err := c.conn.Call(ctx, MethodSourceGet, params, &delta); err != nil {
		if IsCode(err, CodeSourceNotFound) {
			delete(c.mirrors, path)
		}
		return nil, err
	}

	q := rpc.NewReceiveQueue(delta.Events)
	doc, err := text.ReceiveDocument(q, before)
	if err != nil {
		// Drop the mirror; the next pull starts from nothing.
		delete(c.mirrors, path)
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rest := q.Remaining(); rest != 0 {
		delete(c.mirrors, path)
		return nil, fmt.Errorf("decode %s: %w: %d trailing events", path, rpc.ErrDesync, rest)
	}

	c.mirrors[path] = doc
	return doc, nil
}

// Apply runs edit over the mirrored document and pushes the resulting
// delta to the engine. On success the mirror advances to the edited
// document. The source must have been pulled first.
func (c *Client) Apply(ctx context.Context, path string, edit func(*text.Document) *text.Document) (*SourceApplyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, ok := c.mirrors[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMirror, path)
	}

	after := edit(before)
	q := rpc.NewSendQueue()
	if err := text.SendDocument(q, before, after); err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	var result SourceApplyResult
	if err := c.conn.Call(ctx, MethodSourceApply, &SourceDelta{Path: path, Events: q.Events()}, &result); err != nil {
		if IsCode(err, CodeDesync) || IsCode(err, CodeSourceNotFound) {
			delete(c.mirrors, path)
		}
		return nil, err
	}

	c.mirrors[path] = after
	return &result, nil
}

// Print fetches the engine's rendering of path.
func (c *Client) Print(ctx context.Context, path string) (string, error) {
	var result SourcePrintResult
	if err := c.conn.Call(ctx, MethodSourcePrint, &SourcePrintParams{Path: path}, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// Sources lists the files under the engine's workspace root.
func (c *Client) Sources(ctx context.Context) ([]string, error) {
	var result WorkspaceSourcesResult
	if err := c.conn.Call(ctx, MethodWorkspaceSources, struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Paths, nil
}

// Recipes lists the engine's configured recipe activations.
func (c *Client) Recipes(ctx context.Context) ([]recipe.Activation, error) {
	var result RecipeListResult
	if err := c.conn.Call(ctx, MethodRecipeList, struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Recipes, nil
}

// OnSourceChanged registers f for engine change notifications. Each
// notification runs f on its own goroutine.
func (c *Client) OnSourceChanged(f func(path string)) {
	c.conn.OnNotification(MethodSourceChanged, func(_ string, raw json.RawMessage) {
		var params SourceChangedParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return
		}
		f(params.Path)
	})
}

// Forget drops the local mirror for path. The next pull is a full
// fetch.
func (c *Client) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.mirrors, path)
}

// Mirror returns the mirrored document for path, or nil when the path
// has not been pulled.
func (c *Client) Mirror(path string) *text.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirrors[path]
}
