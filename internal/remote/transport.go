package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Conn is a duplex JSON-RPC 2.0 connection with Content-Length
// framing. Either side may call, notify, and serve requests.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	mu       sync.Mutex
	nextID   atomic.Int64
	pending  map[int64]chan *Response
	requests map[string]RequestHandler
	notices  map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// RequestHandler serves one incoming request. A returned *RPCError
// reaches the peer as-is; any other error is wrapped as an internal
// error.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// NotificationHandler handles an incoming notification.
type NotificationHandler func(method string, params json.RawMessage)

// Request represents a JSON-RPC request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// incoming is used to parse requests and notifications from the peer.
type incoming struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewConn creates a connection over r and w. When c is non-nil it is
// closed with the connection.
func NewConn(r io.Reader, w io.Writer, c io.Closer) *Conn {
	return &Conn{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		closer:   c,
		pending:  make(map[int64]chan *Response),
		requests: make(map[string]RequestHandler),
		notices:  make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start begins reading messages from the connection.
func (c *Conn) Start(ctx context.Context) {
	go c.readLoop(ctx)
}

// Close closes the connection and releases resources.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	// Cancel all pending calls by clearing the map. The channels stay
	// open so handleResponse never races a close; waiting callers
	// return through c.done instead.
	c.mu.Lock()
	c.pending = make(map[int64]chan *Response)
	c.mu.Unlock()

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// IsClosed reports whether the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Done returns a channel that is closed when the connection shuts
// down, whether by Close or by the peer ending the stream.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Call sends a request and waits for the response.
func (c *Conn) Call(ctx context.Context, method string, params any, result any) error {
	if c.closed.Load() {
		return ErrShutdown
	}

	id := c.nextID.Add(1)
	ch := make(chan *Response, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	req := &Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
	if err := c.send(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrShutdown
	case resp, ok := <-ch:
		if !ok {
			return ErrShutdown
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// Notify sends a notification; no response is expected.
func (c *Conn) Notify(ctx context.Context, method string, params any) error {
	if c.closed.Load() {
		return ErrShutdown
	}

	req := &Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}
	return c.send(req)
}

// Handle registers a handler for incoming requests to method.
// Handlers run sequentially on the read loop.
func (c *Conn) Handle(method string, handler RequestHandler) {
	c.mu.Lock()
	c.requests[method] = handler
	c.mu.Unlock()
}

// OnNotification registers a handler for incoming notifications.
// The method "*" matches any notification without its own handler.
func (c *Conn) OnNotification(method string, handler NotificationHandler) {
	c.mu.Lock()
	c.notices[method] = handler
	c.mu.Unlock()
}

// send writes a message with a Content-Length header.
func (c *Conn) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readLoop reads messages from the connection. The connection is
// closed when the loop exits so Done observers see peer disconnects.
func (c *Conn) readLoop(ctx context.Context) {
	defer func() { _ = c.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		msg, err := c.readMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			continue
		}

		c.dispatch(ctx, msg)
	}
}

// readMessage reads a single framed message.
func (c *Conn) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
				if err == nil {
					contentLength = length
				}
			}
		}
		// Ignore Content-Type and other headers
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch routes one message. Requests carry an id and a method,
// responses an id and a result or error, notifications a method only.
func (c *Conn) dispatch(ctx context.Context, data json.RawMessage) {
	var probe struct {
		ID     *int64          `json:"id"`
		Method string          `json:"method"`
		Error  *RPCError       `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return
	}

	if probe.ID != nil && probe.Method != "" {
		var req incoming
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		c.handleRequest(ctx, &req)
		return
	}

	if probe.ID != nil && (probe.Result != nil || probe.Error != nil) {
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		c.handleResponse(&resp)
		return
	}

	if probe.Method != "" {
		var notif incoming
		if err := json.Unmarshal(data, &notif); err != nil {
			return
		}
		c.handleNotification(&notif)
	}
}

// handleRequest serves an incoming request and writes the response.
func (c *Conn) handleRequest(ctx context.Context, req *incoming) {
	c.mu.Lock()
	handler, ok := c.requests[req.Method]
	c.mu.Unlock()

	if !ok || handler == nil {
		c.respond(*req.ID, nil, &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		})
		return
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: CodeInternalError, Message: err.Error()}
		}
		c.respond(*req.ID, nil, rpcErr)
		return
	}
	c.respond(*req.ID, result, nil)
}

// respond writes a response for the request with the given id.
func (c *Conn) respond(id int64, result any, rpcErr *RPCError) {
	resp := &Response{JSONRPC: "2.0", ID: id, Error: rpcErr}
	if rpcErr == nil && result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			resp.Error = &RPCError{Code: CodeInternalError, Message: fmt.Sprintf("marshal result: %v", err)}
		} else {
			resp.Result = data
		}
	}
	_ = c.send(resp)
}

// handleResponse routes a response to its waiting caller.
func (c *Conn) handleResponse(resp *Response) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
			// Channel full, drop response
		}
	}
}

// handleNotification routes a notification to its handler.
func (c *Conn) handleNotification(notif *incoming) {
	c.mu.Lock()
	handler, ok := c.notices[notif.Method]
	if !ok {
		handler, ok = c.notices["*"]
	}
	c.mu.Unlock()

	if ok && handler != nil {
		// Run on its own goroutine so the read loop never blocks.
		go handler(notif.Method, notif.Params)
	}
}
