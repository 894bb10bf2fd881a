package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// SpawnFunc runs a handler invocation somewhere other than the connection's
// own reader goroutine, so one slow handler cannot block dispatch of the
// next incoming message (§4.4 "Handler invocation"). The zero value (nil)
// makes connection spawn a plain goroutine per call, which is almost always
// the right choice outside of tests.
type SpawnFunc func(func())

// pendingCall is one outstanding outbound request: the method name used to
// place it and the channel its resolution is delivered on. The raw result is
// decoded by the typed call method that placed the request, not here.
type pendingCall struct {
	method string
	ch     chan pendingResult
}

type pendingResult struct {
	result json.RawMessage
	err    *RPCError
}

// requestHandler decodes params for `method`, invokes the registered
// business logic, and returns an encodable result or an *RPCError.
type requestHandler func(method string, params json.RawMessage) (any, *RPCError)

// notificationHandler decodes params for `method` and invokes the
// registered fire-and-forget business logic. Decode/handler failures are
// logged and dropped (§4.3 "never surfaced").
type notificationHandler func(method string, params json.RawMessage)

// connection is the shared bidirectional JSON-RPC engine described in §4.4.
// AgentSideConnection and ClientSideConnection each embed one, configured
// with their own served-method table and business-logic callbacks; the
// engine itself is session-agnostic and direction-agnostic.
type connection struct {
	reader *wireReader
	writer *wireWriter

	nextID atomic.Int32

	pendingMu sync.Mutex
	pending   map[int32]*pendingCall

	onRequest      requestHandler
	onNotification notificationHandler

	spawn SpawnFunc
	tap   Tap

	limiter *IncomingLimiter
	metrics *metricsCollector

	done    chan struct{}
	closeCh chan struct{}
	runOnce sync.Once
	mu      sync.Mutex // guards readErr
	readErr error
}

// newConnection builds the shared engine. onRequest/onNotification are
// supplied by the direction-specific wrapper (AgentSideConnection or
// ClientSideConnection) once it knows which interface (Agent or Client) it
// is dispatching into.
func newConnection(r io.Reader, w io.Writer, opts connOptions) *connection {
	c := &connection{
		writer:  newWireWriter(w),
		pending: make(map[int32]*pendingCall),
		spawn:   opts.spawn,
		tap:     opts.tap,
		limiter: opts.limiter,
		metrics: opts.metrics,
		done:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
	c.reader = newWireReader(r, opts.onParseError)
	if c.spawn == nil {
		c.spawn = func(f func()) { go f() }
	}
	if c.tap == nil {
		c.tap = noopTap{}
	}
	return c
}

// connOptions configures a connection; populated by the functional options
// in options.go.
type connOptions struct {
	spawn        SpawnFunc
	tap          Tap
	limiter      *IncomingLimiter
	metrics      *metricsCollector
	onParseError func([]byte, error)
}

// Run executes the driver loop until the incoming stream closes, then
// drains all pending outbound requests with ErrConnectionClosed (§4.4 "On
// exit, the engine drains pending_responses"). It must be called exactly
// once, typically via `go conn.Run()`.
func (c *connection) Run() {
	c.runOnce.Do(func() {
		for {
			env, ok := c.reader.next()
			if !ok {
				break
			}
			c.dispatch(env)
		}

		c.mu.Lock()
		c.readErr = c.reader.err()
		c.mu.Unlock()

		c.drainPending()
		close(c.done)
	})
}

// Done returns a channel closed once Run has drained all pending calls and
// returned.
func (c *connection) Done() <-chan struct{} { return c.done }

// Err returns the terminal read error, if any. Valid only after Done is
// closed.
func (c *connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// dispatch routes one incoming envelope per §4.3.
func (c *connection) dispatch(env *envelope) {
	c.tap.Incoming(env)

	switch {
	case env.isResponse():
		c.handleResponse(env)
	case env.isRequest():
		if c.limiter != nil && !c.limiter.Allow() {
			c.sendError(*env.ID, &RPCError{Code: ErrCodeInternal, Message: "rate limit exceeded"})
			return
		}
		c.handleRequestMsg(env)
	case env.isNotification():
		c.handleNotificationMsg(env)
	default:
		log.Printf("acp: received malformed envelope (no id, no method)")
	}
}

func (c *connection) handleResponse(env *envelope) {
	c.pendingMu.Lock()
	pc, ok := c.pending[*env.ID]
	if ok {
		delete(c.pending, *env.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		log.Printf("acp: response for unknown request id=%d", *env.ID)
		return
	}

	pc.ch <- pendingResult{result: env.Result, err: env.Error}
}

func (c *connection) handleRequestMsg(env *envelope) {
	id := *env.ID
	method := env.Method
	params := env.Params

	c.spawn(func() {
		if c.metrics != nil {
			c.metrics.observeRequest(method)
		}
		result, rpcErr := c.onRequest(method, params)
		if rpcErr != nil {
			if c.metrics != nil {
				c.metrics.observeError(method, rpcErr.Code)
			}
			c.sendError(id, rpcErr)
			return
		}
		c.sendResult(id, result)
	})
}

func (c *connection) handleNotificationMsg(env *envelope) {
	method := env.Method
	params := env.Params
	c.spawn(func() {
		c.onNotification(method, params)
	})
}

// sendRequest allocates an id, registers a pending slot, and writes the
// request line, then blocks for the raw result (§4.4 "Outbound request").
// The caller decodes that result into the method's result type.
func (c *connection) sendRequest(ctx context.Context, method string, params any) (json.RawMessage, *RPCError, error) {
	id := c.nextID.Add(1)

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, nil, fmt.Errorf("acp: marshal %s params: %w", method, err)
	}

	ch := make(chan pendingResult, 1)
	c.pendingMu.Lock()
	c.pending[id] = &pendingCall{method: method, ch: ch}
	c.pendingMu.Unlock()

	env := &envelope{JSONRPC: "2.0", ID: &id, Method: method, Params: paramsJSON}
	c.tap.Outgoing(env)
	if err := c.writer.write(env); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, nil, err
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return nil, nil, ErrConnectionClosed
		}
		return res.result, res.err, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, nil, ctx.Err()
	}
}

// sendNotification writes a notification line: no id, no response.
func (c *connection) sendNotification(method string, params any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("acp: marshal %s params: %w", method, err)
	}
	env := &envelope{JSONRPC: "2.0", Method: method, Params: paramsJSON}
	c.tap.Outgoing(env)
	return c.writer.write(env)
}

func (c *connection) sendResult(id int32, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("acp: marshal result for id=%d: %v", id, err)
		c.sendError(id, NewInternalError(err))
		return
	}
	env := &envelope{JSONRPC: "2.0", ID: &id, Result: data}
	c.tap.Outgoing(env)
	if err := c.writer.write(env); err != nil {
		log.Printf("acp: write result for id=%d: %v", id, err)
	}
}

func (c *connection) sendError(id int32, rpcErr *RPCError) {
	env := &envelope{JSONRPC: "2.0", ID: &id, Error: rpcErr}
	c.tap.Outgoing(env)
	if err := c.writer.write(env); err != nil {
		log.Printf("acp: write error for id=%d: %v", id, err)
	}
}

// drainPending resolves every outstanding outbound request with
// ErrConnectionClosed once the reader loop exits (§4.4, §5 "Dropping the
// handle does not cancel outstanding requests; they fail ... once the
// engine's driver exits").
func (c *connection) drainPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, pc := range c.pending {
		close(pc.ch)
		delete(c.pending, id)
	}
}
