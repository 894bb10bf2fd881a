package acp

import (
	"context"
	"encoding/json"
	"io"
)

// ClientSideConnection is the client's (editor's) handle on a single peer
// connection. It serves the client-side method table against the supplied
// Client and exposes the agent-side method table for the client to call out
// with (§4.2, §4.4).
type ClientSideConnection struct {
	conn   *connection
	client Client
	ext    ExtensionHandler
}

// NewClientSideConnection wires client to a peer reachable via r/w
// (typically the spawned agent subprocess's stdout/stdin) and returns
// immediately; call Run (usually in its own goroutine) to start
// processing.
func NewClientSideConnection(client Client, w io.Writer, r io.Reader, opts ...Option) *ClientSideConnection {
	c := &ClientSideConnection{client: client}
	if ext, ok := client.(ExtensionHandler); ok {
		c.ext = ext
	}
	o := buildOptions(opts)
	c.conn = newConnection(r, w, o)
	c.conn.onRequest = c.dispatchRequest
	c.conn.onNotification = c.dispatchNotification
	return c
}

// Run drives the connection until the peer stream closes. See
// connection.Run.
func (c *ClientSideConnection) Run() { c.conn.Run() }

// Done reports when Run has returned.
func (c *ClientSideConnection) Done() <-chan struct{} { return c.conn.Done() }

// Err returns the terminal read error, valid once Done is closed.
func (c *ClientSideConnection) Err() error { return c.conn.Err() }

func (c *ClientSideConnection) dispatchRequest(method string, raw json.RawMessage) (any, *RPCError) {
	if entry, ok := clientServedCatalog[method]; ok && entry.isNotify {
		return nil, NewInvalidRequestError(method + " is a notification, not a request")
	}
	ctx := context.Background()
	switch method {
	case MethodRequestPermission:
		params, rpcErr := decodeParams[RequestPermissionParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := c.client.RequestPermission(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodFSReadTextFile:
		params, rpcErr := decodeParams[FSReadTextFileParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := c.client.ReadTextFile(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodFSWriteTextFile:
		params, rpcErr := decodeParams[FSWriteTextFileParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := c.client.WriteTextFile(ctx, params); err != nil {
			return nil, NewInternalError(err)
		}
		return struct{}{}, nil
	case MethodTerminalCreate:
		params, rpcErr := decodeParams[TerminalCreateParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := c.client.CreateTerminal(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodTerminalOutput:
		params, rpcErr := decodeParams[TerminalOutputParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := c.client.TerminalOutput(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodTerminalWait:
		params, rpcErr := decodeParams[TerminalWaitParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := c.client.WaitForTerminalExit(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodTerminalKill:
		params, rpcErr := decodeParams[TerminalKillParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := c.client.KillTerminal(ctx, params); err != nil {
			return nil, NewInternalError(err)
		}
		return struct{}{}, nil
	case MethodTerminalRelease:
		params, rpcErr := decodeParams[TerminalReleaseParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := c.client.ReleaseTerminal(ctx, params); err != nil {
			return nil, NewInternalError(err)
		}
		return struct{}{}, nil
	case MethodExtensionMethod:
		return c.dispatchExtensionMethod(ctx, raw)
	default:
		return nil, NewMethodNotFoundError(method)
	}
}

func (c *ClientSideConnection) dispatchExtensionMethod(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	params, rpcErr := decodeParams[ExtensionMethodParams](raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if c.ext == nil {
		return nil, NewMethodNotFoundError(params.Method)
	}
	result, err := c.ext.ExtensionMethod(ctx, params.Method, params.Params)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return result, nil
}

func (c *ClientSideConnection) dispatchNotification(method string, raw json.RawMessage) {
	if entry, ok := clientServedCatalog[method]; ok && !entry.isNotify {
		return
	}
	ctx := context.Background()
	switch method {
	case MethodSessionUpdate:
		params, rpcErr := decodeParams[SessionUpdateParams](raw)
		if rpcErr != nil {
			return
		}
		c.client.SessionUpdate(ctx, params)
	case MethodExtensionNotification:
		params, rpcErr := decodeParams[ExtensionNotificationParams](raw)
		if rpcErr != nil || c.ext == nil {
			return
		}
		c.ext.ExtensionNotification(ctx, params.Method, params.Params)
	}
}

// Initialize negotiates protocol version and capabilities with the agent.
func (c *ClientSideConnection) Initialize(ctx context.Context, params InitializeParams) (InitializeResult, error) {
	raw, rpcErr, err := c.conn.sendRequest(ctx, MethodInitialize, params)
	if err != nil {
		return InitializeResult{}, err
	}
	if rpcErr != nil {
		return InitializeResult{}, rpcErr
	}
	return decodeResult[InitializeResult](raw)
}

// Authenticate completes an auth method the agent advertised.
func (c *ClientSideConnection) Authenticate(ctx context.Context, params AuthenticateParams) error {
	_, rpcErr, err := c.conn.sendRequest(ctx, MethodAuthenticate, params)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return rpcErr
	}
	return nil
}

// NewSession asks the agent to create a new session.
func (c *ClientSideConnection) NewSession(ctx context.Context, params SessionNewParams) (SessionNewResult, error) {
	raw, rpcErr, err := c.conn.sendRequest(ctx, MethodSessionNew, params)
	if err != nil {
		return SessionNewResult{}, err
	}
	if rpcErr != nil {
		return SessionNewResult{}, rpcErr
	}
	return decodeResult[SessionNewResult](raw)
}

// LoadSession asks the agent to resume a previously created session.
func (c *ClientSideConnection) LoadSession(ctx context.Context, params SessionLoadParams) (SessionLoadResult, error) {
	raw, rpcErr, err := c.conn.sendRequest(ctx, MethodSessionLoad, params)
	if err != nil {
		return SessionLoadResult{}, err
	}
	if rpcErr != nil {
		return SessionLoadResult{}, rpcErr
	}
	return decodeResult[SessionLoadResult](raw)
}

// Prompt sends a user turn to the agent and blocks for its stop reason.
// Streamed updates arrive separately via the Client's SessionUpdate method.
func (c *ClientSideConnection) Prompt(ctx context.Context, params SessionPromptParams) (SessionPromptResult, error) {
	raw, rpcErr, err := c.conn.sendRequest(ctx, MethodSessionPrompt, params)
	if err != nil {
		return SessionPromptResult{}, err
	}
	if rpcErr != nil {
		return SessionPromptResult{}, rpcErr
	}
	return decodeResult[SessionPromptResult](raw)
}

// SetMode asks the agent to switch a session's operating mode.
func (c *ClientSideConnection) SetMode(ctx context.Context, params SessionSetModeParams) error {
	_, rpcErr, err := c.conn.sendRequest(ctx, MethodSessionSetMode, params)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return rpcErr
	}
	return nil
}

// Cancel sends a session/cancel notification asking the agent to stop the
// in-flight turn for params.SessionID.
func (c *ClientSideConnection) Cancel(params SessionCancelParams) error {
	return c.conn.sendNotification(MethodSessionCancel, params)
}

// ExtensionMethod calls a caller-defined "_method" on the agent.
func (c *ClientSideConnection) ExtensionMethod(ctx context.Context, method string, params RawJSON) (RawJSON, error) {
	raw, rpcErr, err := c.conn.sendRequest(ctx, MethodExtensionMethod, ExtensionMethodParams{Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if rpcErr != nil {
		return nil, rpcErr
	}
	return raw, nil
}

// ExtensionNotification sends a caller-defined "_notification" to the agent.
func (c *ClientSideConnection) ExtensionNotification(method string, params RawJSON) error {
	return c.conn.sendNotification(MethodExtensionNotification, ExtensionNotificationParams{Method: method, Params: params})
}
