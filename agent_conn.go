package acp

import (
	"context"
	"encoding/json"
	"io"
)

// AgentSideConnection is the agent's handle on a single peer connection. It
// serves the agent-side method table against the supplied Agent and exposes
// the client-side method table for the agent to call out with (§4.2, §4.4).
type AgentSideConnection struct {
	conn  *connection
	agent Agent
	ext   ExtensionHandler
}

// NewAgentSideConnection wires agent to a peer reachable via r/w (typically
// the client's stdout/stdin) and returns immediately; call Run (usually in
// its own goroutine) to start processing.
func NewAgentSideConnection(agent Agent, w io.Writer, r io.Reader, opts ...Option) *AgentSideConnection {
	a := &AgentSideConnection{agent: agent}
	if ext, ok := agent.(ExtensionHandler); ok {
		a.ext = ext
	}
	o := buildOptions(opts)
	a.conn = newConnection(r, w, o)
	a.conn.onRequest = a.dispatchRequest
	a.conn.onNotification = a.dispatchNotification
	return a
}

// Run drives the connection until the peer stream closes. See
// connection.Run.
func (a *AgentSideConnection) Run() { a.conn.Run() }

// Done reports when Run has returned.
func (a *AgentSideConnection) Done() <-chan struct{} { return a.conn.Done() }

// Err returns the terminal read error, valid once Done is closed.
func (a *AgentSideConnection) Err() error { return a.conn.Err() }

func (a *AgentSideConnection) dispatchRequest(method string, raw json.RawMessage) (any, *RPCError) {
	if entry, ok := agentServedCatalog[method]; ok && entry.isNotify {
		return nil, NewInvalidRequestError(method + " is a notification, not a request")
	}
	ctx := context.Background()
	switch method {
	case MethodInitialize:
		params, rpcErr := decodeParams[InitializeParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := a.agent.Initialize(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodAuthenticate:
		params, rpcErr := decodeParams[AuthenticateParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := a.agent.Authenticate(ctx, params); err != nil {
			return nil, NewInternalError(err)
		}
		return struct{}{}, nil
	case MethodSessionNew:
		params, rpcErr := decodeParams[SessionNewParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := a.agent.NewSession(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodSessionLoad:
		params, rpcErr := decodeParams[SessionLoadParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := a.agent.LoadSession(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodSessionPrompt:
		params, rpcErr := decodeParams[SessionPromptParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		result, err := a.agent.Prompt(ctx, params)
		if err != nil {
			return nil, NewInternalError(err)
		}
		return result, nil
	case MethodSessionSetMode:
		params, rpcErr := decodeParams[SessionSetModeParams](raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if err := a.agent.SetMode(ctx, params); err != nil {
			return nil, NewInternalError(err)
		}
		return struct{}{}, nil
	case MethodExtensionMethod:
		return a.dispatchExtensionMethod(ctx, raw)
	default:
		return nil, NewMethodNotFoundError(method)
	}
}

func (a *AgentSideConnection) dispatchExtensionMethod(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	params, rpcErr := decodeParams[ExtensionMethodParams](raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if a.ext == nil {
		return nil, NewMethodNotFoundError(params.Method)
	}
	result, err := a.ext.ExtensionMethod(ctx, params.Method, params.Params)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return result, nil
}

func (a *AgentSideConnection) dispatchNotification(method string, raw json.RawMessage) {
	if entry, ok := agentServedCatalog[method]; ok && !entry.isNotify {
		return
	}
	ctx := context.Background()
	switch method {
	case MethodSessionCancel:
		params, rpcErr := decodeParams[SessionCancelParams](raw)
		if rpcErr != nil {
			return
		}
		a.agent.Cancel(ctx, params)
	case MethodExtensionNotification:
		params, rpcErr := decodeParams[ExtensionNotificationParams](raw)
		if rpcErr != nil || a.ext == nil {
			return
		}
		a.ext.ExtensionNotification(ctx, params.Method, params.Params)
	}
}

// SessionUpdate sends a session/update notification to the client.
func (a *AgentSideConnection) SessionUpdate(params SessionUpdateParams) error {
	return a.conn.sendNotification(MethodSessionUpdate, params)
}

// RequestPermission asks the client to approve or deny a tool call.
func (a *AgentSideConnection) RequestPermission(ctx context.Context, params RequestPermissionParams) (RequestPermissionResult, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodRequestPermission, params)
	if err != nil {
		return RequestPermissionResult{}, err
	}
	if rpcErr != nil {
		return RequestPermissionResult{}, rpcErr
	}
	return decodeResult[RequestPermissionResult](raw)
}

// ReadTextFile asks the client to read a text file from the editor's view
// of the workspace.
func (a *AgentSideConnection) ReadTextFile(ctx context.Context, params FSReadTextFileParams) (FSReadTextFileResult, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodFSReadTextFile, params)
	if err != nil {
		return FSReadTextFileResult{}, err
	}
	if rpcErr != nil {
		return FSReadTextFileResult{}, rpcErr
	}
	return decodeResult[FSReadTextFileResult](raw)
}

// WriteTextFile asks the client to write a text file.
func (a *AgentSideConnection) WriteTextFile(ctx context.Context, params FSWriteTextFileParams) error {
	_, rpcErr, err := a.conn.sendRequest(ctx, MethodFSWriteTextFile, params)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return rpcErr
	}
	return nil
}

// CreateTerminal asks the client to spawn a terminal subprocess.
func (a *AgentSideConnection) CreateTerminal(ctx context.Context, params TerminalCreateParams) (TerminalCreateResult, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodTerminalCreate, params)
	if err != nil {
		return TerminalCreateResult{}, err
	}
	if rpcErr != nil {
		return TerminalCreateResult{}, rpcErr
	}
	return decodeResult[TerminalCreateResult](raw)
}

// TerminalOutput fetches a terminal's accumulated output so far.
func (a *AgentSideConnection) TerminalOutput(ctx context.Context, params TerminalOutputParams) (TerminalOutputResult, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodTerminalOutput, params)
	if err != nil {
		return TerminalOutputResult{}, err
	}
	if rpcErr != nil {
		return TerminalOutputResult{}, rpcErr
	}
	return decodeResult[TerminalOutputResult](raw)
}

// WaitForTerminalExit blocks until the client reports the terminal exited.
func (a *AgentSideConnection) WaitForTerminalExit(ctx context.Context, params TerminalWaitParams) (TerminalWaitResult, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodTerminalWait, params)
	if err != nil {
		return TerminalWaitResult{}, err
	}
	if rpcErr != nil {
		return TerminalWaitResult{}, rpcErr
	}
	return decodeResult[TerminalWaitResult](raw)
}

// KillTerminal asks the client to terminate a terminal's process.
func (a *AgentSideConnection) KillTerminal(ctx context.Context, params TerminalKillParams) error {
	_, rpcErr, err := a.conn.sendRequest(ctx, MethodTerminalKill, params)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return rpcErr
	}
	return nil
}

// ReleaseTerminal tells the client the agent is done with a terminal.
func (a *AgentSideConnection) ReleaseTerminal(ctx context.Context, params TerminalReleaseParams) error {
	_, rpcErr, err := a.conn.sendRequest(ctx, MethodTerminalRelease, params)
	if err != nil {
		return err
	}
	if rpcErr != nil {
		return rpcErr
	}
	return nil
}

// ExtensionMethod calls a caller-defined "_method" on the client.
func (a *AgentSideConnection) ExtensionMethod(ctx context.Context, method string, params RawJSON) (RawJSON, error) {
	raw, rpcErr, err := a.conn.sendRequest(ctx, MethodExtensionMethod, ExtensionMethodParams{Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if rpcErr != nil {
		return nil, rpcErr
	}
	return raw, nil
}

// ExtensionNotification sends a caller-defined "_notification" to the client.
func (a *AgentSideConnection) ExtensionNotification(method string, params RawJSON) error {
	return a.conn.sendNotification(MethodExtensionNotification, ExtensionNotificationParams{Method: method, Params: params})
}
