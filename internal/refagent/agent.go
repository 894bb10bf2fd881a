// Package refagent provides a reference acp.Agent implementation: a simple
// echo-style agent that demonstrates the full session lifecycle (session
// creation, prompt turns emitting text/tool-call updates, mode switching,
// cancellation) against this module's sessionstore and mcpbridge packages.
package refagent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"acp"
	"acp/internal/mcpbridge"
	"acp/internal/sessionstore"

	"github.com/google/uuid"
)

// sessionState tracks the per-session bookkeeping the agent needs: whether
// a prompt is currently running (the "one outstanding prompt per session"
// rule) and the MCP servers bridged for that session.
type sessionState struct {
	cwd     string
	bridge  *mcpbridge.Bridge
	mode    string
	running bool
	cancel  context.CancelFunc
}

// Agent is a reference acp.Agent. It persists conversation and tool-call
// history to a sessionstore.Store, bridges any MCP servers declared at
// session/new or session/load, and calls back into conn to deliver
// session/update notifications. conn must be set (via SetConnection) before
// Prompt is invoked.
type Agent struct {
	store *sessionstore.Store
	conn  *acp.AgentSideConnection

	mu       sync.Mutex
	sessions map[acp.SessionID]*sessionState
}

// New creates an Agent backed by store. Call SetConnection once the
// surrounding acp.AgentSideConnection exists, before traffic starts flowing.
func New(store *sessionstore.Store) *Agent {
	return &Agent{store: store, sessions: make(map[acp.SessionID]*sessionState)}
}

// SetConnection wires the connection the agent uses to push session/update
// notifications. The agent makes no fs, terminal or permission calls on it.
func (a *Agent) SetConnection(conn *acp.AgentSideConnection) { a.conn = conn }

const defaultMode = "default"

func (a *Agent) Initialize(ctx context.Context, params acp.InitializeParams) (acp.InitializeResult, error) {
	if params.ProtocolVersion != acp.ProtocolVersion {
		return acp.InitializeResult{}, fmt.Errorf("refagent: unsupported protocol version %q (want %q)", params.ProtocolVersion, acp.ProtocolVersion)
	}
	return acp.InitializeResult{
		ProtocolVersion: acp.ProtocolVersion,
		AgentCapabilities: acp.AgentCapabilities{
			LoadSession: true,
			PromptCapabilities: &acp.PromptCapabilities{
				Image: false,
				Audio: false,
			},
			MCP: &acp.MCPCapabilities{HTTP: true, SSE: true},
		},
	}, nil
}

func (a *Agent) Authenticate(ctx context.Context, params acp.AuthenticateParams) error {
	return fmt.Errorf("refagent: no authentication methods configured")
}

func (a *Agent) NewSession(ctx context.Context, params acp.SessionNewParams) (acp.SessionNewResult, error) {
	id := acp.SessionID(uuid.New().String())

	if _, err := a.store.Create(id, params.CWD); err != nil {
		return acp.SessionNewResult{}, fmt.Errorf("refagent: create session: %w", err)
	}

	bridge := mcpbridge.NewBridge()
	if len(params.MCPServers) > 0 {
		if err := bridge.Connect(ctx, params.MCPServers); err != nil {
			return acp.SessionNewResult{}, fmt.Errorf("refagent: %w", err)
		}
	}

	a.mu.Lock()
	a.sessions[id] = &sessionState{cwd: params.CWD, bridge: bridge, mode: defaultMode}
	a.mu.Unlock()

	return acp.SessionNewResult{
		SessionID: id,
		Modes: &acp.SessionModeState{
			CurrentModeID:  defaultMode,
			AvailableModes: []acp.SessionMode{{ID: defaultMode, Name: "Default"}},
		},
	}, nil
}

func (a *Agent) LoadSession(ctx context.Context, params acp.SessionLoadParams) (acp.SessionLoadResult, error) {
	rec, err := a.store.Get(params.SessionID)
	if err != nil {
		return acp.SessionLoadResult{}, fmt.Errorf("refagent: load session: %w", err)
	}
	if rec == nil {
		return acp.SessionLoadResult{}, fmt.Errorf("refagent: session %q not found", params.SessionID)
	}

	bridge := mcpbridge.NewBridge()
	if len(params.MCPServers) > 0 {
		if err := bridge.Connect(ctx, params.MCPServers); err != nil {
			return acp.SessionLoadResult{}, fmt.Errorf("refagent: %w", err)
		}
	}

	a.mu.Lock()
	a.sessions[params.SessionID] = &sessionState{cwd: params.CWD, bridge: bridge, mode: defaultMode}
	a.mu.Unlock()

	if a.conn != nil {
		for _, m := range rec.Messages {
			kind := acp.UpdateAgentMessageChunk
			if m.Role == "user" {
				kind = acp.UpdateUserMessageChunk
			}
			_ = a.conn.SessionUpdate(acp.SessionUpdateParams{
				SessionID: params.SessionID,
				Update:    acp.SessionUpdate{Kind: kind, Chunk: &acp.ContentBlock{Type: acp.ContentTypeText, Text: m.Content}},
			})
		}
	}

	return acp.SessionLoadResult{
		Modes: &acp.SessionModeState{
			CurrentModeID:  defaultMode,
			AvailableModes: []acp.SessionMode{{ID: defaultMode, Name: "Default"}},
		},
	}, nil
}

// testBlockTurn, when non-nil, is invoked by a prompt turn's background
// goroutine before it builds its reply. It exists only so tests can hold a
// turn open and race a session/cancel against it; production code leaves it
// nil.
var testBlockTurn func(ctx context.Context)

// Prompt replies to the prompt's text with a single agent_message_chunk
// update plus an emblematic "think" tool call, demonstrating both paths of
// the session/update tagged union. It enforces the "one outstanding prompt
// per session" rule (spec §9): a second call on a still-running session is
// rejected rather than interleaved.
//
// The reply, including any MCP tool call it may block on, runs in a
// goroutine so a session/cancel arriving at any point during the turn (not
// just before it starts) resolves the prompt with StopReasonCancelled in
// bounded time (§4.5, §8 scenario 6), rather than only being checked once
// before any blocking work begins.
func (a *Agent) Prompt(ctx context.Context, params acp.SessionPromptParams) (acp.SessionPromptResult, error) {
	a.mu.Lock()
	state, ok := a.sessions[params.SessionID]
	if !ok {
		a.mu.Unlock()
		return acp.SessionPromptResult{}, fmt.Errorf("refagent: unknown session %q", params.SessionID)
	}
	if state.running {
		a.mu.Unlock()
		return acp.SessionPromptResult{}, fmt.Errorf("refagent: prompt already in progress on session %s", params.SessionID)
	}
	promptCtx, cancel := context.WithCancel(ctx)
	state.running = true
	state.cancel = cancel
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		state.running = false
		state.cancel = nil
		a.mu.Unlock()
	}()

	var text string
	for _, block := range params.Prompt {
		if block.Type == acp.ContentTypeText {
			if text != "" {
				text += " "
			}
			text += block.Text
		}
	}
	_ = a.store.AddMessage(params.SessionID, sessionstore.Message{Role: "user", Content: text})

	toolCallID := acp.ToolCallID(uuid.New().String())
	tc := acp.NewToolCall(toolCallID, "thinking about the prompt")
	tc.Kind = acp.ToolKindThink
	tc.Status = acp.ToolStatusInProgress
	_ = a.store.AddToolCall(params.SessionID, sessionstore.ToolCallRecord{ID: tc.ID, Title: tc.Title, Kind: tc.Kind, Status: tc.Status})
	if a.conn != nil {
		_ = a.conn.SessionUpdate(acp.SessionUpdateParams{SessionID: params.SessionID, Update: acp.SessionUpdate{Kind: acp.UpdateToolCall, ToolCall: &tc}})
	}

	type turnResult struct {
		reply string
	}
	resultCh := make(chan turnResult, 1)

	go func() {
		if testBlockTurn != nil {
			testBlockTurn(promptCtx)
		}

		reply := "you said: " + text
		if state.bridge != nil {
			if out, ok := a.tryMCPTool(promptCtx, params.SessionID, state.bridge, text); ok {
				reply = out
			}
		}
		resultCh <- turnResult{reply: reply}
	}()

	select {
	case <-promptCtx.Done():
		completed := acp.ToolStatusFailed
		_ = a.store.UpdateToolCall(params.SessionID, toolCallID, completed, "cancelled")
		if a.conn != nil {
			status := completed
			_ = a.conn.SessionUpdate(acp.SessionUpdateParams{
				SessionID: params.SessionID,
				Update:    acp.SessionUpdate{Kind: acp.UpdateToolCallUpdate, ToolCallUpdate: &acp.ToolCallUpdate{ID: toolCallID, Status: &status}},
			})
		}
		return acp.SessionPromptResult{StopReason: acp.StopReasonCancelled}, nil

	case res := <-resultCh:
		reply := res.reply
		_ = a.store.AddMessage(params.SessionID, sessionstore.Message{Role: "agent", Content: reply})

		completed := acp.ToolStatusCompleted
		_ = a.store.UpdateToolCall(params.SessionID, toolCallID, completed, reply)

		if a.conn != nil {
			_ = a.conn.SessionUpdate(acp.SessionUpdateParams{
				SessionID: params.SessionID,
				Update:    acp.SessionUpdate{Kind: acp.UpdateToolCallUpdate, ToolCallUpdate: &acp.ToolCallUpdate{ID: toolCallID, Status: &completed}},
			})
			_ = a.conn.SessionUpdate(acp.SessionUpdateParams{
				SessionID: params.SessionID,
				Update:    acp.SessionUpdate{Kind: acp.UpdateAgentMessageChunk, Chunk: &acp.ContentBlock{Type: acp.ContentTypeText, Text: reply}},
			})
		}

		return acp.SessionPromptResult{StopReason: acp.StopReasonEndTurn}, nil
	}
}

// tryMCPTool looks for the "use tool <name>" phrasing in a prompt and, if a
// bridged MCP server exposes a tool by that name, calls it and reports the
// result as an execute-kind tool call. It returns ok=false when the prompt
// names no known tool, in which case Prompt falls back to its echo reply.
func (a *Agent) tryMCPTool(ctx context.Context, sessionID acp.SessionID, bridge *mcpbridge.Bridge, text string) (string, bool) {
	const trigger = "use tool "
	idx := strings.Index(strings.ToLower(text), trigger)
	if idx < 0 {
		return "", false
	}
	name := strings.TrimSpace(text[idx+len(trigger):])
	if name == "" {
		return "", false
	}

	tools, err := bridge.ListTools(ctx)
	if err != nil {
		return "", false
	}
	var match *mcpbridge.Tool
	for i := range tools {
		if tools[i].Name == name {
			match = &tools[i]
			break
		}
	}
	if match == nil {
		return "", false
	}

	toolCallID := acp.ToolCallID(uuid.New().String())
	tc := acp.NewToolCall(toolCallID, fmt.Sprintf("call %s via %s", match.Name, match.Server))
	tc.Kind = acp.ToolKindExecute
	tc.Status = acp.ToolStatusInProgress
	_ = a.store.AddToolCall(sessionID, sessionstore.ToolCallRecord{ID: tc.ID, Title: tc.Title, Kind: tc.Kind, Status: tc.Status})
	if a.conn != nil {
		_ = a.conn.SessionUpdate(acp.SessionUpdateParams{SessionID: sessionID, Update: acp.SessionUpdate{Kind: acp.UpdateToolCall, ToolCall: &tc}})
	}

	out, err := bridge.CallTool(ctx, match.Server, match.Name, nil)
	status := acp.ToolStatusCompleted
	if err != nil {
		status = acp.ToolStatusFailed
		out = err.Error()
	}
	_ = a.store.UpdateToolCall(sessionID, toolCallID, status, out)
	if a.conn != nil {
		_ = a.conn.SessionUpdate(acp.SessionUpdateParams{
			SessionID: sessionID,
			Update:    acp.SessionUpdate{Kind: acp.UpdateToolCallUpdate, ToolCallUpdate: &acp.ToolCallUpdate{ID: toolCallID, Status: &status}},
		})
	}

	return out, true
}

func (a *Agent) SetMode(ctx context.Context, params acp.SessionSetModeParams) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.sessions[params.SessionID]
	if !ok {
		return fmt.Errorf("refagent: unknown session %q", params.SessionID)
	}
	state.mode = params.ModeID
	return nil
}

// Cancel aborts the in-progress prompt on a session, if any.
func (a *Agent) Cancel(ctx context.Context, params acp.SessionCancelParams) {
	a.mu.Lock()
	state, ok := a.sessions[params.SessionID]
	a.mu.Unlock()
	if ok && state.cancel != nil {
		state.cancel()
	}
}

// Close releases every session's MCP bridge. Call during shutdown.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.sessions {
		if s.bridge != nil {
			_ = s.bridge.Close()
		}
	}
}
