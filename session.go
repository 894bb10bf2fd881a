package acp

import (
	"encoding/json"
	"fmt"
)

// SessionUpdate kind discriminators (the wire's "sessionUpdate" tag).
const (
	UpdateUserMessageChunk  = "user_message_chunk"
	UpdateAgentMessageChunk = "agent_message_chunk"
	UpdateAgentThoughtChunk = "agent_thought_chunk"
	UpdateToolCall          = "tool_call"
	UpdateToolCallUpdate    = "tool_call_update"
	UpdatePlan              = "plan"
)

// SessionUpdate is a tagged union of the six notification payloads an agent
// may send as session/update (§4.2). Exactly one of the typed fields is
// populated, selected by Kind.
//
// The wire overloads the "content" field: a single ContentBlock for the
// three chunk kinds below, versus nothing at all for tool_call/plan (which
// instead use their own top-level fields). We resolve this with distinct Go
// fields and a custom (un)marshaler, the same trick the teacher's
// SessionUpdate/sessionUpdateJSON pair uses.
type SessionUpdate struct {
	Kind string

	// Chunk is populated for user_message_chunk / agent_message_chunk /
	// agent_thought_chunk.
	Chunk *ContentBlock

	// ToolCall is populated for a full tool_call announcement.
	ToolCall *ToolCall

	// ToolCallUpdate is populated for tool_call_update.
	ToolCallUpdate *ToolCallUpdate

	// Plan is populated for a plan update.
	Plan *Plan
}

// sessionUpdateWire is the raw JSON shape used for custom marshaling. Each
// kind only ever populates one of the embedded groups.
type sessionUpdateWire struct {
	SessionUpdate string `json:"sessionUpdate"`

	// chunk kinds
	Content *ContentBlock `json:"content,omitempty"`

	// tool_call / tool_call_update
	ToolCallID ToolCallID         `json:"toolCallId,omitempty"`
	Title      string             `json:"title,omitempty"`
	Kind       string             `json:"kind,omitempty"`
	Status     string             `json:"status,omitempty"`
	ToolContent []ToolCallContent `json:"toolContent,omitempty"`
	Locations   []ToolCallLocation `json:"locations,omitempty"`
	RawInput    json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput   json.RawMessage    `json:"rawOutput,omitempty"`

	// plan
	Entries []PlanEntry `json:"entries,omitempty"`
}

// MarshalJSON implements the custom marshaling described on SessionUpdate.
func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	w := sessionUpdateWire{SessionUpdate: u.Kind}

	switch u.Kind {
	case UpdateUserMessageChunk, UpdateAgentMessageChunk, UpdateAgentThoughtChunk:
		w.Content = u.Chunk

	case UpdateToolCall:
		if u.ToolCall != nil {
			tc := u.ToolCall
			w.ToolCallID = tc.ID
			w.Title = tc.Title
			w.Kind = tc.Kind
			w.Status = tc.Status
			w.ToolContent = tc.Content
			w.Locations = tc.Locations
			w.RawInput = tc.RawInput
			w.RawOutput = tc.RawOutput
		}

	case UpdateToolCallUpdate:
		if u.ToolCallUpdate != nil {
			tcu := u.ToolCallUpdate
			w.ToolCallID = tcu.ID
			if tcu.Title != nil {
				w.Title = *tcu.Title
			}
			if tcu.Kind != nil {
				w.Kind = *tcu.Kind
			}
			if tcu.Status != nil {
				w.Status = *tcu.Status
			}
			w.ToolContent = tcu.Content
			w.Locations = tcu.Locations
			w.RawInput = tcu.RawInput
			w.RawOutput = tcu.RawOutput
		}

	case UpdatePlan:
		if u.Plan != nil {
			w.Entries = u.Plan.Entries
		}
	}

	return json.Marshal(w)
}

// UnmarshalJSON implements the custom unmarshaling described on
// SessionUpdate.
func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	var w sessionUpdateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("acp: unmarshal session update: %w", err)
	}

	u.Kind = w.SessionUpdate
	switch u.Kind {
	case UpdateUserMessageChunk, UpdateAgentMessageChunk, UpdateAgentThoughtChunk:
		u.Chunk = w.Content

	case UpdateToolCall:
		u.ToolCall = &ToolCall{
			ID:        w.ToolCallID,
			Title:     w.Title,
			Kind:      w.Kind,
			Status:    w.Status,
			Content:   w.ToolContent,
			Locations: w.Locations,
			RawInput:  w.RawInput,
			RawOutput: w.RawOutput,
		}

	case UpdateToolCallUpdate:
		tcu := &ToolCallUpdate{ID: w.ToolCallID, Content: w.ToolContent, Locations: w.Locations, RawInput: w.RawInput, RawOutput: w.RawOutput}
		tcu.contentSet = w.ToolContent != nil
		tcu.locationsSet = w.Locations != nil
		if w.Title != "" {
			tcu.Title = &w.Title
		}
		if w.Kind != "" {
			tcu.Kind = &w.Kind
		}
		if w.Status != "" {
			tcu.Status = &w.Status
		}
		u.ToolCallUpdate = tcu

	case UpdatePlan:
		u.Plan = &Plan{Entries: w.Entries}

	default:
		return fmt.Errorf("acp: unknown session update kind %q", u.Kind)
	}

	return nil
}

// StopReason is the terminal state of a prompt turn (§4.2).
const (
	StopReasonEndTurn          = "end_turn"
	StopReasonMaxTokens        = "max_tokens"
	StopReasonMaxTurnRequests  = "max_turn_requests"
	StopReasonRefusal          = "refusal"
	StopReasonCancelled        = "cancelled"
)

// ---------------------------------------------------------------------------
// Agent-served method payloads (client -> agent)
// ---------------------------------------------------------------------------

// InitializeParams is the first message on a connection (§6).
type InitializeParams struct {
	ProtocolVersion    string             `json:"protocolVersion"`
	ClientCapabilities ClientCapabilities `json:"clientCapabilities"`
}

// InitializeResult is the agent's handshake response.
type InitializeResult struct {
	ProtocolVersion   string            `json:"protocolVersion"`
	AgentCapabilities AgentCapabilities `json:"agentCapabilities"`
	AuthMethods       []AuthMethod      `json:"authMethods,omitempty"`
}

// ClientCapabilities describes what the client can do on the agent's behalf.
type ClientCapabilities struct {
	FS       *FSCapabilities `json:"fs,omitempty"`
	Terminal bool            `json:"terminal,omitempty"`
}

// FSCapabilities describes which fs/* operations the client supports.
type FSCapabilities struct {
	ReadTextFile  bool `json:"readTextFile,omitempty"`
	WriteTextFile bool `json:"writeTextFile,omitempty"`
}

// AgentCapabilities describes what the agent supports.
type AgentCapabilities struct {
	LoadSession        bool                `json:"loadSession,omitempty"`
	PromptCapabilities *PromptCapabilities `json:"promptCapabilities,omitempty"`
	MCP                *MCPCapabilities    `json:"mcp,omitempty"`
}

// PromptCapabilities describes which content types the agent accepts in
// prompt turns, beyond the baseline text block.
type PromptCapabilities struct {
	Image           bool `json:"image,omitempty"`
	Audio           bool `json:"audio,omitempty"`
	EmbeddedContext bool `json:"embeddedContext,omitempty"`
}

// MCPCapabilities describes which MCP server transports the agent supports.
type MCPCapabilities struct {
	HTTP bool `json:"http,omitempty"`
	SSE  bool `json:"sse,omitempty"`
}

// AuthMethod describes an authentication method the agent can perform.
type AuthMethod struct {
	ID          AuthMethodID `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
}

// AuthenticateParams selects one of the agent's advertised AuthMethods.
type AuthenticateParams struct {
	MethodID AuthMethodID `json:"methodId"`
}

// MCPServer describes an auxiliary MCP server the agent may launch or
// connect to on the client's behalf, configured at session creation.
type MCPServer struct {
	Name    string        `json:"name"`
	Command string        `json:"command,omitempty"`
	Args    []string      `json:"args,omitempty"`
	Env     []EnvVariable `json:"env,omitempty"`
	Type    string        `json:"type,omitempty"` // "stdio" (default), "http", "sse"
	URL     string        `json:"url,omitempty"`
	Headers []HTTPHeader  `json:"headers,omitempty"`
}

// EnvVariable is a name/value pair for subprocess environment variables.
type EnvVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HTTPHeader is a name/value pair for HTTP headers.
type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionModeState describes the set of operating modes a session supports
// and which one is currently active; returned best-effort by session/new
// and session/load (§9 Open Questions).
type SessionModeState struct {
	CurrentModeID string          `json:"currentModeId"`
	AvailableModes []SessionMode  `json:"availableModes"`
}

// SessionMode is one entry in a SessionModeState's AvailableModes.
type SessionMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ModelState describes the set of models a session may use and the
// currently selected one; also best-effort per §9.
type ModelState struct {
	CurrentModelID string        `json:"currentModelId"`
	AvailableModels []ModelInfo  `json:"availableModels"`
}

// ModelInfo is one entry in a ModelState's AvailableModels.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionNewParams requests the agent create a new session.
type SessionNewParams struct {
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers,omitempty"`
}

// SessionNewResult is the agent's response to session/new.
type SessionNewResult struct {
	SessionID SessionID         `json:"sessionId"`
	Modes     *SessionModeState `json:"modes,omitempty"`
	Models    *ModelState       `json:"models,omitempty"`
}

// SessionLoadParams requests the agent reattach to a previously created
// session.
type SessionLoadParams struct {
	SessionID  SessionID   `json:"sessionId"`
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers,omitempty"`
}

// SessionLoadResult is the agent's response to session/load.
type SessionLoadResult struct {
	Modes  *SessionModeState `json:"modes,omitempty"`
	Models *ModelState       `json:"models,omitempty"`
}

// SessionPromptParams sends a user prompt to an active session.
type SessionPromptParams struct {
	SessionID SessionID      `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
}

// SessionPromptResult is returned when the agent finishes processing a
// prompt turn.
type SessionPromptResult struct {
	StopReason string `json:"stopReason"`
}

// SessionCancelParams is a notification requesting cancellation of an
// in-progress prompt (§4.5).
type SessionCancelParams struct {
	SessionID SessionID `json:"sessionId"`
}

// SessionSetModeParams requests the agent switch its operating mode.
type SessionSetModeParams struct {
	SessionID SessionID `json:"sessionId"`
	ModeID    string    `json:"modeId"`
}

// SessionUpdateParams wraps a session/update notification (client-served,
// agent -> client).
type SessionUpdateParams struct {
	SessionID SessionID     `json:"sessionId"`
	Update    SessionUpdate `json:"update"`
}

// ---------------------------------------------------------------------------
// Client-served method payloads (agent -> client)
// ---------------------------------------------------------------------------

// PermissionOptionKind enumerates the four standard option kinds.
const (
	PermissionKindAllowOnce   = "allow_once"
	PermissionKindAllowAlways = "allow_always"
	PermissionKindRejectOnce  = "reject_once"
	PermissionKindRejectAlways = "reject_always"
)

// PermissionOption is one choice presented to the user in a permission
// request.
type PermissionOption struct {
	OptionID PermissionOptionID `json:"optionId"`
	Name     string             `json:"name"`
	Kind     string             `json:"kind"`
}

// RequestPermissionParams is sent by the agent to ask the user whether a
// sensitive tool call may proceed. Per §9's Open Question, ToolCall accepts
// either a full ToolCall or a bare ToolCallUpdate on the wire; both are
// folded into the same Go field by RequestPermissionParams.UnmarshalJSON so
// callers only ever see a ToolCall.
type RequestPermissionParams struct {
	SessionID SessionID          `json:"sessionId"`
	ToolCall  ToolCall           `json:"-"`
	Options   []PermissionOption `json:"options"`
}

type requestPermissionParamsWire struct {
	SessionID SessionID          `json:"sessionId"`
	ToolCall  json.RawMessage    `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
}

// MarshalJSON always writes the canonical full-ToolCall shape.
func (p RequestPermissionParams) MarshalJSON() ([]byte, error) {
	tc, err := json.Marshal(p.ToolCall)
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestPermissionParamsWire{SessionID: p.SessionID, ToolCall: tc, Options: p.Options})
}

// UnmarshalJSON accepts either a full ToolCall or a ToolCallUpdate with a
// required Title, canonicalizing to a ToolCall either way.
func (p *RequestPermissionParams) UnmarshalJSON(data []byte) error {
	var w requestPermissionParamsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.SessionID = w.SessionID
	p.Options = w.Options

	var tc ToolCall
	if err := json.Unmarshal(w.ToolCall, &tc); err == nil && tc.Status != "" {
		p.ToolCall = tc
		return nil
	}

	var tcu ToolCallUpdate
	if err := json.Unmarshal(w.ToolCall, &tcu); err != nil {
		return fmt.Errorf("acp: request_permission: toolCall is neither a ToolCall nor a ToolCallUpdate: %w", err)
	}
	if !tcu.IsPromotable() {
		return &RPCError{Code: ErrCodeInvalidParams, Message: "request_permission: toolCall update missing required title"}
	}
	p.ToolCall = tcu.Promote()
	return nil
}

// PermissionOutcome describes the user's decision.
type PermissionOutcome struct {
	Outcome  string             `json:"outcome"` // "selected" | "cancelled"
	OptionID PermissionOptionID `json:"optionId,omitempty"`
}

// RequestPermissionResult is the client's response to a permission request.
type RequestPermissionResult struct {
	Outcome PermissionOutcome `json:"outcome"`
}

// FSReadTextFileParams requests the client read a text file on disk.
type FSReadTextFileParams struct {
	SessionID SessionID `json:"sessionId"`
	Path      string    `json:"path"`
	Line      int       `json:"line,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// FSReadTextFileResult is the client's response containing file content.
type FSReadTextFileResult struct {
	Content string `json:"content"`
}

// FSWriteTextFileParams requests the client overwrite a text file.
type FSWriteTextFileParams struct {
	SessionID SessionID `json:"sessionId"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
}
