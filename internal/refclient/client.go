// Package refclient provides a reference acp.Client implementation: the
// callbacks an ACP agent invokes to read/write files, run terminals, ask
// for permission, and stream session updates, wired to this module's
// fsprovider, termprovider, and sessionstore packages. It has no UI of its
// own; callers subscribe to Events to drive one.
package refclient

import (
	"context"
	"fmt"
	"sync"

	"acp"
	"acp/internal/fsprovider"
	"acp/internal/sessionstore"
	"acp/internal/termprovider"
)

// EventKind discriminates the events a Client emits.
type EventKind string

const (
	EventAgentMessage EventKind = "agent:message"
	EventToolCall     EventKind = "agent:toolcall"
	EventPlan         EventKind = "agent:plan"
	EventPermission   EventKind = "agent:permission"
)

// Event is a single UI-facing notification emitted by a Client. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind       EventKind
	SessionID  acp.SessionID
	Text       string
	ToolCallID acp.ToolCallID
	Title      string
	ToolKind   string
	Status     string
	IsUpdate   bool
	Plan       []acp.PlanEntry
	Permission *PermissionRequest
}

// PermissionRequest describes a pending requestPermission call; the UI
// resolves it by calling Client.RespondPermission with one of Options'
// OptionIDs (or an empty string to treat it as cancelled).
type PermissionRequest struct {
	SessionID acp.SessionID
	ToolCall  acp.ToolCall
	Options   []acp.PermissionOption
}

// Client is a reference implementation of acp.Client. It records
// conversation and tool-call history in a sessionstore.Store, serves file
// and terminal operations via fsprovider/termprovider, and surfaces
// everything else through an Events callback.
type Client struct {
	fs    *fsprovider.Provider
	term  *termprovider.Provider
	store *sessionstore.Store

	onEvent func(Event)

	pendingMu sync.Mutex
	pending   map[acp.SessionID]chan string

	// toolCalls tracks the full ToolCall state per session/id so
	// tool_call_update notifications can be run through acp.ApplyUpdate
	// (rejecting illegal backward transitions) instead of being persisted
	// from their raw, unvalidated fields.
	toolCallsMu sync.Mutex
	toolCalls   map[acp.SessionID]map[acp.ToolCallID]*acp.ToolCall

	autoApprove bool
}

// New creates a Client backed by the given providers and store. onEvent may
// be nil, in which case events are simply dropped.
func New(fs *fsprovider.Provider, term *termprovider.Provider, store *sessionstore.Store, onEvent func(Event), autoApprove bool) *Client {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	return &Client{
		fs:          fs,
		term:        term,
		store:       store,
		onEvent:     onEvent,
		pending:     make(map[acp.SessionID]chan string),
		toolCalls:   make(map[acp.SessionID]map[acp.ToolCallID]*acp.ToolCall),
		autoApprove: autoApprove,
	}
}

// RespondPermission delivers the user's decision for a pending permission
// request on the given session. Called by the UI in response to an
// EventPermission event.
func (c *Client) RespondPermission(sessionID acp.SessionID, optionID string) {
	c.pendingMu.Lock()
	ch, ok := c.pending[sessionID]
	c.pendingMu.Unlock()
	if ok {
		ch <- optionID
	}
}

// RequestPermission blocks until the UI responds via RespondPermission, or
// resolves immediately if autoApprove is set and an "allow" option exists.
func (c *Client) RequestPermission(ctx context.Context, params acp.RequestPermissionParams) (acp.RequestPermissionResult, error) {
	if c.autoApprove {
		for _, opt := range params.Options {
			if opt.Kind == acp.PermissionKindAllowOnce || opt.Kind == acp.PermissionKindAllowAlways {
				return acp.RequestPermissionResult{
					Outcome: acp.PermissionOutcome{Outcome: "selected", OptionID: opt.OptionID},
				}, nil
			}
		}
	}

	ch := make(chan string, 1)
	c.pendingMu.Lock()
	c.pending[params.SessionID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, params.SessionID)
		c.pendingMu.Unlock()
	}()

	c.onEvent(Event{
		Kind:      EventPermission,
		SessionID: params.SessionID,
		Permission: &PermissionRequest{
			SessionID: params.SessionID,
			ToolCall:  params.ToolCall,
			Options:   params.Options,
		},
	})

	select {
	case optionID, ok := <-ch:
		if !ok || optionID == "" {
			return acp.RequestPermissionResult{Outcome: acp.PermissionOutcome{Outcome: "cancelled"}}, nil
		}
		return acp.RequestPermissionResult{Outcome: acp.PermissionOutcome{Outcome: "selected", OptionID: acp.PermissionOptionID(optionID)}}, nil
	case <-ctx.Done():
		return acp.RequestPermissionResult{Outcome: acp.PermissionOutcome{Outcome: "cancelled"}}, ctx.Err()
	}
}

func (c *Client) ReadTextFile(ctx context.Context, params acp.FSReadTextFileParams) (acp.FSReadTextFileResult, error) {
	return c.fs.HandleReadTextFile(params)
}

func (c *Client) WriteTextFile(ctx context.Context, params acp.FSWriteTextFileParams) error {
	return c.fs.HandleWriteTextFile(params)
}

func (c *Client) CreateTerminal(ctx context.Context, params acp.TerminalCreateParams) (acp.TerminalCreateResult, error) {
	return c.term.HandleCreate(params)
}

func (c *Client) TerminalOutput(ctx context.Context, params acp.TerminalOutputParams) (acp.TerminalOutputResult, error) {
	return c.term.HandleOutput(params)
}

func (c *Client) WaitForTerminalExit(ctx context.Context, params acp.TerminalWaitParams) (acp.TerminalWaitResult, error) {
	return c.term.HandleWaitForExit(params)
}

func (c *Client) KillTerminal(ctx context.Context, params acp.TerminalKillParams) error {
	return c.term.HandleKill(params)
}

func (c *Client) ReleaseTerminal(ctx context.Context, params acp.TerminalReleaseParams) error {
	return c.term.HandleRelease(params)
}

// SessionUpdate records message chunks and tool calls in the session store
// and emits a UI event for agent message chunks, tool calls, tool-call
// updates and plans. User and thought chunks are stored without an event;
// plans are not stored.
func (c *Client) SessionUpdate(ctx context.Context, params acp.SessionUpdateParams) {
	update := params.Update
	sid := params.SessionID

	switch update.Kind {
	case acp.UpdateUserMessageChunk, acp.UpdateAgentMessageChunk, acp.UpdateAgentThoughtChunk:
		if update.Chunk != nil {
			role := "agent"
			if update.Kind == acp.UpdateUserMessageChunk {
				role = "user"
			}
			text := update.Chunk.Text
			_ = c.store.AddMessage(sid, sessionstore.Message{Role: role, Content: text})
			if update.Kind == acp.UpdateAgentMessageChunk {
				c.onEvent(Event{Kind: EventAgentMessage, SessionID: sid, Text: text})
			}
		}

	case acp.UpdateToolCall:
		if update.ToolCall != nil {
			tc := *update.ToolCall
			c.trackToolCall(sid, &tc)
			_ = c.store.AddToolCall(sid, sessionstore.ToolCallRecord{ID: tc.ID, Title: tc.Title, Kind: tc.Kind, Status: tc.Status})
			c.onEvent(Event{Kind: EventToolCall, SessionID: sid, ToolCallID: tc.ID, Title: tc.Title, ToolKind: tc.Kind, Status: tc.Status})
		}

	case acp.UpdateToolCallUpdate:
		if update.ToolCallUpdate != nil {
			tc, err := c.applyToolCallUpdate(sid, update.ToolCallUpdate)
			if err != nil {
				// An illegal transition or an update referencing an unknown
				// id without a title is a protocol violation; drop it
				// rather than persist unvalidated state.
				return
			}
			_ = c.store.UpdateToolCall(sid, tc.ID, tc.Status, "")
			c.onEvent(Event{Kind: EventToolCall, SessionID: sid, ToolCallID: tc.ID, Title: tc.Title, ToolKind: tc.Kind, Status: tc.Status, IsUpdate: true})
		}

	case acp.UpdatePlan:
		if update.Plan != nil {
			c.onEvent(Event{Kind: EventPlan, SessionID: sid, Plan: update.Plan.Entries})
		}
	}
}

// trackToolCall records the full tool call announced by a tool_call update
// so a later tool_call_update for the same id can be run through
// acp.ApplyUpdate.
func (c *Client) trackToolCall(sid acp.SessionID, tc *acp.ToolCall) {
	c.toolCallsMu.Lock()
	defer c.toolCallsMu.Unlock()
	calls, ok := c.toolCalls[sid]
	if !ok {
		calls = make(map[acp.ToolCallID]*acp.ToolCall)
		c.toolCalls[sid] = calls
	}
	calls[tc.ID] = tc
}

// applyToolCallUpdate folds a tool_call_update into its tracked ToolCall via
// acp.ApplyUpdate, promoting it via acp.ToolCallUpdate.Promote when the id is
// unseen and the update carries a title, per §4.5. It returns an error (and
// touches no state) for an illegal transition or an unpromotable update to an
// unknown id.
func (c *Client) applyToolCallUpdate(sid acp.SessionID, tcu *acp.ToolCallUpdate) (*acp.ToolCall, error) {
	c.toolCallsMu.Lock()
	defer c.toolCallsMu.Unlock()

	calls, ok := c.toolCalls[sid]
	if !ok {
		calls = make(map[acp.ToolCallID]*acp.ToolCall)
		c.toolCalls[sid] = calls
	}

	tc, ok := calls[tcu.ID]
	if !ok {
		if !tcu.IsPromotable() {
			return nil, fmt.Errorf("refclient: tool_call_update for unknown id %q missing required title", tcu.ID)
		}
		promoted := tcu.Promote()
		calls[tcu.ID] = &promoted
		return &promoted, nil
	}

	if err := acp.ApplyUpdate(tc, tcu); err != nil {
		return nil, err
	}
	return tc, nil
}
