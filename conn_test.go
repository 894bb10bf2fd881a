package acp

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeAgent is a minimal Agent used to exercise AgentSideConnection end to
// end without any subprocess or I/O beyond an in-memory pipe.
type fakeAgent struct {
	mu      sync.Mutex
	updates []SessionUpdateParams
	conn    *AgentSideConnection
}

func (a *fakeAgent) Initialize(ctx context.Context, params InitializeParams) (InitializeResult, error) {
	return InitializeResult{ProtocolVersion: ProtocolVersion, AgentCapabilities: AgentCapabilities{LoadSession: true}}, nil
}

func (a *fakeAgent) Authenticate(ctx context.Context, params AuthenticateParams) error { return nil }

func (a *fakeAgent) NewSession(ctx context.Context, params SessionNewParams) (SessionNewResult, error) {
	return SessionNewResult{SessionID: "sess-1"}, nil
}

func (a *fakeAgent) LoadSession(ctx context.Context, params SessionLoadParams) (SessionLoadResult, error) {
	return SessionLoadResult{}, nil
}

func (a *fakeAgent) Prompt(ctx context.Context, params SessionPromptParams) (SessionPromptResult, error) {
	update := SessionUpdateParams{
		SessionID: params.SessionID,
		Update:    SessionUpdate{Kind: UpdateAgentMessageChunk, Chunk: &ContentBlock{Type: ContentTypeText, Text: "hi"}},
	}
	a.mu.Lock()
	a.updates = append(a.updates, update)
	a.mu.Unlock()
	_ = a.conn.SessionUpdate(update)
	return SessionPromptResult{StopReason: StopReasonEndTurn}, nil
}

func (a *fakeAgent) SetMode(ctx context.Context, params SessionSetModeParams) error { return nil }

func (a *fakeAgent) Cancel(ctx context.Context, params SessionCancelParams) {}

// fakeClient is a minimal Client used to exercise ClientSideConnection.
type fakeClient struct {
	mu      sync.Mutex
	updates []SessionUpdateParams
}

func (c *fakeClient) RequestPermission(ctx context.Context, params RequestPermissionParams) (RequestPermissionResult, error) {
	return RequestPermissionResult{Outcome: PermissionOutcome{Outcome: "selected", OptionID: params.Options[0].OptionID}}, nil
}

func (c *fakeClient) ReadTextFile(ctx context.Context, params FSReadTextFileParams) (FSReadTextFileResult, error) {
	return FSReadTextFileResult{Content: "file contents"}, nil
}

func (c *fakeClient) WriteTextFile(ctx context.Context, params FSWriteTextFileParams) error { return nil }

func (c *fakeClient) SessionUpdate(ctx context.Context, params SessionUpdateParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, params)
}

func (c *fakeClient) CreateTerminal(ctx context.Context, params TerminalCreateParams) (TerminalCreateResult, error) {
	return TerminalCreateResult{TerminalID: "term-1"}, nil
}

func (c *fakeClient) TerminalOutput(ctx context.Context, params TerminalOutputParams) (TerminalOutputResult, error) {
	return TerminalOutputResult{}, nil
}

func (c *fakeClient) WaitForTerminalExit(ctx context.Context, params TerminalWaitParams) (TerminalWaitResult, error) {
	return TerminalWaitResult{}, nil
}

func (c *fakeClient) KillTerminal(ctx context.Context, params TerminalKillParams) error { return nil }

func (c *fakeClient) ReleaseTerminal(ctx context.Context, params TerminalReleaseParams) error { return nil }

// pairedConnections wires an AgentSideConnection and a ClientSideConnection
// together over two in-memory pipes, as if one process spoke both roles —
// the same topology a stdio subprocess pair uses, minus the subprocess.
func pairedConnections(t *testing.T, agent Agent, client Client) (*AgentSideConnection, *ClientSideConnection) {
	t.Helper()
	clientToAgentR, clientToAgentW := io.Pipe()
	agentToClientR, agentToClientW := io.Pipe()

	ac := NewAgentSideConnection(agent, agentToClientW, clientToAgentR, WithSpawn(func(f func()) { go f() }))
	cc := NewClientSideConnection(client, clientToAgentW, agentToClientR, WithSpawn(func(f func()) { go f() }))

	go ac.Run()
	go cc.Run()

	t.Cleanup(func() {
		clientToAgentW.Close()
		agentToClientW.Close()
	})

	return ac, cc
}

func TestInitializeRoundTrip(t *testing.T) {
	agent := &fakeAgent{}
	ac, cc := pairedConnections(t, agent, &fakeClient{})
	agent.conn = ac

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := cc.Initialize(ctx, InitializeParams{ProtocolVersion: ProtocolVersion})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.ProtocolVersion != ProtocolVersion {
		t.Errorf("ProtocolVersion = %q, want %q", result.ProtocolVersion, ProtocolVersion)
	}
	if !result.AgentCapabilities.LoadSession {
		t.Errorf("expected LoadSession capability to be true")
	}
}

func TestPromptReturnsEndTurnAndDeliversSessionUpdate(t *testing.T) {
	agent := &fakeAgent{}
	client := &fakeClient{}
	ac, cc := pairedConnections(t, agent, client)
	agent.conn = ac

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	session, err := cc.NewSession(ctx, SessionNewParams{CWD: "/tmp"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	result, err := cc.Prompt(ctx, SessionPromptParams{SessionID: session.SessionID, Prompt: []ContentBlock{TextBlock("hello")}})
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if result.StopReason != StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", result.StopReason)
	}

	deadline := time.After(2 * time.Second)
	for {
		client.mu.Lock()
		n := len(client.updates)
		client.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for session/update to arrive")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	agent := &fakeAgent{}
	ac, cc := pairedConnections(t, agent, &fakeClient{})
	agent.conn = ac

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, rpcErr, err := cc.conn.sendRequest(ctx, "totally/unknown", struct{}{})
	if err != nil {
		t.Fatalf("transport error: %v", err)
	}
	if rpcErr == nil || rpcErr.Code != ErrCodeMethodNotFound {
		t.Fatalf("rpcErr = %+v, want code %d", rpcErr, ErrCodeMethodNotFound)
	}
}

func TestRequestPermissionRoundTrip(t *testing.T) {
	agent := &fakeAgent{}
	ac, _ := pairedConnections(t, agent, &fakeClient{})
	agent.conn = ac

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := ac.RequestPermission(ctx, RequestPermissionParams{
		SessionID: "sess-1",
		ToolCall:  NewToolCall("t1", "delete file"),
		Options:   []PermissionOption{{OptionID: "allow", Name: "Allow", Kind: PermissionKindAllowOnce}},
	})
	if err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if result.Outcome.OptionID != "allow" {
		t.Errorf("OptionID = %q, want allow", result.Outcome.OptionID)
	}
}
